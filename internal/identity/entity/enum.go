package entity

type UserStatus int16

const (
	// UserStatusUnknown is mean status is not known / not set.
	UserStatusUnknown UserStatus = 0

	// UserStatusUnverified mean the email address has not been confirmed yet.
	UserStatusUnverified UserStatus = 1

	// UserStatusActive mean user is verified and allowed to log in.
	UserStatusActive UserStatus = 2

	// UserStatusBanned mean user is blocked from logging in.
	UserStatusBanned UserStatus = 3

	// UserStatusInactive mean the account was deactivated or closed.
	UserStatusInactive UserStatus = 4
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusActive:
		return "Active"
	case UserStatusBanned:
		return "Banned"
	case UserStatusInactive:
		return "Inactive"
	case UserStatusUnverified:
		return "Unverified"
	default:
		return "Unknown"
	}
}

// Ensure folds any value outside the known set into UserStatusUnknown.
func (us UserStatus) Ensure() UserStatus {
	switch us {
	case UserStatusUnverified, UserStatusActive, UserStatusBanned, UserStatusInactive:
		return us
	default:
		return UserStatusUnknown
	}
}
