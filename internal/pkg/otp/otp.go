// Package otp generates the numeric one-time passcodes mailed to users during
// login. Codes never start with zero: a six digit code is drawn uniformly from
// [100000, 999999].
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/pquerna/otp"
)

// Generator produces one-time passcodes.
type Generator interface {
	Generate() (string, error)
}

// Numeric draws codes from crypto/rand.
type Numeric struct {
	digits otp.Digits
	min    int64
	span   *big.Int
}

// NewNumeric returns a generator of codes with the given number of digits.
// Anything other than six or eight digits falls back to six.
func NewNumeric(digits otp.Digits) *Numeric {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	lo := int64(1)
	for range digits.Length() - 1 {
		lo *= 10
	}

	return &Numeric{
		digits: digits,
		min:    lo,
		span:   big.NewInt(lo*10 - lo),
	}
}

func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(rand.Reader, n.span)
	if err != nil {
		return "", fmt.Errorf("otp: read random: %w", err)
	}

	return n.digits.Format(int32(n.min + v.Int64())), nil
}

// Length is the number of digits in every generated code.
func (n *Numeric) Length() int {
	return n.digits.Length()
}
