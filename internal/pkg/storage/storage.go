// Package storage reads objects from S3-compatible stores and Google Cloud
// Storage.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when the bucket or object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Storage is the read side of an object store.
type Storage interface {
	io.Closer

	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
}

type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	UpdatedAt   time.Time
}

// ReadAll fetches a whole object, refusing anything larger than limit bytes.
func ReadAll(ctx context.Context, s Storage, bucket, key string, limit int64) ([]byte, error) {
	rc, _, err := s.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errors.New("storage: object exceeds size limit")
	}
	return data, nil
}
