package storage

import (
	"context"
	"errors"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOOptions struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	UseSSL       bool
}

type MinIO struct {
	client *minio.Client
}

func NewMinIO(opts MinIOOptions) (*MinIO, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	return &MinIO{client: client}, nil
}

func (*MinIO) Close() error { return nil }

func (m *MinIO) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	// minio defers the request until the first read, so stat first to
	// surface a missing object here rather than on Read.
	info, err := m.StatObject(ctx, bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, minioError(err)
	}
	return obj, info, nil
}

func (m *MinIO) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	st, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, minioError(err)
	}

	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        st.Size,
		ETag:        st.ETag,
		ContentType: st.ContentType,
		UpdatedAt:   st.LastModified,
	}, nil
}

func minioError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return errors.Join(ErrNotFound, err)
	default:
		return err
	}
}
