package storage

import (
	"context"
	"errors"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSOptions struct {
	// ClientOptions carry credentials and endpoint overrides.
	ClientOptions []option.ClientOption
}

type GCS struct {
	client *gcs.Client
}

func NewGCS(ctx context.Context, opts GCSOptions) (*GCS, error) {
	client, err := gcs.NewClient(ctx, opts.ClientOptions...)
	if err != nil {
		return nil, err
	}

	return &GCS{client: client}, nil
}

func (g *GCS) Close() error { return g.client.Close() }

func (g *GCS) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	r, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, ObjectInfo{}, gcsError(err)
	}

	return r, ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        r.Attrs.Size,
		ContentType: r.Attrs.ContentType,
		UpdatedAt:   r.Attrs.LastModified,
	}, nil
}

func (g *GCS) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	attrs, err := g.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, gcsError(err)
	}

	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		UpdatedAt:   attrs.Updated,
	}, nil
}

func gcsError(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		return errors.Join(ErrNotFound, err)
	}
	return err
}
