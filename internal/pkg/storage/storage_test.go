package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage map[string]string

func (memStorage) Close() error { return nil }

func (m memStorage) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	v, ok := m[bucket+"/"+key]
	if !ok {
		return nil, ObjectInfo{}, ErrNotFound
	}
	return io.NopCloser(strings.NewReader(v)), ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(v))}, nil
}

func (m memStorage) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	_, info, err := m.GetObject(ctx, bucket, key)
	return info, err
}

func TestReadAll(t *testing.T) {
	s := memStorage{"b/ok": "hello", "b/big": strings.Repeat("x", 11)}

	data, err := ReadAll(context.Background(), s, "b", "ok", 10)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = ReadAll(context.Background(), s, "b", "big", 10)
	require.Error(t, err)

	_, err = ReadAll(context.Background(), s, "b", "missing", 10)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewFromDriver_Unknown(t *testing.T) {
	_, err := NewFromDriver(context.Background(), "azure", FactoryOptions{})
	require.ErrorIs(t, err, ErrUnknownDriver)
}

func TestMinIOError(t *testing.T) {
	assert.NotErrorIs(t, minioError(io.EOF), ErrNotFound)
}
