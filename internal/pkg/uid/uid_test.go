package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_IsVersion7(t *testing.T) {
	id, err := uuid.Parse(NewUUID().Generate())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestSnowflake(t *testing.T) {
	_, err := NewSnowflake(5000)
	assert.Error(t, err)

	s, err := NewSnowflake(1)
	require.NoError(t, err)

	a, b := s.Generate(), s.Generate()
	assert.Positive(t, a)
	assert.Greater(t, b, a)
}

func TestOpaque(t *testing.T) {
	g := NewOpaque()

	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, OpaqueLen)
	assert.NotEqual(t, a, b)
}
