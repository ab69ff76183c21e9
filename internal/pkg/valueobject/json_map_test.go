package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMap_Value(t *testing.T) {
	v, err := JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	v, err = JSONMap{"ip": "10.0.0.1"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"ip":"10.0.0.1"}`, string(v.([]byte)))
}

func TestJSONMap_Scan(t *testing.T) {
	var m JSONMap

	require.NoError(t, m.Scan([]byte(`{"user_agent":"curl"}`)))
	assert.Equal(t, "curl", m.GetString("user_agent"))

	require.NoError(t, m.Scan(`{"n":1}`))
	assert.Equal(t, "", m.GetString("n"))

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)

	assert.ErrorIs(t, m.Scan(42), ErrScanValueNotBytes)
	assert.Error(t, m.Scan([]byte("not json")))
}
