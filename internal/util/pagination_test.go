package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	v, err := ParseIntDefault("", DefaultLimit)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, v)

	v, err = ParseIntDefault("-3", 0)
	require.NoError(t, err)
	assert.Equal(t, -3, v)

	_, err = ParseIntDefault("ten", 0)
	require.Error(t, err)
}

func TestParseID(t *testing.T) {
	t.Parallel()

	id, err := ParseID("42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	for _, bad := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := ParseID(bad)
		assert.Error(t, err, bad)
	}
}
