package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092 ,, b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("TODO_TEST_STR", "value")
	t.Setenv("TODO_TEST_INT", "42")
	t.Setenv("TODO_TEST_BAD_INT", "forty-two")

	assert.Equal(t, "value", EnvDefault("TODO_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("TODO_TEST_UNSET", "def"))
	assert.Equal(t, 42, EnvIntDefault("TODO_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("TODO_TEST_BAD_INT", 1))
	assert.Equal(t, 7, EnvIntDefault("TODO_TEST_UNSET", 7))
}

func TestMissing(t *testing.T) {
	t.Parallel()

	var m Missing
	m.Require("set", "A")
	require.NoError(t, m.Err())

	m.Require("", "JWT_SECRET")
	m.Require("", "CIPHER_KEY")
	err := m.Err()
	require.Error(t, err)
	assert.Equal(t, "missing required env JWT_SECRET, CIPHER_KEY", err.Error())
}
