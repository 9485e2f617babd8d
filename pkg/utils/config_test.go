package utils

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("with nil values", func(t *testing.T) {
		config := NewConfig(nil)
		require.NotNil(t, config)
		assert.Empty(t, config.Get("anything"))
	})

	t.Run("with values", func(t *testing.T) {
		values := map[string]string{
			"key1": "value1",
			"key2": "value2",
		}
		config := NewConfig(values)

		assert.Equal(t, "value1", config.Get("key1"))
		assert.Equal(t, "value2", config.Get("key2"))

		// Verify it's a copy, not a reference
		values["key1"] = "modified"
		assert.NotEqual(t, "modified", config.Get("key1"))
	})
}

func TestNewConfigFromEnv(t *testing.T) {
	tmpFile, err := os.CreateTemp(t.TempDir(), "test_env_*.env")
	require.NoError(t, err)

	_, err = tmpFile.WriteString("BLACKAI_TEST_KEY=test_value\n")
	require.NoError(t, err)
	tmpFile.Close()

	config := NewConfigFromEnv(tmpFile.Name())
	require.NotNil(t, config)
	assert.Equal(t, "test_value", config.Get("BLACKAI_TEST_KEY"))
}

func TestConfigGetWithDefault(t *testing.T) {
	config := NewConfig(map[string]string{
		"existing": "value",
		"empty":    "",
	})

	t.Run("existing key", func(t *testing.T) {
		assert.Equal(t, "value", config.GetWithDefault("existing", "fallback"))
	})

	t.Run("missing key", func(t *testing.T) {
		assert.Equal(t, "fallback", config.GetWithDefault("missing", "fallback"))
	})

	t.Run("empty value falls back", func(t *testing.T) {
		assert.Equal(t, "fallback", config.GetWithDefault("empty", "fallback"))
	})
}

func TestConfigTypedGetters(t *testing.T) {
	config := NewConfig(map[string]string{
		"port":    "8080",
		"debug":   "true",
		"enabled": "on",
		"garbage": "not-a-number",
	})

	assert.Equal(t, 8080, config.GetInt("port"))
	assert.Equal(t, 0, config.GetInt("garbage"))
	assert.Equal(t, 25, config.GetIntWithDefault("smtp_port", 25))
	assert.True(t, config.GetBool("debug"))
	assert.True(t, config.GetBool("enabled"))
	assert.False(t, config.GetBool("missing"))
}

func TestConfigSetAndHas(t *testing.T) {
	config := NewConfig(nil)
	assert.False(t, config.Has("key"))

	config.Set("key", "value")
	assert.True(t, config.Has("key"))
	assert.Equal(t, "value", config.Get("key"))
}
