package utils

import (
	"maps"
	"strconv"
	"sync"
)

// Config is a thread-safe view of the process configuration. All settings are
// read once at startup (see NewConfigFromEnv) and injected into constructors;
// no package pulls credentials out of the environment lazily.
type Config struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewConfig creates a Config from the provided key-value pairs
func NewConfig(values map[string]string) *Config {
	config := &Config{
		values: make(map[string]string),
	}

	maps.Copy(config.values, values)

	return config
}

// NewConfigFromEnv creates a Config by loading the given .env files and the
// process environment (later sources take precedence)
func NewConfigFromEnv(files ...string) *Config {
	return NewConfig(LoadEnv(files...))
}

// Get retrieves a configuration value, or "" when the key is absent
func (c *Config) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key]
}

// GetWithDefault retrieves a configuration value with a fallback default
func (c *Config) GetWithDefault(key, defaultValue string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if value, exists := c.values[key]; exists && value != "" {
		return value
	}
	return defaultValue
}

// GetInt retrieves a configuration value as an integer.
// Returns 0 when the key is absent or not a number.
func (c *Config) GetInt(key string) int {
	parsed, err := strconv.Atoi(c.Get(key))
	if err != nil {
		return 0
	}
	return parsed
}

// GetIntWithDefault retrieves an integer configuration value with a fallback default
func (c *Config) GetIntWithDefault(key string, defaultValue int) int {
	if !c.Has(key) {
		return defaultValue
	}
	return c.GetInt(key)
}

// GetBool retrieves a configuration value as a boolean.
// Returns false when the key is absent or not recognizably boolean.
func (c *Config) GetBool(key string) bool {
	value := c.Get(key)

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		switch value {
		case "yes", "on", "enabled":
			return true
		default:
			return false
		}
	}
	return parsed
}

// Set modifies a configuration value
func (c *Config) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Has checks if a configuration key exists
func (c *Config) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.values[key]
	return exists
}
