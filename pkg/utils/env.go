package utils

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from the given .env files into the
// process environment, then returns a snapshot of all environment variables.
// Later files take precedence over earlier ones; files that do not exist are
// skipped silently.
func LoadEnv(files ...string) map[string]string {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			log.Printf("[UTILS]: Warning, could not load %s: %v", file, err)
		}
	}

	config := make(map[string]string)
	for _, env := range os.Environ() {
		if key, value, ok := strings.Cut(env, "="); ok && key != "" {
			config[key] = value
		}
	}

	return config
}
