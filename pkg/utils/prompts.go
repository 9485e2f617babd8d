package utils

import (
	"fmt"
	"os"
	"strings"
)

// LoadPrompt loads prompt instructions from a specific file path
func LoadPrompt(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file %s: %w", filePath, err)
	}

	return strings.TrimSpace(string(content)), nil
}

// LoadPromptWithFallback loads prompt instructions from a file path, returning
// the fallback string when the file is absent or unreadable. Used to let
// deployments override the built-in system directive and title prompt.
func LoadPromptWithFallback(filePath, fallback string) string {
	if filePath == "" {
		return fallback
	}
	if content, err := LoadPrompt(filePath); err == nil && content != "" {
		return content
	}
	return fallback
}
