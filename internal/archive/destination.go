// internal/archive/destination.go
package archive

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Cancelled is the destination value meaning the user backed out.
const Cancelled = "-"

// SanitizeName turns an instance name into something usable as a file name
// on every platform. Reserved characters and control characters become '-'.
func SanitizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`\/:*?"<>|`, r) {
			return '-'
		}
		return r
	}, name)
	cleaned = strings.Trim(cleaned, " .")
	if cleaned == "" {
		return "instance"
	}
	return cleaned
}

// DefaultDestination returns <outputDir>/<sanitized name>.zip. An empty
// outputDir means the user's home directory.
func DefaultDestination(rootName, outputDir string) (string, error) {
	if outputDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		outputDir = home
	}
	return filepath.Join(outputDir, SanitizeName(rootName)+".zip"), nil
}
