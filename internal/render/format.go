// internal/render/format.go
package render

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAML writes root as a YAML document.
func YAML(w io.Writer, root *Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	return enc.Close()
}

// FormatBytes formats bytes into human-readable string.
func FormatBytes(b int64) string { return formatBytes(b) }

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	val := float64(b) / float64(div)
	unitPrefix := "KMGTPE"[exp]
	if val == float64(int64(val)) {
		return fmt.Sprintf("%d %ciB", int64(val), unitPrefix)
	}
	return fmt.Sprintf("%.1f %ciB", val, unitPrefix)
}

func tern[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
