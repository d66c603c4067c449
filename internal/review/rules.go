package review

import (
	"fmt"
	"os"
)

// LoadText reads a rules or requirements document. An empty path or a
// missing file yields empty text; only unreadable files are errors.
func LoadText(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
