package report

import (
	"fmt"
	"os"
	"strings"
)

// ReadLines returns the file contents split on newlines. Trailing empty
// entries are kept; parsers treat the first empty line as end of data.
func ReadLines(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return strings.Split(string(b), "\n"), nil
}
