package username

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadList reads newline-delimited candidates. Lines are trimmed, blank lines are
// dropped and duplicates keep their first position.
func ReadList(r io.Reader) ([]string, error) {
	var names []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read usernames: %w", err)
	}
	return names, nil
}

// LoadFile reads the candidate list at path
func LoadFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	names, err := ReadList(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return names, nil
}
