package envfilter

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

// LoadFile reads an environment snapshot with one KEY=VALUE entry per line,
// as produced by `env > file` when the agent starts. Blank lines and lines
// starting with '#' are ignored.
func LoadFile(fs afero.Fs, path string) (map[string]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read environment snapshot %s", path)
	}
	return ParseSnapshot(data), nil
}

// ParseSnapshot parses snapshot content. See LoadFile.
func ParseSnapshot(data []byte) map[string]string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return ParseEnviron(lines)
}
