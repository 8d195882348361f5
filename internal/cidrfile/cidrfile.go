// Package cidrfile loads the plain-text CIDR list files consumed by
// internal/cidrset. One prefix per line; blank lines and lines that fail to
// parse are skipped, mirroring the teacher's line-scanning idiom in
// parser.Loader.LoadFromPath, generalized from rule text to CIDR text.
package cidrfile

import (
	"bufio"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"splithorizon/internal/apperrors"
)

// Load reads path and returns every line that parses as a valid prefix,
// trimmed of surrounding whitespace. Malformed or blank lines are skipped
// silently, per spec: the file is operator-curated, not user input.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read cidr file %q: %v", apperrors.ErrConfig, path, err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := netip.ParsePrefix(line); err != nil {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan cidr file %q: %v", apperrors.ErrConfig, path, err)
	}
	return out, nil
}
