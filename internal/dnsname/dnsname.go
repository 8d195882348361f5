// Package dnsname normalizes domain names into the canonical form used as
// map keys throughout the resolver: lowercased, dot-separated, trailing dot.
package dnsname

import "strings"

// Normalize lowercases name and ensures it ends with a trailing dot.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return name
	}
	if !strings.HasSuffix(name, ".") {
		name += "."
	}
	return name
}
