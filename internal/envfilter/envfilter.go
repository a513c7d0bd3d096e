// Package envfilter classifies flat environment maps: by key prefix, and by
// whether a variable was added by the build or inherited from the host.
package envfilter

import (
	"strings"
)

// FilterByPrefix returns the entries whose key starts with prefix. Values are
// kept unchanged. An empty prefix matches every key.
func FilterByPrefix(m map[string]string, prefix string) map[string]string {
	result := make(map[string]string)
	for k, v := range m {
		if strings.HasPrefix(k, prefix) {
			result[k] = v
		}
	}
	return result
}

// FilterByAnyPrefix returns the entries whose key starts with at least one of
// the prefixes.
func FilterByAnyPrefix(m map[string]string, prefixes ...string) map[string]string {
	result := make(map[string]string)
	for _, prefix := range prefixes {
		for k, v := range FilterByPrefix(m, prefix) {
			result[k] = v
		}
	}
	return result
}

// OnlyBuildSpecific returns the entries of buildEnv whose key does not exist
// in systemEnv. Only keys count: a variable the build re-exports with a new
// value is still host-level.
func OnlyBuildSpecific(buildEnv, systemEnv map[string]string) map[string]string {
	result := make(map[string]string)
	for k, v := range buildEnv {
		if _, inherited := systemEnv[k]; !inherited {
			result[k] = v
		}
	}
	return result
}

// ParseEnviron converts an environ slice (["KEY=VALUE", ...]) into a map.
// Handles edge cases like empty values ("KEY=") and values containing "=" ("KEY=a=b").
func ParseEnviron(environ []string) map[string]string {
	result := make(map[string]string)
	for _, entry := range environ {
		// Split on first "=" only - values can contain "="
		idx := strings.Index(entry, "=")
		if idx <= 0 {
			// No "=" found or empty key, skip malformed entry
			continue
		}
		result[entry[:idx]] = entry[idx+1:]
	}
	return result
}

// Merge overlays the maps from left to right; later maps win on collision.
func Merge(maps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			if strings.TrimSpace(k) == "" {
				continue
			}
			result[k] = v
		}
	}
	return result
}
