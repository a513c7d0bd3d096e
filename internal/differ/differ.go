// Package differ computes key-level differences between flat key/value maps.
package differ

import "sort"

// KeysOnlyInLeft returns the sorted keys present in a but not in b. Values are
// not compared.
func KeysOnlyInLeft(a, b map[string]string) []string {
	keys := make([]string, 0)
	for k := range a {
		if _, ok := b[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// EntriesOnlyInLeft returns the entries of a whose key is not present in b.
func EntriesOnlyInLeft(a, b map[string]string) map[string]string {
	result := make(map[string]string)
	for _, k := range KeysOnlyInLeft(a, b) {
		result[k] = a[k]
	}
	return result
}
