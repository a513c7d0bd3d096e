// Package properties holds the flat build info property set handed to the
// recorder, its key conventions and its file format.
package properties

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Builder collects entries for a Set. Put overwrites earlier values for
// the same key.
type Builder struct {
	values map[string]string
}

func NewBuilder() *Builder {
	return &Builder{values: map[string]string{}}
}

// Put stores value under key. Blank keys are ignored.
func (b *Builder) Put(key, value string) *Builder {
	if key == "" {
		return b
	}
	b.values[key] = value
	return b
}

// PutAll stores every entry of m under prefix+key.
func (b *Builder) PutAll(prefix string, m map[string]string) *Builder {
	for k, v := range m {
		b.Put(prefix+k, v)
	}
	return b
}

// Has reports whether key has been put.
func (b *Builder) Has(key string) bool {
	_, ok := b.values[key]
	return ok
}

// Build returns an immutable snapshot of the collected entries. The
// builder may keep being used afterwards without affecting the Set.
func (b *Builder) Build() *Set {
	return newSet(b.values)
}

// Set is an immutable mapping from fully qualified key to value.
type Set struct {
	values map[string]string
	keys   []string
}

// NewSet copies m into a Set.
func NewSet(m map[string]string) *Set {
	return newSet(m)
}

func newSet(m map[string]string) *Set {
	s := &Set{
		values: make(map[string]string, len(m)),
		keys:   make([]string, 0, len(m)),
	}
	for k, v := range m {
		s.values[k] = v
		s.keys = append(s.keys, k)
	}
	sort.Strings(s.keys)
	return s
}

// Get returns the value stored under key.
func (s *Set) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *Set) Len() int {
	return len(s.keys)
}

// Keys returns all keys in sorted order.
func (s *Set) Keys() []string {
	res := make([]string, len(s.keys))
	copy(res, s.keys)
	return res
}

// Map returns a copy of the entries.
func (s *Set) Map() map[string]string {
	res := make(map[string]string, len(s.values))
	for k, v := range s.values {
		res[k] = v
	}
	return res
}

// Masked returns a copy of the entries with secret values replaced.
func (s *Set) Masked() map[string]string {
	res := s.Map()
	for k := range res {
		if IsSecret(k) {
			res[k] = Mask
		}
	}
	return res
}

// Mask replaces secret values in human facing output.
const Mask = "********"

// Fingerprint computes the SHA-256 hash of the set in canonical form.
// Returns the hash prefixed with "sha256:".
func Fingerprint(s *Set) string {
	hash := sha256.Sum256(canonicalJSON(s))
	return "sha256:" + hex.EncodeToString(hash[:])
}

// canonicalJSON produces JSON for the set with sorted keys and no whitespace.
func canonicalJSON(s *Set) []byte {
	if s == nil || s.Len() == 0 {
		return []byte("{}")
	}

	result := []byte("{")
	for i, k := range s.keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyJSON, _ := json.Marshal(k)
		valueJSON, _ := json.Marshal(s.values[k])
		result = append(result, keyJSON...)
		result = append(result, ':')
		result = append(result, valueJSON...)
	}
	result = append(result, '}')
	return result
}
