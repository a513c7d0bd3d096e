package properties

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/magiconair/properties"
)

// Write encodes s as flat `key = value` lines in sorted key order.
// Non Latin-1 characters are written as \uXXXX escapes.
func Write(w io.Writer, s *Set) error {
	p := properties.NewProperties()
	// values are taken verbatim, ${...} has no meaning to the recorder
	p.DisableExpansion = true
	for _, k := range s.Keys() {
		v, _ := s.Get(k)
		if _, _, err := p.Set(k, v); err != nil {
			return errors.Wrapf(err, "cannot encode property %q", k)
		}
	}
	if _, err := p.Write(w, properties.ISO_8859_1); err != nil {
		return errors.Wrap(err, "cannot write properties")
	}
	return nil
}

// Encode returns the flat encoding of s.
func Encode(s *Set) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse decodes the flat format written by Write.
func Parse(data []byte) (*Set, error) {
	loader := &properties.Loader{
		Encoding:         properties.ISO_8859_1,
		DisableExpansion: true,
	}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "invalid properties")
	}
	return NewSet(p.Map()), nil
}
