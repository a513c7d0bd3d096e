// Package writer persists an assembled property set for the recorder.
package writer

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"buildinfo/internal/errdefs"
	"buildinfo/internal/properties"
)

// Pattern names the property files. The * is replaced by a random string.
const Pattern = "buildInfo*.properties"

// Writer persists a property set and returns where it was written.
type Writer interface {
	Write(set *properties.Set) (string, error)
}

// TempFileWriter writes each set to a new uniquely named file in Dir. An
// empty Dir means the OS temp directory; a nil Fs means the OS filesystem.
type TempFileWriter struct {
	Fs  afero.Fs
	Dir string
}

func (w TempFileWriter) Write(set *properties.Set) (string, error) {
	fs := w.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	f, err := afero.TempFile(fs, w.Dir, Pattern)
	if err != nil {
		return "", errdefs.NewIOError("create property file in", displayDir(w.Dir), err)
	}
	path := f.Name()

	if err := properties.Write(f, set); err != nil {
		_ = f.Close()
		discard(fs, path)
		return "", errdefs.NewIOError("write property file", path, err)
	}
	if err := f.Close(); err != nil {
		discard(fs, path)
		return "", errdefs.NewIOError("close property file", path, err)
	}

	log.Debug().Str("path", path).Int("properties", set.Len()).Msg("wrote build info properties")
	return path, nil
}

// discard removes a partially written file. The original failure is the
// one reported.
func discard(fs afero.Fs, path string) {
	if err := fs.Remove(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cannot remove partial property file")
	}
}

func displayDir(dir string) string {
	if dir == "" {
		return "temp dir"
	}
	return dir
}
