// Package injector hands the written property file to the consumer process.
package injector

import (
	"strings"

	"github.com/cockroachdb/errors"

	"buildinfo/internal/properties"
)

// InjectEnv sets varName to value in environ. Any existing entry for
// varName is replaced. Returns a new environ slice; the input is not
// modified.
func InjectEnv(environ []string, varName, value string) ([]string, error) {
	if varName == "" || strings.Contains(varName, "=") {
		return nil, errors.Newf("invalid environment variable name %q", varName)
	}

	result := make([]string, 0, len(environ)+1)
	prefix := varName + "="
	for _, env := range environ {
		if !strings.HasPrefix(env, prefix) {
			result = append(result, env)
		}
	}

	result = append(result, prefix+value)
	return result, nil
}

// InjectPropertiesFile points the recorder at path.
func InjectPropertiesFile(environ []string, path string) ([]string, error) {
	return InjectEnv(environ, properties.PropertiesFileEnv, path)
}
