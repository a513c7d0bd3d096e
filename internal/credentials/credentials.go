// Package credentials picks the deployer credentials a build publishes with.
package credentials

import (
	"encoding/base64"
	"strings"

	"github.com/99designs/keyring"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"buildinfo/internal/server"
)

// Credentials is a username/password pair. A blank username means no
// credentials.
type Credentials struct {
	Username string
	Password string
}

// IsBlank reports whether no username is set.
func (c Credentials) IsBlank() bool {
	return strings.TrimSpace(c.Username) == ""
}

// DeployerOverrider is implemented by job configurations that may replace
// the server's default deployer.
type DeployerOverrider interface {
	IsOverridingDefaultDeployer() bool
	OverridingDeployerCredentials() Credentials
}

// Resolver selects the credentials used for a server. It never fails; a
// zero Credentials means none could be found.
type Resolver interface {
	ResolvePreferred(o DeployerOverrider, s server.Server) Credentials
}

// PreferredResolver prefers the job override over the server's deployer and
// fills a missing password from Keyring when the server allows it.
type PreferredResolver struct {
	Keyring keyring.Keyring
}

func (r PreferredResolver) ResolvePreferred(o DeployerOverrider, s server.Server) Credentials {
	creds := Credentials{Username: s.Deployer.Username, Password: s.Deployer.Password}
	if o != nil && o.IsOverridingDefaultDeployer() {
		if override := o.OverridingDeployerCredentials(); !override.IsBlank() {
			creds = override
		}
	}

	if creds.IsBlank() || creds.Password != "" || !s.Keyring || r.Keyring == nil {
		return creds
	}

	key := KeyringKey(s.Name, creds.Username)
	item, err := r.Keyring.Get(key)
	if err != nil {
		if !errors.Is(err, keyring.ErrKeyNotFound) {
			log.Warn().Err(err).Str("server", s.Name).Msg("cannot read deployer password from keyring")
		} else {
			log.Debug().Str("key", key).Msg("no deployer password in keyring")
		}
		return creds
	}
	creds.Password = string(item.Data)
	return creds
}

// KeyringKey is the keyring item key holding the password of username on
// the named server.
func KeyringKey(serverName, username string) string {
	return serverName + "/" + username
}

// KeyringOptions select and configure the keyring backend.
type KeyringOptions struct {
	ServiceName  string   `mapstructure:"service"`
	FileDir      string   `mapstructure:"file-dir"`
	FilePassword string   `mapstructure:"file-password"`
	Backends     []string `mapstructure:"backends"`
}

// DefaultKeyringService is the keyring service deployer passwords are
// stored under.
const DefaultKeyringService = "buildinfo"

// OpenKeyring opens the OS keyring. The encrypted file backend in FileDir
// is used when no native keyring is available.
func OpenKeyring(o KeyringOptions) (keyring.Keyring, error) {
	service := o.ServiceName
	if service == "" {
		service = DefaultKeyringService
	}
	var backends []keyring.BackendType
	for _, b := range o.Backends {
		if b = strings.TrimSpace(b); b != "" {
			backends = append(backends, keyring.BackendType(b))
		}
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName:     service,
		AllowedBackends: backends,
		FileDir:         o.FileDir,
		FilePasswordFunc: func(string) (string, error) {
			return o.FilePassword, nil
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot open keyring")
	}
	return ring, nil
}

// MigrateLegacy converts the deprecated flat username and scrambled
// password fields into Credentials.
func MigrateLegacy(username, scrambledPassword string) (Credentials, error) {
	if strings.TrimSpace(username) == "" {
		return Credentials{}, nil
	}
	password, err := Unscramble(scrambledPassword)
	if err != nil {
		return Credentials{}, errors.Wrapf(err, "cannot migrate password of deployer %q", username)
	}
	return Credentials{Username: username, Password: password}, nil
}

// Scramble obfuscates a password for storage in a job file. It is not
// encryption.
func Scramble(password string) string {
	return base64.StdEncoding.EncodeToString([]byte(password))
}

// Unscramble reverses Scramble.
func Unscramble(scrambled string) (string, error) {
	if scrambled == "" {
		return "", nil
	}
	b, err := base64.StdEncoding.DecodeString(scrambled)
	if err != nil {
		return "", errors.Wrap(err, "invalid scrambled password")
	}
	return string(b), nil
}
