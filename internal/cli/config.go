package cli

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"buildinfo/internal/credentials"
	"buildinfo/internal/errdefs"
	"buildinfo/internal/properties"
	"buildinfo/internal/server"
)

/*
	Configuration is loaded in this order:
	flags -> BUILDINFO_* env -> config file -> defaults
*/

const (
	envPrefix         = "buildinfo"
	configPathEnv     = "BUILDINFO_CONFIG"
	jobPathEnv        = "BUILDINFO_JOB"
	defaultConfigFile = ".buildinfo.yaml"
)

// Config is the tool configuration shared by all jobs on an agent.
type Config struct {
	Servers       []server.Server            `mapstructure:"servers"`
	LogLevel      string                     `mapstructure:"log-level"`
	LogFormat     string                     `mapstructure:"log-format"`
	TempDir       string                     `mapstructure:"temp-dir"`
	SystemEnvFile string                     `mapstructure:"system-env-file"`
	Conventions   properties.Conventions     `mapstructure:"conventions"`
	Keyring       credentials.KeyringOptions `mapstructure:"keyring"`
}

// Registry returns the configured servers.
func (c *Config) Registry() *server.StaticRegistry {
	return server.NewStaticRegistry(c.Servers)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "console")
	v.SetDefault("temp-dir", "")
	v.SetDefault("system-env-file", "")
	v.SetDefault("keyring.service", credentials.DefaultKeyringService)
	v.SetDefault("keyring.file-dir", "")
	v.SetDefault("keyring.file-password", "")
	v.SetDefault("keyring.backends", "")
}

// configPath picks the config file: --config, then $BUILDINFO_CONFIG, then
// $HOME/.buildinfo.yaml. explicit is false for the home default.
func configPath(flagValue string, env map[string]string) (path string, explicit bool) {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p, true
	}
	if p := strings.TrimSpace(env[configPathEnv]); p != "" {
		return p, true
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, defaultConfigFile), false
	}
	return "", false
}

// loadConfig reads the tool configuration into v. A missing default
// config file is fine, a missing explicit one is not.
func loadConfig(v *viper.Viper, fs afero.Fs, path string, explicit bool) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetFs(fs)
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if _, err := fs.Stat(path); err == nil {
			log.Debug().Str("configfile", path).Msg("load config file")
			if err := v.ReadInConfig(); err != nil {
				return nil, errdefs.WrapConfiguration(err, "could not read config file "+path)
			}
		} else if explicit {
			return nil, errdefs.Configurationf("config file %s not found", path)
		} else {
			log.Debug().Str("configfile", path).Msg("no config file, using defaults")
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, errdefs.WrapConfiguration(errors.Wrap(err, "unable to decode into config struct"), "invalid configuration")
	}
	cfg.Conventions = cfg.Conventions.WithDefaults()
	return &cfg, nil
}
