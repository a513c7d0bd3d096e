// Package cli implements the buildinfo command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/99designs/keyring"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"buildinfo/internal/envfilter"
	"buildinfo/internal/errdefs"
	"buildinfo/internal/launcher"
	"buildinfo/internal/logger"
)

const rootCmdDesc = "buildinfo resolves build info properties for a CI job and hands them to the build info recorder\n"

// Runner executes one buildinfo invocation. Every field has a production
// default; tests replace them.
type Runner struct {
	Fs      afero.Fs
	Environ []string
	Stdout  io.Writer
	Stderr  io.Writer
	Now     func() time.Time
	// Keyring replaces the keyring opened from the configuration.
	Keyring keyring.Keyring
	// Exec replaces the current process with the consumer.
	Exec func(cmd launcher.Command, environ []string) error

	v   *viper.Viper
	cfg *Config
	env map[string]string
}

// Run executes the command line args against the real environment and
// returns the process exit code.
func Run(args []string, environ []string, stdout, stderr io.Writer) int {
	r := &Runner{
		Fs:      afero.NewOsFs(),
		Environ: environ,
		Stdout:  stdout,
		Stderr:  stderr,
		Now:     time.Now,
		Exec:    launcher.Exec,
	}
	return r.Run(args)
}

// Run executes args and returns the exit code.
func (r *Runner) Run(args []string) int {
	r.defaults()

	root := r.newRootCmd()
	root.SetArgs(args)
	root.SetOut(r.Stdout)
	root.SetErr(r.Stderr)

	err := root.Execute()
	if err == nil {
		return errdefs.ExitOK
	}

	code := errdefs.ExitCode(err)
	var ce *errdefs.CommandError
	if !errors.As(err, &ce) || ce.HasError() {
		fmt.Fprintln(r.Stderr, "Error:", err)
	}
	return code
}

func (r *Runner) defaults() {
	if r.Fs == nil {
		r.Fs = afero.NewOsFs()
	}
	if r.Stdout == nil {
		r.Stdout = os.Stdout
	}
	if r.Stderr == nil {
		r.Stderr = os.Stderr
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	if r.Exec == nil {
		r.Exec = launcher.Exec
	}
	r.v = viper.New()
	r.env = envfilter.ParseEnviron(r.Environ)
}

func (r *Runner) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "buildinfo",
		Short:         "buildinfo CLI",
		Long:          rootCmdDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.initConfig(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "set config file path (default $HOME/"+defaultConfigFile+")")
	root.PersistentFlags().String("log-level", "info", "set log-level: error, warn, info, debug, trace")
	root.PersistentFlags().String("log-format", "console", "set log format: console, json")
	root.PersistentFlags().String("run-id", "", "id attached to every log line (default: generated)")
	_ = r.v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))
	_ = r.v.BindPFlag("log-format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(
		r.newAssembleCmd(),
		r.newCheckCmd(),
		r.newDiffCmd(),
		r.newServersCmd(),
	)
	return root
}

func (r *Runner) initConfig(cmd *cobra.Command) error {
	r.initLogger(r.v.GetString("log-format"), r.v.GetString("log-level"))

	flagPath, _ := cmd.Flags().GetString("config")
	path, explicit := configPath(flagPath, r.env)
	cfg, err := loadConfig(r.v, r.Fs, path, explicit)
	if err != nil {
		return err
	}
	r.cfg = cfg

	// the config file may change the logger set up from flags
	r.initLogger(cfg.LogFormat, cfg.LogLevel)

	runID, _ := cmd.Flags().GetString("run-id")
	logger.WithRunID(runID)
	log.Debug().Str("command", cmd.Name()).Str("config", path).Msg("starting")
	return nil
}

func (r *Runner) initLogger(format, level string) {
	logger.LogOutputWriter = r.Stderr
	if format == "json" {
		logger.UseJSONLogging(r.Stderr)
	} else {
		logger.StandardLogger()
	}

	// environment variables always over-write custom flags
	if envLevel, ok := logger.GetEnvLogLevel(r.env); ok {
		logger.Set(envLevel)
		return
	}
	logger.Set(level)
}
