package logger

import (
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogOutputWriter is where all log output goes. Stdout is reserved for
// command output.
var LogOutputWriter io.Writer = os.Stderr

const RunIDFieldKey = "run-id"

func init() {
	Set("info")
	CliNoColorLogger(LogOutputWriter)
}

// SetWriter configures a log writer for the global logger
func SetWriter(w io.Writer) {
	log.Logger = log.Output(w)
}

func UseJSONLogging(w io.Writer) {
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

func CliLogger(w io.Writer) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
}

func CliNoColorLogger(w io.Writer) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, NoColor: true})
}

// StandardLogger picks a colored console writer when stderr is a terminal,
// a plain one otherwise.
func StandardLogger() {
	if f, ok := LogOutputWriter.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		CliLogger(LogOutputWriter)
		return
	}
	CliNoColorLogger(LogOutputWriter)
}

// Set sets the global log level. Unknown levels fall back to info.
func Set(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// GetEnvLogLevel returns the level requested through DEBUG=1 or TRACE=1 in
// env.
func GetEnvLogLevel(env map[string]string) (string, bool) {
	if isTruthy(env["TRACE"]) {
		return "trace", true
	}
	if isTruthy(env["DEBUG"]) {
		return "debug", true
	}
	return "", false
}

// WithRunID tags every following log line with an id for this run. An empty
// id gets a generated one, which is returned.
func WithRunID(id string) string {
	if id == "" {
		id = uuid.New().String()
	}
	log.Logger = log.With().Str(RunIDFieldKey, id).Logger()
	return id
}

// InitTestEnv will set all log configurations for a test environment
func InitTestEnv() {
	Set("debug")
	CliNoColorLogger(os.Stderr)
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
