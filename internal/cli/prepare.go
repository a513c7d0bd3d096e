package cli

import (
	"os"
	"strings"
	"time"

	"github.com/99designs/keyring"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"buildinfo/internal/assembler"
	"buildinfo/internal/credentials"
	"buildinfo/internal/envfilter"
	"buildinfo/internal/errdefs"
	"buildinfo/internal/identity"
	"buildinfo/internal/jobconfig"
	"buildinfo/internal/logger"
	"buildinfo/internal/properties"
	"buildinfo/internal/server"
)

// buildFlags are the inputs of one assembly given on the command line.
type buildFlags struct {
	job             string
	buildName       string
	buildNumber     string
	buildURL        string
	started         string
	agentName       string
	agentVersion    string
	vcsRevision     string
	upstreamProject string
	upstreamBuild   string
	user            string
	vars            []string
	varsFile        string
	systemEnvFile   string
}

func (f *buildFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.job, "job", "", "job file (default $"+jobPathEnv+" or ./"+jobconfig.DefaultFileName+")")
	fl.StringVar(&f.buildName, "build-name", "", "build name (default $JOB_NAME)")
	fl.StringVar(&f.buildNumber, "build-number", "", "build number (default $BUILD_NUMBER)")
	fl.StringVar(&f.buildURL, "build-url", "", "build url (default $BUILD_URL)")
	fl.StringVar(&f.started, "started", "", "build start time in RFC3339 (default now)")
	fl.StringVar(&f.agentName, "agent-name", "", "CI agent name (default "+identity.DefaultAgentName+")")
	fl.StringVar(&f.agentVersion, "agent-version", "", "CI agent version (default $JENKINS_VERSION)")
	fl.StringVar(&f.vcsRevision, "vcs-revision", "", "VCS revision (default $SVN_REVISION or $GIT_COMMIT)")
	fl.StringVar(&f.upstreamProject, "upstream-project", "", "name of the build that triggered this one")
	fl.StringVar(&f.upstreamBuild, "upstream-build", "", "number of the build that triggered this one")
	fl.StringVar(&f.user, "user", "", "user who started the build (default $BUILD_USER)")
	fl.StringArrayVar(&f.vars, "var", nil, "build variable KEY=VALUE, may be repeated")
	fl.StringVar(&f.varsFile, "vars-file", "", "properties file with build variables")
	fl.StringVar(&f.systemEnvFile, "system-env-file", "", "snapshot of the agent environment, one KEY=VALUE per line")
}

// prepared is everything needed to run the assembler.
type prepared struct {
	assembler assembler.Assembler
	request   assembler.Request
	warnings  []errdefs.ResolutionWarning
}

func (r *Runner) prepare(f *buildFlags) (*prepared, error) {
	job, err := jobconfig.LoadFromPath(r.Fs, r.jobPath(f.job))
	if err != nil {
		return nil, err
	}

	deployment, err := job.Policy()
	if err != nil {
		return nil, errdefs.WrapConfiguration(err, "invalid job file")
	}

	conn, err := server.Connect(r.cfg.Registry(), job.Server)
	if err != nil {
		return nil, err
	}

	overrides, err := f.identityOverrides()
	if err != nil {
		return nil, err
	}
	id := identity.Capture(r.env, overrides, r.Now())
	logger.DebugJSON(id)

	systemEnv, warnings, err := r.systemEnv(f.systemEnvFile)
	if err != nil {
		return nil, err
	}

	vars, err := r.buildVariables(f)
	if err != nil {
		return nil, err
	}

	return &prepared{
		assembler: assembler.Assembler{
			Resolver:    credentials.PreferredResolver{Keyring: r.keyring(conn.Server)},
			Conventions: r.cfg.Conventions,
		},
		request: assembler.Request{
			Identity:       id,
			Server:         conn,
			Policy:         deployment,
			Deployer:       job,
			BuildEnv:       r.env,
			SystemEnv:      systemEnv,
			BuildVariables: vars,
		},
		warnings: warnings,
	}, nil
}

func (p *prepared) assemble() (*assembler.Result, error) {
	res, err := p.assembler.Assemble(p.request)
	if err != nil {
		return nil, err
	}
	res.Warnings = append(p.warnings, res.Warnings...)
	return res, nil
}

func (r *Runner) jobPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	if p := strings.TrimSpace(r.env[jobPathEnv]); p != "" {
		return p
	}
	return jobconfig.DefaultFileName
}

func (f *buildFlags) identityOverrides() (identity.Overrides, error) {
	o := identity.Overrides{
		Name:            f.buildName,
		Number:          f.buildNumber,
		URL:             f.buildURL,
		AgentName:       f.agentName,
		AgentVersion:    f.agentVersion,
		VCSRevision:     f.vcsRevision,
		UpstreamProject: f.upstreamProject,
		UpstreamBuild:   f.upstreamBuild,
		User:            f.user,
	}
	if f.started != "" {
		t, err := time.Parse(time.RFC3339, f.started)
		if err != nil {
			return o, errdefs.WrapConfiguration(err, "invalid --started")
		}
		o.Started = t
	}
	return o, nil
}

// systemEnv loads the agent environment snapshot. Without one nothing is
// known to be build specific, so the whole build environment counts as
// system environment and no variable is exported under the environment
// prefix.
func (r *Runner) systemEnv(flagValue string) (map[string]string, []errdefs.ResolutionWarning, error) {
	path := flagValue
	if path == "" {
		path = r.cfg.SystemEnvFile
	}
	if path == "" {
		w := errdefs.ResolutionWarning{
			Subject: "environment",
			Message: "no system environment snapshot configured, build environment variables are not exported",
		}
		log.Warn().Str("subject", w.Subject).Msg(w.Message)
		return envfilter.Merge(r.env), []errdefs.ResolutionWarning{w}, nil
	}
	env, err := envfilter.LoadFile(r.Fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, errdefs.WrapConfiguration(err, "system environment snapshot not found")
		}
		return nil, nil, errdefs.NewIOError("read system environment snapshot", path, err)
	}
	return env, nil, nil
}

// buildVariables merges --vars-file and --var. Values given with --var win.
func (r *Runner) buildVariables(f *buildFlags) (map[string]string, error) {
	var fromFile map[string]string
	if f.varsFile != "" {
		data, err := afero.ReadFile(r.Fs, f.varsFile)
		if err != nil {
			return nil, errdefs.NewIOError("read build variables", f.varsFile, err)
		}
		set, err := properties.Parse(data)
		if err != nil {
			return nil, errdefs.WrapConfiguration(err, "invalid build variables file "+f.varsFile)
		}
		fromFile = set.Map()
	}

	fromFlags := map[string]string{}
	for _, kv := range f.vars {
		idx := strings.Index(kv, "=")
		if idx <= 0 {
			return nil, errdefs.Configurationf("invalid --var %q, expected KEY=VALUE", kv)
		}
		fromFlags[kv[:idx]] = kv[idx+1:]
	}

	return envfilter.Merge(fromFile, fromFlags), nil
}

// keyring returns the keyring used for s, opening it only when s asks for
// it. Failures to open it only disable the lookup.
func (r *Runner) keyring(s server.Server) keyring.Keyring {
	if !s.Keyring {
		return nil
	}
	if r.Keyring != nil {
		return r.Keyring
	}
	ring, err := credentials.OpenKeyring(r.cfg.Keyring)
	if err != nil {
		log.Warn().Err(err).Str("server", s.Name).Msg("keyring unavailable, deployer password lookup disabled")
		return nil
	}
	return ring
}
