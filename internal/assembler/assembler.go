// Package assembler merges job configuration, build identity, environment
// and build variables into the property set read by the build info
// recorder.
package assembler

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"buildinfo/internal/credentials"
	"buildinfo/internal/differ"
	"buildinfo/internal/envfilter"
	"buildinfo/internal/errdefs"
	"buildinfo/internal/identity"
	"buildinfo/internal/policy"
	"buildinfo/internal/properties"
	"buildinfo/internal/server"
)

// Request holds everything known about one build run.
type Request struct {
	Identity identity.BuildIdentity
	Server   *server.Connection
	Policy   policy.Deployment
	Deployer credentials.DeployerOverrider

	// BuildEnv is the environment the build runs with, SystemEnv the one
	// the agent process was started with.
	BuildEnv       map[string]string
	SystemEnv      map[string]string
	BuildVariables map[string]string
}

// Result is the assembled property set plus the non-fatal findings made
// while building it.
type Result struct {
	Properties *properties.Set
	Warnings   []errdefs.ResolutionWarning
}

// Assembler builds property sets. The zero value uses a PreferredResolver
// without keyring and the default conventions.
type Assembler struct {
	Resolver    credentials.Resolver
	Conventions properties.Conventions
}

// Assemble builds the property set for req. Later steps overwrite earlier
// ones on key collisions.
func (a Assembler) Assemble(req Request) (*Result, error) {
	if req.Server == nil {
		return nil, errdefs.Configurationf("no server resolved for build %q", req.Identity.Name)
	}
	if err := req.Identity.Validate(); err != nil {
		return nil, err
	}

	resolver := a.Resolver
	if resolver == nil {
		resolver = credentials.PreferredResolver{}
	}

	s := &state{
		conv: a.Conventions.WithDefaults(),
		b:    properties.NewBuilder(),
	}

	s.b.Put(properties.RecorderActivation, "true")
	s.addIdentity(req.Identity, req.BuildEnv)
	s.addServer(req.Server)
	s.addCredentials(resolver.ResolvePreferred(req.Deployer, req.Server.Server), req.Server.Server.Name)
	s.addLicenseControl(req.Policy)
	s.addRetention(req.Policy.Retention)
	s.addDeployment(req.Policy)
	if req.Policy.IncludeEnvVars {
		s.addEnvironment(req.BuildEnv, req.SystemEnv, req.BuildVariables)
	}

	set := s.b.Build()
	log.Debug().Int("properties", set.Len()).Int("warnings", len(s.warnings)).Msg("assembled build info properties")
	return &Result{Properties: set, Warnings: s.warnings}, nil
}

type state struct {
	conv     properties.Conventions
	b        *properties.Builder
	warnings []errdefs.ResolutionWarning
}

func (s *state) warn(subject, msg string) {
	w := errdefs.ResolutionWarning{Subject: subject, Message: msg}
	log.Warn().Str("subject", subject).Msg(msg)
	s.warnings = append(s.warnings, w)
}

// putDeployed stores value under key and under the deploy parameter prefix
// so it is attached to deployed artifacts too.
func (s *state) putDeployed(key, deployKey, value string) {
	s.b.Put(key, value)
	s.b.Put(s.conv.DeployParamPrefix+deployKey, value)
}

func (s *state) addIdentity(id identity.BuildIdentity, buildEnv map[string]string) {
	s.putDeployed(properties.BuildName, "build.name", id.Name)
	s.putDeployed(properties.BuildNumber, "build.number", id.Number)

	s.b.Put(properties.BuildStarted, id.Started.Format(properties.StartedFormat))
	s.putDeployed(properties.BuildTimestamp, "build.timestamp", strconv.FormatInt(id.Started.UnixMilli(), 10))

	revision := id.VCSRevision
	if isBlank(revision) {
		revision = identity.RevisionFromEnv(buildEnv)
	}
	if !isBlank(revision) {
		s.putDeployed(properties.VCSRevision, properties.VCSRevision, revision)
	}

	if !isBlank(id.URL) {
		s.b.Put(properties.BuildURL, id.URL)
	}

	if id.HasParent() {
		s.putDeployed(properties.ParentBuildName, properties.ParentBuildName, id.ParentName)
		s.putDeployed(properties.ParentBuildNumber, properties.ParentBuildNumber, id.ParentNumber)
	}

	s.b.Put(properties.Principal, id.Principal)
	s.b.Put(properties.AgentName, id.AgentName)
	s.b.Put(properties.AgentVersion, id.AgentVersion)
}

func (s *state) addServer(conn *server.Connection) {
	s.b.Put(properties.ContextURL, conn.ContextURL)
	s.b.Put(properties.Timeout, strconv.Itoa(conn.TimeoutSeconds))
	s.b.Put(properties.PublishRepoKey, conn.RepositoryKey)

	snapshots := conn.SnapshotsRepositoryKey
	if isBlank(snapshots) {
		snapshots = conn.RepositoryKey
	}
	s.b.Put(properties.PublishSnapshotsRepoKey, snapshots)
}

func (s *state) addCredentials(creds credentials.Credentials, serverName string) {
	if creds.IsBlank() {
		s.warn("credentials", "no deployer credentials configured for server "+strconv.Quote(serverName)+", publishing anonymously")
		return
	}
	s.b.Put(properties.PublishUsername, creds.Username)
	s.b.Put(properties.PublishPassword, creds.Password)
}

func (s *state) addLicenseControl(p policy.Deployment) {
	s.b.Put(properties.LicenseRunChecks, strconv.FormatBool(p.RunLicenseChecks))
	s.b.Put(properties.LicenseIncludePublishedArtifacts, strconv.FormatBool(p.IncludePublishedArtifacts))
	s.b.Put(properties.LicenseAutoDiscover, strconv.FormatBool(p.LicenseAutoDiscovery))
	if !p.RunLicenseChecks {
		return
	}
	if !isBlank(p.ViolationRecipients) {
		s.b.Put(properties.LicenseViolationRecipients, p.ViolationRecipients)
	}
	if !isBlank(p.Scopes) {
		s.b.Put(properties.LicenseScopes, p.Scopes)
	}
}

// addRetention writes the raw day count for keep-days. The recorder derives
// the cutoff date from it.
func (s *state) addRetention(r *policy.Retention) {
	if r == nil {
		return
	}
	if r.KeepLast != nil {
		s.b.Put(properties.RetentionDays, strconv.Itoa(*r.KeepLast))
	}
	if r.KeepDays != nil {
		s.b.Put(properties.RetentionMinimumDate, strconv.Itoa(*r.KeepDays))
	}
}

func (s *state) addDeployment(p policy.Deployment) {
	s.b.Put(properties.PublishArtifacts, strconv.FormatBool(p.DeployArtifacts))
	if p.Patterns != nil {
		if !isBlank(p.Patterns.IncludePatterns) {
			s.b.Put(properties.PublishIncludePatterns, p.Patterns.IncludePatterns)
		}
		if !isBlank(p.Patterns.ExcludePatterns) {
			s.b.Put(properties.PublishExcludePatterns, p.Patterns.ExcludePatterns)
		}
	}
	s.b.Put(properties.PublishBuildInfo, strconv.FormatBool(p.DeployBuildInfo))
	s.b.Put(properties.IncludeEnvVars, strconv.FormatBool(p.IncludeEnvVars))
}

// addEnvironment propagates deploy parameters and build specific variables.
// Build variables go last so explicit parameters beat the environment.
func (s *state) addEnvironment(buildEnv, systemEnv, buildVariables map[string]string) {
	deployParams := envfilter.FilterByPrefix(buildEnv, s.conv.DeployParamPrefix)
	s.b.PutAll("", deployParams)

	buildSpecific := envfilter.OnlyBuildSpecific(buildEnv, systemEnv)
	s.b.PutAll(s.conv.EnvironmentPrefix, buildSpecific)

	prefixed := envfilter.FilterByAnyPrefix(buildVariables, s.conv.DeployParamPrefix, s.conv.PropertyPrefix)
	s.b.PutAll("", prefixed)

	s.b.PutAll(s.conv.EnvironmentPrefix, differ.EntriesOnlyInLeft(buildVariables, prefixed))

	log.Debug().
		Int("deploy-params", len(deployParams)).
		Int("build-env", len(buildSpecific)).
		Int("build-vars", len(buildVariables)).
		Msg("propagated environment")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
