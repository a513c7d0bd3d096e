package jobconfig

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildinfo/internal/credentials"
	"buildinfo/internal/errdefs"
	"buildinfo/internal/policy"
	"buildinfo/internal/server"
)

const fullJob = `
server:
  name: art
  repository: libs-release
  snapshots-repository: libs-snapshot
deploy-artifacts: true
deploy-build-info: true
include-env-vars: true
include-patterns: "**/*.jar"
exclude-patterns: "**/*-sources.jar"
license:
  run-checks: true
  include-published-artifacts: true
  disable-auto-discovery: true
  violation-recipients: qa@example.com
  scopes: compile runtime
retention:
  keep-last: 10
deployer:
  override: true
  username: job-deployer
  password: job-pw
`

func TestParse(t *testing.T) {
	job, err := Parse([]byte(fullJob))
	require.NoError(t, err)

	assert.Equal(t, server.Details{ServerName: "art", RepositoryKey: "libs-release", SnapshotsRepositoryKey: "libs-snapshot"}, job.Server)
	assert.True(t, job.IsOverridingDefaultDeployer())
	assert.Equal(t, credentials.Credentials{Username: "job-deployer", Password: "job-pw"}, job.OverridingDeployerCredentials())

	p, err := job.Policy()
	require.NoError(t, err)
	assert.True(t, p.DeployArtifacts)
	assert.True(t, p.DeployBuildInfo)
	assert.True(t, p.IncludeEnvVars)
	assert.True(t, p.RunLicenseChecks)
	assert.True(t, p.IncludePublishedArtifacts)
	assert.False(t, p.LicenseAutoDiscovery)
	assert.Equal(t, "qa@example.com", p.ViolationRecipients)
	assert.Equal(t, "compile runtime", p.Scopes)
	require.NotNil(t, p.Patterns)
	assert.True(t, p.Patterns.Match("libs/app.jar"))
	require.NotNil(t, p.Retention)
	require.NotNil(t, p.Retention.KeepLast)
	assert.Equal(t, 10, *p.Retention.KeepLast)
	assert.Nil(t, p.Retention.KeepDays)
}

func TestParse_LegacyCredentials(t *testing.T) {
	content := `
server: {name: art, repository: libs-release}
username: legacy
scrambled-password: ` + credentials.Scramble("old-pw") + `
`
	job, err := Parse([]byte(content))
	require.NoError(t, err)
	assert.True(t, job.IsOverridingDefaultDeployer())
	assert.Equal(t, credentials.Credentials{Username: "legacy", Password: "old-pw"}, job.OverridingDeployerCredentials())

	out, err := job.ToYAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "scrambled-password")

	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, job, again)
}

func TestParse_LegacyDoesNotReplaceDeployer(t *testing.T) {
	content := `
server: {name: art, repository: libs-release}
deployer: {override: true, username: current}
username: legacy
`
	job, err := Parse([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, "current", job.OverridingDeployerCredentials().Username)
}

func TestParse_CollectsAllErrors(t *testing.T) {
	content := `
deployer: {override: true}
include-patterns: "[oops"
`
	_, err := Parse([]byte(content))
	require.Error(t, err)
	assert.True(t, errdefs.IsConfiguration(err))
	assert.Contains(t, err.Error(), "server: name is required")
	assert.Contains(t, err.Error(), "server: repository is required")
	assert.Contains(t, err.Error(), "deployer: override requires a username")
	assert.Contains(t, err.Error(), "invalid include pattern")
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [unterminated"))
	assert.True(t, errdefs.IsConfiguration(err))

	_, err = Parse([]byte("server: {name: art, repository: r}\nusername: u\nscrambled-password: '%%%'"))
	assert.True(t, errdefs.IsConfiguration(err))
}

func TestLoadFromPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ws/"+DefaultFileName, []byte(fullJob), 0o644))

	job, err := LoadFromPath(fs, "/ws/"+DefaultFileName)
	require.NoError(t, err)
	assert.Equal(t, "art", job.Server.ServerName)

	_, err = LoadFromPath(fs, "/ws/missing.yaml")
	assert.True(t, errdefs.IsConfiguration(err))
}

func TestJobRoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genJob := gopter.CombineGens(
		gen.Identifier(),
		gen.Identifier(),
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
		gen.AlphaString(),
		gen.IntRange(0, 365),
	).Map(func(vals []interface{}) Job {
		keep := vals[6].(int)
		return Job{
			Server: server.Details{ServerName: vals[0].(string), RepositoryKey: vals[1].(string)},
			Options: policy.Options{
				DeployArtifacts:     vals[2].(bool),
				RunLicenseChecks:    vals[3].(bool),
				IncludeEnvVars:      vals[4].(bool),
				ViolationRecipients: vals[5].(string),
				Retention:           &policy.Retention{KeepDays: &keep},
			},
		}
	})

	properties.Property("parse after ToYAML yields the same job", prop.ForAll(
		func(job Job) bool {
			out, err := job.ToYAML()
			if err != nil {
				return false
			}
			parsed, err := Parse(out)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(job, parsed)
		},
		genJob,
	))

	properties.TestingRun(t)
}
