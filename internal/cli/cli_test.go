package cli

import (
	"bytes"
	"encoding/json"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildinfo/internal/credentials"
	"buildinfo/internal/errdefs"
	"buildinfo/internal/launcher"
	"buildinfo/internal/properties"
)

const testConfig = `
servers:
  - name: art
    url: http://art.example/repo
    timeout: 120
    deployer:
      username: deployer
      password: s3cret
  - name: vault
    url: http://vault.example
    keyring: true
    deployer:
      username: keyed
temp-dir: /tmp
system-env-file: /agent/env
`

const testJob = `
server:
  name: art
  repository: libs-release
deploy-artifacts: true
deploy-build-info: true
include-env-vars: true
`

var fingerprintPattern = regexp.MustCompile(`^sha256:[a-f0-9]{64}$`)

type harness struct {
	fs      afero.Fs
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	execs   []launcher.Command
	environ [][]string
	execErr error
	ring    keyring.Keyring
	env     []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{fs: afero.NewMemMapFs()}
	require.NoError(t, h.fs.MkdirAll("/tmp", 0o755))
	h.write(t, "/home/ci/.buildinfo.yaml", testConfig)
	h.write(t, "/ws/buildinfo.yaml", testJob)
	h.write(t, "/agent/env", "PATH=/usr/bin\nHOME=/home/ci\n")
	return h
}

func (h *harness) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(h.fs, path, []byte(content), 0o644))
}

func (h *harness) run(args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()
	r := &Runner{
		Fs: h.fs,
		Environ: append([]string{
			"HOME=/home/ci",
			"PATH=/usr/bin",
			"JOB_NAME=my-job",
			"BUILD_NUMBER=42",
			"WORKSPACE=/ws",
			"BUILDINFO_JOB=/ws/buildinfo.yaml",
		}, h.env...),
		Stdout:  &h.stdout,
		Stderr:  &h.stderr,
		Now:     func() time.Time { return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC) },
		Keyring: h.ring,
		Exec: func(cmd launcher.Command, environ []string) error {
			h.execs = append(h.execs, cmd)
			h.environ = append(h.environ, environ)
			return h.execErr
		},
	}
	return r.Run(args)
}

func (h *harness) writtenProperties(t *testing.T) *properties.Set {
	t.Helper()
	line := strings.TrimSpace(h.stdout.String())
	prefix := properties.PropertiesFileEnv + "="
	require.True(t, strings.HasPrefix(line, prefix), "stdout: %q", line)
	data, err := afero.ReadFile(h.fs, strings.TrimPrefix(line, prefix))
	require.NoError(t, err)
	set, err := properties.Parse(data)
	require.NoError(t, err)
	return set
}

func value(t *testing.T, s *properties.Set, key string) string {
	t.Helper()
	v, ok := s.Get(key)
	require.True(t, ok, "missing key %s", key)
	return v
}

func TestAssemble_PrintsPropertiesFile(t *testing.T) {
	h := newHarness(t)
	code := h.run("assemble", "--var", "release=yes", "--var", "artifactory.deploy.qa=1")
	require.Equal(t, errdefs.ExitOK, code, h.stderr.String())

	set := h.writtenProperties(t)
	assert.Equal(t, "my-job", value(t, set, properties.BuildName))
	assert.Equal(t, "42", value(t, set, properties.BuildNumber))
	assert.Equal(t, "http://art.example/repo", value(t, set, properties.ContextURL))
	assert.Equal(t, "120", value(t, set, properties.Timeout))
	assert.Equal(t, "deployer", value(t, set, properties.PublishUsername))
	assert.Equal(t, "s3cret", value(t, set, properties.PublishPassword))
	assert.Equal(t, "/ws", value(t, set, "buildInfo.env.WORKSPACE"))
	assert.Equal(t, "yes", value(t, set, "buildInfo.env.release"))
	assert.Equal(t, "1", value(t, set, "artifactory.deploy.qa"))
	_, ok := set.Get("buildInfo.env.PATH")
	assert.False(t, ok)
	assert.Empty(t, h.execs)
}

func TestAssemble_VarsFileAndFlagsMerge(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/ws/vars.properties", "release = no\nbuildInfo.property.team = core\n")

	code := h.run("assemble", "--vars-file", "/ws/vars.properties", "--var", "release=yes")
	require.Equal(t, errdefs.ExitOK, code, h.stderr.String())

	set := h.writtenProperties(t)
	assert.Equal(t, "yes", value(t, set, "buildInfo.env.release"))
	assert.Equal(t, "core", value(t, set, "buildInfo.property.team"))
}

func TestAssemble_WithoutSystemEnvSnapshot(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/home/ci/.buildinfo.yaml", strings.Replace(testConfig, "system-env-file: /agent/env\n", "", 1))
	h.env = []string{"AWS_SECRET_ACCESS_KEY=hunter2", "artifactory.deploy.qa=1"}

	code := h.run("assemble", "--var", "release=yes")
	require.Equal(t, errdefs.ExitOK, code, h.stderr.String())

	set := h.writtenProperties(t)
	for _, k := range set.Keys() {
		v, _ := set.Get(k)
		assert.NotEqual(t, "hunter2", v, "key %s", k)
	}
	assert.False(t, hasKeyPrefix(set, properties.DefaultEnvironmentPrefix+"WORKSPACE"))
	assert.Equal(t, "1", value(t, set, "artifactory.deploy.qa"))
	assert.Equal(t, "yes", value(t, set, "buildInfo.env.release"))

	code = h.run("check", "--json")
	require.Equal(t, errdefs.ExitOK, code, h.stderr.String())
	var out checkOutput
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &out))
	require.Len(t, out.Warnings, 1)
	assert.True(t, strings.HasPrefix(out.Warnings[0], "environment: "))
}

func hasKeyPrefix(s *properties.Set, prefix string) bool {
	for _, k := range s.Keys() {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func TestAssemble_ExecsConsumer(t *testing.T) {
	h := newHarness(t)
	code := h.run("assemble", "--", "mvn", "-B", "deploy")
	require.Equal(t, errdefs.ExitOK, code, h.stderr.String())

	require.Len(t, h.execs, 1)
	assert.Equal(t, launcher.Command{Target: "mvn", Args: []string{"-B", "deploy"}}, h.execs[0])

	var path string
	for _, env := range h.environ[0] {
		if strings.HasPrefix(env, properties.PropertiesFileEnv+"=") {
			path = strings.TrimPrefix(env, properties.PropertiesFileEnv+"=")
		}
	}
	require.NotEmpty(t, path)
	exists, err := afero.Exists(h.fs, path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Contains(t, h.environ[0], "JOB_NAME=my-job")
}

func TestAssemble_ConsumerNotFound(t *testing.T) {
	h := newHarness(t)
	h.execErr = &exec.Error{Name: "mvn", Err: exec.ErrNotFound}
	assert.Equal(t, errdefs.ExitNotFound, h.run("assemble", "--", "mvn"))
}

func TestAssemble_ConfigurationFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, h *harness)
		args  []string
	}{
		{
			name:  "unknown server",
			setup: func(t *testing.T, h *harness) { h.write(t, "/ws/buildinfo.yaml", "server: {name: nope, repository: r}\n") },
			args:  []string{"assemble"},
		},
		{
			name: "missing job file",
			args: []string{"assemble", "--job", "/ws/missing.yaml"},
		},
		{
			name: "missing explicit config",
			args: []string{"assemble", "--config", "/etc/missing.yaml"},
		},
		{
			name: "invalid started",
			args: []string{"assemble", "--started", "yesterday"},
		},
		{
			name: "invalid var",
			args: []string{"check", "--var", "novalue"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.setup != nil {
				tt.setup(t, h)
			}
			assert.Equal(t, errdefs.ExitConfiguration, h.run(tt.args...), h.stderr.String())
			assert.Contains(t, h.stderr.String(), "Error:")
		})
	}
}

func TestCheck_JSON(t *testing.T) {
	h := newHarness(t)
	code := h.run("check", "--json", "--build-url", "http://ci/job/my-job/42/")
	require.Equal(t, errdefs.ExitOK, code, h.stderr.String())

	var out checkOutput
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &out))
	assert.Regexp(t, fingerprintPattern, out.Fingerprint)
	assert.Equal(t, properties.Mask, out.Properties[properties.PublishPassword])
	assert.Equal(t, "http://ci/job/my-job/42/", out.Properties[properties.BuildURL])
	assert.Empty(t, out.Warnings)

	files, err := afero.ReadDir(h.fs, "/tmp")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCheck_Table(t *testing.T) {
	h := newHarness(t)
	code := h.run("check")
	require.Equal(t, errdefs.ExitOK, code, h.stderr.String())

	out := h.stdout.String()
	assert.Contains(t, out, properties.BuildName)
	assert.Contains(t, out, "my-job")
	assert.NotContains(t, out, "s3cret")
	assert.Contains(t, out, "fingerprint: sha256:")
}

func TestCheck_ArtifactPatterns(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/ws/buildinfo.yaml", testJob+"include-patterns: \"**/*.jar, **/*.pom\"\nexclude-patterns: \"**/*-sources.jar\"\n")

	code := h.run("check", "--json",
		"--artifact", "libs/app.jar",
		"--artifact", "libs/app-sources.jar",
		"--artifact", `libs\nested\app.pom`,
		"--artifact", "libs/app.zip",
	)
	require.Equal(t, errdefs.ExitOK, code, h.stderr.String())

	var out checkOutput
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &out))
	assert.Equal(t, map[string]bool{
		"libs/app.jar":         true,
		"libs/app-sources.jar": false,
		`libs\nested\app.pom`:  true,
		"libs/app.zip":         false,
	}, out.Artifacts)

	code = h.run("check", "--artifact", "libs/app.zip")
	require.Equal(t, errdefs.ExitOK, code, h.stderr.String())
	assert.Contains(t, h.stdout.String(), "artifact libs/app.zip: excluded")
}

func TestAssemble_KeyringPassword(t *testing.T) {
	h := newHarness(t)
	h.ring = keyring.NewArrayKeyring([]keyring.Item{
		{Key: credentials.KeyringKey("vault", "keyed"), Data: []byte("from-keyring")},
	})
	h.write(t, "/ws/buildinfo.yaml", "server: {name: vault, repository: libs-release}\n")

	code := h.run("assemble")
	require.Equal(t, errdefs.ExitOK, code, h.stderr.String())
	set := h.writtenProperties(t)
	assert.Equal(t, "keyed", value(t, set, properties.PublishUsername))
	assert.Equal(t, "from-keyring", value(t, set, properties.PublishPassword))
}

func TestDiff(t *testing.T) {
	h := newHarness(t)
	h.write(t, "/out/41.properties", "buildInfo.build.number = 41\nartifactory.publish.password = old\n")
	h.write(t, "/out/42.properties", "buildInfo.build.number = 42\nartifactory.publish.password = new\n")

	code := h.run("diff", "/out/41.properties", "/out/42.properties")
	require.Equal(t, errdefs.ExitOK, code, h.stderr.String())
	assert.Contains(t, h.stdout.String(), "-buildInfo.build.number = 41\n+buildInfo.build.number = 42\n")
	assert.NotContains(t, h.stdout.String(), "password")

	code = h.run("diff", "--ci", "/out/41.properties", "/out/42.properties")
	require.Equal(t, errdefs.ExitOK, code)
	assert.Contains(t, h.stdout.String(), "::notice file=/out/42.properties,title=property changed::")

	assert.Equal(t, errdefs.ExitFailure, h.run("diff", "/out/41.properties", "/out/missing.properties"))
}

func TestServers(t *testing.T) {
	h := newHarness(t)
	code := h.run("servers")
	require.Equal(t, errdefs.ExitOK, code, h.stderr.String())
	out := h.stdout.String()
	assert.Contains(t, out, "http://art.example/repo")
	assert.Contains(t, out, "vault")
	assert.NotContains(t, out, "s3cret")
	assert.Less(t, strings.Index(out, "art"), strings.Index(out, "vault"))
}
