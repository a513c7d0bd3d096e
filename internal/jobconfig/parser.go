// Package jobconfig reads the job file describing where and how a build
// deploys.
package jobconfig

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"buildinfo/internal/credentials"
	"buildinfo/internal/errdefs"
	"buildinfo/internal/policy"
)

// Parse parses YAML content into a validated Job.
func Parse(content []byte) (Job, error) {
	var jf jobFile
	if err := yaml.Unmarshal(content, &jf); err != nil {
		return Job{}, errdefs.WrapConfiguration(err, "invalid job file")
	}

	job := Job{
		Server: jf.Server,
		Options: policy.Options{
			DeployArtifacts:             jf.DeployArtifacts,
			DeployBuildInfo:             jf.DeployBuildInfo,
			IncludeEnvVars:              jf.IncludeEnvVars,
			IncludePatterns:             jf.IncludePatterns,
			ExcludePatterns:             jf.ExcludePatterns,
			RunLicenseChecks:            jf.License.RunChecks,
			IncludePublishedArtifacts:   jf.License.IncludePublishedArtifacts,
			DisableLicenseAutoDiscovery: jf.License.DisableAutoDiscovery,
			ViolationRecipients:         jf.License.ViolationRecipients,
			Scopes:                      jf.License.Scopes,
		},
	}
	if jf.Retention != nil {
		job.Options.Retention = &policy.Retention{KeepLast: jf.Retention.KeepLast, KeepDays: jf.Retention.KeepDays}
	}
	if jf.Deployer != nil {
		job.Deployer = Deployer{
			Override:    jf.Deployer.Override,
			Credentials: credentials.Credentials{Username: jf.Deployer.Username, Password: jf.Deployer.Password},
		}
	}

	if err := migrateLegacy(&job, jf); err != nil {
		return Job{}, errdefs.WrapConfiguration(err, "invalid job file")
	}

	if err := Validate(job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// migrateLegacy moves the deprecated flat credentials into the deployer
// override unless the job already configures one.
func migrateLegacy(job *Job, jf jobFile) error {
	if strings.TrimSpace(jf.Username) == "" {
		return nil
	}
	if job.Deployer.Override && !job.Deployer.Credentials.IsBlank() {
		log.Warn().Msg("job file has both deployer and legacy username, ignoring legacy credentials")
		return nil
	}
	creds, err := credentials.MigrateLegacy(jf.Username, jf.ScrambledPassword)
	if err != nil {
		return err
	}
	log.Debug().Str("username", creds.Username).Msg("migrated legacy deployer credentials")
	job.Deployer = Deployer{Override: true, Credentials: creds}
	return nil
}

// Validate collects every problem of the job rather than stopping at the
// first one.
func Validate(job Job) error {
	var errs *multierror.Error

	if strings.TrimSpace(job.Server.ServerName) == "" {
		errs = multierror.Append(errs, errors.New("server: name is required"))
	}
	if strings.TrimSpace(job.Server.RepositoryKey) == "" {
		errs = multierror.Append(errs, errors.New("server: repository is required"))
	}
	if job.Deployer.Override && job.Deployer.Credentials.IsBlank() {
		errs = multierror.Append(errs, errors.New("deployer: override requires a username"))
	}
	if _, err := job.Policy(); err != nil {
		errs = multierror.Append(errs, err)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return errdefs.WrapConfiguration(err, "invalid job file")
	}
	return nil
}

// ToYAML serializes a Job back to YAML bytes. Legacy fields are never
// written.
func (j Job) ToYAML() ([]byte, error) {
	jf := jobFile{
		Server:          j.Server,
		DeployArtifacts: j.Options.DeployArtifacts,
		DeployBuildInfo: j.Options.DeployBuildInfo,
		IncludeEnvVars:  j.Options.IncludeEnvVars,
		IncludePatterns: j.Options.IncludePatterns,
		ExcludePatterns: j.Options.ExcludePatterns,
		License: licenseEntry{
			RunChecks:                 j.Options.RunLicenseChecks,
			IncludePublishedArtifacts: j.Options.IncludePublishedArtifacts,
			DisableAutoDiscovery:      j.Options.DisableLicenseAutoDiscovery,
			ViolationRecipients:       j.Options.ViolationRecipients,
			Scopes:                    j.Options.Scopes,
		},
	}
	if r := j.Options.Retention; r != nil {
		jf.Retention = &retentionEntry{KeepLast: r.KeepLast, KeepDays: r.KeepDays}
	}
	if j.Deployer.Override || !j.Deployer.Credentials.IsBlank() {
		jf.Deployer = &deployerEntry{
			Override: j.Deployer.Override,
			Username: j.Deployer.Credentials.Username,
			Password: j.Deployer.Credentials.Password,
		}
	}
	return yaml.Marshal(&jf)
}

// LoadFromPath reads and parses a job file from fs.
func LoadFromPath(fs afero.Fs, path string) (Job, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Job{}, errdefs.WrapConfiguration(err, "job file "+path+" not found")
		}
		return Job{}, errdefs.NewIOError("read job file", path, err)
	}
	return Parse(content)
}
