package jobconfig

import (
	"buildinfo/internal/credentials"
	"buildinfo/internal/policy"
	"buildinfo/internal/server"
)

// DefaultFileName is the job file looked up in the working directory.
const DefaultFileName = "buildinfo.yaml"

// Job is a parsed job file.
type Job struct {
	Server   server.Details
	Options  policy.Options
	Deployer Deployer
}

// Deployer is the job level replacement of the server's default deployer.
type Deployer struct {
	Override    bool
	Credentials credentials.Credentials
}

func (j Job) IsOverridingDefaultDeployer() bool {
	return j.Deployer.Override
}

func (j Job) OverridingDeployerCredentials() credentials.Credentials {
	return j.Deployer.Credentials
}

// Policy builds the deployment policy described by the job.
func (j Job) Policy() (policy.Deployment, error) {
	return policy.NewDeployment(j.Options)
}

// jobFile represents the YAML file structure
type jobFile struct {
	Server          server.Details  `yaml:"server"`
	DeployArtifacts bool            `yaml:"deploy-artifacts"`
	DeployBuildInfo bool            `yaml:"deploy-build-info"`
	IncludeEnvVars  bool            `yaml:"include-env-vars"`
	IncludePatterns string          `yaml:"include-patterns,omitempty"`
	ExcludePatterns string          `yaml:"exclude-patterns,omitempty"`
	License         licenseEntry    `yaml:"license"`
	Retention       *retentionEntry `yaml:"retention,omitempty"`
	Deployer        *deployerEntry  `yaml:"deployer,omitempty"`

	// deprecated flat credentials, migrated into Deployer on load
	Username          string `yaml:"username,omitempty"`
	ScrambledPassword string `yaml:"scrambled-password,omitempty"`
}

type licenseEntry struct {
	RunChecks                 bool   `yaml:"run-checks"`
	IncludePublishedArtifacts bool   `yaml:"include-published-artifacts"`
	DisableAutoDiscovery      bool   `yaml:"disable-auto-discovery"`
	ViolationRecipients       string `yaml:"violation-recipients,omitempty"`
	Scopes                    string `yaml:"scopes,omitempty"`
}

type retentionEntry struct {
	KeepLast *int `yaml:"keep-last,omitempty"`
	KeepDays *int `yaml:"keep-days,omitempty"`
}

type deployerEntry struct {
	Override bool   `yaml:"override"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}
