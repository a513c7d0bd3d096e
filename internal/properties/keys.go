package properties

// Keys agreed with the build-info recorder. They must not change without a
// matching change on the recorder side.
const (
	RecorderActivation = "org.jfrog.build.extractor.maven.recorder.activate"

	// PropertiesFileEnv is the consumer environment variable holding the path
	// of the written property file.
	PropertiesFileEnv = "buildInfoConfig.propertiesFile"
	IncludeEnvVars    = "buildInfoConfig.includeEnvVars"
)

// Client keys.
const (
	ContextURL               = "artifactory.contextUrl"
	Timeout                  = "artifactory.timeout"
	PublishRepoKey           = "artifactory.publish.repoKey"
	PublishSnapshotsRepoKey  = "artifactory.publish.snapshot.repoKey"
	PublishUsername          = "artifactory.publish.username"
	PublishPassword          = "artifactory.publish.password"
	PublishArtifacts         = "artifactory.publish.artifacts"
	PublishBuildInfo         = "artifactory.publish.buildInfo"
	PublishIncludePatterns   = "artifactory.publish.includePatterns"
	PublishExcludePatterns   = "artifactory.publish.excludePatterns"
	DefaultDeployParamPrefix = "artifactory.deploy."
)

// Build info keys.
const (
	BuildInfoPrefix = "buildInfo."

	DefaultPropertyPrefix    = BuildInfoPrefix + "property."
	DefaultEnvironmentPrefix = BuildInfoPrefix + "env."

	BuildName         = BuildInfoPrefix + "build.name"
	BuildNumber       = BuildInfoPrefix + "build.number"
	BuildStarted      = BuildInfoPrefix + "build.started"
	BuildTimestamp    = BuildInfoPrefix + "build.timestamp"
	BuildURL          = BuildInfoPrefix + "build.url"
	ParentBuildName   = BuildInfoPrefix + "build.parentName"
	ParentBuildNumber = BuildInfoPrefix + "build.parentNumber"
	VCSRevision       = BuildInfoPrefix + "vcs.revision"
	Principal         = BuildInfoPrefix + "principal"
	AgentName         = BuildInfoPrefix + "agent.name"
	AgentVersion      = BuildInfoPrefix + "agent.version"

	LicenseRunChecks                 = BuildInfoPrefix + "licenseControl.runChecks"
	LicenseViolationRecipients       = BuildInfoPrefix + "licenseControl.violationRecipients"
	LicenseIncludePublishedArtifacts = BuildInfoPrefix + "licenseControl.includePublishedArtifacts"
	LicenseAutoDiscover              = BuildInfoPrefix + "licenseControl.autoDiscover"
	LicenseScopes                    = BuildInfoPrefix + "licenseControl.scopes"

	RetentionDays        = BuildInfoPrefix + "buildRetention.daysToKeep"
	RetentionMinimumDate = BuildInfoPrefix + "buildRetention.minimumDate"
)

// StartedFormat is the layout of the build started value.
const StartedFormat = "2006-01-02T15:04:05.000-0700"

// Conventions holds the naming prefixes that let the recorder tell apart
// deploy parameters, build info properties and environment entries.
type Conventions struct {
	DeployParamPrefix string `mapstructure:"deploy-prefix" json:"deployPrefix"`
	PropertyPrefix    string `mapstructure:"property-prefix" json:"propertyPrefix"`
	EnvironmentPrefix string `mapstructure:"environment-prefix" json:"environmentPrefix"`
}

// DefaultConventions returns the prefixes the recorder expects.
func DefaultConventions() Conventions {
	return Conventions{
		DeployParamPrefix: DefaultDeployParamPrefix,
		PropertyPrefix:    DefaultPropertyPrefix,
		EnvironmentPrefix: DefaultEnvironmentPrefix,
	}
}

// WithDefaults fills every blank prefix from DefaultConventions.
func (c Conventions) WithDefaults() Conventions {
	d := DefaultConventions()
	if c.DeployParamPrefix == "" {
		c.DeployParamPrefix = d.DeployParamPrefix
	}
	if c.PropertyPrefix == "" {
		c.PropertyPrefix = d.PropertyPrefix
	}
	if c.EnvironmentPrefix == "" {
		c.EnvironmentPrefix = d.EnvironmentPrefix
	}
	return c
}

// IsSecret reports whether the value stored under key must not be shown.
func IsSecret(key string) bool {
	return key == PublishPassword
}
