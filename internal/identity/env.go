package identity

// EnvVar is a CI environment variable name.
type EnvVar string

// Environment variables that Jenkins uses.
const (
	VarBuildNumber    EnvVar = "BUILD_NUMBER"
	VarBuildID        EnvVar = "BUILD_ID"
	VarBuildURL       EnvVar = "BUILD_URL"
	VarJobName        EnvVar = "JOB_NAME"
	VarBuildUser      EnvVar = "BUILD_USER"
	VarBuildUserID    EnvVar = "BUILD_USER_ID"
	VarJenkinsVersion EnvVar = "JENKINS_VERSION"
	VarSvnRevision    EnvVar = "SVN_REVISION"
	VarGitCommit      EnvVar = "GIT_COMMIT"
)

// DefaultAgentName is recorded when no agent name is given.
const DefaultAgentName = "Jenkins"

// Env returns the value of v in env.
func Env(env map[string]string, v EnvVar) string {
	return env[string(v)]
}

// RevisionFromEnv returns the VCS revision reported by the SCM plugins,
// preferring Subversion over Git.
func RevisionFromEnv(env map[string]string) string {
	return firstNonBlank(Env(env, VarSvnRevision), Env(env, VarGitCommit))
}
