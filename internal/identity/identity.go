package identity

import (
	"strings"
	"time"

	"buildinfo/internal/cause"
	"buildinfo/internal/errdefs"
)

// BuildIdentity is the immutable description of one build run.
type BuildIdentity struct {
	Name         string    `json:"name"`
	Number       string    `json:"number"`
	Started      time.Time `json:"started"`
	URL          string    `json:"url,omitempty"`
	ParentName   string    `json:"parentName,omitempty"`
	ParentNumber string    `json:"parentNumber,omitempty"`
	Principal    string    `json:"principal"`
	AgentName    string    `json:"agentName"`
	AgentVersion string    `json:"agentVersion"`
	VCSRevision  string    `json:"vcsRevision,omitempty"`
}

// HasParent reports whether an upstream build triggered this run.
func (i BuildIdentity) HasParent() bool {
	return i.ParentName != ""
}

// Validate fails when a field the recorder requires is blank.
func (i BuildIdentity) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return errdefs.Configurationf("build name is required")
	}
	if strings.TrimSpace(i.Number) == "" {
		return errdefs.Configurationf("build number is required for build %q", i.Name)
	}
	return nil
}

// Overrides are values given explicitly, typically on the command line.
// Blank fields fall back to the CI environment.
type Overrides struct {
	Name            string
	Number          string
	URL             string
	Started         time.Time
	AgentName       string
	AgentVersion    string
	VCSRevision     string
	UpstreamProject string
	UpstreamBuild   string
	User            string
}

// Causes returns the cause chain described by the overrides and env.
func Causes(env map[string]string, o Overrides) []cause.Cause {
	var causes []cause.Cause
	user := firstNonBlank(o.User, Env(env, VarBuildUser), Env(env, VarBuildUserID))
	if user != "" {
		causes = append(causes, cause.UserCause(user))
	}
	if o.UpstreamProject != "" {
		causes = append(causes, cause.UpstreamCause(o.UpstreamProject, o.UpstreamBuild))
	}
	if len(causes) == 0 {
		causes = append(causes, cause.UnknownCause())
	}
	return causes
}

// Capture takes the identity snapshot for the current run. now is used
// when no start time was given.
func Capture(env map[string]string, o Overrides, now time.Time) BuildIdentity {
	started := o.Started
	if started.IsZero() {
		started = now
	}

	principal, parent := cause.DerivePrincipal(Causes(env, o))

	id := BuildIdentity{
		Name:         firstNonBlank(o.Name, Env(env, VarJobName)),
		Number:       firstNonBlank(o.Number, Env(env, VarBuildNumber), Env(env, VarBuildID)),
		Started:      started,
		URL:          firstNonBlank(o.URL, Env(env, VarBuildURL)),
		Principal:    principal,
		AgentName:    firstNonBlank(o.AgentName, DefaultAgentName),
		AgentVersion: firstNonBlank(o.AgentVersion, Env(env, VarJenkinsVersion)),
		VCSRevision:  o.VCSRevision,
	}
	if parent != nil {
		id.ParentName = parent.Name
		id.ParentNumber = parent.Number
	}
	return id
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
