// Package cause models why a build was started and derives the principal
// recorded in build info.
package cause

import "strings"

const (
	// PrincipalAuto is recorded when another build triggered this one.
	PrincipalAuto = "auto"
	// PrincipalUnknown is recorded when no cause identifies anyone.
	PrincipalUnknown = "unknown"
)

// Kind tags the Cause variant.
type Kind int

const (
	Unknown Kind = iota
	Upstream
	User
)

func (k Kind) String() string {
	switch k {
	case Upstream:
		return "upstream"
	case User:
		return "user"
	default:
		return "unknown"
	}
}

// Cause is one entry of a build's causation chain. Which fields are set
// depends on Kind: Project and Build for Upstream, UserName for User.
type Cause struct {
	Kind     Kind
	Project  string
	Build    string
	UserName string
}

// UpstreamCause records that build number build of project triggered the run.
func UpstreamCause(project, build string) Cause {
	return Cause{Kind: Upstream, Project: project, Build: build}
}

// UserCause records that a user started the run.
func UserCause(name string) Cause {
	return Cause{Kind: User, UserName: name}
}

// UnknownCause is a cause that identifies nobody (timer, SCM poll, ...).
func UnknownCause() Cause {
	return Cause{Kind: Unknown}
}

// Parent identifies the build that triggered this one.
type Parent struct {
	Name   string
	Number string
}

// DerivePrincipal walks the causes and returns the principal to record.
//
// The first upstream cause wins: principal is "auto" and the upstream build
// is returned as parent. Otherwise the last user cause names the principal.
// Without either the principal is "unknown" and parent is nil.
func DerivePrincipal(causes []Cause) (string, *Parent) {
	for _, c := range causes {
		if c.Kind == Upstream && strings.TrimSpace(c.Project) != "" {
			return PrincipalAuto, &Parent{Name: c.Project, Number: c.Build}
		}
	}

	principal := PrincipalUnknown
	for _, c := range causes {
		if c.Kind == User && strings.TrimSpace(c.UserName) != "" {
			principal = c.UserName
		}
	}
	return principal, nil
}
