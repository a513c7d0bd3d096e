// Package policy holds the deployment and license settings of a job.
package policy

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobwas/glob"
)

// Deployment is the job's deployment policy. Build it with NewDeployment.
type Deployment struct {
	DeployArtifacts           bool
	DeployBuildInfo           bool
	IncludeEnvVars            bool
	Patterns                  *IncludesExcludes
	RunLicenseChecks          bool
	IncludePublishedArtifacts bool
	LicenseAutoDiscovery      bool
	ViolationRecipients       string
	Scopes                    string
	Retention                 *Retention
}

// Options are the raw switches a Deployment is built from.
type Options struct {
	DeployArtifacts             bool
	DeployBuildInfo             bool
	IncludeEnvVars              bool
	IncludePatterns             string
	ExcludePatterns             string
	RunLicenseChecks            bool
	IncludePublishedArtifacts   bool
	DisableLicenseAutoDiscovery bool
	ViolationRecipients         string
	Scopes                      string
	Retention                   *Retention
}

// NewDeployment validates o and builds the policy. License auto discovery
// is always the negation of DisableLicenseAutoDiscovery.
func NewDeployment(o Options) (Deployment, error) {
	d := Deployment{
		DeployArtifacts:           o.DeployArtifacts,
		DeployBuildInfo:           o.DeployBuildInfo,
		IncludeEnvVars:            o.IncludeEnvVars,
		RunLicenseChecks:          o.RunLicenseChecks,
		IncludePublishedArtifacts: o.IncludePublishedArtifacts,
		LicenseAutoDiscovery:      !o.DisableLicenseAutoDiscovery,
		ViolationRecipients:       o.ViolationRecipients,
		Scopes:                    o.Scopes,
		Retention:                 o.Retention,
	}

	if strings.TrimSpace(o.IncludePatterns) != "" || strings.TrimSpace(o.ExcludePatterns) != "" {
		p, err := NewIncludesExcludes(o.IncludePatterns, o.ExcludePatterns)
		if err != nil {
			return Deployment{}, err
		}
		d.Patterns = p
	}

	if o.Retention != nil {
		if err := o.Retention.validate(); err != nil {
			return Deployment{}, err
		}
	}
	return d, nil
}

// Retention is the build discard policy. Nil fields are not configured.
type Retention struct {
	KeepLast *int
	KeepDays *int
}

func (r *Retention) validate() error {
	if r.KeepLast != nil && *r.KeepLast < 0 {
		return errors.Newf("retention keep-last must not be negative, got %d", *r.KeepLast)
	}
	if r.KeepDays != nil && *r.KeepDays < 0 {
		return errors.Newf("retention keep-days must not be negative, got %d", *r.KeepDays)
	}
	return nil
}

// IncludesExcludes are Ant style patterns selecting deployed artifacts.
type IncludesExcludes struct {
	IncludePatterns string
	ExcludePatterns string

	includes []glob.Glob
	excludes []glob.Glob
}

// NewIncludesExcludes compiles comma or space separated patterns.
func NewIncludesExcludes(includes, excludes string) (*IncludesExcludes, error) {
	inc, err := compilePatterns(includes)
	if err != nil {
		return nil, errors.Wrap(err, "invalid include pattern")
	}
	exc, err := compilePatterns(excludes)
	if err != nil {
		return nil, errors.Wrap(err, "invalid exclude pattern")
	}
	return &IncludesExcludes{
		IncludePatterns: includes,
		ExcludePatterns: excludes,
		includes:        inc,
		excludes:        exc,
	}, nil
}

// Match reports whether path is deployed: it matches an include pattern (or
// there are none) and no exclude pattern.
func (p *IncludesExcludes) Match(path string) bool {
	if p == nil {
		return true
	}
	path = strings.ReplaceAll(path, "\\", "/")
	for _, g := range p.excludes {
		if g.Match(path) {
			return false
		}
	}
	if len(p.includes) == 0 {
		return true
	}
	for _, g := range p.includes {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// SplitPatterns splits a comma or space separated pattern list.
func SplitPatterns(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func compilePatterns(s string) ([]glob.Glob, error) {
	var res []glob.Glob
	for _, p := range SplitPatterns(s) {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %q", p)
		}
		res = append(res, g)
	}
	return res, nil
}
