// Package server describes artifact repository servers and resolves the one
// a job deploys to.
package server

import (
	"sort"
	"strings"

	"buildinfo/internal/errdefs"
)

// DefaultTimeoutSeconds applies when a server does not configure a timeout.
const DefaultTimeoutSeconds = 300

// Deployer is a username/password pair configured on a server.
type Deployer struct {
	Username string `mapstructure:"username" json:"username,omitempty"`
	Password string `mapstructure:"password" json:"-"`
}

// Server is one configured repository server.
type Server struct {
	Name           string   `mapstructure:"name" json:"name"`
	URL            string   `mapstructure:"url" json:"url"`
	TimeoutSeconds int      `mapstructure:"timeout" json:"timeout"`
	Deployer       Deployer `mapstructure:"deployer" json:"deployer"`
	// Keyring enables looking up a missing deployer password in the OS keyring.
	Keyring bool `mapstructure:"keyring" json:"keyring"`
}

// Timeout returns the configured timeout or DefaultTimeoutSeconds.
func (s Server) Timeout() int {
	if s.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds
	}
	return s.TimeoutSeconds
}

// Details is the job's choice of server and repositories.
type Details struct {
	ServerName             string `yaml:"name" json:"server"`
	RepositoryKey          string `yaml:"repository" json:"repository"`
	SnapshotsRepositoryKey string `yaml:"snapshots-repository,omitempty" json:"snapshotsRepository,omitempty"`
}

// Connection is everything the recorder needs to reach the server.
type Connection struct {
	Server                 Server
	ContextURL             string
	TimeoutSeconds         int
	RepositoryKey          string
	SnapshotsRepositoryKey string
}

// NewConnection combines a resolved server with the job's details. The
// snapshots repository falls back to the release repository.
func NewConnection(s Server, d Details) (*Connection, error) {
	if strings.TrimSpace(s.URL) == "" {
		return nil, errdefs.Configurationf("server %q has no url", s.Name)
	}
	if strings.TrimSpace(d.RepositoryKey) == "" {
		return nil, errdefs.Configurationf("no repository configured for server %q", s.Name)
	}
	snapshots := d.SnapshotsRepositoryKey
	if strings.TrimSpace(snapshots) == "" {
		snapshots = d.RepositoryKey
	}
	return &Connection{
		Server:                 s,
		ContextURL:             strings.TrimRight(s.URL, "/"),
		TimeoutSeconds:         s.Timeout(),
		RepositoryKey:          d.RepositoryKey,
		SnapshotsRepositoryKey: snapshots,
	}, nil
}

// Registry looks up servers by name.
type Registry interface {
	Resolve(name string) (Server, bool)
}

// StaticRegistry is a Registry over a fixed list of servers.
type StaticRegistry struct {
	servers map[string]Server
}

// NewStaticRegistry indexes servers by name. Later entries replace earlier
// ones with the same name.
func NewStaticRegistry(servers []Server) *StaticRegistry {
	r := &StaticRegistry{servers: make(map[string]Server, len(servers))}
	for _, s := range servers {
		r.servers[s.Name] = s
	}
	return r
}

func (r *StaticRegistry) Resolve(name string) (Server, bool) {
	s, ok := r.servers[name]
	return s, ok
}

// List returns all servers sorted by name.
func (r *StaticRegistry) List() []Server {
	res := make([]Server, 0, len(r.servers))
	for _, s := range r.servers {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// Connect resolves d.ServerName in r and builds the connection. An unknown
// server is a configuration error.
func Connect(r Registry, d Details) (*Connection, error) {
	if strings.TrimSpace(d.ServerName) == "" {
		return nil, errdefs.Configurationf("no server selected")
	}
	s, ok := r.Resolve(d.ServerName)
	if !ok {
		return nil, errdefs.Configurationf("server %q is not configured", d.ServerName)
	}
	return NewConnection(s, d)
}
