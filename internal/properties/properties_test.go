package properties

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sha256HashPattern = regexp.MustCompile(`^sha256:[a-f0-9]{64}$`)

func genEntries() gopter.Gen {
	return gen.MapOf(gen.Identifier(), gen.AlphaString()).Map(func(m map[string]string) map[string]string {
		if m == nil {
			return map[string]string{}
		}
		return m
	})
}

func TestRoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("parse after encode yields an equal mapping", prop.ForAll(
		func(entries map[string]string) bool {
			data, err := Encode(NewSet(entries))
			if err != nil {
				return false
			}
			parsed, err := Parse(data)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(entries, parsed.Map())
		},
		genEntries(),
	))

	properties.Property("fingerprint is deterministic and well formed", prop.ForAll(
		func(entries map[string]string) bool {
			fp := Fingerprint(NewSet(entries))
			return fp == Fingerprint(NewSet(entries)) && sha256HashPattern.MatchString(fp)
		},
		genEntries(),
	))

	properties.TestingRun(t)
}

func TestWrite_FlatSortedLines(t *testing.T) {
	s := NewBuilder().
		Put(BuildNumber, "42").
		Put(BuildName, "my-job").
		Put(ContextURL, "http://art.example/repo").
		Build()

	data, err := Encode(s)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{
		"artifactory.contextUrl = http://art.example/repo",
		"buildInfo.build.name = my-job",
		"buildInfo.build.number = 42",
	}, lines)
}

func TestWrite_EscapesAndNoExpansion(t *testing.T) {
	s := NewSet(map[string]string{
		"buildInfo.env.PATH_LIKE": "${HOME}/bin",
		"buildInfo.env.UNICODE":   "snowman ☃",
	})

	data, err := Encode(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `\u2603`)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, s.Map(), parsed.Map())
}

func TestBuilder(t *testing.T) {
	b := NewBuilder().Put("a", "1").Put("a", "2").Put("", "ignored")
	assert.True(t, b.Has("a"))
	assert.False(t, b.Has(""))

	s := b.Build()
	b.Put("b", "3")

	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"a"}, s.Keys())

	b.PutAll("env.", map[string]string{"X": "y"})
	v, ok = b.Build().Get("env.X")
	assert.True(t, ok)
	assert.Equal(t, "y", v)
}

func TestSet_CopiesAreIndependent(t *testing.T) {
	s := NewSet(map[string]string{"k": "v"})
	m := s.Map()
	m["k"] = "changed"
	keys := s.Keys()
	keys[0] = "changed"

	v, _ := s.Get("k")
	assert.Equal(t, "v", v)
	assert.Equal(t, []string{"k"}, s.Keys())
}

func TestMasked(t *testing.T) {
	s := NewSet(map[string]string{PublishUsername: "deployer", PublishPassword: "s3cret"})
	masked := s.Masked()
	assert.Equal(t, "deployer", masked[PublishUsername])
	assert.Equal(t, Mask, masked[PublishPassword])

	v, _ := s.Get(PublishPassword)
	assert.Equal(t, "s3cret", v)
}

func TestFingerprint_Empty(t *testing.T) {
	assert.Equal(t, Fingerprint(nil), Fingerprint(NewSet(nil)))
	assert.NotEqual(t, Fingerprint(NewSet(nil)), Fingerprint(NewSet(map[string]string{"a": ""})))
}

func TestConventions_WithDefaults(t *testing.T) {
	c := Conventions{DeployParamPrefix: "deploy."}.WithDefaults()
	assert.Equal(t, "deploy.", c.DeployParamPrefix)
	assert.Equal(t, DefaultPropertyPrefix, c.PropertyPrefix)
	assert.Equal(t, DefaultEnvironmentPrefix, c.EnvironmentPrefix)
	assert.Equal(t, DefaultConventions(), Conventions{}.WithDefaults())
}
