package cmd

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minutes/credentials"
)

// memSecret is an in-memory credentials.Backend.
type memSecret struct{ secret string }

func (m *memSecret) Get() (string, error) {
	if m.secret == "" {
		return "", credentials.ErrNoCredentials
	}
	return m.secret, nil
}

func (m *memSecret) Set(s string) error { m.secret = s; return nil }

func (m *memSecret) Delete() error {
	if m.secret == "" {
		return credentials.ErrNoCredentials
	}
	m.secret = ""
	return nil
}

func (m *memSecret) Name() string        { return credentials.SourceKeyring }
func (m *memSecret) Description() string { return "test keyring" }

func createAuthTestDeps(backend *memSecret, env map[string]string, prompted string) *AuthCommandDeps {
	return &AuthCommandDeps{
		OpenStore: func() (*credentials.Store, error) {
			return credentials.NewStoreWithBackends(func(k string) string { return env[k] }, backend), nil
		},
		ReadSecret: func(string, io.Writer) (string, error) {
			if prompted == "" {
				return "", errors.New("no terminal")
			}
			return prompted, nil
		},
	}
}

func runAuth(t *testing.T, deps *AuthCommandDeps, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := NewAuthCommand(deps)
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

func TestNewAuthCommand(t *testing.T) {
	c := NewAuthCommand(nil)
	for _, name := range []string{"login", "logout", "status"} {
		sub, _, err := c.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestAuthLogin_Flag(t *testing.T) {
	backend := &memSecret{}
	out, err := runAuth(t, createAuthTestDeps(backend, nil, ""), "login", "--api-key", "sk-proj-abcdefghijklmnop")
	require.NoError(t, err)

	assert.Equal(t, "sk-proj-abcdefghijklmnop", backend.secret)
	assert.Contains(t, out, "sk-p********...mnop")
	assert.Contains(t, out, "test keyring")
}

func TestAuthLogin_Prompt(t *testing.T) {
	backend := &memSecret{}
	_, err := runAuth(t, createAuthTestDeps(backend, nil, "sk-prompted-0000000"), "login")
	require.NoError(t, err)
	assert.Equal(t, "sk-prompted-0000000", backend.secret)
}

func TestAuthLogin_PromptFails(t *testing.T) {
	_, err := runAuth(t, createAuthTestDeps(&memSecret{}, nil, ""), "login")
	assert.ErrorContains(t, err, "reading API key")
}

func TestAuthStatus(t *testing.T) {
	out, err := runAuth(t, createAuthTestDeps(&memSecret{}, nil, ""), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not authenticated.")

	out, err = runAuth(t, createAuthTestDeps(&memSecret{secret: "sk-stored-1234567890"}, nil, ""), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Source: "+credentials.SourceKeyring)

	env := map[string]string{credentials.EnvAPIKey: "sk-env-abcdefghijkl"}
	out, err = runAuth(t, createAuthTestDeps(&memSecret{secret: "sk-stored-1234567890"}, env, ""), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Source: "+credentials.SourceEnv)
	assert.Contains(t, out, "sk-e********...ijkl")
}

func TestAuthLogout(t *testing.T) {
	backend := &memSecret{secret: "sk-stored-1234567890"}
	deps := createAuthTestDeps(backend, nil, "")

	out, err := runAuth(t, deps, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored API key removed.")
	assert.Empty(t, backend.secret)

	out, err = runAuth(t, deps, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "No stored API key.")
}
