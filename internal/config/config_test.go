package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/doccomments/internal/domain/model"
)

// allConfigKeys lists every DOCCOMMENTS_ env var that Load() reads.
var allConfigKeys = []string{
	"DOCCOMMENTS_REPO",
	"DOCCOMMENTS_GITHUB_TOKEN",
	"DOCCOMMENTS_GITHUB_API_URL",
	"DOCCOMMENTS_GITHUB_WEB_URL",
	"DOCCOMMENTS_LISTEN_ADDR",
	"DOCCOMMENTS_PUBLIC_URL",
	"DOCCOMMENTS_PER_PAGE",
	"DOCCOMMENTS_BODY_POLICY",
	"DOCCOMMENTS_THREAD_TTL",
	"DOCCOMMENTS_REQUEST_TIMEOUT",
	"DOCCOMMENTS_LOG_LEVEL",
	"DOCCOMMENTS_LOG_FORMAT",
}

// isolateConfigEnv unsets all DOCCOMMENTS_ env vars and stubs out gh CLI
// token discovery so tests don't inherit values from the host.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}

	orig := tokenForHost
	tokenForHost = func(string) (string, string) { return "", "" }
	t.Cleanup(func() { tokenForHost = orig })
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DOCCOMMENTS_REPO", "kidscancode/godot_recipes")
	t.Setenv("DOCCOMMENTS_GITHUB_TOKEN", "ghp_test123")
	t.Setenv("DOCCOMMENTS_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("DOCCOMMENTS_PER_PAGE", "50")
	t.Setenv("DOCCOMMENTS_BODY_POLICY", "Sanitize")
	t.Setenv("DOCCOMMENTS_THREAD_TTL", "10m")
	t.Setenv("DOCCOMMENTS_REQUEST_TIMEOUT", "5s")
	t.Setenv("DOCCOMMENTS_LOG_LEVEL", "debug")
	t.Setenv("DOCCOMMENTS_LOG_FORMAT", "json")

	cfg, err := Load(NewViper())

	require.NoError(t, err)
	assert.Equal(t, "kidscancode/godot_recipes", cfg.Repo)
	assert.Equal(t, "ghp_test123", cfg.GitHub.Token)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, 50, cfg.PerPage)
	assert.Equal(t, "sanitize", cfg.BodyPolicy)
	assert.Equal(t, 10*time.Minute, cfg.ThreadTTL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "json", cfg.LogFormat)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DOCCOMMENTS_REPO", "octo/docs")

	cfg, err := Load(NewViper())

	require.NoError(t, err)
	assert.Equal(t, "https://api.github.com/", cfg.GitHub.APIURL)
	assert.Equal(t, "https://github.com/", cfg.GitHub.WebURL)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, 0, cfg.PerPage)
	assert.Equal(t, 30*time.Minute, cfg.ThreadTTL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, model.BodyPolicyTrust, policy)
}

func TestLoad_TokenFallsBackToGhCLI(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DOCCOMMENTS_REPO", "octo/docs")
	t.Setenv("DOCCOMMENTS_GITHUB_WEB_URL", "https://ghe.example.com/")

	var gotHost string
	tokenForHost = func(host string) (string, string) {
		gotHost = host
		return "gho_from_cli", "oauth_token"
	}

	cfg, err := Load(NewViper())

	require.NoError(t, err)
	assert.Equal(t, "ghe.example.com", gotHost)
	assert.Equal(t, "gho_from_cli", cfg.GitHub.Token)
}

func TestLoad_ExplicitTokenSkipsGhCLI(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DOCCOMMENTS_REPO", "octo/docs")
	t.Setenv("DOCCOMMENTS_GITHUB_TOKEN", "ghp_explicit")

	called := false
	tokenForHost = func(string) (string, string) {
		called = true
		return "gho_from_cli", "oauth_token"
	}

	cfg, err := Load(NewViper())

	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "ghp_explicit", cfg.GitHub.Token)
}

// TestLoad_MissingToken verifies that an absent token is not an error;
// public repositories are readable unauthenticated.
func TestLoad_MissingToken(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DOCCOMMENTS_REPO", "octo/docs")

	cfg, err := Load(NewViper())

	require.NoError(t, err)
	assert.Equal(t, "", cfg.GitHub.Token)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing repo", map[string]string{}, "repo is required"},
		{"repo without owner", map[string]string{"DOCCOMMENTS_REPO": "/docs"}, "repo is required"},
		{"repo with extra segment", map[string]string{"DOCCOMMENTS_REPO": "a/b/c"}, "repo is required"},
		{"unknown body policy", map[string]string{"DOCCOMMENTS_BODY_POLICY": "strip"}, "invalid body_policy"},
		{"per page too large", map[string]string{"DOCCOMMENTS_PER_PAGE": "101"}, "per_page"},
		{"zero ttl", map[string]string{"DOCCOMMENTS_THREAD_TTL": "0s"}, "thread_ttl"},
		{"relative api url", map[string]string{"DOCCOMMENTS_GITHUB_API_URL": "api/v3"}, "github.api_url"},
		{"unknown log level", map[string]string{"DOCCOMMENTS_LOG_LEVEL": "verbose"}, "invalid log_level"},
		{"unknown log format", map[string]string{"DOCCOMMENTS_LOG_FORMAT": "xml"}, "invalid log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			if tt.name != "missing repo" && tt.env["DOCCOMMENTS_REPO"] == "" {
				t.Setenv("DOCCOMMENTS_REPO", "octo/docs")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(NewViper())

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadFile(t *testing.T) {
	isolateConfigEnv(t)

	path := filepath.Join(t.TempDir(), "doccomments.yaml")
	content := "repo: octo/docs\nper_page: 25\ngithub:\n  web_url: https://ghe.example.com/\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := NewViper()
	require.NoError(t, ReadFile(v, path))

	cfg, err := Load(v)

	require.NoError(t, err)
	assert.Equal(t, "octo/docs", cfg.Repo)
	assert.Equal(t, 25, cfg.PerPage)
	assert.Equal(t, "https://ghe.example.com/", cfg.GitHub.WebURL)
}

func TestReadFile_EnvOverridesFile(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DOCCOMMENTS_PER_PAGE", "75")

	path := filepath.Join(t.TempDir(), "doccomments.yaml")
	require.NoError(t, os.WriteFile(path, []byte("repo: octo/docs\nper_page: 25\n"), 0o600))

	v := NewViper()
	require.NoError(t, ReadFile(v, path))

	cfg, err := Load(v)

	require.NoError(t, err)
	assert.Equal(t, 75, cfg.PerPage)
}

func TestReadFile_Missing(t *testing.T) {
	v := NewViper()

	assert.NoError(t, ReadFile(v, ""))
	assert.Error(t, ReadFile(v, filepath.Join(t.TempDir(), "absent.yaml")))
}
