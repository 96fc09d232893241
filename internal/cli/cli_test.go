package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/clarus/internal/app"
	"github.com/kiranshivaraju/clarus/internal/session"
)

// fakeBackend serves the scoring API for one account with a single job that
// goes queued -> running -> done.
type fakeBackend struct {
	mu    sync.Mutex
	polls int
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer jwt" {
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("password") != "pw" {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]string{"access_token": "jwt", "token_type": "bearer"})
	})
	mux.HandleFunc("GET /billing/subscription", authed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"has_active": true, "ends_at": nil, "remaining_days": 9})
	}))
	mux.HandleFunc("GET /predictions/jobs", authed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, []map[string]any{
			{"job_id": "old", "status": "done", "summary": map[string]any{"total_rows": 3}, "original_filename": "old.csv"},
		})
	}))
	mux.HandleFunc("POST /predictions/upload", authed(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("csv_file")
		require.NoError(t, err)
		writeJSON(w, map[string]any{"job_id": "j1", "status": "queued", "summary": map[string]any{}, "original_filename": header.Filename})
	}))
	mux.HandleFunc("GET /predictions/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.polls++
		n := f.polls
		f.mu.Unlock()

		status := "done"
		switch {
		case r.PathValue("id") == "running":
			status = "running"
		case n == 1:
			status = "running"
		}
		writeJSON(w, map[string]any{"job_id": r.PathValue("id"), "status": status,
			"summary": map[string]any{"total_rows": 4, "attack_rows": 1, "attack_ratio": 0.25}})
	}))
	mux.HandleFunc("GET /predictions/{id}/download", authed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="scored_`+r.PathValue("id")+`.csv"`)
		_, _ = w.Write([]byte("row,label\n"))
	}))
	return mux
}

func setupCLI(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer((&fakeBackend{}).handler(t))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("CLARUS_API_URL", srv.URL)
	t.Setenv("CLARUS_TOKEN_STORE", "file")
	t.Setenv("CLARUS_TOKEN_FILE", filepath.Join(dir, "token"))
	t.Setenv("CLARUS_POLL_INITIAL_DELAY", "1ms")
	t.Setenv("CLARUS_POLL_INTERVAL", "5ms")
	t.Setenv("CLARUS_LOG_LEVEL", "error")

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	return dir
}

// resetFlags restores every flag to its default so package-level commands
// do not leak values between runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_LoginThenListJobs(t *testing.T) {
	dir := setupCLI(t)

	out, err := runCLI(t, "", "login", "--email", "u@example.com", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as u@example.com")
	assert.Contains(t, out, "remaining_days=9")

	token, err := os.ReadFile(filepath.Join(dir, "token"))
	require.NoError(t, err)
	assert.Equal(t, "jwt", strings.TrimSpace(string(token)))

	out, err = runCLI(t, "", "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "old.csv")
}

func TestCLI_PasswordFromStdin(t *testing.T) {
	setupCLI(t)

	_, err := runCLI(t, "pw\n", "login", "--email", "u@example.com")
	assert.NoError(t, err)
}

func TestCLI_LoginFailure(t *testing.T) {
	setupCLI(t)

	_, err := runCLI(t, "", "login", "--email", "u@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", strings.TrimSpace(err.Error()))
}

func TestCLI_RequiresSession(t *testing.T) {
	setupCLI(t)

	_, err := runCLI(t, "", "jobs", "list")
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestCLI_UploadWatchDownload(t *testing.T) {
	dir := setupCLI(t)
	_, err := runCLI(t, "", "login", "--email", "u@example.com", "--password", "pw")
	require.NoError(t, err)

	csvPath := filepath.Join(dir, "traffic.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b\n1,2\n"), 0o600))
	outDir := filepath.Join(dir, "out")

	out, err := runCLI(t, "", "upload", csvPath, "--download", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "j1 done")
	assert.Contains(t, out, "status=done")

	data, err := os.ReadFile(filepath.Join(outDir, "scored_j1.csv"))
	require.NoError(t, err)
	assert.Equal(t, "row,label\n", string(data))
}

func TestCLI_DownloadRunningJobRefused(t *testing.T) {
	setupCLI(t)
	_, err := runCLI(t, "", "login", "--email", "u@example.com", "--password", "pw")
	require.NoError(t, err)

	_, err = runCLI(t, "", "jobs", "download", "running")
	assert.ErrorIs(t, err, app.ErrDownloadUnavailable)
}

func TestCLI_BillingStatusJSON(t *testing.T) {
	setupCLI(t)
	_, err := runCLI(t, "", "login", "--email", "u@example.com", "--password", "pw")
	require.NoError(t, err)

	out, err := runCLI(t, "", "billing", "status", "--json")
	require.NoError(t, err)

	var sub map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &sub))
	assert.Equal(t, true, sub["has_active"])
	assert.Equal(t, float64(9), sub["remaining_days"])
}

func TestCLI_Logout(t *testing.T) {
	dir := setupCLI(t)
	_, err := runCLI(t, "", "login", "--email", "u@example.com", "--password", "pw")
	require.NoError(t, err)

	out, err := runCLI(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, err = os.Stat(filepath.Join(dir, "token"))
	assert.True(t, os.IsNotExist(err))
}

func TestCLI_InvalidConfig(t *testing.T) {
	setupCLI(t)
	t.Setenv("CLARUS_LOCALE", "de")

	_, err := runCLI(t, "", "jobs", "list")
	assert.ErrorContains(t, err, "CLARUS_LOCALE")
}

func TestSetVersionInfo(t *testing.T) {
	orig := versionInfo
	t.Cleanup(func() { versionInfo = orig })

	SetVersionInfo("1.2.3", "abc123", "2026-01-15")

	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "clarus 1.2.3 (commit abc123, built 2026-01-15)\n", out)
}
