package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/salesdesk/internal/auth"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// env is an isolated config and data directory pair.
type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	for _, k := range []string{"SALESDESK_CONFIG_DIR", "SALESDESK_DATA_DIR", "SALESDESK_SCRAPING_MODE", "SALESDESK_INTAKE_CUTOFF"} {
		t.Setenv(k, "")
	}
	root := t.TempDir()
	return env{configDir: filepath.Join(root, "config"), dataDir: filepath.Join(root, "data")}
}

// run executes the CLI in-process with the env's directories and returns
// stdout.
func (e env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func (e env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, "", args...)
	require.NoError(t, err, "salesdesk %s", strings.Join(args, " "))
	return out
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "version")
	assert.Contains(t, out, "salesdesk v")
	assert.Contains(t, out, "github.com/mesh-intelligence/salesdesk")
}

func TestInitCreatesConfigAndDataDir(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "init")
	assert.Contains(t, out, e.dataDir)

	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))
	info, err := os.Stat(e.dataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// A second init leaves the file alone.
	before, err := os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	e.mustRun(t, "init")
	after, err := os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRecordLifecycle(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "create", "events", "--data",
		`{"name":"Swiss Fintech Forum","sourceUrl":"https://example.ch/sff","startDate":"2099-03-01","country":"Switzerland"}`)
	require.True(t, strings.HasPrefix(out, "Created events: "), out)
	id := strings.TrimSpace(strings.TrimPrefix(out, "Created events: "))
	require.NotEmpty(t, id)

	var got types.Event
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "get", "events", id)), &got))
	assert.Equal(t, "Swiss Fintech Forum", got.Name)
	assert.Equal(t, types.EventDiscovered, got.Status)

	var updated types.Event
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "update", "events", id, "--data", `{"status":"ANALYZED"}`)), &updated))
	assert.Equal(t, types.EventAnalyzed, updated.Status)

	var list []types.Event
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "list", "events")), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	upcoming := e.mustRun(t, "upcoming", "--country", "switzerland")
	assert.Contains(t, upcoming, "Swiss Fintech Forum")

	var stats types.EventStats
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "stats", "events")), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Analyzed)

	assert.Contains(t, e.mustRun(t, "delete", "events", id), "Deleted events: "+id)
	_, err := e.run(t, "", "get", "events", id)
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestCreateFromStdinWithJSONOutput(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, `{"firstName":"Ada","lastName":"Meier","fullName":"Ada Meier","email":"ada@example.ch"}`,
		"--json", "create", "contacts", "--data", "-")
	require.NoError(t, err)

	var c types.Contact
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Ada Meier", c.FullName)
}

func TestExitCodes(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown kind", []string{"list", "widgets"}, exitUserError},
		{"missing record", []string{"get", "events", "nope"}, exitUserError},
		{"wrong arg count", []string{"get", "events"}, exitUserError},
		{"missing data", []string{"create", "events"}, exitUserError},
		{"invalid record", []string{"create", "events", "--data", `{"name":""}`}, exitUserError},
		{"bad patch", []string{"update", "events", "x", "--data", `[1]`}, exitUserError},
		{"negative limit", []string{"top-opportunities", "--limit", "-1"}, exitUserError},
		{"cancel missing job", []string{"scrape", "cancel", "nope"}, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.run(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCode(err))
		})
	}
}

func TestConfigEnvOverride(t *testing.T) {
	e := newEnv(t)
	t.Setenv("SALESDESK_SCRAPING_MODE", "sometimes")
	_, err := e.run(t, "", "dashboard")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrScrapingModeUnknown)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestLoadConfigDefaults(t *testing.T) {
	e := newEnv(t)
	flags = rootFlags{dataDir: e.dataDir}
	t.Cleanup(func() { flags = rootFlags{} })

	cfg, err := loadConfig(e.configDir)
	require.NoError(t, err)
	assert.Equal(t, e.dataDir, cfg.DataDir)
	assert.Equal(t, types.ScrapingManual, cfg.Scraping.Mode)
	assert.Equal(t, types.DefaultIntakeCutoff, cfg.Intake.Cutoff)
	assert.Equal(t, types.DefaultScrapingTimeout, cfg.Scraping.Timeout)
	assert.Equal(t, types.DefaultListenAddr, cfg.ListenAddr)

	t.Setenv("SALESDESK_INTAKE_CUTOFF", "2026-01-01")
	cfg, err = loadConfig(e.configDir)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", cfg.Intake.Cutoff)
}

func TestScrapeManualMode(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "", "--json", "scrape", "start", "https://www.swisscongress.com/events")
	require.NoError(t, err)

	var job types.ScrapingJob
	require.NoError(t, json.Unmarshal([]byte(out), &job))
	assert.Equal(t, types.JobCompleted, job.Status)
	assert.Zero(t, job.EventsFound)

	jobs := e.mustRun(t, "scrape", "jobs", "--recent", "5")
	assert.Contains(t, jobs, job.ID)

	var stats types.JobStats
	require.NoError(t, json.Unmarshal([]byte(e.mustRun(t, "scrape", "jobs", "--stats")), &stats))
	assert.Equal(t, 1, stats.TotalJobs)
	assert.Equal(t, 100, stats.SuccessRate)

	_, err = e.run(t, "", "scrape", "cancel", job.ID)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestImportAndExport(t *testing.T) {
	e := newEnv(t)
	file := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(file, []byte(`[
		{"name":"Zurich Security Summit","startDate":"2099-05-04","city":"Zurich","website":"https://example.ch/zss"},
		{"name":"Old Expo","startDate":"2020-01-01"},
		{"name":"","startDate":"2099-01-01"}
	]`), 0o644))

	out, err := e.run(t, "", "--json", "import", file)
	require.NoError(t, err)
	var res struct {
		SavedCount    int `json:"savedCount"`
		FilteredCount int `json:"filteredCount"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.SavedCount)
	assert.Equal(t, 2, res.FilteredCount)

	// Re-importing the same file saves nothing new.
	out = e.mustRun(t, "import", file)
	assert.Contains(t, out, "Saved 0 events")

	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	out = e.mustRun(t, "export", "--out", dbPath)
	assert.Contains(t, out, "Exported to "+dbPath)
	assert.Contains(t, out, "scraping_jobs")
	assert.FileExists(t, dbPath)
}

func TestHashPassword(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "s3cret\n", "hash-password", "--cost", "4")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)

	a := auth.New([]types.Credential{{ID: "u1", Email: "rep@example.ch", Role: types.RoleUser, PasswordHash: hash}})
	user, err := a.Login("rep@example.ch", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = e.run(t, "", "hash-password")
	assert.Equal(t, exitUserError, exitCode(err))
}
