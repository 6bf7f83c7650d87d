package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dsmaint/pkg/jobs"
	"github.com/Sumatoshi-tech/dsmaint/pkg/persist"
)

const (
	longTitle1 = "titleeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	longTitle3 = "titleeeeeeeeeeeeeabcdefghijklmnopqrstuv"
)

var explorationFixture = `records:
  - id: "1"
    title: ` + longTitle1 + `
    category: Algebra
  - id: "2"
    title: title
  - id: "3"
    title: ` + longTitle3 + `
`

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// execute runs the root command with an empty config file so no ambient
// .dsmaint.yaml is picked up.
func execute(t *testing.T, args ...string) cliResult {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), ".dsmaint.yaml")
	require.NoError(t, os.WriteFile(cfgPath, nil, 0o600))

	var stdout, stderr bytes.Buffer

	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--quiet", "--no-color"}, args...))

	err := cmd.ExecuteContext(context.Background())

	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "explorations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(explorationFixture), 0o600))

	return path
}

func TestJobsList(t *testing.T) {
	t.Parallel()

	res := execute(t, "jobs", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, jobs.TitleLengthJobName)
}

func TestJobsRun_PrintsResultsToStreams(t *testing.T) {
	t.Parallel()

	res := execute(t, "jobs", "run", jobs.TitleLengthJobName, "--fixture", writeFixture(t))
	require.NoError(t, res.err)

	assert.Equal(t, "EXPS SUCCESS: 3\nINVALID SUCCESS: 2\n", res.stdout)
	assert.Equal(t,
		"The id of exp is 1 and its actual len is 41\nThe id of exp is 3 and its actual len is 39\n",
		res.stderr)
}

func TestJobsRun_EmptyStorePrintsNothing(t *testing.T) {
	t.Parallel()

	res := execute(t, "jobs", "run", jobs.TitleLengthJobName)
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)
	assert.Empty(t, res.stderr)
}

func TestJobsRun_MaxTitleLengthFlag(t *testing.T) {
	t.Parallel()

	res := execute(t, "jobs", "run", jobs.TitleLengthJobName, "--fixture", writeFixture(t), "--max-title-length", "50")
	require.NoError(t, res.err)
	assert.Equal(t, "EXPS SUCCESS: 3\n", res.stdout)
	assert.Empty(t, res.stderr)
}

func TestJobsRun_FailOnInvalid(t *testing.T) {
	t.Parallel()

	res := execute(t, "jobs", "run", jobs.TitleLengthJobName, "--fixture", writeFixture(t), "--fail-on-invalid")
	require.ErrorIs(t, res.err, ErrInvalidRecords)
	assert.Contains(t, res.stdout, "INVALID SUCCESS: 2")
}

func TestJobsRun_UnknownJob(t *testing.T) {
	t.Parallel()

	res := execute(t, "jobs", "run", "no-such-job")
	require.ErrorIs(t, res.err, jobs.ErrUnknownJob)
}

func TestJobsRun_MetricsFile(t *testing.T) {
	t.Parallel()

	metricsPath := filepath.Join(t.TempDir(), "dsmaint.prom")

	res := execute(t, "jobs", "run", jobs.TitleLengthJobName,
		"--fixture", writeFixture(t), "--metrics-file", metricsPath)
	require.NoError(t, res.err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "violations")
	assert.Contains(t, string(data), jobs.TitleLengthJobName)
}

func TestJobsRun_PersistentStores(t *testing.T) {
	t.Parallel()

	for _, backend := range []string{"pebble", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			storePath := filepath.Join(t.TempDir(), "records")

			res := execute(t, "records", "import", writeFixture(t),
				"--store-backend", backend, "--store-path", storePath)
			require.NoError(t, res.err)
			assert.Equal(t, "imported 3 records\n", res.stdout)

			res = execute(t, "jobs", "run", jobs.TitleLengthJobName,
				"--store-backend", backend, "--store-path", storePath)
			require.NoError(t, res.err)
			assert.Equal(t, "EXPS SUCCESS: 3\nINVALID SUCCESS: 2\n", res.stdout)
			assert.Equal(t, 2, strings.Count(res.stderr, "The id of exp is"))
		})
	}
}

func TestJobsRun_PersistentStoreNeedsPath(t *testing.T) {
	t.Parallel()

	res := execute(t, "jobs", "run", jobs.TitleLengthJobName, "--store-backend", "pebble")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "store path is required")
}

func TestRecordsImport_RequiresPersistentStore(t *testing.T) {
	t.Parallel()

	res := execute(t, "records", "import", writeFixture(t))
	require.ErrorIs(t, res.err, ErrEphemeralStore)
}

func TestRecordsExport_RoundTrip(t *testing.T) {
	t.Parallel()

	storePath := filepath.Join(t.TempDir(), "records.db")

	res := execute(t, "records", "import", writeFixture(t), "--store-backend", "sqlite", "--store-path", storePath)
	require.NoError(t, res.err)

	exportPath := filepath.Join(t.TempDir(), "export.json.lz4")

	res = execute(t, "records", "export", exportPath, "--store-backend", "sqlite", "--store-path", storePath)
	require.NoError(t, res.err)
	assert.Equal(t, "exported 3 records\n", res.stdout)

	records, err := persist.LoadRecords(exportPath)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, longTitle1, records[0].Title)
	assert.Equal(t, "Algebra", records[0].Category)
}

func TestRecordsStats(t *testing.T) {
	t.Parallel()

	res := execute(t, "records", "stats", "--fixture", writeFixture(t))
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "ExplorationModel")

	// go-pretty upper-cases headers and footers.
	upper := strings.ToUpper(res.stdout)
	assert.Contains(t, upper, "OVER 36")
	assert.Contains(t, upper, "TOTAL: 3 RECORDS")
}

const (
	indexBase      = "indexes:\n- kind: A\n  properties:\n  - name: x\n"
	indexCandidate = "indexes:\n- kind: A\n  properties:\n  - name: x\n- kind: B\n  properties:\n  - name: y\n"
	indexMerged    = "indexes:\n\n  - kind: A\n    properties:\n      - name: x\n\n  - kind: B\n    properties:\n      - name: y\n"
)

func writeIndexFiles(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	base := filepath.Join(dir, "index.yaml")
	candidate := filepath.Join(dir, "emulator.yaml")

	require.NoError(t, os.WriteFile(base, []byte(indexBase), 0o600))
	require.NoError(t, os.WriteFile(candidate, []byte(indexCandidate), 0o600))

	return base, candidate
}

func TestIndexExtend(t *testing.T) {
	t.Parallel()

	base, candidate := writeIndexFiles(t)

	res := execute(t, "index", "extend", "--base", base, "--candidate", candidate)
	require.NoError(t, res.err)
	assert.Equal(t, "+ B(y)\n", res.stdout)

	data, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.Equal(t, indexMerged, string(data))

	res = execute(t, "index", "extend", "--base", base, "--candidate", candidate)
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)
}

func TestIndexExtend_DryRun(t *testing.T) {
	t.Parallel()

	base, candidate := writeIndexFiles(t)

	res := execute(t, "index", "extend", "--base", base, "--candidate", candidate, "--dry-run")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "+  - kind: B\n")

	data, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.Equal(t, indexBase, string(data))
}

func TestIndexExtend_MissingCandidate(t *testing.T) {
	t.Parallel()

	base, _ := writeIndexFiles(t)

	res := execute(t, "index", "extend", "--base", base, "--candidate", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, res.err, os.ErrNotExist)
}

func TestIndexValidate(t *testing.T) {
	t.Parallel()

	base, _ := writeIndexFiles(t)

	res := execute(t, "index", "validate", base)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Index file is valid")
	assert.Contains(t, res.stdout, "Indexes: 1")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("indexes:\n- properties: []\n"), 0o600))

	res = execute(t, "index", "validate", bad)
	require.ErrorIs(t, res.err, ErrInvalidIndexFile)
	assert.Contains(t, res.stdout, "Index file is invalid")
	assert.Contains(t, res.stdout, "kind")
}
