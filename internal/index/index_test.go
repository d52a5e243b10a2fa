// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/spicy/internal/extract"
	"github.com/pdiddy/spicy/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()
	store, err := NewStore(types.IndexConfig{Dir: filepath.Join(tmpDir, ".spicy"), MaxResults: 20})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, tmpDir
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const needsDoc = `## TD_STK_NEED_cookies

People need warm cookies.

## TD_STK_NEED_milk

People need cold milk.
`

const reqsDoc = `## TD_STK_REQ_bake

The oven bakes cookies.

Implements:

- TD_STK_NEED_cookies
- [TD_STK_NEED_milk](needs.md#td-stk-need-milk)
`

func ingestDocs(t *testing.T) (*Store, []string) {
	t.Helper()
	store, dir := testSetup(t)
	files := []string{
		writeDoc(t, dir, "needs.md", needsDoc),
		writeDoc(t, dir, "reqs.md", reqsDoc),
	}
	var out bytes.Buffer
	summary, err := store.Ingest(context.Background(), files, extract.NewGatherer("TD", nil), &out)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Indexed, out.String())
	return store, files
}

// --- tests ---

func TestNewStoreDefaults(t *testing.T) {
	store, _ := testSetup(t)
	assert.Equal(t, defaultMaxResults, store.maxResults)

	again, err := NewStore(types.IndexConfig{Dir: store.Dir()})
	require.NoError(t, err, "reopening an existing index")
	again.Close()
}

func TestIngestAndRetrieve(t *testing.T) {
	store, files := ingestDocs(t)
	ctx := context.Background()

	all, err := store.Retrieve(ctx, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "TD_STK_NEED_cookies", all[0].Name)
	assert.Equal(t, files[0], all[0].FilePath)

	needs, err := store.Retrieve(ctx, QueryOptions{Variant: "StakeholderNeed"})
	require.NoError(t, err)
	assert.Len(t, needs, 2)

	hits, err := store.Retrieve(ctx, QueryOptions{Query: "milk"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	names := []string{hits[0].Name, hits[1].Name}
	assert.ElementsMatch(t, []string{"TD_STK_NEED_milk", "TD_STK_REQ_bake"}, names)

	byName, err := store.Retrieve(ctx, QueryOptions{Name: "TD_STK_REQ_bake"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, []string{"TD_STK_NEED_cookies", "[TD_STK_NEED_milk](needs.md#td-stk-need-milk)"}, byName[0].Content["implements"])

	limited, err := store.Retrieve(ctx, QueryOptions{MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestIngestSkipsUnchanged(t *testing.T) {
	store, files := ingestDocs(t)
	var out bytes.Buffer
	summary, err := store.Ingest(context.Background(), files, extract.NewGatherer("TD", nil), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Skipped)
	assert.Zero(t, summary.Indexed)
	assert.Contains(t, out.String(), "skipped "+files[0])
}

func TestIngestUpdatesChanged(t *testing.T) {
	store, files := ingestDocs(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(files[0], []byte("## TD_STK_NEED_tea\n\nPeople need tea.\n"), 0o644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(files[0], later, later))

	var out bytes.Buffer
	summary, err := store.Ingest(ctx, files, extract.NewGatherer("TD", nil), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
	assert.Contains(t, out.String(), "updated "+files[0]+" (1 elements)")

	needs, err := store.Retrieve(ctx, QueryOptions{Variant: "StakeholderNeed"})
	require.NoError(t, err)
	require.Len(t, needs, 1)
	assert.Equal(t, "TD_STK_NEED_tea", needs[0].Name)

	hits, err := store.Retrieve(ctx, QueryOptions{Query: "warm"})
	require.NoError(t, err)
	assert.Empty(t, hits, "replaced text leaves the full-text index")
}

func TestIngestRemovesUnlisted(t *testing.T) {
	store, files := ingestDocs(t)
	var out bytes.Buffer
	summary, err := store.Ingest(context.Background(), files[1:], extract.NewGatherer("TD", nil), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Removed)
	assert.Contains(t, out.String(), "removed "+files[0])

	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Files)
	assert.Equal(t, 1, st.Elements)
}

func TestIngestFailedFile(t *testing.T) {
	store, dir := testSetup(t)
	var out bytes.Buffer
	summary, err := store.Ingest(context.Background(), []string{filepath.Join(dir, "gone.md")}, extract.NewGatherer("TD", nil), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Total())
	assert.Contains(t, out.String(), "failed  ")
}

func TestIngestCancelled(t *testing.T) {
	store, dir := testSetup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Ingest(ctx, []string{writeDoc(t, dir, "a.md", needsDoc)}, extract.NewGatherer("TD", nil), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinks(t *testing.T) {
	store, _ := ingestDocs(t)
	out, in, err := store.Links(context.Background(), "TD_STK_REQ_bake")
	require.NoError(t, err)
	assert.Equal(t, []types.LinkRecord{
		{Source: "TD_STK_REQ_bake", Label: "Implements", Target: "TD_STK_NEED_cookies"},
		{Source: "TD_STK_REQ_bake", Label: "Implements", Target: "TD_STK_NEED_milk"},
	}, out)
	assert.Empty(t, in)

	_, in, err = store.Links(context.Background(), "TD_STK_NEED_milk")
	require.NoError(t, err)
	assert.Equal(t, []types.LinkRecord{{Source: "TD_STK_REQ_bake", Label: "Implements", Target: "TD_STK_NEED_milk"}}, in)
}

func TestRuns(t *testing.T) {
	store, _ := testSetup(t)
	ctx := context.Background()

	last, err := store.LastRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	first := types.CheckRun{ID: uuid.NewString(), Started: time.Now().Add(-time.Minute), Prefix: "TD", Elements: 3, Issues: 2}
	second := types.CheckRun{ID: uuid.NewString(), Started: time.Now(), Prefix: "TD", Elements: 3, Issues: 0}
	require.NoError(t, store.RecordRun(ctx, first))
	require.NoError(t, store.RecordRun(ctx, second))
	assert.Error(t, store.RecordRun(ctx, second), "run IDs are unique")

	last, err = store.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, second.ID, last.ID)
	assert.Zero(t, last.Issues)
}

func TestExport(t *testing.T) {
	store, _ := ingestDocs(t)
	ctx := context.Background()

	yamlPath, err := store.ExportYAML(ctx, QueryOptions{Variant: "StakeholderRequirement"})
	require.NoError(t, err)
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML []ExportEntry
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "TD_STK_REQ_bake", fromYAML[0].Name)
	assert.Len(t, fromYAML[0].Links, 2)

	jsonPath, err := store.ExportJSON(ctx, QueryOptions{})
	require.NoError(t, err)
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON []map[string]any
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	require.Len(t, fromJSON, 3)
	assert.Equal(t, "TD_STK_NEED_cookies", fromJSON[0]["name"], "records are flattened into each entry")
}

func TestStats(t *testing.T) {
	store, _ := ingestDocs(t)
	ctx := context.Background()
	require.NoError(t, store.RecordRun(ctx, types.CheckRun{ID: uuid.NewString(), Started: time.Now(), Prefix: "TD", Elements: 3, Issues: 1234}))

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Files)
	assert.Equal(t, 3, st.Elements)
	assert.Equal(t, 2, st.Links)
	assert.Equal(t, 1, st.Runs)
	assert.Equal(t, []VariantCount{{"StakeholderNeed", 2}, {"StakeholderRequirement", 1}}, st.ByVariant)
	assert.NotZero(t, st.DBBytes)

	var out bytes.Buffer
	st.Print(&out)
	assert.Contains(t, out.String(), "elements: 3\n")
	assert.Contains(t, out.String(), "1,234 issues")
}
