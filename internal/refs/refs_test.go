// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const needsDoc = `# Needs

## TD_STK_NEED_cookies

See also [TD_STK_NEED_milk](#td_stk_need_milk).

## TD_STK_NEED_milk

Goes with TD_STK_NEED_cookies.
`

const reqsDoc = `# Requirements

## TD_STK_REQ_bake

- [TD_STK_NEED_cookies](/needs.md#td_stk_need_cookies)
- [TD_STK_NEED_milk](needs.md#td_stk_need_milk)
- TD_STK_NEED_cookeis
- TD_TMP_scratch
`

func writeDocs(t *testing.T) (root string, files []string) {
	t.Helper()
	root = t.TempDir()
	files = []string{filepath.Join(root, "needs.md"), filepath.Join(root, "reqs.md")}
	require.NoError(t, os.WriteFile(files[0], []byte(needsDoc), 0o644))
	require.NoError(t, os.WriteFile(files[1], []byte(reqsDoc), 0o644))
	return root, files
}

func TestCheckReports(t *testing.T) {
	root, files := writeDocs(t)
	c, err := NewChecker("TD", root, []string{`TD_TMP_`}, nil)
	require.NoError(t, err)

	report, err := c.Check(files)
	require.NoError(t, err)
	assert.Zero(t, report.Fixed)
	assert.Equal(t, []string{
		"Reference without a link: TD_STK_NEED_cookies in " + files[0] + "(9)",
		"Reference has bad link: TD_STK_NEED_milk in " + files[1] + "(6) is [TD_STK_NEED_milk](needs.md#td_stk_need_milk) but should be [TD_STK_NEED_milk](/needs.md#td_stk_need_milk)",
		"Bad reference found: TD_STK_NEED_cookeis in " + files[1] + "(7) has no matching section. Did you mean TD_STK_NEED_cookies",
	}, report.Issues)
}

func TestCheckFixes(t *testing.T) {
	root, files := writeDocs(t)
	c, err := NewChecker("TD", root, []string{`TD_TMP_`}, nil)
	require.NoError(t, err)
	c.Fix = true

	report, err := c.Check(files)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Fixed)
	require.Len(t, report.Issues, 1, "unknown references cannot be fixed")

	needs, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(needs), "Goes with [TD_STK_NEED_cookies](#td_stk_need_cookies).")

	reqs, err := os.ReadFile(files[1])
	require.NoError(t, err)
	assert.Contains(t, string(reqs), "- [TD_STK_NEED_milk](/needs.md#td_stk_need_milk)\n")

	c.Fix = false
	report, err = c.Check(files)
	require.NoError(t, err)
	assert.Len(t, report.Issues, 1)
}

func TestNewCheckerBadPattern(t *testing.T) {
	_, err := NewChecker("TD", ".", []string{"("}, nil)
	assert.Error(t, err)
}

func TestCheckMissingFile(t *testing.T) {
	c, err := NewChecker("TD", ".", nil, nil)
	require.NoError(t, err)
	_, err = c.Check([]string{filepath.Join(t.TempDir(), "gone.md")})
	assert.Error(t, err)
}

func TestClosest(t *testing.T) {
	candidates := []string{"TD_STK_NEED_cookies", "TD_STK_NEED_milk", "TD_SYS_REQ_oven"}
	assert.Equal(t, "TD_STK_NEED_milk", Closest("TD_STK_NEED_mlik", candidates))
	assert.Equal(t, "TD_SYS_REQ_oven", Closest("TD_SYS_REQ_ovens", candidates))
	assert.Empty(t, Closest("anything", nil))
}
