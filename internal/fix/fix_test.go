// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fix

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/spicy/internal/element"
	"github.com/pdiddy/spicy/internal/extract"
)

func TestAnchor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"TD_STK_NEED_cookies", "td-stk-need-cookies"},
		{"  Cookie Ordering Page ", "cookie-ordering-page"},
		{"What? A (quick) test!", "what-a-quick-test"},
		{"a -- b", "a-b"},
		{"_edge_", "edge"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Anchor(tt.in))
		})
	}
}

func TestMarkdownLink(t *testing.T) {
	assert.Equal(t, "[TD_A](#td-a)", MarkdownLink("TD_A", "docs/x.md", "docs/x.md"))
	assert.Equal(t, "[TD_A](y.md#td-a)", MarkdownLink("TD_A", "docs/x.md", "docs/y.md"))
	assert.Equal(t, "[TD_A](../needs/y.md#td-a)", MarkdownLink("TD_A", "docs/reqs/x.md", "docs/needs/y.md"))
}

const needsDoc = `# Needs

## TD_STK_NEED_cookies

People need cookies.

## TD_STK_NEED_milk

People need milk.
`

const reqsDoc = `# Requirements

## TD_STK_REQ_bake

Bake cookies.

Implements:

- TD_STK_NEED_cookies
- TD_STK_NEED_milk
- TD_STK_NEED_unknown

## TD_STK_REQ_pour

Pour milk.

Implements:

- [TD_STK_NEED_milk](needs.md#td-stk-need-milk)
`

func writeDocs(t *testing.T) (dir string, files []string) {
	t.Helper()
	dir = t.TempDir()
	needs := filepath.Join(dir, "needs.md")
	reqs := filepath.Join(dir, "reqs.md")
	require.NoError(t, os.WriteFile(needs, []byte(needsDoc), 0o644))
	require.NoError(t, os.WriteFile(reqs, []byte(reqsDoc), 0o644))
	return dir, []string{needs, reqs}
}

func gather(t *testing.T, files []string) []*element.Element {
	t.Helper()
	var buf bytes.Buffer
	elements, summary, err := extract.NewGatherer("TD", nil).Gather(context.Background(), files, &buf)
	require.NoError(t, err)
	require.Zero(t, summary.Failed, buf.String())
	return elements
}

func TestExpectedLinks(t *testing.T) {
	_, files := writeDocs(t)
	expected := ExpectedLinks(gather(t, files))
	require.Len(t, expected, 2)

	assert.Equal(t, "TD_STK_REQ_bake", expected[0].Element.Name())
	assert.Equal(t, []Link{
		{Target: "TD_STK_NEED_cookies", Markdown: "[TD_STK_NEED_cookies](needs.md#td-stk-need-cookies)"},
		{Target: "TD_STK_NEED_milk", Markdown: "[TD_STK_NEED_milk](needs.md#td-stk-need-milk)"},
	}, expected[0].Sections["implements"], "unknown targets are left out")
}

func TestReview(t *testing.T) {
	_, files := writeDocs(t)
	issues := Review(ExpectedLinks(gather(t, files)))

	assert.Contains(t, issues, "Link mismatch in reqs.md section implements")
	assert.Contains(t, issues, "\tExpected '[TD_STK_NEED_cookies](needs.md#td-stk-need-cookies)'")
	assert.Contains(t, issues, "\tFound 'TD_STK_NEED_cookies'")
	assert.Contains(t, issues, "No expected link for [TD_STK_NEED_unknown] in reqs.md section implements, but had TD_STK_NEED_unknown")
	assert.NotContains(t, issues, "\tFound '[TD_STK_NEED_milk](needs.md#td-stk-need-milk)'")
}

func TestApply(t *testing.T) {
	_, files := writeDocs(t)
	var out bytes.Buffer
	n, err := Apply(ExpectedLinks(gather(t, files)), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, out.String(), "reqs.md: 2 links")

	src, err := os.ReadFile(files[1])
	require.NoError(t, err)
	assert.Contains(t, string(src), "- [TD_STK_NEED_cookies](needs.md#td-stk-need-cookies)\n")
	assert.Contains(t, string(src), "- [TD_STK_NEED_milk](needs.md#td-stk-need-milk)\n")
	assert.Contains(t, string(src), "- TD_STK_NEED_unknown\n")

	issues := Review(ExpectedLinks(gather(t, files)))
	assert.Equal(t, []string{
		"No expected link for [TD_STK_NEED_unknown] in reqs.md section implements, but had TD_STK_NEED_unknown",
	}, issues)

	n, err = Apply(ExpectedLinks(gather(t, files)), &out)
	require.NoError(t, err)
	assert.Zero(t, n, "applying twice changes nothing")
}

func TestRewriteLine(t *testing.T) {
	repls := []replacement{{before: "TD_A", after: "[TD_A](#td-a)"}}
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"- TD_A", "- [TD_A](#td-a)", true},
		{"  * TD_A  ", "  * [TD_A](#td-a)", true},
		{"- TD_AB", "- TD_AB", false},
		{"- see TD_A", "- see TD_A", false},
		{"TD_A", "TD_A", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := rewriteLine(tt.line, repls)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyOnlyTouchesLinkSections(t *testing.T) {
	dir := t.TempDir()
	needs := filepath.Join(dir, "needs.md")
	reqs := filepath.Join(dir, "reqs.md")
	require.NoError(t, os.WriteFile(needs, []byte(needsDoc), 0o644))
	doc := `# Requirements

## TD_STK_REQ_bake

Bake cookies.

Notes:

- TD_STK_NEED_cookies

Implements:

- TD_STK_NEED_cookies

After the list.

- TD_STK_NEED_cookies

~~~
- TD_STK_NEED_cookies
~~~

## TD_STK_REQ_pour

### Implements:

- TD_STK_NEED_milk

- TD_STK_NEED_cookies

## Glossary

- TD_STK_NEED_milk
`
	require.NoError(t, os.WriteFile(reqs, []byte(doc), 0o644))
	files := []string{needs, reqs}

	var out bytes.Buffer
	n, err := Apply(ExpectedLinks(gather(t, files)), &out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	src, err := os.ReadFile(reqs)
	require.NoError(t, err)
	want := `# Requirements

## TD_STK_REQ_bake

Bake cookies.

Notes:

- TD_STK_NEED_cookies

Implements:

- [TD_STK_NEED_cookies](needs.md#td-stk-need-cookies)

After the list.

- TD_STK_NEED_cookies

~~~
- TD_STK_NEED_cookies
~~~

## TD_STK_REQ_pour

### Implements:

- [TD_STK_NEED_milk](needs.md#td-stk-need-milk)

- [TD_STK_NEED_cookies](needs.md#td-stk-need-cookies)

## Glossary

- TD_STK_NEED_milk
`
	assert.Equal(t, want, string(src))
}
