package rename

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/symbol"
)

func newTestPlan(t *testing.T) *editplan.EditPlan {
	t.Helper()
	return editplan.New("client.go", "rename_symbol", nil, time.Now())
}

func rngFor(startLine, startCol, endLine, endCol int) symbol.Range {
	return symbol.Range{
		Start: symbol.Position{Line: startLine, Column: startCol},
		End:   symbol.Position{Line: endLine, Column: endCol},
	}
}

func TestToStyleConvertsAcrossAllFourStyles(t *testing.T) {
	cases := []struct {
		input string
		style CaseStyle
		want  string
	}{
		{"http_client_timeout", StyleCamel, "httpClientTimeout"},
		{"http_client_timeout", StylePascal, "HttpClientTimeout"},
		{"http_client_timeout", StyleScreaming, "HTTP_CLIENT_TIMEOUT"},
		{"httpClientTimeout", StyleSnake, "http_client_timeout"},
		{"HttpClientTimeout", StyleSnake, "http_client_timeout"},
		{"HTTP_CLIENT_TIMEOUT", StyleCamel, "httpClientTimeout"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ToStyle(c.input, c.style), "%s -> %s", c.input, c.style)
	}
}

func TestCaseVariantsProducesAllFourForms(t *testing.T) {
	variants := CaseVariants("http_client")
	assert.Equal(t, "httpClient", variants[StyleCamel])
	assert.Equal(t, "HttpClient", variants[StylePascal])
	assert.Equal(t, "http_client", variants[StyleSnake])
	assert.Equal(t, "HTTP_CLIENT", variants[StyleScreaming])
}

func TestDetectStyle(t *testing.T) {
	assert.Equal(t, StyleScreaming, detectStyle("HTTP_CLIENT_TIMEOUT"))
	assert.Equal(t, StyleSnake, detectStyle("http_client_timeout"))
	assert.Equal(t, StylePascal, detectStyle("HttpClient"))
	assert.Equal(t, StyleCamel, detectStyle("httpClient"))
}

// TestAnalyzeCaseVariantsFindsSiblingCasing covers SPEC_FULL.md §12 item 1:
// a class rename should surface a SCREAMING_CASE sibling constant so the
// caller can opt in to rewriting it too.
func TestAnalyzeCaseVariantsFindsSiblingCasing(t *testing.T) {
	sources := map[string]string{
		"config.go": "const HTTP_CLIENT_TIMEOUT = 30\n",
		"client.go": "type HttpClient struct{}\n",
	}
	found := AnalyzeCaseVariants("HttpClient", sources)
	require.Contains(t, found, "HTTP_CLIENT_TIMEOUT" /* ToStyle(HttpClient, Screaming) */)
	assert.Len(t, found["HTTP_CLIENT_TIMEOUT"], 1)
	assert.NotContains(t, found, "HttpClient", "the identity variant (same as oldName) must never be reported")
}

func TestAnalyzeCaseVariantsOmitsVariantsNotPresentInSources(t *testing.T) {
	found := AnalyzeCaseVariants("HttpClient", map[string]string{"a.go": "type HttpClient struct{}\n"})
	assert.Empty(t, found, "no snake_case/camelCase/SCREAMING_CASE sibling occurs anywhere")
}

func TestPlanCaseVariantsRewritesEachVariantInItsOwnStyle(t *testing.T) {
	plan := newTestPlan(t)
	variantRefs := map[string][]Reference{
		"HTTP_CLIENT_TIMEOUT": {{FilePath: "config.go", Range: rngFor(0, 6, 0, 26)}},
	}
	err := PlanCaseVariants(plan, "client.go", "ApiClient", variantRefs, time.Now())
	require.NoError(t, err)
	require.Len(t, plan.Edits, 1)
	assert.Equal(t, "API_CLIENT_TIMEOUT", plan.Edits[0].NewText)
	assert.Equal(t, "config.go", plan.Edits[0].FilePath)
}
