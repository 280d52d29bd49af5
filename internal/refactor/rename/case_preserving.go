// Case-preserving rename variants (SPEC_FULL.md §12 item 1, grounded on
// original_source/mill-handlers/src/handlers/workspace/case_preserving.rs):
// an opt-in post-pass over Analyze's reference list that additionally
// rewrites snake_case/camelCase/PascalCase/SCREAMING_CASE siblings of the
// renamed identifier when the caller asks for it. Off by default, since
// spec §4.E.5's rename is whole-word-exact.
package rename

import (
	"regexp"
	"strings"
	"time"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/symbol"
)

// CaseStyle identifies one of the four naming conventions this pass knows
// how to derive and rewrite.
type CaseStyle string

const (
	StyleSnake     CaseStyle = "snake_case"
	StyleCamel     CaseStyle = "camelCase"
	StylePascal    CaseStyle = "PascalCase"
	StyleScreaming CaseStyle = "SCREAMING_CASE"
)

// words splits an identifier into lowercase words regardless of its
// current casing, so any style can be derived from any other.
func words(name string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-':
			flush()
		case r >= 'A' && r <= 'Z':
			if i > 0 && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
				flush()
			}
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// ToStyle renders name's words in the requested CaseStyle.
func ToStyle(name string, style CaseStyle) string {
	ws := words(name)
	if len(ws) == 0 {
		return name
	}
	switch style {
	case StyleSnake:
		return strings.Join(ws, "_")
	case StyleScreaming:
		upper := make([]string, len(ws))
		for i, w := range ws {
			upper[i] = strings.ToUpper(w)
		}
		return strings.Join(upper, "_")
	case StylePascal:
		var b strings.Builder
		for _, w := range ws {
			b.WriteString(strings.ToUpper(w[:1]) + w[1:])
		}
		return b.String()
	case StyleCamel:
		var b strings.Builder
		for i, w := range ws {
			if i == 0 {
				b.WriteString(w)
				continue
			}
			b.WriteString(strings.ToUpper(w[:1]) + w[1:])
		}
		return b.String()
	default:
		return name
	}
}

// CaseVariants returns every distinct case-style rendering of name.
func CaseVariants(name string) map[CaseStyle]string {
	out := map[CaseStyle]string{}
	for _, style := range []CaseStyle{StyleSnake, StyleCamel, StylePascal, StyleScreaming} {
		out[style] = ToStyle(name, style)
	}
	return out
}

// AnalyzeCaseVariants scans fallbackSources for whole-word occurrences of
// any case-variant of oldName that is not oldName itself, returning one
// Reference set per co-occurring variant found. Only variants that
// actually occur in the sources are reported, since most identifiers have
// no sibling in another casing.
func AnalyzeCaseVariants(oldName string, fallbackSources map[string]string) map[string][]Reference {
	variants := CaseVariants(oldName)
	found := map[string][]Reference{}
	for _, variant := range variants {
		if variant == "" || variant == oldName {
			continue
		}
		wordRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(variant) + `\b`)
		var refs []Reference
		for path, src := range fallbackSources {
			for _, m := range wordRe.FindAllStringIndex(src, -1) {
				refs = append(refs, Reference{
					FilePath: path,
					Range:    symbol.Range{Start: offsetToPos(src, m[0]), End: offsetToPos(src, m[1])},
				})
			}
		}
		if len(refs) > 0 {
			found[variant] = refs
		}
	}
	return found
}

// PlanCaseVariants appends one Replace edit per case-variant reference to
// plan, rewriting each co-occurring variant to the matching case rendering
// of newName (e.g. a sibling constant HTTP_CLIENT_TIMEOUT keeps its
// SCREAMING_CASE style under a class rename HttpClient -> ApiClient ->
// API_CLIENT_TIMEOUT). Callers only invoke this when the user opted in via
// a rename_case_variants flag; Analyze/Plan above never call it implicitly.
func PlanCaseVariants(plan *editplan.EditPlan, sourceFile, newName string, variantRefs map[string][]Reference, now time.Time) error {
	for oldVariant, refs := range variantRefs {
		newVariantStyle := detectStyle(oldVariant)
		newVariant := ToStyle(newName, newVariantStyle)
		for _, ref := range refs {
			edit := editplan.TextEdit{
				EditType:     editplan.Replace,
				Location:     ref.Range,
				OriginalText: oldVariant,
				NewText:      newVariant,
				Priority:     60,
				Description:  "rewrite case-preserving variant " + oldVariant + " -> " + newVariant,
			}
			if ref.FilePath != sourceFile {
				edit.FilePath = ref.FilePath
			}
			if err := plan.AddEdit(edit); err != nil {
				return err
			}
		}
	}
	_ = now
	return nil
}

// detectStyle infers which CaseStyle an identifier is currently written in,
// so a rewritten sibling keeps its own convention rather than adopting the
// primary rename's style.
func detectStyle(name string) CaseStyle {
	switch {
	case name == strings.ToUpper(name) && strings.Contains(name, "_"):
		return StyleScreaming
	case strings.Contains(name, "_"):
		return StyleSnake
	case len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z':
		return StylePascal
	default:
		return StyleCamel
	}
}
