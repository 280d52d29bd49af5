// Python package consolidation extras (SPEC_FULL.md §12 item 2, grounded
// on original_source/crates/mill-lang-python/src/consolidation.rs, which
// flattens nested src/ layouts and merges pyproject.toml dependency
// tables during a package consolidation move). This file adds the one
// behavior the original's consolidation pass lacks and SPEC_FULL.md adds:
// deduplicating re-exported __all__ lists when two __init__.py files are
// merged into one.
package move

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var allRe = regexp.MustCompile(`(?s)__all__\s*=\s*\[(.*?)\]`)

// ParseAllList extracts the string literals inside a module's __all__
// list, in source order. Returns ok=false if the module declares no
// __all__.
func ParseAllList(source string) (names []string, ok bool) {
	m := allRe.FindStringSubmatch(source)
	if m == nil {
		return nil, false
	}
	for _, raw := range strings.Split(m[1], ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		unquoted, err := strconv.Unquote(normalizeQuote(raw))
		if err != nil {
			continue
		}
		names = append(names, unquoted)
	}
	return names, true
}

func normalizeQuote(s string) string {
	if strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return `"` + strings.Trim(s, "'") + `"`
	}
	return s
}

// MergeAllLists combines two __init__.py files' __all__ lists, preserving
// the target's declared order and appending any source-only names,
// deduplicated. A __init__.py with no __all__ at all contributes nothing
// (absence of __all__ means "everything public" in Python, not "nothing";
// this function only merges explicit lists).
func MergeAllLists(targetSource, sourceSource string) []string {
	targetNames, targetHas := ParseAllList(targetSource)
	sourceNames, sourceHas := ParseAllList(sourceSource)
	if !targetHas && !sourceHas {
		return nil
	}
	seen := map[string]bool{}
	var merged []string
	for _, n := range targetNames {
		if !seen[n] {
			seen[n] = true
			merged = append(merged, n)
		}
	}
	for _, n := range sourceNames {
		if !seen[n] {
			seen[n] = true
			merged = append(merged, n)
		}
	}
	return merged
}

// RenderAllList renders a merged name list back into a Python __all__
// assignment statement, one name per line, matching the teacher's
// generated-code formatting conventions (trailing comma, double quotes).
func RenderAllList(names []string) string {
	if len(names) == 0 {
		return "__all__ = []\n"
	}
	var b strings.Builder
	b.WriteString("__all__ = [\n")
	for _, n := range names {
		fmt.Fprintf(&b, "    %q,\n", n)
	}
	b.WriteString("]\n")
	return b.String()
}

// ReplaceAllList substitutes source's __all__ assignment (if any) with the
// rendered name list, or appends one at the end when source declares
// none, so a target __init__.py that previously had no explicit __all__
// gains one only when a merge actually introduces re-exports worth naming.
func ReplaceAllList(source string, names []string) string {
	rendered := RenderAllList(names)
	if allRe.MatchString(source) {
		return allRe.ReplaceAllString(source, strings.TrimSuffix(rendered, "\n"))
	}
	if len(names) == 0 {
		return source
	}
	if strings.TrimSpace(source) == "" {
		return rendered
	}
	return strings.TrimRight(source, "\n") + "\n\n" + rendered
}
