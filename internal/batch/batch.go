// Package batch implements the Batch Analysis Engine (spec §4.H): scope
// resolution over a query set, a parse-once-per-file AST cache shared
// across every query in the batch, and per-query analyzer fan-out.
// Grounded on the teacher's internal/tools/web.CacheManager (LRU cache with
// atomic hit/miss counters, internal/tools/web/cache.go) and its
// internal/tools/filesystem package for directory-walk conventions;
// ignore-file semantics are grounded on sabhiram/go-gitignore, the same
// ignore-pattern library alantheprice-ledit wires into its own file-scope
// resolution.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/helixforge/codemill/internal/complexity"
	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/logging"
	"github.com/helixforge/codemill/internal/parser"
	"github.com/helixforge/codemill/internal/parser/python"
	"github.com/helixforge/codemill/internal/parser/rust"
	"github.com/helixforge/codemill/internal/parser/svelte"
	"github.com/helixforge/codemill/internal/parser/typescript"
	"github.com/helixforge/codemill/internal/symbol"
)

// ScopeType enumerates the scope kinds spec §4.H names.
type ScopeType string

const (
	ScopeFile      ScopeType = "file"
	ScopeDirectory ScopeType = "directory"
	ScopeWorkspace ScopeType = "workspace"
)

// Scope describes one query's file-set expansion rule (spec §4.H).
type Scope struct {
	Type           ScopeType
	Path           string
	IncludeGlobs   []string
	ExcludeGlobs   []string
}

// Query is one batch analysis request (spec §4.H).
type Query struct {
	Command string                 // "quality", "dead_code", "dependencies", "structure", "documentation", "tests"
	Kind    string                 // "complexity", "smells", "maintainability", ...
	Scope   Scope
	Options map[string]interface{}
}

// Request is a single batch call: an array of independent queries sharing
// one parse-once cache (spec §4.H).
type Request struct {
	Queries []Query
}

// Finding is one analyzer result (spec §4.H step 4).
type Finding struct {
	Severity    string                 `json:"severity"`
	File        string                 `json:"file"`
	Location    *symbol.Range          `json:"location,omitempty"`
	Metrics     map[string]interface{} `json:"metrics,omitempty"`
	Message     string                 `json:"message"`
	Suggestions []string               `json:"suggestions,omitempty"`
}

// AnalysisResult is one query's findings (spec §4.H step 5).
type AnalysisResult struct {
	QueryIndex int       `json:"query_index"`
	Findings   []Finding `json:"findings"`
}

// Summary aggregates the whole batch (spec §4.H step 5).
type Summary struct {
	TotalFiles   int           `json:"total_files"`
	CacheHits    int64         `json:"cache_hits"`
	CacheMisses  int64         `json:"cache_misses"`
	FailedFiles  map[string]string `json:"failed_files,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Response is the full batch outcome.
type Response struct {
	Results []AnalysisResult
	Summary Summary
}

// CachedAst is a per-file parse result reused across every query that
// touches the file within one batch (spec §3 "CachedAst", §4.H step 3).
type CachedAst struct {
	Path       string
	Content    string
	Language   string
	Symbols    []symbol.Symbol
	Imports    []symbol.ImportInfo
	Complexity []complexity.Metrics
	ParseErr   error
}

// Engine runs batches against a shared LRU AST cache (spec §4.H).
type Engine struct {
	cache *lru.Cache[string, *CachedAst]
	log   *logging.Logger
	hits  atomic.Int64
	misses atomic.Int64
}

func NewEngine(log *logging.Logger, cacheSize int) (*Engine, error) {
	if log == nil {
		log = logging.DefaultLogger()
	}
	if cacheSize <= 0 {
		cacheSize = 2048
	}
	c, err := lru.New[string, *CachedAst](cacheSize)
	if err != nil {
		return nil, engineerr.Wrap(err, engineerr.Internal, "failed to allocate AST cache")
	}
	return &Engine{cache: c, log: log}, nil
}

// Run executes a batch (spec §4.H's full five-step pipeline).
func (e *Engine) Run(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	fileSets := make([][]string, len(req.Queries))
	union := map[string]bool{}
	for i, q := range req.Queries {
		files, err := ResolveScope(q.Scope)
		if err != nil {
			return Response{}, err
		}
		fileSets[i] = files
		for _, f := range files {
			union[f] = true
		}
	}

	absFiles := make([]string, 0, len(union))
	for f := range union {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		absFiles = append(absFiles, abs)
	}
	sort.Strings(absFiles)

	failed := map[string]string{}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range absFiles {
		f := f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if _, ok := e.cache.Get(f); ok {
				e.hits.Add(1)
				return nil
			}
			e.misses.Add(1)
			ast, err := e.parseFile(f)
			if err != nil {
				mu.Lock()
				failed[f] = err.Error()
				mu.Unlock()
				return nil
			}
			e.cache.Add(f, ast)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	results := make([]AnalysisResult, len(req.Queries))
	for i, q := range req.Queries {
		var findings []Finding
		for _, f := range fileSets[i] {
			abs, _ := filepath.Abs(f)
			if _, bad := failed[abs]; bad {
				continue
			}
			ast, ok := e.cache.Get(abs)
			if !ok {
				continue
			}
			fn := analyzerFor(q.Command, q.Kind)
			if fn == nil {
				continue
			}
			findings = append(findings, fn(ast, q.Options)...)
		}
		results[i] = AnalysisResult{QueryIndex: i, Findings: findings}
	}

	return Response{
		Results: results,
		Summary: Summary{
			TotalFiles:  len(absFiles),
			CacheHits:   e.hits.Load(),
			CacheMisses: e.misses.Load(),
			FailedFiles: failed,
			Duration:    time.Since(start),
		},
	}, nil
}

func (e *Engine) parseFile(path string) (*CachedAst, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lang, prod := producerFor(path)
	if prod == nil {
		return &CachedAst{Path: path, Content: string(content), Language: lang}, nil
	}
	result, err := prod.ParseSource(string(content))
	if err != nil {
		return nil, err
	}
	metrics := []complexity.Metrics{complexity.Analyze(string(content), complexityLanguage(lang))}
	return &CachedAst{
		Path:       path,
		Content:    string(content),
		Language:   lang,
		Symbols:    result.Symbols,
		Imports:    result.Imports,
		Complexity: metrics,
	}, nil
}

func producerFor(path string) (string, parser.Producer) {
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case "ts", "tsx", "js", "jsx", "mjs", "cjs", "mts", "cts":
		return "typescript", typescript.New()
	case "py":
		return "python", python.New()
	case "rs":
		return "rust", rust.New()
	case "svelte":
		return "svelte", svelte.New()
	default:
		return "", nil
	}
}

func complexityLanguage(lang string) complexity.Language {
	switch lang {
	case "python":
		return complexity.LangPython
	case "rust":
		return complexity.LangRust
	case "svelte":
		return complexity.LangTypeScript
	default:
		return complexity.LangTypeScript
	}
}

// ResolveScope expands a Scope to a concrete file list (spec §4.H step 1):
// file scopes are a singleton; directory/workspace scopes walk honoring
// ignore files, then intersect with include globs and subtract exclude
// globs.
func ResolveScope(s Scope) ([]string, error) {
	switch s.Type {
	case ScopeFile:
		return []string{s.Path}, nil
	case ScopeDirectory, ScopeWorkspace:
		return walkScoped(s)
	default:
		return nil, engineerr.New(engineerr.InvalidRequest, "unknown scope type %q", s.Type)
	}
}

func walkScoped(s Scope) ([]string, error) {
	ignorer := loadIgnoreFile(filepath.Join(s.Path, ".gitignore"))
	var out []string
	err := filepath.Walk(s.Path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		rel, rerr := filepath.Rel(s.Path, p)
		if rerr != nil {
			rel = p
		}
		if info.IsDir() {
			if rel != "." && ignorer != nil && ignorer.MatchesPath(rel) {
				return filepath.SkipDir
			}
			if info.Name() == ".git" || info.Name() == "node_modules" || info.Name() == "target" {
				return filepath.SkipDir
			}
			return nil
		}
		if ignorer != nil && ignorer.MatchesPath(rel) {
			return nil
		}
		if len(s.IncludeGlobs) > 0 && !matchesAny(s.IncludeGlobs, rel) {
			return nil
		}
		if matchesAny(s.ExcludeGlobs, rel) {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, engineerr.Wrap(err, engineerr.Internal, "failed to walk scope %s", s.Path)
	}
	return out, nil
}

func loadIgnoreFile(path string) *gitignore.GitIgnore {
	ig, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return ig
}

func matchesAny(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(g, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}
