// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package outline parses the three project files with tree-sitter. It
// extracts a compact symbol outline for LLM context and locates syntax
// errors left behind by an edit.
package outline

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/petar-djukic/codestream/pkg/types"
)

// Kind classifies an outline symbol.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindVariable Kind = "variable"
	KindSelector Kind = "selector"
	KindElement  Kind = "element"
)

// Symbol is one named definition in a file.
type Symbol struct {
	File string
	Name string
	Line int // 1-based
	Kind Kind
}

// Problem is a syntax error located by the parser.
type Problem struct {
	File   string `json:"file"`
	Line   int    `json:"line"`   // 1-based
	Column int    `json:"column"` // 1-based
	Near   string `json:"near"`   // Source text of the offending node, truncated
}

// Report holds the analysis of one set of files.
type Report struct {
	Symbols  []Symbol
	Problems []Problem
}

// langSpec holds the tree-sitter language and definition query for a file type.
type langSpec struct {
	lang *sitter.Language
	defQ string // Captures @name; html also captures @attr
}

var specs = map[types.FileType]*langSpec{
	types.FileJS: {
		lang: javascript.GetLanguage(),
		defQ: `
			(function_declaration name: (identifier) @name)
			(class_declaration name: (identifier) @name)
			(variable_declarator name: (identifier) @name)
		`,
	},
	types.FileCSS: {
		lang: css.GetLanguage(),
		defQ: `
			(rule_set (selectors) @name)
		`,
	},
	types.FileHTML: {
		lang: html.GetLanguage(),
		defQ: `
			(attribute (attribute_name) @attr (quoted_attribute_value (attribute_value) @name))
		`,
	},
}

const maxNearLength = 40

type cacheEntry struct {
	content string
	symbols []Symbol
	probs   []Problem
}

// Analyzer parses files and caches results per filename until the content
// changes. It is safe for concurrent use.
type Analyzer struct {
	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewAnalyzer creates an analyzer with an empty cache.
func NewAnalyzer() *Analyzer {
	return &Analyzer{cache: make(map[string]cacheEntry)}
}

// Analyze parses each canonical file present in files, in scan order.
// Empty files are skipped.
func (a *Analyzer) Analyze(ctx context.Context, files map[string]string) (*Report, error) {
	report := &Report{}
	for _, f := range types.CanonicalFiles {
		content := files[f.Name]
		if strings.TrimSpace(content) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		syms, probs, err := a.analyzeFile(ctx, f, content)
		if err != nil {
			return report, err
		}
		report.Symbols = append(report.Symbols, syms...)
		report.Problems = append(report.Problems, probs...)
	}
	return report, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, f types.CanonicalFile, content string) ([]Symbol, []Problem, error) {
	a.mu.Lock()
	if cached, ok := a.cache[f.Name]; ok && cached.content == content {
		a.mu.Unlock()
		return cached.symbols, cached.probs, nil
	}
	a.mu.Unlock()

	spec := specs[f.Type]
	src := []byte(content)
	root, err := sitter.ParseCtx(ctx, src, spec.lang)
	if err != nil {
		return nil, nil, err
	}

	syms := definitions(f, spec, root, src)
	probs := problems(f.Name, root, src)

	a.mu.Lock()
	a.cache[f.Name] = cacheEntry{content: content, symbols: syms, probs: probs}
	a.mu.Unlock()
	return syms, probs, nil
}

// definitions runs the definition query and classifies each capture.
func definitions(f types.CanonicalFile, spec *langSpec, root *sitter.Node, src []byte) []Symbol {
	q, err := sitter.NewQuery([]byte(spec.defQ), spec.lang)
	if err != nil {
		return nil
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	seen := make(map[Symbol]bool)
	var out []Symbol
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}

		var attr string
		for _, c := range m.Captures {
			if q.CaptureNameForId(c.Index) == "attr" {
				attr = c.Node.Content(src)
			}
		}
		for _, c := range m.Captures {
			if q.CaptureNameForId(c.Index) != "name" {
				continue
			}
			sym := Symbol{
				File: f.Name,
				Name: strings.Join(strings.Fields(c.Node.Content(src)), " "),
				Line: int(c.Node.StartPoint().Row) + 1,
			}
			switch f.Type {
			case types.FileHTML:
				if attr != "id" {
					continue
				}
				sym.Name = "#" + sym.Name
				sym.Kind = KindElement
			case types.FileCSS:
				sym.Kind = KindSelector
			default:
				sym.Kind = jsKind(c.Node.Parent())
			}
			if sym.Name == "" || seen[sym] {
				continue
			}
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}

func jsKind(n *sitter.Node) Kind {
	if n == nil {
		return KindVariable
	}
	switch n.Type() {
	case "function_declaration":
		return KindFunction
	case "class_declaration":
		return KindClass
	default:
		return KindVariable
	}
}

// problems walks the subtrees that contain errors and reports each ERROR
// or MISSING node.
func problems(file string, root *sitter.Node, src []byte) []Problem {
	if root == nil || !root.HasError() {
		return nil
	}

	var out []Problem
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "ERROR" || n.IsMissing() {
			p := n.StartPoint()
			out = append(out, Problem{
				File:   file,
				Line:   int(p.Row) + 1,
				Column: int(p.Column) + 1,
				Near:   near(n.Content(src)),
			})
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child != nil && child.HasError() {
				walk(child)
			}
		}
	}
	walk(root)

	if len(out) == 0 {
		out = append(out, Problem{File: file, Line: 1, Column: 1})
	}
	return out
}

func near(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxNearLength {
		s = s[:maxNearLength-3] + "..."
	}
	return s
}
