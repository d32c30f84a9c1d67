// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package filestore

import (
	"testing"

	"github.com/petar-djukic/codestream/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StripsTrailingNewlines(t *testing.T) {
	s := New(types.Seed{HTML: "<p>x</p>\n\n", CSS: "body{}\n", JS: ""})

	assert.Equal(t, "<p>x</p>", s.Content(types.IndexHTML))
	assert.Equal(t, "body{}", s.Content(types.StylesCSS))
	assert.Equal(t, "", s.Content(types.FrontendJS))
}

func TestSet_Canonicalizes(t *testing.T) {
	s := New(types.Seed{})
	require.NoError(t, s.Set(types.FrontendJS, "let a = 1;\n"))
	assert.Equal(t, "let a = 1;", s.Content(types.FrontendJS))
}

func TestSet_RejectsUnknownFile(t *testing.T) {
	s := New(types.Seed{})
	err := s.Set("app.ts", "x")
	assert.Error(t, err)
	assert.Len(t, s.Snapshot(), 3)
}

func TestFiles_FixedOrder(t *testing.T) {
	s := New(types.Seed{})
	names := make([]string, 0, 3)
	for _, f := range s.Files() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"index.html", "frontend.js", "styles.css"}, names)
}

func TestSnapshot_IsCopy(t *testing.T) {
	s := New(types.Seed{CSS: "a"})
	snap := s.Snapshot()
	snap[types.StylesCSS] = "changed"
	assert.Equal(t, "a", s.Content(types.StylesCSS))
	assert.Equal(t, types.Seed{CSS: "a"}, s.Seed())
}
