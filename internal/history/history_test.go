// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/petar-djukic/codestream/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestRing_DropsOldest(t *testing.T) {
	r := NewRing(3)
	for i := 0; i < 5; i++ {
		r.Append(Entry{Role: types.RoleUser, Content: fmt.Sprint(i)})
	}

	got := r.Entries()
	assert.Len(t, got, 3)
	assert.Equal(t, "2", got[0].Content)
	assert.Equal(t, "4", got[2].Content)
}

func TestRing_IgnoresUnknownRoles(t *testing.T) {
	r := NewRing(0)
	r.Append(Entry{Role: "tool", Content: "x"})
	r.Append(Entry{Role: types.RoleAssistant, Content: "y"})
	assert.Equal(t, 1, r.Len())
}

func TestRing_EntriesIsCopy(t *testing.T) {
	r := NewRing(10)
	r.Append(Entry{Role: types.RoleUser, Content: "a"})
	got := r.Entries()
	got[0].Content = "changed"
	assert.Equal(t, "a", r.Entries()[0].Content)
}

func TestRing_Clear(t *testing.T) {
	r := NewRing(10)
	r.Append(Entry{Role: types.RoleUser, Content: "a"})
	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Entries())
}

func TestRing_ConcurrentAppend(t *testing.T) {
	r := NewRing(50)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Append(Entry{Role: types.RoleAssistant, Content: "x"})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Len())
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard.Append(Entry{Role: types.RoleUser}) })
}
