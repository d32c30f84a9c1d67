// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

// FileType is the short tag the UI uses for a canonical file.
type FileType string

const (
	FileHTML FileType = "html"
	FileJS   FileType = "js"
	FileCSS  FileType = "css"
)

// CanonicalFile binds a fixed filename to its type tag.
type CanonicalFile struct {
	Name string
	Type FileType
}

// Canonical filenames.
const (
	IndexHTML  = "index.html"
	FrontendJS = "frontend.js"
	StylesCSS  = "styles.css"
)

// CanonicalFiles lists the editable files in scan order. Patch resolution
// walks this order, so the first entry wins when a SEARCH text matches
// more than one file.
var CanonicalFiles = []CanonicalFile{
	{Name: IndexHTML, Type: FileHTML},
	{Name: FrontendJS, Type: FileJS},
	{Name: StylesCSS, Type: FileCSS},
}

// LookupFile returns the canonical file with the given filename.
func LookupFile(name string) (CanonicalFile, bool) {
	for _, f := range CanonicalFiles {
		if f.Name == name {
			return f, true
		}
	}
	return CanonicalFile{}, false
}

// FileForType returns the canonical file carrying the given type tag.
func FileForType(t FileType) (CanonicalFile, bool) {
	for _, f := range CanonicalFiles {
		if f.Type == t {
			return f, true
		}
	}
	return CanonicalFile{}, false
}

// Seed holds the caller-supplied initial content of the three files.
type Seed struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}

// ForFile returns the seed content for a canonical filename.
func (s Seed) ForFile(name string) string {
	switch name {
	case IndexHTML:
		return s.HTML
	case FrontendJS:
		return s.JS
	case StylesCSS:
		return s.CSS
	default:
		return ""
	}
}
