package repo

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyName = errors.New("repository name is empty")
	ErrEmptyURL  = errors.New("repository url is empty")
)

// Ref names one repository to clone. Name doubles as the destination
// subdirectory under the batch root, so it must be a single path element.
type Ref struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func NewRef(name, url string) (Ref, error) {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if name == "" {
		return Ref{}, ErrEmptyName
	}
	if name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return Ref{}, fmt.Errorf("invalid repository name %q: must be a single path element", name)
	}
	if url == "" {
		return Ref{}, fmt.Errorf("%s: %w", name, ErrEmptyURL)
	}
	return Ref{Name: name, URL: url}, nil
}

// Destination returns root/<name>.
func (r Ref) Destination(root string) string {
	return filepath.Join(root, r.Name)
}

// ManifestEntry is a Ref loaded from a parser manifest along with the
// source files the manifest lists for it.
type ManifestEntry struct {
	Ref
	Files []string `json:"files,omitempty"`
}

// Refs drops the file lists.
func Refs(entries []ManifestEntry) []Ref {
	out := make([]Ref, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Ref)
	}
	return out
}
