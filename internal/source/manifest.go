package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reclone/internal/repo"
	"sort"
	"strings"

	"github.com/chainguard-dev/clog"
	"gopkg.in/yaml.v3"
)

const (
	ManifestFormatJSON = "json"
	ManifestFormatYAML = "yaml"
)

// ManifestFormatFor infers the document format from the file extension.
func ManifestFormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ManifestFormatYAML
	default:
		return ManifestFormatJSON
	}
}

// LoadManifest reads a parser manifest from path.
func LoadManifest(ctx context.Context, path string) ([]repo.ManifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: manifest %q does not exist", ErrInvalidInput, path)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(ctx, data, ManifestFormatFor(path))
}

// ParseManifest decodes a manifest keyed by parser name. Entries that are not
// objects, lack install_info, or have no url are logged and skipped; the
// result holds only entries with a usable URL, sorted by name. A malformed
// files list is logged and dropped without skipping the entry.
//
// An empty object yields no entries in either format. An empty or null
// document, or one whose top level is not an object, is ErrManifestParse.
func ParseManifest(ctx context.Context, data []byte, format string) ([]repo.ManifestEntry, error) {
	raw, err := decodeManifest(data, format)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	log := clog.FromContext(ctx)
	entries := make([]repo.ManifestEntry, 0, len(names))
	for _, name := range names {
		entry, err := manifestEntry(ctx, name, raw[name])
		if err != nil {
			log.Warnf("Skipping parser %s: %v", name, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// manifestEntry reads install_info.url and install_info.files from one
// generically decoded entry.
func manifestEntry(ctx context.Context, name string, v any) (repo.ManifestEntry, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return repo.ManifestEntry{}, errors.New("entry is not an object")
	}
	rawInfo, ok := obj["install_info"]
	if !ok || rawInfo == nil {
		return repo.ManifestEntry{}, errors.New("missing install_info")
	}
	info, ok := rawInfo.(map[string]any)
	if !ok {
		return repo.ManifestEntry{}, errors.New("install_info is not an object")
	}

	var url string
	if rawURL, ok := info["url"]; ok && rawURL != nil {
		if url, ok = rawURL.(string); !ok {
			return repo.ManifestEntry{}, fmt.Errorf("url is a %T, not a string", rawURL)
		}
	}
	ref, err := repo.NewRef(name, url)
	if err != nil {
		return repo.ManifestEntry{}, err
	}

	files, err := stringList(info["files"])
	if err != nil {
		clog.FromContext(ctx).Warnf("Ignoring files of parser %s: %v", name, err)
		files = nil
	}
	return repo.ManifestEntry{Ref: ref, Files: files}, nil
}

func stringList(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("files is a %T, not a list", v)
	}
	var out []string
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("files[%d] is a %T, not a string", i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeManifest(data []byte, format string) (map[string]any, error) {
	// Entries stay generic so one malformed value does not poison the document.
	switch format {
	case ManifestFormatYAML:
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrManifestParse, err)
		}
		if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
			return nil, fmt.Errorf("%w: document is empty", ErrManifestParse)
		}
		doc := root.Content[0]
		if doc.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: document is not an object", ErrManifestParse)
		}
		out := make(map[string]any, len(doc.Content)/2)
		if err := doc.Decode(&out); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrManifestParse, err)
		}
		return out, nil
	case ManifestFormatJSON, "":
		var root any
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrManifestParse, err)
		}
		out, ok := root.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: document is not an object", ErrManifestParse)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
}
