package repo

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewRef(t *testing.T) {
	tests := []struct {
		name    string
		inName  string
		inURL   string
		want    Ref
		wantErr error
		anyErr  bool
	}{
		{name: "trims", inName: " a ", inURL: " https://x/a.git ", want: Ref{Name: "a", URL: "https://x/a.git"}},
		{name: "empty name", inName: "", inURL: "https://x/a.git", wantErr: ErrEmptyName},
		{name: "empty url", inName: "a", inURL: "  ", wantErr: ErrEmptyURL},
		{name: "nested path", inName: "a/b", inURL: "u", anyErr: true},
		{name: "dot dot", inName: "..", inURL: "u", anyErr: true},
		{name: "dot", inName: ".", inURL: "u", anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewRef(tt.inName, tt.inURL)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			case tt.anyErr:
				if err == nil {
					t.Fatalf("expected error for %q", tt.inName)
				}
				return
			case err != nil:
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v want %+v", got, tt.want)
			}
		})
	}
}

func TestRef_Destination(t *testing.T) {
	r := Ref{Name: "telescope.nvim", URL: "u"}
	if got, want := r.Destination("/tmp/x"), filepath.Join("/tmp/x", "telescope.nvim"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestResults_CountsAndFailed(t *testing.T) {
	res := Results{
		"c": {Ref: Ref{Name: "c"}, Status: StatusFailure, Message: "boom"},
		"a": {Ref: Ref{Name: "a"}, Status: StatusSuccess, Duration: time.Second},
		"b": {Ref: Ref{Name: "b"}, Status: StatusFailure, Message: "nope"},
	}

	ok, failed := res.Counts()
	if ok != 1 || failed != 2 {
		t.Fatalf("Counts() = %d, %d; want 1, 2", ok, failed)
	}

	if diff := cmp.Diff([]string{"a", "b", "c"}, res.Names()); diff != "" {
		t.Fatalf("Names() mismatch (-want +got):\n%s", diff)
	}

	var names []string
	for _, o := range res.Failed() {
		names = append(names, o.Ref.Name)
	}
	if diff := cmp.Diff([]string{"b", "c"}, names); diff != "" {
		t.Fatalf("Failed() mismatch (-want +got):\n%s", diff)
	}
}

func TestRefs_DropsFiles(t *testing.T) {
	entries := []ManifestEntry{
		{Ref: Ref{Name: "lua", URL: "u1"}, Files: []string{"src/parser.c"}},
		{Ref: Ref{Name: "go", URL: "u2"}},
	}
	want := []Ref{{Name: "lua", URL: "u1"}, {Name: "go", URL: "u2"}}
	if diff := cmp.Diff(want, Refs(entries)); diff != "" {
		t.Fatalf("Refs mismatch (-want +got):\n%s", diff)
	}
}
