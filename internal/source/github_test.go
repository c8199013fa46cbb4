package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	gh "reclone/internal/github"
	"reclone/internal/repo"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestGitHubClient(t *testing.T, mux *http.ServeMux) *gh.Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := gh.NewClient(context.Background(), "dummy")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("url.Parse failed: %v", err)
	}
	client.Client.BaseURL = base
	client.Client.UploadURL = base
	return client
}

func repoJSON(name string, fork, archived bool) string {
	return fmt.Sprintf(`{"name":%q,"full_name":"acme/%s","fork":%t,"archived":%t,"clone_url":"https://github.com/acme/%s.git","ssh_url":"git@github.com:acme/%s.git"}`,
		name, name, fork, archived, name, name)
}

func TestListGitHub_OrgPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s?page=2>; rel="next"`, "http://"+r.Host+r.URL.Path))
			fmt.Fprintf(w, "[%s,%s]", repoJSON("one", false, false), repoJSON("forked", true, false))
		case "2":
			fmt.Fprintf(w, "[%s,%s]", repoJSON("two", false, false), repoJSON("old", false, true))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})
	client := newTestGitHubClient(t, mux)

	refs, err := ListGitHub(t.Context(), client, GitHubQuery{Org: "acme", Forks: PolicyExclude, Archived: PolicyExclude})
	if err != nil {
		t.Fatalf("ListGitHub failed: %v", err)
	}
	want := []repo.Ref{
		{Name: "one", URL: "https://github.com/acme/one.git"},
		{Name: "two", URL: "https://github.com/acme/two.git"},
	}
	if diff := cmp.Diff(want, refs); diff != "" {
		t.Fatalf("refs mismatch (-want +got):\n%s", diff)
	}
}

func TestListGitHub_UserPoliciesAndProtocol(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "[%s,%s,%s]", repoJSON("one", false, false), repoJSON("forked", true, false), repoJSON("old", false, true))
	})
	client := newTestGitHubClient(t, mux)

	tests := []struct {
		name  string
		query GitHubQuery
		want  []string
	}{
		{name: "defaults exclude forks and archived", query: GitHubQuery{User: "octocat"}, want: []string{"one"}},
		{name: "include forks", query: GitHubQuery{User: "octocat", Forks: PolicyInclude}, want: []string{"one", "forked"}},
		{name: "only archived", query: GitHubQuery{User: "octocat", Archived: PolicyOnly}, want: []string{"old"}},
		{name: "limit", query: GitHubQuery{User: "octocat", Forks: PolicyInclude, Archived: PolicyInclude, Limit: 2}, want: []string{"one", "forked"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := ListGitHub(t.Context(), client, tt.query)
			if err != nil {
				t.Fatalf("ListGitHub failed: %v", err)
			}
			var names []string
			for _, r := range refs {
				names = append(names, r.Name)
			}
			if diff := cmp.Diff(tt.want, names); diff != "" {
				t.Fatalf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}

	refs, err := ListGitHub(t.Context(), client, GitHubQuery{User: "octocat", Protocol: ProtocolSSH})
	if err != nil {
		t.Fatalf("ListGitHub failed: %v", err)
	}
	if len(refs) != 1 || refs[0].URL != "git@github.com:acme/one.git" {
		t.Fatalf("expected ssh url, got %+v", refs)
	}
}

func TestListGitHub_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message":"boom"}`)
	})
	client := newTestGitHubClient(t, mux)

	if _, err := ListGitHub(t.Context(), client, GitHubQuery{Org: "acme"}); err == nil {
		t.Fatalf("expected API error")
	}
	if _, err := ListGitHub(t.Context(), client, GitHubQuery{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without org/user, got %v", err)
	}
	if _, err := ListGitHub(t.Context(), client, GitHubQuery{Org: "a", User: "b"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for org+user, got %v", err)
	}
	if _, err := ListGitHub(t.Context(), nil, GitHubQuery{Org: "acme"}); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
