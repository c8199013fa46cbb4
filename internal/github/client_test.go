package github

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/chainguard-dev/clog"
)

func TestNewClient_NilContextReturnsError(t *testing.T) {
	var nilCtx context.Context
	_, err := NewClient(nilCtx, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "ctx is nil") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewClient_VerboseLogsAndSendsToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(server.Close)

	var buf bytes.Buffer
	logger := clog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := clog.WithLogger(context.Background(), logger)

	for _, tc := range []struct {
		name     string
		token    string
		wantAuth bool
	}{
		{name: "anonymous", token: "", wantAuth: false},
		{name: "token", token: "test-token", wantAuth: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gotAuth = ""
			buf.Reset()

			c, err := NewClient(ctx, tc.token, WithVerbose(true))
			if err != nil {
				t.Fatalf("NewClient failed: %v", err)
			}
			base, err := url.Parse(server.URL + "/")
			if err != nil {
				t.Fatalf("parse url: %v", err)
			}
			c.Client.BaseURL = base

			req, err := c.Client.NewRequest("GET", "/rate_limit", nil)
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			if _, err := c.Client.Do(ctx, req, nil); err != nil {
				t.Fatalf("Do: %v", err)
			}

			if !strings.Contains(buf.String(), "github api: GET") {
				t.Fatalf("expected verbose log, got: %q", buf.String())
			}
			if tc.wantAuth && !strings.Contains(gotAuth, "test-token") {
				t.Fatalf("expected Authorization header with token, got %q", gotAuth)
			}
			if !tc.wantAuth && gotAuth != "" {
				t.Fatalf("expected no Authorization header, got %q", gotAuth)
			}
		})
	}
}
