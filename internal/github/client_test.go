package github_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zksync-wtf/harvester/internal/github"
)

func newTestClient(t *testing.T, handler http.Handler) (*github.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := github.NewClient(github.Config{
		APIBase:   server.URL,
		RawBase:   server.URL + "/raw",
		Token:     "secret-token",
		UserAgent: "harvester-test",
	})
	return client, server
}

func TestListTags(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery, gotAccept, gotAuth, gotUA string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `[{"name":"v1.0.0"},{"name":"v1.1.0"}]`)
	}))

	tags, err := client.ListTags(context.Background(), "owner", "repo", 2, 50)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "v1.0.0", tags[0].Name)
	assert.Equal(t, "/repos/owner/repo/tags", gotPath)
	assert.Equal(t, "per_page=50&page=2", gotQuery)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "harvester-test", gotUA)
}

func TestListContents(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/contents/tools/verifier", r.URL.Path)
		assert.Equal(t, "v1.0.0", r.URL.Query().Get("ref"))
		fmt.Fprint(w, `[
			{"name":"a.json","path":"tools/verifier/a.json","type":"file"},
			{"name":"sub","path":"tools/verifier/sub","type":"dir"}
		]`)
	}))

	items, err := client.ListContents(context.Background(), "owner", "repo", "tools/verifier", "v1.0.0")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "file", items[0].Type)
	assert.Equal(t, "dir", items[1].Type)
}

func TestListContentsNotFound(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))

	_, err := client.ListContents(context.Background(), "owner", "repo", "nope", "main")
	require.Error(t, err)
	assert.ErrorIs(t, err, github.ErrNotFound)
}

func TestListContentsServerError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.ListContents(context.Background(), "owner", "repo", "path", "main")
	require.Error(t, err)
	assert.NotErrorIs(t, err, github.ErrNotFound)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestRawContent(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/raw/owner/repo/v1.0.0/tools/verifier/a.json", r.URL.Path)
		// Raw requests carry no API accept header.
		assert.Empty(t, r.Header.Get("Accept"))
		fmt.Fprint(w, `{"x":1}`)
	}))

	raw, err := client.RawContent(context.Background(), "owner", "repo", "v1.0.0", "tools/verifier/a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, raw)
}

func TestURLHelpers(t *testing.T) {
	t.Parallel()

	client := github.NewClient(github.Config{})
	assert.Equal(t,
		"https://raw.githubusercontent.com/o/r/main/a/b.json",
		client.RawURL("o", "r", "main", "a/b.json"),
	)
	assert.Equal(t,
		"https://github.com/o/r/blob/main/a/b.json",
		client.BlobURL("o", "r", "main", "a/b.json"),
	)
}
