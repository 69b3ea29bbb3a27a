package http_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/confpub"
	confhttp "github.com/fwojciec/confpub/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FindPage(t *testing.T) {
	t.Parallel()

	t.Run("returns title and version with basic auth", func(t *testing.T) {
		t.Parallel()

		var gotAuth, gotPath, gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"123","type":"page","title":"Release Notes","version":{"number":12}}`))
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL, "bot@example.com", "secret")
		page, err := client.FindPage(context.Background(), "123", confpub.FindPageOptions{})

		require.NoError(t, err)
		assert.Equal(t, "123", page.ID)
		assert.Equal(t, "Release Notes", page.Title)
		assert.Equal(t, 12, page.Version)
		assert.Empty(t, page.Body)
		assert.Equal(t, "/wiki/rest/api/content/123", gotPath)
		assert.Empty(t, gotQuery)
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("bot@example.com:secret"))
		assert.Equal(t, want, gotAuth)
	})

	t.Run("trims trailing slash from base URL", func(t *testing.T) {
		t.Parallel()

		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_, _ = w.Write([]byte(`{"title":"T","version":{"number":1}}`))
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL+"/", "u", "k")
		_, err := client.FindPage(context.Background(), "9", confpub.FindPageOptions{})

		require.NoError(t, err)
		assert.Equal(t, "/wiki/rest/api/content/9", gotPath)
	})

	t.Run("expands storage body when requested", func(t *testing.T) {
		t.Parallel()

		var gotExpand string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotExpand = r.URL.Query().Get("expand")
			_, _ = w.Write([]byte(`{"title":"T","version":{"number":3},"body":{"storage":{"value":"<p>hi</p>","representation":"storage"}}}`))
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k")
		page, err := client.FindPage(context.Background(), "9", confpub.FindPageOptions{IncludeBody: true})

		require.NoError(t, err)
		assert.Equal(t, "body.storage,version", gotExpand)
		assert.Equal(t, "<p>hi</p>", page.Body)
	})

	t.Run("returns not found with status and server message", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"statusCode":404,"message":"No content found with id: 123"}`))
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k")
		page, err := client.FindPage(context.Background(), "123", confpub.FindPageOptions{})

		require.Error(t, err)
		assert.Nil(t, page)
		assert.Equal(t, confpub.ENOTFOUND, confpub.ErrorCode(err))
		assert.Contains(t, confpub.ErrorMessage(err), "404 Not Found")
		assert.Contains(t, confpub.ErrorMessage(err), "No content found with id: 123")
	})

	t.Run("maps auth failures to unauthorized", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "wrong")
		_, err := client.FindPage(context.Background(), "123", confpub.FindPageOptions{})

		require.Error(t, err)
		assert.Equal(t, confpub.EUNAUTHORIZED, confpub.ErrorCode(err))
		assert.Contains(t, confpub.ErrorMessage(err), "401")
	})

	t.Run("returns error for malformed body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k")
		_, err := client.FindPage(context.Background(), "123", confpub.FindPageOptions{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode page 123")
	})

	t.Run("returns error when version is missing", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"title":"T"}`))
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k")
		_, err := client.FindPage(context.Background(), "123", confpub.FindPageOptions{})

		require.Error(t, err)
		assert.Contains(t, confpub.ErrorMessage(err), "no version number")
	})

	t.Run("respects custom timeout option", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte(`{"title":"T","version":{"number":1}}`))
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k", confhttp.WithTimeout(10*time.Millisecond))
		_, err := client.FindPage(context.Background(), "123", confpub.FindPageOptions{})

		require.Error(t, err)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"title":"T","version":{"number":1}}`))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := confhttp.NewClient(server.URL, "u", "k")
		_, err := client.FindPage(ctx, "123", confpub.FindPageOptions{})

		require.Error(t, err)
	})
}

func TestClient_TLSVerification(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title":"T","version":{"number":1}}`))
	})

	t.Run("accepts self-signed certificate when verification is skipped", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewTLSServer(handler)
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k", confhttp.WithInsecureSkipVerify(true))
		_, err := client.FindPage(context.Background(), "1", confpub.FindPageOptions{})

		require.NoError(t, err)
	})

	t.Run("rejects self-signed certificate by default", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewTLSServer(handler)
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k")
		_, err := client.FindPage(context.Background(), "1", confpub.FindPageOptions{})

		require.Error(t, err)
	})
}

func TestClient_UpdatePage(t *testing.T) {
	t.Parallel()

	t.Run("puts storage body with next version", func(t *testing.T) {
		t.Parallel()

		var gotMethod, gotPath, gotContentType string
		var got map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			gotContentType = r.Header.Get("Content-Type")
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &got)
			_, _ = w.Write([]byte(`{"id":"123","version":{"number":13}}`))
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k")
		err := client.UpdatePage(context.Background(), &confpub.UpdateRequest{
			ContentID: "123",
			Title:     "Release Notes",
			SpaceKey:  "ENG",
			Body:      "<p>v2</p>",
			Version:   13,
		})

		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "/wiki/rest/api/content/123", gotPath)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, map[string]any{
			"id":    "123",
			"type":  "page",
			"title": "Release Notes",
			"space": map[string]any{"key": "ENG"},
			"body": map[string]any{"storage": map[string]any{
				"value":          "<p>v2</p>",
				"representation": "storage",
			}},
			"version": map[string]any{"number": float64(13)},
		}, got)
	})

	t.Run("returns conflict for stale version", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"Version must be incremented on update."}`))
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k")
		err := client.UpdatePage(context.Background(), &confpub.UpdateRequest{
			ContentID: "123", Title: "T", SpaceKey: "ENG", Version: 5,
		})

		require.Error(t, err)
		assert.Equal(t, confpub.ECONFLICT, confpub.ErrorCode(err))
		assert.Contains(t, confpub.ErrorMessage(err), "409 Conflict")
	})

	t.Run("rejects invalid request without calling server", func(t *testing.T) {
		t.Parallel()

		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k")
		err := client.UpdatePage(context.Background(), &confpub.UpdateRequest{ContentID: "123", Version: 2})

		require.Error(t, err)
		assert.Equal(t, confpub.EINVALID, confpub.ErrorCode(err))
		assert.False(t, called)
	})
}

func TestClient_DeleteVersion(t *testing.T) {
	t.Parallel()

	t.Run("deletes the given version", func(t *testing.T) {
		t.Parallel()

		var gotMethod, gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k")
		err := client.DeleteVersion(context.Background(), "123", 1)

		require.NoError(t, err)
		assert.Equal(t, http.MethodDelete, gotMethod)
		assert.Equal(t, "/wiki/rest/api/content/123/version/1", gotPath)
	})

	t.Run("reuses the connection across sequential deletes", func(t *testing.T) {
		t.Parallel()

		var conns atomic.Int32
		server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message":"deleted"}`))
		}))
		server.Config.ConnState = func(_ net.Conn, state http.ConnState) {
			if state == http.StateNew {
				conns.Add(1)
			}
		}
		server.Start()
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k")
		for range 3 {
			require.NoError(t, client.DeleteVersion(context.Background(), "123", 1))
		}

		assert.Equal(t, int32(1), conns.Load())
	})

	t.Run("returns error for failed delete", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Cannot delete current version"}`))
		}))
		defer server.Close()

		client := confhttp.NewClient(server.URL, "u", "k")
		err := client.DeleteVersion(context.Background(), "123", 1)

		require.Error(t, err)
		assert.Equal(t, confpub.EINVALID, confpub.ErrorCode(err))
		assert.Contains(t, confpub.ErrorMessage(err), "delete version 1 of page 123: 400 Bad Request")
	})
}

// Compile-time verification that Client implements confpub.PageService
var _ confpub.PageService = (*confhttp.Client)(nil)
