package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/autoapply/pkg/autofill"
)

func TestFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/profile", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"basics": {"first_name": "Ada", "email": "ada@example.com"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-token", nil)
	p, err := c.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Basics.FirstName)
	assert.Equal(t, "ada@example.com", p.Basics.Email)
}

func TestFetchProfileMissingData(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, ""},
		{"unauthorized", http.StatusUnauthorized, ""},
		{"forbidden", http.StatusForbidden, ""},
		{"empty payload", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, "t", nil).FetchProfile(context.Background())
			assert.ErrorIs(t, err, autofill.ErrUpstreamDataMissing)
		})
	}
}

func TestFetchProfileRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"basics": {"first_name": "Ada"}}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL, "t", nil).FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Basics.FirstName)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchResume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/resume", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="ada-cv.pdf"`)
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	f, err := New(srv.URL, "t", nil).FetchResume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada-cv.pdf", f.Name)
	assert.Equal(t, "application/pdf", f.MIME)
	assert.Equal(t, []byte("%PDF-1.4"), f.Data)
}

func TestFetchResumeDefaultsFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	f, err := New(srv.URL, "t", nil).FetchResume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "resume.pdf", f.Name)
}

func TestFetchResumeMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "t", nil).FetchResume(context.Background())
	assert.ErrorIs(t, err, autofill.ErrUpstreamDataMissing)
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/job" {
			w.Write([]byte("<html><title>Engineer - Acme</title></html>"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New("http://unused.invalid", "t", nil)
	html, err := c.FetchPage(context.Background(), srv.URL+"/job")
	require.NoError(t, err)
	assert.Contains(t, html, "Engineer - Acme")

	_, err = c.FetchPage(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}
