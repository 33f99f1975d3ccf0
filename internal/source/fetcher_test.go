package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(url string) *Fetcher {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewFetcher(Config{
		URL:     url,
		Timeout: 5 * time.Second,
	}, logger)
}

func TestFetchNewContent(t *testing.T) {
	// Unit row bytes in ISO-8859-1: µg/m³
	body := append([]byte("Lumes;v2.10;29.09.17-10:30:00\n;Zeit-O2;O2\n;;HMW\n;;"), 0xB5, 'g', '/', 'm', 0xB3, '\n')

	var gotConditional string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotConditional = r.Header.Get("If-None-Match")
		w.Header().Set("ETag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
	defer srv.Close()

	res, err := newTestFetcher(srv.URL).Fetch(context.Background(), "")
	require.NoError(t, err)

	assert.Empty(t, gotConditional, "no stored etag means an unconditional request")
	assert.True(t, res.Modified)
	assert.Equal(t, `"abc123"`, res.ETag)
	assert.Contains(t, res.Body, "µg/m³", "body is decoded from ISO-8859-1")
}

func TestFetchSendsStoredETag(t *testing.T) {
	var gotConditional string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotConditional = r.Header.Get("If-None-Match")
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	res, err := newTestFetcher(srv.URL).Fetch(context.Background(), `"abc123"`)
	require.NoError(t, err)

	assert.Equal(t, `"abc123"`, gotConditional)
	assert.False(t, res.Modified)
	assert.Empty(t, res.Body)
}

func TestFetchUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv.URL).Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestFetchRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestFetcher(srv.URL).Fetch(ctx, "")
	assert.Error(t, err)
}
