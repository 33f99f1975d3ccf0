//go:build integration
// +build integration

package integration_test

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geraldbaeck/luftguete/internal/database"
	"github.com/geraldbaeck/luftguete/internal/pipeline"
	"github.com/geraldbaeck/luftguete/internal/source"
)

var logger *logrus.Logger

const feedContent = "Lumes;v2.10;15.03.20-10:30:00\n" +
	";Zeit-O2;O2;Zeit-NO;NO\n" +
	";;HMW;;HMW\n" +
	";;ug/m3;;ug/m3\n" +
	"STEF;15.03.2020, 10:00;5,2;15.03.2020, 10:00;3,1\n" +
	"TAB;15.03.2020, 10:00;4,8;15.03.2020, 10:00;2,9\n"

func TestMain(m *testing.M) {
	logger = logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	os.Exit(m.Run())
}

func connString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnvOrDefault("DB_HOST", "db"),
		getEnvOrDefault("DB_PORT", "5432"),
		getEnvOrDefault("DB_USER", "luftguete"),
		getEnvOrDefault("DB_PASSWORD", "luftguete"),
		getEnvOrDefault("DB_NAME", "luftguete"),
	)
}

func setupTestDB(t *testing.T) *database.PostgresRepo {
	repo, err := database.NewPostgresRepo(connString())
	require.NoError(t, err)

	// Clean up any existing test data
	db, err := sql.Open("postgres", connString())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("TRUNCATE TABLE datapoints")
	require.NoError(t, err)
	_, err = db.Exec("TRUNCATE TABLE ingest_state")
	require.NoError(t, err)

	return repo
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// feedServer serves the Lumes file with ETag semantics: a request whose
// If-None-Match matches the current tag gets a 304.
func feedServer(etag string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, feedContent)
	}))
}

type memBlobs struct {
	puts map[string][]byte
}

func (m *memBlobs) Put(ctx context.Context, key string, body []byte, contentType string) error {
	m.puts[key] = body
	return nil
}

func newPipeline(t *testing.T, repo *database.PostgresRepo, url string, blobs *memBlobs) *pipeline.Pipeline {
	fetcher := source.NewFetcher(source.Config{
		URL:     url,
		Timeout: 10 * time.Second,
	}, logger)

	p, err := pipeline.New(fetcher, repo, blobs, logger, pipeline.NewMetrics(prometheus.NewRegistry()), pipeline.Options{
		Location: time.UTC,
	})
	require.NoError(t, err)
	return p
}

func TestIngestionEndToEnd(t *testing.T) {
	repo := setupTestDB(t)
	defer repo.Close()

	srv := feedServer(`"rev-1"`)
	defer srv.Close()

	blobs := &memBlobs{puts: make(map[string][]byte)}
	p := newPipeline(t, repo, srv.URL, blobs)
	ctx := context.Background()

	// First cycle ingests the file.
	res, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusIngested, res.Status)
	// Three datapoints: the trailing NO block of the last row is only
	// finalized by a following time marker, which never comes.
	assert.Equal(t, 3, res.Count)

	etag, err := repo.LastETag(ctx)
	require.NoError(t, err)
	assert.Equal(t, `"rev-1"`, etag)

	assert.Contains(t, blobs.puts, "2020/03/15/202003151030_original.csv")
	assert.Contains(t, blobs.puts, "2020/03/15/202003151030.json")

	// Second cycle sees the matching ETag and does nothing.
	res, err = p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusSkipped, res.Status)
}

func TestIngestionIsIdempotent(t *testing.T) {
	repo := setupTestDB(t)
	defer repo.Close()

	// Two servers publishing identical content under different ETags,
	// as after a redeployment of the source.
	first := feedServer(`"rev-1"`)
	defer first.Close()
	second := feedServer(`"rev-2"`)
	defer second.Close()

	blobs := &memBlobs{puts: make(map[string][]byte)}
	ctx := context.Background()

	res, err := newPipeline(t, repo, first.URL, blobs).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, pipeline.StatusIngested, res.Status)

	res, err = newPipeline(t, repo, second.URL, blobs).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, pipeline.StatusIngested, res.Status)

	// Same ids upserted twice leave a single copy of each record.
	db, err := sql.Open("postgres", connString())
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM datapoints").Scan(&count))
	assert.Equal(t, 3, count)
}
