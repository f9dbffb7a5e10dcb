package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"content-orchestrator/core/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB spins up a throwaway Postgres container and runs the
// migrations against it. Set DB_TESTS=1 to enable; these tests need Docker.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	if os.Getenv("DB_TESTS") == "" {
		t.Skip("set DB_TESTS=1 to run database tests")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "contentops",
			"POSTGRES_PASSWORD": "contentops",
			"POSTGRES_DB":       "contentops_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://contentops:contentops@%s:%s/contentops_test?sslmode=disable", host, port.Port())

	m, err := migrate.New("file://../../migrations", url)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	db, err := NewDB(url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func testView(id string) models.JobView {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return models.JobView{
		ID:     id,
		Status: models.JobStatusPending,
		Input: models.JobInput{
			OperationType: models.OpContentCreation,
			Category:      "beauty",
			Requirements:  "spring skincare series",
			Keywords:      []string{"sunscreen", "spf"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestJobStoreRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	store := NewJobStore(db)
	ctx := context.Background()

	id := uuid.New().String()
	view := testView(id)
	require.NoError(t, store.CreateJob(ctx, view))

	require.NoError(t, store.AppendEvent(ctx, id, models.JobEvent{
		Timestamp: time.Now().UTC(),
		Message:   "stage competitor_scan started",
	}))
	require.NoError(t, store.AppendEvent(ctx, id, models.JobEvent{
		Timestamp: time.Now().UTC(),
		Message:   "stage competitor_scan completed",
	}))

	result := json.RawMessage(`{"content_draft":{"title":"Beauty | sunscreen"}}`)
	require.NoError(t, store.UpdateStatus(ctx, id, models.JobStatusCompleted, result, ""))

	views, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)

	loaded := views[0]
	assert.Equal(t, id, loaded.ID)
	assert.Equal(t, models.JobStatusCompleted, loaded.Status)
	assert.Equal(t, view.Input.OperationType, loaded.Input.OperationType)
	assert.Equal(t, view.Input.Keywords, loaded.Input.Keywords)
	assert.JSONEq(t, string(result), string(loaded.Result))
	assert.Empty(t, loaded.Error)

	require.Len(t, loaded.Events, 2)
	assert.Equal(t, "stage competitor_scan started", loaded.Events[0].Message)
	assert.Equal(t, "stage competitor_scan completed", loaded.Events[1].Message)
}

func TestJobStoreFailurePayload(t *testing.T) {
	db := setupTestDB(t)
	store := NewJobStore(db)
	ctx := context.Background()

	id := uuid.New().String()
	require.NoError(t, store.CreateJob(ctx, testView(id)))
	require.NoError(t, store.UpdateStatus(ctx, id, models.JobStatusFailed, nil, "stage compliance_scan: banned term"))

	views, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, models.JobStatusFailed, views[0].Status)
	assert.Nil(t, views[0].Result)
	assert.Equal(t, "stage compliance_scan: banned term", views[0].Error)
}

func TestJobStoreDuplicateInsert(t *testing.T) {
	db := setupTestDB(t)
	store := NewJobStore(db)
	ctx := context.Background()

	view := testView(uuid.New().String())
	require.NoError(t, store.CreateJob(ctx, view))
	assert.Error(t, store.CreateJob(ctx, view))
}

func TestJobStoreLoadOrder(t *testing.T) {
	db := setupTestDB(t)
	store := NewJobStore(db)
	ctx := context.Background()

	first := testView(uuid.New().String())
	second := testView(uuid.New().String())
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	second.UpdatedAt = second.CreatedAt

	require.NoError(t, store.CreateJob(ctx, first))
	require.NoError(t, store.CreateJob(ctx, second))

	views, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, first.ID, views[0].ID)
	assert.Equal(t, second.ID, views[1].ID)
}