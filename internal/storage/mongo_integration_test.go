//go:build integration

package storage_test

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"social-go/internal/config"
	"social-go/internal/models"
	"social-go/internal/storage"
	"social-go/internal/storage/storagetest"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

func startMongo(t *testing.T) string {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func TestMongoStore(t *testing.T) {
	uri := startMongo(t)
	ctx := context.Background()

	client, err := storage.InitMongo(ctx, config.MongoConfig{URI: uri, ConnectTimeout: 10 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	storagetest.Run(t, func(t *testing.T) *storage.Store {
		db := client.Database("social_test_" + models.NewID())
		require.NoError(t, storage.EnsureIndexes(ctx, db))
		t.Cleanup(func() { _ = db.Drop(context.Background()) })
		return storage.NewMongoStore(db, storage.NewMemoryRepairJournal())
	})
}
