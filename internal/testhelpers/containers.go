package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"reuse-atlas/internal/config"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the stock image repository tests run against
const PostgresImage = "postgres:16-alpine"

var (
	sharedPostgres     *config.PostgresConfig
	sharedPostgresOnce sync.Once
	sharedPostgresErr  error
)

// GetPostgres returns connection settings for a PostgreSQL container shared
// by every test in the run. The container is started on first use.
func GetPostgres(t *testing.T) config.PostgresConfig {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedPostgresOnce.Do(func() {
		sharedPostgres, sharedPostgresErr = startPostgres()
	})

	if sharedPostgresErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedPostgresErr)
	}

	return *sharedPostgres
}

func startPostgres() (*config.PostgresConfig, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "atlas_test",
			"POSTGRES_USER":     "atlas",
			"POSTGRES_PASSWORD": "test_password",
		},
		// The server logs readiness once for the init run and again after restart
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &config.PostgresConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "atlas",
		Password: "test_password",
		Database: "atlas_test",
		SSLMode:  "disable",
	}, nil
}
