package testhelpers

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pageza/fridge2fork/backend/config"
)

// StartPostgres runs a throwaway PostgreSQL container and returns a config
// whose DB_* fields point at it. The test is skipped under -short or when
// Docker is unavailable.
func StartPostgres(t *testing.T) *config.Config {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed, skipping container-based test")
	}

	cfg := &config.Config{
		DBUser:     "postgres",
		DBPassword: "postpass",
		DBName:     "fridge2fork",
		DBSSLMode:  "disable",
	}

	ctx := context.Background()
	port := nat.Port("5432/tcp")

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"POSTGRES_USER":     cfg.DBUser,
				"POSTGRES_PASSWORD": cfg.DBPassword,
				"POSTGRES_DB":       cfg.DBName,
			},
			// the server restarts once after init, so wait for the second ready line
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(port),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	cfg.DBHost = host
	cfg.DBPort = mapped.Port()
	return cfg
}
