// SPDX-License-Identifier: MPL-2.0

package dockerfile_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"

	"github.com/mayhemheroes/modus/internal/testutil"
	"github.com/mayhemheroes/modus/pkg/dockerfile"
)

// checkTestcontainersAvailable safely checks if testcontainers can be used.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// TestWrite_BuildsWithDocker builds an emitted multi-stage Dockerfile.
// It requires Docker or Podman.
func TestWrite_BuildsWithDocker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping integration test: testcontainers provider not available")
	}

	sem := testutil.ContainerSemaphore()
	sem <- struct{}{}
	defer func() { <-sem }()

	src := `
greeting :- from("alpine:3.19"), run("echo hello > /greeting").
app :-
    from("alpine:3.19"),
    (greeting)::copy("/greeting", "/etc/greeting"),
    (run("cat greeting"))::in_workdir("/etc").
`
	_, plan := compile(t, src, `app`)

	dir := t.TempDir()
	var buf bytes.Buffer
	if err := dockerfile.Write(&buf, plan); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write Dockerfile: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			FromDockerfile: testcontainers.FromDockerfile{
				Context:    dir,
				Dockerfile: "Dockerfile",
			},
			Cmd: []string{"cat", "/etc/greeting"},
		},
		Started: false,
	})
	testcontainers.CleanupContainer(t, c)
	if err != nil {
		t.Fatalf("building emitted Dockerfile failed: %v\n%s", err, buf.String())
	}
}
