// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mayhemheroes/modus/internal/issue"
	"github.com/mayhemheroes/modus/internal/testutil"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	return testutil.MustWriteFile(t, dir, ConfigFileName+"."+ConfigFileExt, content)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := DefaultConfig()
	if *cfg != *want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
	if p.Path() != "" {
		t.Errorf("Path() = %q, want empty", p.Path())
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
max_depth: 12
output_format: "tree"
dockerfile: syntax: ""
ui: color: false
`)

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxDepth != 12 {
		t.Errorf("MaxDepth = %d, want 12", cfg.MaxDepth)
	}
	if cfg.OutputFormat != FormatTree {
		t.Errorf("OutputFormat = %q, want tree", cfg.OutputFormat)
	}
	if cfg.Dockerfile.Syntax != "" {
		t.Errorf("Dockerfile.Syntax = %q, want empty", cfg.Dockerfile.Syntax)
	}
	if cfg.UI.Color {
		t.Error("UI.Color = true, want false")
	}
	// Unset fields keep their defaults.
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Concurrency)
	}
	if p.Path() != path {
		t.Errorf("Path() = %q, want %q", p.Path(), path)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"syntax error", "max_depth: [", "config.cue"},
		{"out of range", "max_depth: 0", "max_depth"},
		{"unknown format", `output_format: "xml"`, "output_format"},
		{"wrong type", `concurrency: "two"`, "concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, t.TempDir(), tt.content)

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("Load() expected error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("expected *issue.ActionableError, got %T", err)
			}
			if ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("Issue = %v, want ConfigLoadFailedId", ae.Issue)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.cue")
	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("Load() error = %v, want not found", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoad_FileTooLarge(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "// "+strings.Repeat("x", maxConfigFileSize))
	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Fatalf("Load() error = %v, want size error", err)
	}
}

// Environment overrides mutate process state, so these tests do not run in parallel.
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MODUS_MAX_DEPTH", "7")
	t.Setenv("MODUS_DOCKERFILE_SYNTAX", "docker/dockerfile:1.7")

	dir := t.TempDir()
	writeConfig(t, dir, "max_depth: 12\n")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxDepth != 7 {
		t.Errorf("MaxDepth = %d, want 7", cfg.MaxDepth)
	}
	if cfg.Dockerfile.Syntax != "docker/dockerfile:1.7" {
		t.Errorf("Dockerfile.Syntax = %q", cfg.Dockerfile.Syntax)
	}
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	t.Setenv("MODUS_OUTPUT_FORMAT", "xml")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidOutputFormat) {
		t.Fatalf("Load() error = %v, want ErrInvalidOutputFormat", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected errors.Is(err, ErrInvalidConfig)")
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.MaxDepth = 32
	want.OutputFormat = FormatYAML
	want.UI.Verbose = true

	path := writeConfig(t, t.TempDir(), GenerateCUE(want))
	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *got != *want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

// Changes the working directory, so it does not run in parallel.
func TestLoad_CurrentDirectoryFallback(t *testing.T) {
	dir := t.TempDir()
	testutil.MustWriteFile(t, dir, ConfigFileName+"."+ConfigFileExt, "concurrency: 2\n")
	defer testutil.MustChdir(t, dir)()

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Concurrency)
	}
	if p.Path() != ConfigFileName+"."+ConfigFileExt {
		t.Errorf("Path() = %q", p.Path())
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "modus")
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("path = %q, want inside %q", path, dir)
	}

	// A second call keeps the existing file.
	if err := os.WriteFile(path, []byte("max_depth: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "max_depth: 3\n" {
		t.Errorf("existing config overwritten: %q", data)
	}
}
