//go:build !integration

package usecase_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"telegram-card-counter/internal/domain"
	"telegram-card-counter/internal/usecase"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDeployUseCase_Build(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "render.yaml"), "services: []\n")
	writeFile(t, filepath.Join(root, "go.mod"), "module x\n")
	writeFile(t, filepath.Join(root, "cmd", "bot", "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "secret.env"), "TOKEN=1\n")

	uc := usecase.NewDeployUseCase(root, []string{"render.yaml", "go.mod", "missing.txt", "cmd"}, newTestLogger())
	pkg, err := uc.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasPrefix(pkg.Name, "deploy_") || !strings.HasSuffix(pkg.Name, ".zip") {
		t.Errorf("unexpected package name %q", pkg.Name)
	}
	if pkg.Files != 3 {
		t.Errorf("expected 3 files, got %d", pkg.Files)
	}

	zr, err := zip.NewReader(bytes.NewReader(pkg.Data), int64(len(pkg.Data)))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	want := []string{"cmd/bot/main.go", "go.mod", "render.yaml"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("zip entries = %v, want %v", names, want)
	}
}

func TestDeployUseCase_EmptyPackage(t *testing.T) {
	uc := usecase.NewDeployUseCase(t.TempDir(), []string{"nothing-here"}, newTestLogger())
	if _, err := uc.Build(context.Background()); !errors.Is(err, domain.ErrEmptyPackage) {
		t.Errorf("expected ErrEmptyPackage, got %v", err)
	}
}
