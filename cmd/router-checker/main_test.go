package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGoFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestScanFileFlagsStrayProviderImports(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    int
	}{
		{
			name: "single import of claude SDK",
			content: `package service

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
)
`,
			want: 1,
		},
		{
			name: "single-line import of ollama SDK",
			content: `package service

import "github.com/ollama/ollama/api"
`,
			want: 1,
		},
		{
			name: "clean file with unrelated imports",
			content: `package service

import (
	"context"

	"github.com/clinicore/corpusengine/internal/repository"
)
`,
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeGoFile(t, dir, "file.go", tc.content)

			got, err := scanFile(path)
			if err != nil {
				t.Fatalf("scanFile: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("expected %d violations, got %d: %+v", tc.want, len(got), got)
			}
		})
	}
}

func TestIsAllowedExemptsLLMRouterDirectory(t *testing.T) {
	root := t.TempDir()
	allowedPath := filepath.Join(root, "internal", "llmrouter", "providers", "claude", "provider.go")
	deniedPath := filepath.Join(root, "internal", "service", "audio_service.go")

	if !isAllowed(allowedPath, root) {
		t.Fatalf("expected %s to be allowed", allowedPath)
	}
	if isAllowed(deniedPath, root) {
		t.Fatalf("expected %s to be denied", deniedPath)
	}
}
