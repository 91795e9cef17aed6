package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present", "exit 0")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank command status: %#v", results[2])
	}
}

func TestCheckBinariesResolvesPath(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "fakedriver", "exit 0")
	t.Setenv("PATH", dir)

	results := CheckBinaries([]Requirement{{Name: "Driver", Command: "fakedriver"}})
	if !results[0].Available {
		t.Fatalf("expected stub on PATH to resolve: %#v", results[0])
	}
	if results[0].Command != filepath.Join(dir, "fakedriver") {
		t.Fatalf("Command = %q", results[0].Command)
	}
}

func TestVersion(t *testing.T) {
	dir := t.TempDir()
	good := writeStub(t, dir, "good", "echo\necho 'geckodriver 0.36.0 (a3d508507022 2025-02-24)'\necho extra")
	bad := writeStub(t, dir, "bad", "exit 4")
	silent := writeStub(t, dir, "silent", "exit 0")

	got, err := Version(context.Background(), good)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if got != "geckodriver 0.36.0 (a3d508507022 2025-02-24)" {
		t.Fatalf("Version = %q", got)
	}
	if _, err := Version(context.Background(), bad); err == nil {
		t.Fatal("expected error for failing binary")
	}
	if _, err := Version(context.Background(), silent); err == nil {
		t.Fatal("expected error for empty output")
	}
	if _, err := Version(context.Background(), ""); err == nil {
		t.Fatal("expected error for blank binary")
	}
}
