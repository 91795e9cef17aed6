package preflight

import (
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"pixelwatch/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDriverBinary(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "geckodriver")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\necho 'geckodriver 0.36.0'\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	result := CheckDriverBinary(context.Background(), stub)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	missing := CheckDriverBinary(context.Background(), filepath.Join(dir, "absent"))
	if missing.Passed {
		t.Fatal("expected failure for missing binary")
	}
}

func TestCheckLoopbackPort(t *testing.T) {
	if result := CheckLoopbackPort(); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckBaseline(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	testsupport.WriteFile(t, good, testsupport.SolidPNG(t, 3, 2, color.NRGBA{A: 255}))
	bad := filepath.Join(dir, "bad.png")
	testsupport.WriteFile(t, bad, []byte("not an image"))

	if result := CheckBaseline(good); !result.Passed || result.Detail != good+" (3x2)" {
		t.Fatalf("unexpected result for good baseline: %+v", result)
	}
	if result := CheckBaseline(bad); result.Passed {
		t.Fatal("expected failure for corrupt baseline")
	}
	if result := CheckBaseline(filepath.Join(dir, "missing.png")); result.Passed {
		t.Fatal("expected failure for missing baseline")
	}
}

func TestCheckEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckEndpoint(context.Background(), srv.URL); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckEndpoint(context.Background(), srv.URL+"/broken"); result.Passed {
		t.Fatal("expected failure for 500")
	}
	if result := CheckEndpoint(context.Background(), ""); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestRunAllMarksEndpointAdvisory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg, "http://127.0.0.1:1")
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(results), results)
	}
	last := results[len(results)-1]
	if last.Passed || !last.Advisory {
		t.Fatalf("expected unreachable endpoint to be an advisory failure: %+v", last)
	}
	if blocking := Blocking(results); len(blocking) != 0 {
		t.Fatalf("unexpected blocking failures: %+v", blocking)
	}
}

func TestRunAllIncludesBaseline(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithBaseline([]byte("garbage")),
	)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	blocking := Blocking(RunAll(context.Background(), cfg, "http://127.0.0.1:1"))
	if len(blocking) != 1 || blocking[0].Name != "Baseline image" {
		t.Fatalf("expected baseline to block, got %+v", blocking)
	}
}
