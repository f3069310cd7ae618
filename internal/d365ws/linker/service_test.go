package linker

// These tests run against the real filesystem in a temp directory:
// MemMapFs has no symlink support.

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/example/d365-switch-workspace/internal/d365ws/config"
	"github.com/example/d365-switch-workspace/internal/d365ws/domain"
	"github.com/example/d365-switch-workspace/internal/d365ws/paths"
	"github.com/example/d365-switch-workspace/internal/d365ws/storage"
)

func newTestService(t *testing.T) (*Service, string, string) {
	t.Helper()
	root := t.TempDir()

	storeDir := filepath.Join(root, "store")
	workspaceDir := filepath.Join(root, "ws1")
	for _, dir := range []string{
		filepath.Join(storeDir, "ApplicationPlatform"),
		filepath.Join(storeDir, "ApplicationSuite"),
		workspaceDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("setup %s: %v", dir, err)
		}
	}

	st := storage.New(afero.NewOsFs())
	resolver := paths.New(st, root, root)
	cfg := config.Config{PackageStoreDir: storeDir}
	return New(st, resolver, cfg, nil), workspaceDir, storeDir
}

func TestLinkCreatesOneLinkPerPackage(t *testing.T) {
	svc, workspaceDir, storeDir := newTestService(t)

	results, err := svc.Link(workspaceDir)
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 links, got %d", len(results))
	}

	metadataDir := filepath.Join(workspaceDir, "Metadata")
	for _, name := range []string{"ApplicationPlatform", "ApplicationSuite"} {
		linkPath := filepath.Join(metadataDir, name)
		info, err := os.Lstat(linkPath)
		if err != nil {
			t.Fatalf("link %s missing: %v", name, err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			t.Errorf("%s is not a symlink", linkPath)
		}
		target, err := os.Readlink(linkPath)
		if err != nil {
			t.Fatalf("readlink %s: %v", linkPath, err)
		}
		if target != filepath.Join(storeDir, name) {
			t.Errorf("%s points at %q", linkPath, target)
		}
	}
}

func TestLinkReplacesExistingDirectory(t *testing.T) {
	svc, workspaceDir, storeDir := newTestService(t)

	// A real directory with content already occupies one link path.
	occupied := filepath.Join(workspaceDir, "Metadata", "ApplicationPlatform")
	if err := os.MkdirAll(occupied, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(occupied, "stale.txt"), []byte("stale"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	results, err := svc.Link(workspaceDir)
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	replaced := false
	for _, res := range results {
		if res.Package == "ApplicationPlatform" && res.Replaced {
			replaced = true
		}
	}
	if !replaced {
		t.Error("expected the pre-existing directory to be reported as replaced")
	}

	info, err := os.Lstat(occupied)
	if err != nil {
		t.Fatalf("lstat: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Error("the real directory should have been replaced by a symlink")
	}
	target, _ := os.Readlink(occupied)
	if target != filepath.Join(storeDir, "ApplicationPlatform") {
		t.Errorf("link points at %q", target)
	}
}

func TestLinkAcceptsMetadataDirectoryItself(t *testing.T) {
	svc, workspaceDir, _ := newTestService(t)

	metadataDir := filepath.Join(workspaceDir, "Metadata")
	if err := os.MkdirAll(metadataDir, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	results, err := svc.Link(metadataDir)
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	for _, res := range results {
		if filepath.Dir(res.LinkPath) != metadataDir {
			t.Errorf("link created outside the metadata dir: %s", res.LinkPath)
		}
	}
}

func TestLinkMissingWorkspaceIsFatal(t *testing.T) {
	svc, workspaceDir, _ := newTestService(t)

	_, err := svc.Link(filepath.Join(workspaceDir, "no-such-sibling"))
	if !errors.Is(err, domain.ErrWorkspaceNotFound) {
		t.Errorf("expected ErrWorkspaceNotFound, got %v", err)
	}
}

func TestLinkSkipsStoreFiles(t *testing.T) {
	svc, workspaceDir, storeDir := newTestService(t)

	if err := os.WriteFile(filepath.Join(storeDir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	results, err := svc.Link(workspaceDir)
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	for _, res := range results {
		if res.Package == "readme.txt" {
			t.Error("plain files in the store must not be linked")
		}
	}
}
