// Package linker mirrors the vendor package store into a workspace's
// metadata directory with one symbolic link per package.
package linker

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/example/d365-switch-workspace/internal/d365ws/config"
	"github.com/example/d365-switch-workspace/internal/d365ws/domain"
	"github.com/example/d365-switch-workspace/internal/d365ws/paths"
	"github.com/example/d365-switch-workspace/internal/d365ws/storage"
)

// Result reports one created package link.
type Result struct {
	Package  string
	LinkPath string
	Target   string
	Replaced bool
}

// Service creates package store links.
type Service struct {
	st       *storage.Storage
	resolver *paths.Resolver
	cfg      config.Config
	logger   *slog.Logger
}

// New creates a new linker Service.
func New(st *storage.Storage, resolver *paths.Resolver, cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{st: st, resolver: resolver, cfg: cfg, logger: logger}
}

// Link creates one symbolic link per package store subdirectory inside
// the workspace's metadata directory. Anything already occupying a
// link path is removed first. Links are created independently: a
// failure partway through leaves earlier links in place and aborts the
// remainder.
func (s *Service) Link(workspaceDir string) ([]Result, error) {
	exists, err := s.st.DirExists(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", workspaceDir, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrWorkspaceNotFound, workspaceDir)
	}

	metadataDir := paths.MetadataDir(workspaceDir)
	if err := s.st.FileSystem().MkdirAll(metadataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", metadataDir, err)
	}

	storeDir, err := s.resolver.ResolvePackageStore(s.cfg.PackageStoreDir)
	if err != nil {
		return nil, err
	}

	entries, err := s.st.ReadDir(storeDir)
	if err != nil {
		return nil, fmt.Errorf("read package store %s: %w", storeDir, err)
	}

	var results []Result
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		target := filepath.Join(storeDir, entry.Name())
		linkPath := filepath.Join(metadataDir, entry.Name())

		replaced := false
		if _, err := s.st.Lstat(linkPath); err == nil {
			if err := s.st.RemoveAll(linkPath); err != nil {
				return results, fmt.Errorf("remove existing %s: %w", linkPath, err)
			}
			replaced = true
		}

		if err := s.st.Symlink(target, linkPath); err != nil {
			return results, fmt.Errorf("link package %s: %w", entry.Name(), err)
		}
		s.logger.Debug("package linked", "package", entry.Name(), "target", target, "replaced", replaced)
		results = append(results, Result{
			Package:  entry.Name(),
			LinkPath: linkPath,
			Target:   target,
			Replaced: replaced,
		})
	}
	s.logger.Info("packages linked", "store", storeDir, "metadata_dir", metadataDir, "count", len(results))
	return results, nil
}
