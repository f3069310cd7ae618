// Package backup manages the restorable backup siblings kept next to
// each configuration file before this tool mutates it.
package backup

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/example/d365-switch-workspace/internal/d365ws/config"
	"github.com/example/d365-switch-workspace/internal/d365ws/domain"
	"github.com/example/d365-switch-workspace/internal/d365ws/paths"
	"github.com/example/d365-switch-workspace/internal/d365ws/storage"
)

// Suffix is inserted before the file extension to name a backup sibling.
const Suffix = "_OrigBackup"

// Action describes the outcome of a single backup operation.
type Action string

const (
	ActionCreated  Action = "created"
	ActionSkipped  Action = "skipped"
	ActionRestored Action = "restored"
	ActionDeleted  Action = "deleted"
	ActionExcluded Action = "excluded"
	ActionFailed   Action = "failed"
)

// Result reports the outcome of one file-level operation. Err is set
// for soft failures; the batch carries on regardless.
type Result struct {
	Path   string
	Action Action
	Err    error
}

// Confirmer asks the user a yes/no question before destructive bulk
// operations.
type Confirmer func(label string) (bool, error)

// Service performs backup, restore and delete operations on the
// configuration files.
type Service struct {
	st       *storage.Storage
	resolver *paths.Resolver
	cfg      config.Config
	logger   *slog.Logger
}

// New creates a new backup Service.
func New(st *storage.Storage, resolver *paths.Resolver, cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		st:       st,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
	}
}

// BackupPath derives the backup sibling path for a file by inserting
// the suffix before the extension.
func BackupPath(path string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return stem + Suffix + ext
}

// Backup copies path to its backup sibling. The original is never
// modified. A missing source or an existing backup is reported, not
// fatal; a second backup request is a no-op rather than an overwrite.
func (s *Service) Backup(path string) Result {
	exists, err := s.st.Exists(path)
	if err != nil {
		return Result{Path: path, Action: ActionFailed, Err: fmt.Errorf("inspect %s: %w", path, err)}
	}
	if !exists {
		return Result{Path: path, Action: ActionSkipped, Err: fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)}
	}

	backupPath := BackupPath(path)
	backupExists, err := s.st.Exists(backupPath)
	if err != nil {
		return Result{Path: path, Action: ActionFailed, Err: fmt.Errorf("inspect %s: %w", backupPath, err)}
	}
	if backupExists {
		s.logger.Debug("backup already exists", "path", path, "backup_path", backupPath)
		return Result{Path: path, Action: ActionSkipped, Err: fmt.Errorf("%w: %s", domain.ErrBackupExists, backupPath)}
	}

	if err := s.st.CopyFile(path, backupPath); err != nil {
		return Result{Path: path, Action: ActionFailed, Err: fmt.Errorf("create backup: %w", err)}
	}
	s.logger.Info("backup created", "path", path, "backup_path", backupPath)
	return Result{Path: path, Action: ActionCreated}
}

// Restore overwrites path with the contents of its backup sibling.
// The backup is copied, not moved, so it survives the restore. A
// missing backup leaves path untouched.
func (s *Service) Restore(path string) Result {
	backupPath := BackupPath(path)
	exists, err := s.st.Exists(backupPath)
	if err != nil {
		return Result{Path: path, Action: ActionFailed, Err: fmt.Errorf("inspect %s: %w", backupPath, err)}
	}
	if !exists {
		return Result{Path: path, Action: ActionSkipped, Err: fmt.Errorf("%w: %s", domain.ErrBackupNotFound, backupPath)}
	}

	if err := s.st.CopyFile(backupPath, path); err != nil {
		return Result{Path: path, Action: ActionFailed, Err: fmt.Errorf("restore backup: %w", err)}
	}
	s.logger.Info("backup restored", "path", path, "backup_path", backupPath)
	return Result{Path: path, Action: ActionRestored}
}

// Delete removes the backup sibling of path.
func (s *Service) Delete(path string) Result {
	backupPath := BackupPath(path)
	exists, err := s.st.Exists(backupPath)
	if err != nil {
		return Result{Path: path, Action: ActionFailed, Err: fmt.Errorf("inspect %s: %w", backupPath, err)}
	}
	if !exists {
		return Result{Path: path, Action: ActionSkipped, Err: fmt.Errorf("%w: %s", domain.ErrBackupNotFound, backupPath)}
	}

	if err := s.st.Remove(backupPath); err != nil {
		return Result{Path: path, Action: ActionFailed, Err: fmt.Errorf("delete backup: %w", err)}
	}
	s.logger.Info("backup deleted", "path", path, "backup_path", backupPath)
	return Result{Path: path, Action: ActionDeleted}
}

// managedFiles resolves the configuration files covered by the bulk
// operations: developer config, web config, then the Visual Studio
// settings file, in that order. A missing developer config is fatal
// because the web config path derives from it. The Visual Studio file
// is returned as absent when the wildcard search finds nothing.
func (s *Service) managedFiles() (devPath, webPath, idePath string, ideFound bool, err error) {
	devPath = s.resolver.DevConfigPath()
	webPath, err = s.resolver.ResolveWebConfig(s.cfg.Webroot)
	if err != nil {
		return "", "", "", false, err
	}
	idePath, ideFound, err = s.resolver.ResolveVSSettings(s.cfg.VSVersion)
	if err != nil {
		return "", "", "", false, err
	}
	return devPath, webPath, idePath, ideFound, nil
}

// BackupAll backs up the developer config, the web config, and the
// Visual Studio settings file when one is present.
func (s *Service) BackupAll() ([]Result, error) {
	devPath, webPath, idePath, ideFound, err := s.managedFiles()
	if err != nil {
		return nil, err
	}
	results := []Result{s.Backup(devPath), s.Backup(webPath)}
	if ideFound {
		results = append(results, s.Backup(idePath))
	} else {
		results = append(results, Result{Path: paths.VSSettingsFileName, Action: ActionSkipped, Err: fmt.Errorf("no Visual Studio settings file found")})
	}
	return results, nil
}

// RestoreAll restores the developer config and web config backups, and
// the Visual Studio settings backup only when explicitly requested.
func (s *Service) RestoreAll(includeIDE bool) ([]Result, error) {
	devPath, webPath, idePath, ideFound, err := s.managedFiles()
	if err != nil {
		return nil, err
	}
	results := []Result{s.Restore(devPath), s.Restore(webPath)}
	switch {
	case !includeIDE:
		results = append(results, Result{Path: paths.VSSettingsFileName, Action: ActionExcluded})
	case ideFound:
		results = append(results, s.Restore(idePath))
	default:
		results = append(results, Result{Path: paths.VSSettingsFileName, Action: ActionSkipped, Err: fmt.Errorf("no Visual Studio settings file found")})
	}
	return results, nil
}

// DeleteAll removes the backup siblings after asking the confirmer.
// A declined or nil confirmation aborts with zero deletions.
func (s *Service) DeleteAll(includeIDE bool, confirm Confirmer) (results []Result, aborted bool, err error) {
	if confirm == nil {
		return nil, true, nil
	}
	ok, err := confirm("Delete all backup files?")
	if err != nil {
		return nil, true, err
	}
	if !ok {
		return nil, true, nil
	}

	devPath, webPath, idePath, ideFound, err := s.managedFiles()
	if err != nil {
		return nil, false, err
	}
	results = []Result{s.Delete(devPath), s.Delete(webPath)}
	switch {
	case !includeIDE:
		results = append(results, Result{Path: paths.VSSettingsFileName, Action: ActionExcluded})
	case ideFound:
		results = append(results, s.Delete(idePath))
	default:
		results = append(results, Result{Path: paths.VSSettingsFileName, Action: ActionSkipped, Err: fmt.Errorf("no Visual Studio settings file found")})
	}
	return results, false, nil
}
