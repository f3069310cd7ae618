// Package diff compares the live web config against a backed-up copy.
package diff

import (
	"path/filepath"

	"github.com/example/d365-switch-workspace/internal/d365ws/config"
	"github.com/example/d365-switch-workspace/internal/d365ws/paths"
	"github.com/example/d365-switch-workspace/internal/d365ws/storage"
	"github.com/example/d365-switch-workspace/internal/d365ws/xmlconf"
)

// Entry compares one setting between the live and backup files. When a
// side is missing the comparison is not meaningful and Match is false.
type Entry struct {
	Key          string
	Current      string
	CurrentFound bool
	Backup       string
	BackupFound  bool
	Match        bool
}

// Service produces web config comparison reports.
type Service struct {
	st       *storage.Storage
	resolver *paths.Resolver
	cfg      config.Config
}

// New creates a new diff Service.
func New(st *storage.Storage, resolver *paths.Resolver, cfg config.Config) *Service {
	return &Service{st: st, resolver: resolver, cfg: cfg}
}

// Compare reads each managed setting from the live web config and from
// the web config copy in backupDir, and reports their values and
// whether they match. Purely read-only.
func (s *Service) Compare(backupDir string) ([]Entry, error) {
	livePath, err := s.resolver.ResolveWebConfig(s.cfg.Webroot)
	if err != nil {
		return nil, err
	}
	live, err := xmlconf.LoadWebConfig(s.st, livePath)
	if err != nil {
		return nil, err
	}
	backupPath := filepath.Join(backupDir, paths.WebConfigFileName)
	backup, err := xmlconf.LoadWebConfig(s.st, backupPath)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(xmlconf.SettingKeys))
	for _, key := range xmlconf.SettingKeys {
		entry := Entry{Key: key}
		entry.Current, entry.CurrentFound = live.Setting(key)
		entry.Backup, entry.BackupFound = backup.Setting(key)
		entry.Match = entry.CurrentFound && entry.BackupFound && entry.Current == entry.Backup
		entries = append(entries, entry)
	}
	return entries, nil
}
