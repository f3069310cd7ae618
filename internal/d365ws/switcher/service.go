// Package switcher rewrites the configuration files that bind the
// platform and the IDE to a development workspace.
package switcher

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/example/d365-switch-workspace/internal/d365ws/config"
	"github.com/example/d365-switch-workspace/internal/d365ws/paths"
	"github.com/example/d365-switch-workspace/internal/d365ws/storage"
	"github.com/example/d365-switch-workspace/internal/d365ws/xmlconf"
)

// Options selects which parts of a workspace switch run. Both default
// to true at the command surface.
type Options struct {
	SwitchPackages        bool
	SwitchIDEProjectsPath bool
}

// Report describes what a workspace switch did.
type Report struct {
	MetadataDir string
	ProjectsDir string
	// ActiveBefore and ActiveAfter hold the environment's metadata
	// directory around the switch; empty when the environment query
	// failed (a warning is added instead).
	ActiveBefore string
	ActiveAfter  string
	// IDEUpdated is true when the Visual Studio projects location was
	// rewritten; false when it already matched or the file is absent.
	IDEUpdated bool
	Warnings   []string
}

// Status is a read-only snapshot of the live web config.
type Status struct {
	WebConfigPath string
	ActiveDir     string
	Settings      map[string]string
}

// Service performs workspace switches.
type Service struct {
	st       *storage.Storage
	resolver *paths.Resolver
	cfg      config.Config
	env      Environment
	logger   *slog.Logger
}

// New creates a new switcher Service.
func New(st *storage.Storage, resolver *paths.Resolver, cfg config.Config, env Environment, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{st: st, resolver: resolver, cfg: cfg, env: env, logger: logger}
}

// targetValue returns the value a web config key receives for the
// given metadata directory. Common.DevToolsBinDir points at the bin
// subdirectory; every other key at the directory itself.
func targetValue(key, metadataDir string) string {
	if key == xmlconf.KeyDevToolsBinDir {
		return filepath.Join(metadataDir, "bin")
	}
	return metadataDir
}

// Switch points the platform and IDE at the given workspace directory.
// The web config rewrite stops the running environment first so file
// locks are released; the IDE edit is skipped when the settings file
// is absent or already correct.
func (s *Service) Switch(workspaceDir string, opts Options) (*Report, error) {
	report := &Report{
		MetadataDir: paths.MetadataDir(workspaceDir),
		ProjectsDir: paths.ProjectsDir(workspaceDir),
	}

	webPath, err := s.resolver.ResolveWebConfig(s.cfg.Webroot)
	if err != nil {
		return nil, err
	}
	web, err := xmlconf.LoadWebConfig(s.st, webPath)
	if err != nil {
		return nil, err
	}

	if active, err := s.env.MetadataDirectory(); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("could not read active metadata directory: %v", err))
	} else {
		report.ActiveBefore = active
	}

	if opts.SwitchPackages {
		if err := s.env.Stop(); err != nil {
			s.logger.Warn("stop environment failed", "error", err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("stop environment: %v", err))
		}
		for _, key := range xmlconf.SettingKeys {
			if err := web.SetSetting(key, targetValue(key, report.MetadataDir)); err != nil {
				return nil, err
			}
		}
		if err := web.Save(); err != nil {
			return nil, fmt.Errorf("persist web config: %w", err)
		}
		s.logger.Info("web config updated", "path", webPath, "metadata_dir", report.MetadataDir)
	}

	if opts.SwitchIDEProjectsPath {
		updated, warning, err := s.switchProjectsLocation(report.ProjectsDir)
		if err != nil {
			return nil, err
		}
		report.IDEUpdated = updated
		if warning != "" {
			report.Warnings = append(report.Warnings, warning)
		}
	}

	if active, err := s.env.MetadataDirectory(); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("could not read active metadata directory after switch: %v", err))
	} else {
		report.ActiveAfter = active
	}

	return report, nil
}

// switchProjectsLocation rewrites the IDE's default projects location,
// skipping the write entirely when the value is already correct.
func (s *Service) switchProjectsLocation(projectsDir string) (updated bool, warning string, err error) {
	idePath, found, err := s.resolver.ResolveVSSettings(s.cfg.VSVersion)
	if err != nil {
		return false, "", err
	}
	if !found {
		return false, "no Visual Studio settings file found, projects location unchanged", nil
	}

	ide, err := xmlconf.LoadVSSettings(s.st, idePath)
	if err != nil {
		return false, "", err
	}
	current, ok := ide.ProjectsLocation()
	if !ok {
		return false, "", fmt.Errorf("no ProjectsLocation node in %s", idePath)
	}
	if current == projectsDir {
		s.logger.Debug("projects location already current", "path", idePath)
		return false, "", nil
	}

	if err := ide.SetProjectsLocation(projectsDir); err != nil {
		return false, "", err
	}
	if err := ide.Save(); err != nil {
		return false, "", fmt.Errorf("persist Visual Studio settings: %w", err)
	}
	s.logger.Info("projects location updated", "path", idePath, "projects_dir", projectsDir)
	return true, "", nil
}

// CurrentStatus reports the active metadata directory and the live
// values of the managed web config settings. Nothing is mutated.
func (s *Service) CurrentStatus() (*Status, error) {
	webPath, err := s.resolver.ResolveWebConfig(s.cfg.Webroot)
	if err != nil {
		return nil, err
	}
	web, err := xmlconf.LoadWebConfig(s.st, webPath)
	if err != nil {
		return nil, err
	}

	status := &Status{
		WebConfigPath: webPath,
		Settings:      make(map[string]string, len(xmlconf.SettingKeys)),
	}
	for _, key := range xmlconf.SettingKeys {
		if value, ok := web.Setting(key); ok {
			status.Settings[key] = value
		}
	}
	if active, err := s.env.MetadataDirectory(); err == nil {
		status.ActiveDir = active
	}
	return status, nil
}
