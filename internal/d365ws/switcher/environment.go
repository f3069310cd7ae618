package switcher

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/example/d365-switch-workspace/internal/d365ws/config"
	"github.com/example/d365-switch-workspace/internal/d365ws/paths"
	"github.com/example/d365-switch-workspace/internal/d365ws/storage"
	"github.com/example/d365-switch-workspace/internal/d365ws/xmlconf"
)

// Environment is the platform environment collaborator: it reports the
// currently active metadata directory and stops the running service so
// it releases file locks before the configuration changes.
type Environment interface {
	MetadataDirectory() (string, error)
	Stop() error
}

// ExecEnvironment drives the platform's own environment-control
// commands via the shell.
type ExecEnvironment struct {
	StopArgv     []string
	MetadataArgv []string
}

// MetadataDirectory runs the configured metadata query command and
// returns its trimmed output.
func (e *ExecEnvironment) MetadataDirectory() (string, error) {
	if len(e.MetadataArgv) == 0 {
		return "", errors.New("no metadata command configured")
	}
	out, err := exec.Command(e.MetadataArgv[0], e.MetadataArgv[1:]...).Output()
	if err != nil {
		return "", fmt.Errorf("run %s: %w", e.MetadataArgv[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Stop runs the configured stop command. The call is best-effort; this
// tool does not verify that file handles were actually released.
func (e *ExecEnvironment) Stop() error {
	if len(e.StopArgv) == 0 {
		return nil
	}
	if err := exec.Command(e.StopArgv[0], e.StopArgv[1:]...).Run(); err != nil {
		return fmt.Errorf("run %s: %w", e.StopArgv[0], err)
	}
	return nil
}

// StaticEnvironment reads the active metadata directory straight out
// of the web config. It is the fallback when no environment-control
// commands are configured; its Stop is a no-op.
type StaticEnvironment struct {
	st       *storage.Storage
	resolver *paths.Resolver
	webroot  string
}

// NewStaticEnvironment creates a StaticEnvironment over the given
// resolver and webroot override.
func NewStaticEnvironment(st *storage.Storage, resolver *paths.Resolver, webroot string) *StaticEnvironment {
	return &StaticEnvironment{st: st, resolver: resolver, webroot: webroot}
}

func (e *StaticEnvironment) MetadataDirectory() (string, error) {
	webPath, err := e.resolver.ResolveWebConfig(e.webroot)
	if err != nil {
		return "", err
	}
	web, err := xmlconf.LoadWebConfig(e.st, webPath)
	if err != nil {
		return "", err
	}
	value, ok := web.Setting(xmlconf.KeyMetadataDirectory)
	if !ok {
		return "", fmt.Errorf("no %s setting in %s", xmlconf.KeyMetadataDirectory, webPath)
	}
	return value, nil
}

func (e *StaticEnvironment) Stop() error {
	return nil
}

// NewEnvironment builds the environment collaborator from config:
// configured commands run through the shell, anything unconfigured
// falls back to reading the web config directly.
func NewEnvironment(st *storage.Storage, resolver *paths.Resolver, cfg config.Config) Environment {
	static := NewStaticEnvironment(st, resolver, cfg.Webroot)
	if len(cfg.StopCommand) == 0 && len(cfg.MetadataCommand) == 0 {
		return static
	}
	return &configuredEnvironment{
		exec:   &ExecEnvironment{StopArgv: cfg.StopCommand, MetadataArgv: cfg.MetadataCommand},
		static: static,
	}
}

type configuredEnvironment struct {
	exec   *ExecEnvironment
	static *StaticEnvironment
}

func (e *configuredEnvironment) MetadataDirectory() (string, error) {
	if len(e.exec.MetadataArgv) == 0 {
		return e.static.MetadataDirectory()
	}
	return e.exec.MetadataDirectory()
}

func (e *configuredEnvironment) Stop() error {
	return e.exec.Stop()
}
