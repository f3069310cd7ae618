// Package paths computes the well-known file locations this tool
// operates on. Drive enumeration and wildcard matching are injected so
// tests substitute fixtures for the real machine.
package paths

import (
	"fmt"
	"path/filepath"

	"github.com/example/d365-switch-workspace/internal/d365ws/domain"
	"github.com/example/d365-switch-workspace/internal/d365ws/storage"
	"github.com/example/d365-switch-workspace/internal/d365ws/xmlconf"
)

// File and directory name constants for the F&O development VM layout.
const (
	DocumentsDirName    = "Documents"
	DevConfigFileName   = "DynamicsDevConfig.xml"
	WebConfigFileName   = "web.config"
	VSSettingsFileName  = "CurrentSettings.vssettings"
	MetadataDirName     = "Metadata"
	ProjectsDirName     = "Projects"
	packageStoreRelPath = "AosService/PackagesLocalDirectory"
)

// vsVersionTokens maps Visual Studio product years to the internal
// version tokens used in the settings directory name.
var vsVersionTokens = map[string]string{
	"2015": "14.0",
	"2017": "15.0",
	"2019": "16.0",
}

// defaultVSToken is used for unrecognized version labels.
const defaultVSToken = "15.0"

// DriveLister returns candidate drive roots in enumeration order.
type DriveLister func() []string

// GlobFunc expands a wildcard pattern to matching paths.
type GlobFunc func(pattern string) ([]string, error)

// Resolver locates the configuration files for the current user.
type Resolver struct {
	st           *storage.Storage
	homeDir      string
	localAppData string
	drives       DriveLister
	glob         GlobFunc
}

// New creates a Resolver rooted at the given user profile directories.
func New(st *storage.Storage, homeDir, localAppData string) *Resolver {
	r := &Resolver{
		st:           st,
		homeDir:      homeDir,
		localAppData: localAppData,
	}
	r.drives = r.fixedDrives
	r.glob = st.Glob
	return r
}

// SetDriveLister overrides drive enumeration, for tests.
func (r *Resolver) SetDriveLister(lister DriveLister) {
	if lister == nil {
		r.drives = r.fixedDrives
		return
	}
	r.drives = lister
}

// SetGlob overrides wildcard matching, for tests.
func (r *Resolver) SetGlob(glob GlobFunc) {
	if glob == nil {
		r.glob = r.st.Glob
		return
	}
	r.glob = glob
}

// fixedDrives probes drive letters A through Z and returns the roots
// that exist, in letter order.
func (r *Resolver) fixedDrives() []string {
	var roots []string
	for letter := 'A'; letter <= 'Z'; letter++ {
		root := string(letter) + `:\`
		if ok, _ := r.st.DirExists(root); ok {
			roots = append(roots, root)
		}
	}
	return roots
}

// DevConfigPath returns the developer config location without checking
// for its presence.
func (r *Resolver) DevConfigPath() string {
	return filepath.Join(r.homeDir, DocumentsDirName, DevConfigFileName)
}

// ResolveDevConfig returns the developer config path, failing when the
// file is absent.
func (r *Resolver) ResolveDevConfig() (string, error) {
	path := r.DevConfigPath()
	exists, err := r.st.Exists(path)
	if err != nil {
		return "", fmt.Errorf("inspect %s: %w", path, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", domain.ErrDevConfigNotFound, path)
	}
	return path, nil
}

// ResolveWebConfig derives the web config path from the deployment
// root recorded in the developer config. A non-empty webroot override
// skips the developer config read.
func (r *Resolver) ResolveWebConfig(webrootOverride string) (string, error) {
	webroot := webrootOverride
	if webroot == "" {
		devPath, err := r.ResolveDevConfig()
		if err != nil {
			return "", err
		}
		dev, err := xmlconf.LoadDevConfig(r.st, devPath)
		if err != nil {
			return "", err
		}
		webroot, err = dev.WebRoot()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(webroot, WebConfigFileName), nil
}

// VSVersionToken maps a Visual Studio product year to its internal
// version token, defaulting for unrecognized labels.
func VSVersionToken(versionLabel string) string {
	if token, ok := vsVersionTokens[versionLabel]; ok {
		return token
	}
	return defaultVSToken
}

// ResolveVSSettings finds the Visual Studio settings file for the
// given version label. The settings directory carries an instance
// suffix after the version token, so a wildcard search is used and the
// first match wins. A missing file is reported as absent, not an error.
func (r *Resolver) ResolveVSSettings(versionLabel string) (string, bool, error) {
	token := VSVersionToken(versionLabel)
	pattern := filepath.Join(r.localAppData, "Microsoft", "VisualStudio", token+"*", "Settings", VSSettingsFileName)
	matches, err := r.glob(pattern)
	if err != nil {
		return "", false, fmt.Errorf("search %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", false, nil
	}
	return matches[0], true, nil
}

// ResolvePackageStore returns the vendor package store directory.
// A configured override wins when it is an existing directory; else
// fixed drives are scanned for the well-known relative path.
func (r *Resolver) ResolvePackageStore(configuredOverride string) (string, error) {
	if configuredOverride != "" {
		if ok, err := r.st.DirExists(configuredOverride); err != nil {
			return "", fmt.Errorf("inspect %s: %w", configuredOverride, err)
		} else if ok {
			return configuredOverride, nil
		}
	}
	for _, root := range r.drives() {
		candidate := filepath.Join(root, filepath.FromSlash(packageStoreRelPath))
		if ok, _ := r.st.DirExists(candidate); ok {
			return candidate, nil
		}
	}
	return "", domain.ErrPackageStoreNotFound
}

// MetadataDir returns the metadata directory for a workspace.
func MetadataDir(workspaceDir string) string {
	if filepath.Base(workspaceDir) == MetadataDirName {
		return workspaceDir
	}
	return filepath.Join(workspaceDir, MetadataDirName)
}

// ProjectsDir returns the projects directory for a workspace.
func ProjectsDir(workspaceDir string) string {
	return filepath.Join(workspaceDir, ProjectsDirName)
}
