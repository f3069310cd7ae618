// Package xmlconf provides typed accessors over the XML configuration
// documents this tool edits: the AOS web.config, the per-user
// DynamicsDevConfig.xml, and the Visual Studio .vssettings file.
//
// Documents are parsed with etree so that untouched attributes,
// element order, and formatting survive a read-modify-write cycle.
package xmlconf

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/example/d365-switch-workspace/internal/d365ws/domain"
	"github.com/example/d365-switch-workspace/internal/d365ws/storage"
)

// Web config setting keys rewritten by a workspace switch.
const (
	KeyMetadataDirectory = "Aos.MetadataDirectory"
	KeyPackageDirectory  = "Aos.PackageDirectory"
	KeyBinDir            = "bindir"
	KeyCommonBinDir      = "Common.BinDir"
	KeyAzureConfigBinDir = "Microsoft.Dynamics.AX.AosConfig.AzureConfig.bindir"
	KeyDevToolsBinDir    = "Common.DevToolsBinDir"
)

// SettingKeys lists the web config keys a workspace switch rewrites,
// in the order they are reported.
var SettingKeys = []string{
	KeyMetadataDirectory,
	KeyPackageDirectory,
	KeyBinDir,
	KeyCommonBinDir,
	KeyAzureConfigBinDir,
	KeyDevToolsBinDir,
}

func load(st *storage.Storage, path string) (*etree.Document, error) {
	data, err := st.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func save(st *storage.Storage, doc *etree.Document, path string) error {
	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("serialize %s: %w", path, err)
	}
	if err := st.WriteFile(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WebConfig is the AOS web.config: a flat appSettings list of
// <add key="..." value="..."/> elements.
type WebConfig struct {
	st   *storage.Storage
	doc  *etree.Document
	path string
}

// LoadWebConfig parses the web config at path.
func LoadWebConfig(st *storage.Storage, path string) (*WebConfig, error) {
	doc, err := load(st, path)
	if err != nil {
		return nil, err
	}
	return &WebConfig{st: st, doc: doc, path: path}, nil
}

// Path returns the file path the document was loaded from.
func (w *WebConfig) Path() string {
	return w.path
}

func (w *WebConfig) findAdd(key string) *etree.Element {
	return w.doc.FindElement(fmt.Sprintf("//appSettings/add[@key='%s']", key))
}

// valueAttr returns the value attribute of an add element. Both "value"
// and "Value" spellings occur in deployed files.
func valueAttr(el *etree.Element) *etree.Attr {
	if attr := el.SelectAttr("value"); attr != nil {
		return attr
	}
	return el.SelectAttr("Value")
}

// Setting returns the value of the named appSettings key and whether
// the key is present.
func (w *WebConfig) Setting(key string) (string, bool) {
	el := w.findAdd(key)
	if el == nil {
		return "", false
	}
	attr := valueAttr(el)
	if attr == nil {
		return "", false
	}
	return attr.Value, true
}

// SetSetting rewrites the value of the named appSettings key.
// A missing key is unexpected on a well-formed file and is fatal.
func (w *WebConfig) SetSetting(key, value string) error {
	el := w.findAdd(key)
	if el == nil {
		return fmt.Errorf("%w: %s", domain.ErrSettingMissing, key)
	}
	attr := valueAttr(el)
	if attr == nil {
		el.CreateAttr("value", value)
		return nil
	}
	el.CreateAttr(attr.Key, value)
	return nil
}

// Save persists the document back to its original path.
func (w *WebConfig) Save() error {
	return save(w.st, w.doc, w.path)
}

// DevConfig is the per-user DynamicsDevConfig.xml. Only the web role
// deployment folder is of interest.
type DevConfig struct {
	doc  *etree.Document
	path string
}

// LoadDevConfig parses the developer config at path.
func LoadDevConfig(st *storage.Storage, path string) (*DevConfig, error) {
	doc, err := load(st, path)
	if err != nil {
		return nil, err
	}
	return &DevConfig{doc: doc, path: path}, nil
}

// WebRoot returns the web role deployment folder recorded by the
// platform installer.
func (d *DevConfig) WebRoot() (string, error) {
	el := d.doc.FindElement("//WebRoleDeploymentFolder")
	if el == nil {
		return "", fmt.Errorf("no WebRoleDeploymentFolder element in %s", d.path)
	}
	return el.Text(), nil
}

// VSSettings is the Visual Studio CurrentSettings.vssettings file.
// Only the default projects location is touched.
type VSSettings struct {
	st   *storage.Storage
	doc  *etree.Document
	path string
}

// LoadVSSettings parses the Visual Studio settings file at path.
func LoadVSSettings(st *storage.Storage, path string) (*VSSettings, error) {
	doc, err := load(st, path)
	if err != nil {
		return nil, err
	}
	return &VSSettings{st: st, doc: doc, path: path}, nil
}

const projectsLocationPath = "//ToolsOptions/ToolsOptionsCategory[@name='Environment']" +
	"/ToolsOptionsSubCategory[@name='ProjectsAndSolution']" +
	"/PropertyValue[@name='ProjectsLocation']"

func (v *VSSettings) projectsLocation() *etree.Element {
	return v.doc.FindElement(projectsLocationPath)
}

// ProjectsLocation returns the default location for new projects and
// whether the node is present.
func (v *VSSettings) ProjectsLocation() (string, bool) {
	el := v.projectsLocation()
	if el == nil {
		return "", false
	}
	return el.Text(), true
}

// SetProjectsLocation rewrites the default location for new projects.
func (v *VSSettings) SetProjectsLocation(value string) error {
	el := v.projectsLocation()
	if el == nil {
		return fmt.Errorf("no ProjectsLocation node in %s", v.path)
	}
	el.SetText(value)
	return nil
}

// Save persists the document back to its original path.
func (v *VSSettings) Save() error {
	return save(v.st, v.doc, v.path)
}
