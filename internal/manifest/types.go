package manifest

// FileName is the package metadata file every plugin package carries.
const FileName = "package.json"

// packageJSON holds the package.json fields the plugin contract consumes.
type packageJSON struct {
	Scripts    map[string]string `json:"scripts"`
	Name       string            `json:"name"`
	PluginName string            `json:"pluginName"`
	Publisher  string            `json:"publisher"`
	Main       string            `json:"main"`
	Version    string            `json:"version"`
}

// Plugin is the identity and placement data derived from a package.json.
// It is rebuilt for every operation and never persisted.
type Plugin struct {
	// RegistryName is the package "name" field; may be empty.
	RegistryName string
	PluginName   string
	Publisher    string
	Version      string
	// DistDir is the directory of the entry point, relative to the package root.
	DistDir string
	// MainEntryFilename is the built entry file inside DistDir.
	MainEntryFilename string

	HasPrepareHook bool
	HasBuildHook   bool
}

// ID returns "publisher/pluginName".
func (p *Plugin) ID() string {
	return p.Publisher + "/" + p.PluginName
}

// String returns "publisher/pluginName@version".
func (p *Plugin) String() string {
	return p.ID() + "@" + p.Version
}
