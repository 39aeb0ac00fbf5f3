// Package manifest reads the plugin contract out of a package's package.json
// and derives the plugin identity and distributable location from it.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/kb-labs/plugins/internal/naming"
)

var (
	// ErrManifestMissing is returned when the package has no package.json.
	ErrManifestMissing = errors.New("manifest missing")
	// ErrManifestInvalid is wrapped by every field-level validation failure.
	ErrManifestInvalid = errors.New("invalid manifest")
)

// mainPattern splits "dir/file.js" into its directory and file name.
var mainPattern = regexp.MustCompile(`^(?:(.+)/)?([^/]+\.js)$`)

// Read loads and validates dir/package.json.
func Read(dir string) (*Plugin, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no %s in %s", ErrManifestMissing, FileName, dir)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw package.json bytes. Rules are applied in order and the
// first failure is returned.
func Parse(data []byte) (*Plugin, error) {
	var raw packageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrManifestInvalid, FileName, err)
	}

	p := &Plugin{
		RegistryName:   raw.Name,
		PluginName:     raw.PluginName,
		Publisher:      raw.Publisher,
		Version:        raw.Version,
		HasPrepareHook: raw.Scripts["prepare"] != "",
		HasBuildHook:   raw.Scripts["build"] != "",
	}

	if p.PluginName == "" {
		switch {
		case raw.Name == "":
			return nil, fmt.Errorf("%w: \"name\" or \"pluginName\" is required", ErrManifestInvalid)
		case strings.HasPrefix(raw.Name, "@"):
			return nil, fmt.Errorf("%w: scoped package %s needs an explicit \"pluginName\"", ErrManifestInvalid, raw.Name)
		}
		p.PluginName = raw.Name
	}

	if p.Publisher == "" {
		return nil, fmt.Errorf("%w: \"publisher\" is required", ErrManifestInvalid)
	}

	if raw.Main == "" {
		return nil, fmt.Errorf("%w: \"main\" is required", ErrManifestInvalid)
	}
	m := mainPattern.FindStringSubmatch(strings.TrimPrefix(raw.Main, "./"))
	if m == nil {
		return nil, fmt.Errorf("%w: \"main\" must point to a .js file, got %q", ErrManifestInvalid, raw.Main)
	}
	if m[1] == "" {
		// The whole directory holding main is copied into place.
		return nil, fmt.Errorf("%w: \"main\" must live in a subdirectory such as dist/, got %q", ErrManifestInvalid, raw.Main)
	}
	p.DistDir = filepath.FromSlash(m[1])
	p.MainEntryFilename = m[2]
	if !filepath.IsLocal(p.DistDir) {
		return nil, fmt.Errorf("%w: \"main\" must stay inside the package, got %q", ErrManifestInvalid, raw.Main)
	}

	if p.Version == "" {
		return nil, fmt.Errorf("%w: \"version\" is required", ErrManifestInvalid)
	}
	if _, err := semver.StrictNewVersion(p.Version); err != nil {
		return nil, fmt.Errorf("%w: \"version\" %q is not a semantic version", ErrManifestInvalid, p.Version)
	}

	if err := naming.ValidatePluginName(p.PluginName); err != nil {
		return nil, err
	}
	if err := naming.ValidatePublisher(p.Publisher); err != nil {
		return nil, err
	}
	return p, nil
}
