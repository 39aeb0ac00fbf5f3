package layout

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/sahilm/fuzzy"
)

// Installed describes one plugin found under a target root.
type Installed struct {
	Publisher string
	Name      string
	Base      string
	State     State
}

// ID returns "publisher/name".
func (i Installed) ID() string {
	return i.Publisher + "/" + i.Name
}

// Scan walks root/<publisher>/<name> and probes every plugin directory.
// Hidden entries are skipped. A missing root yields no plugins.
func Scan(fsys FS, root string) ([]Installed, error) {
	publishers, err := fsys.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var out []Installed
	for _, p := range publishers {
		if !p.IsDir() || strings.HasPrefix(p.Name(), ".") {
			continue
		}
		pubDir := filepath.Join(root, p.Name())
		plugins, err := fsys.ReadDir(pubDir)
		if err != nil {
			return nil, err
		}
		for _, e := range plugins {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			base := filepath.Join(pubDir, e.Name())
			st, err := Probe(fsys, base)
			if err != nil {
				return nil, err
			}
			SortVersions(st.Versions)
			out = append(out, Installed{
				Publisher: p.Name(),
				Name:      e.Name(),
				Base:      base,
				State:     st,
			})
		}
	}
	return out, nil
}

// SortVersions orders versions ascending by semver precedence. Names that do
// not parse sort after valid versions, alphabetically.
func SortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		a, errA := semver.StrictNewVersion(versions[i])
		b, errB := semver.StrictNewVersion(versions[j])
		switch {
		case errA == nil && errB == nil:
			return a.LessThan(b)
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return versions[i] < versions[j]
	})
}

type installedIDs []Installed

func (s installedIDs) String(i int) string { return s[i].ID() }
func (s installedIDs) Len() int            { return len(s) }

// Match returns the plugins whose publisher/name fuzzy-matches query, best
// match first. An empty query returns plugins unchanged.
func Match(plugins []Installed, query string) []Installed {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return plugins
	}
	matches := fuzzy.FindFrom(query, installedIDs(plugins))
	out := make([]Installed, len(matches))
	for i, m := range matches {
		out[i] = plugins[m.Index]
	}
	return out
}
