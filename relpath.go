package deps

import (
	"path/filepath"
	"slices"
	"strings"
)

// RelPath is a file path relative to a walk root, split into dir segments
// and the file name so classification never depends on the separator.
type RelPath struct {
	Dirs []string
	Name string
}

// ParseRelPath splits a relative file path using either separator.
func ParseRelPath(p string) RelPath {
	p = strings.ReplaceAll(p, `\`, "/")
	segments := strings.Split(strings.Trim(p, "/"), "/")
	var dirs []string
	for _, seg := range segments[:len(segments)-1] {
		if seg != "" && seg != "." {
			dirs = append(dirs, seg)
		}
	}
	return RelPath{Dirs: dirs, Name: segments[len(segments)-1]}
}

// Ext returns the extension without the dot, e.g. "pc".
func (p RelPath) Ext() string {
	return strings.TrimPrefix(filepath.Ext(p.Name), ".")
}

// Base returns the file name without its extension.
func (p RelPath) Base() string {
	return strings.TrimSuffix(p.Name, filepath.Ext(p.Name))
}

// Root returns the first dir segment, or "" for files at the walk root.
func (p RelPath) Root() string {
	if len(p.Dirs) == 0 {
		return ""
	}
	return p.Dirs[0]
}

// Sub returns the dir segments below the root.
func (p RelPath) Sub() []string {
	if len(p.Dirs) == 0 {
		return nil
	}
	return p.Dirs[1:]
}

// StripRoot drops the first dir segment.
func (p RelPath) StripRoot() RelPath {
	return RelPath{Dirs: slices.Clone(p.Sub()), Name: p.Name}
}

// DirsHaveSuffix reports whether the dir segments end with suffix.
func (p RelPath) DirsHaveSuffix(suffix ...string) bool {
	if len(suffix) > len(p.Dirs) {
		return false
	}
	return slices.Equal(p.Dirs[len(p.Dirs)-len(suffix):], suffix)
}

// FilePath joins the segments with the OS separator.
func (p RelPath) FilePath() string {
	return filepath.Join(append(slices.Clone(p.Dirs), p.Name)...)
}

func (p RelPath) String() string {
	return strings.Join(append(slices.Clone(p.Dirs), p.Name), "/")
}
