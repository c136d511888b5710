package deps

import (
	"fmt"
	"path/filepath"
)

type ArtifactKind string

const (
	// A pkg-config file installed to lib/pkgconfig.
	ArtifactPkgConfig ArtifactKind = "pkgconfig"
	// An executable installed to bin.
	ArtifactExecutable ArtifactKind = "executable"
)

// Module is one dependency built with meson. Its Artifact is the file whose
// presence in the install prefix marks the module as built.
type Module struct {
	// Example: glib
	Name string
	// Example: glib-2.0.pc
	Artifact string
	Kind     ArtifactKind
	// Meson options without the -D prefix, e.g. tests=false.
	Options []string
}

// ArtifactSubpath returns the artifact path relative to an install prefix.
func (m *Module) ArtifactSubpath() (string, error) {
	switch m.Kind {
	case ArtifactPkgConfig:
		return filepath.Join("lib", "pkgconfig", m.Artifact), nil
	case ArtifactExecutable:
		return filepath.Join("bin", m.Artifact), nil
	}
	return "", fmt.Errorf("module %s: %w: %q", m.Name, ErrUnsupportedArtifactKind, m.Kind)
}

// Runtimes returns the runtime flavors the module is built in. Libraries
// are needed for both CRT flavors, tools only link statically.
func (m *Module) Runtimes() ([]RuntimeEnum, error) {
	switch m.Kind {
	case ArtifactPkgConfig:
		return []RuntimeEnum{RuntimeStatic, RuntimeDynamic}, nil
	case ArtifactExecutable:
		return []RuntimeEnum{RuntimeStatic}, nil
	}
	return nil, fmt.Errorf("module %s: %w: %q", m.Name, ErrUnsupportedArtifactKind, m.Kind)
}

// DefaultModules lists every dependency in build order. Later modules find
// earlier ones through the pkg-config wrapper, so the order matters.
var DefaultModules = []*Module{
	{Name: "zlib", Artifact: "zlib.pc", Kind: ArtifactPkgConfig},
	{Name: "libffi", Artifact: "libffi.pc", Kind: ArtifactPkgConfig},
	{Name: "sqlite", Artifact: "sqlite3.pc", Kind: ArtifactPkgConfig},
	{Name: "glib", Artifact: "glib-2.0.pc", Kind: ArtifactPkgConfig, Options: []string{"internal_pcre=true", "tests=false"}},
	{Name: "glib-schannel", Artifact: "glib-schannel-static.pc", Kind: ArtifactPkgConfig},
	{Name: "libgee", Artifact: "gee-0.8.pc", Kind: ArtifactPkgConfig},
	{Name: "json-glib", Artifact: "json-glib-1.0.pc", Kind: ArtifactPkgConfig, Options: []string{"introspection=false", "tests=false"}},
	{Name: "libpsl", Artifact: "libpsl.pc", Kind: ArtifactPkgConfig},
	{Name: "libxml2", Artifact: "libxml-2.0.pc", Kind: ArtifactPkgConfig},
	{Name: "libsoup", Artifact: "libsoup-2.4.pc", Kind: ArtifactPkgConfig, Options: []string{"gssapi=false", "tls_check=false", "gnome=false", "introspection=false", "tests=false"}},
	{Name: "vala", Artifact: DefaultGenerator.Executable(), Kind: ArtifactExecutable},
}
