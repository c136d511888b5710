package deps

import (
	"fmt"
	"slices"
	"strings"
)

// StaticLibExt is the static library extension MSVC consumers expect.
const StaticLibExt = ".lib"

// DynamicLibDir replaces "lib" for artifacts of dynamic-runtime prefixes so
// both flavors can live side by side in the SDK.
const DynamicLibDir = "lib-dynamic"

// Classifier decides which package a file of an install prefix belongs to.
type Classifier struct {
	Generator Generator
}

// IsSDKFile reports whether p, relative to the prefixes dir (so p.Root() is
// the variant dir), ships in the SDK package.
func (c *Classifier) IsSDKFile(p RelPath) bool {
	sub := p.Sub()
	if len(sub) > 0 && sub[0] == "bin" {
		return false
	}

	gen := c.Generator.Name
	if len(sub) > 0 && sub[0] == "lib" && (strings.Contains(strings.Join(sub, "/"), gen) || strings.Contains(p.Name, gen)) {
		return false
	}

	switch p.Ext() {
	case "pc":
		return false
	case "h":
		if strings.HasPrefix(p.Base(), gen) {
			return false
		}
	case "vapi", "deps":
		// Bindings of the libraries ship with the SDK, the generator's own
		// bindings ship with the toolchain.
		return !c.isGeneratorVapi(p)
	}

	return !slices.Contains(sub, "share")
}

// IsToolchainFile reports whether p is part of the generator itself.
func (c *Classifier) IsToolchainFile(p RelPath) bool {
	switch p.Ext() {
	case "vapi", "deps":
		return c.isGeneratorVapi(p)
	}
	return p.Name == c.Generator.Executable()
}

func (c *Classifier) isGeneratorVapi(p RelPath) bool {
	return p.DirsHaveSuffix("share", c.Generator.DataDir(), "vapi")
}

// SDKDest maps a file from the prefixes dir to its SDK package path:
//
//	x86_64-release-static/include/glib.h -> x64-Release/include/glib.h
//	x86-debug-dynamic/lib/libffi.a      -> x86-Debug/lib-dynamic/ffi.lib
func SDKDest(p RelPath) (RelPath, error) {
	v, err := ParseVariant(p.Root())
	if err != nil {
		return RelPath{}, fmt.Errorf("sdk file %s: %w", p, err)
	}

	dirs := []string{MSVCPlatform(v.Platform) + "-" + string(v.Configuration)}
	sub := slices.Clone(p.Sub())
	if v.Runtime == RuntimeDynamic && len(sub) > 0 && sub[0] == "lib" {
		sub[0] = DynamicLibDir
	}
	dirs = append(dirs, sub...)

	name := p.Name
	if p.Ext() == "a" {
		name = strings.TrimPrefix(name, "lib")
		name = strings.TrimSuffix(name, ".a") + StaticLibExt
	}
	return RelPath{Dirs: dirs, Name: name}, nil
}

// ToolchainDest maps a file from the prefixes dir to its toolchain package
// path by dropping the variant dir.
func ToolchainDest(p RelPath) RelPath {
	return p.StripRoot()
}
