package deps

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

type PlatformEnum string

const (
	PlatformX86    PlatformEnum = "x86"
	PlatformX86_64 PlatformEnum = "x86_64"
)

var SupportedPlatforms = map[PlatformEnum]bool{
	PlatformX86:    true,
	PlatformX86_64: true,
}

type ConfigurationEnum string

const (
	ConfigurationDebug   ConfigurationEnum = "Debug"
	ConfigurationRelease ConfigurationEnum = "Release"
)

var SupportedConfigurations = map[ConfigurationEnum]bool{
	ConfigurationDebug:   true,
	ConfigurationRelease: true,
}

type RuntimeEnum string

const (
	RuntimeStatic  RuntimeEnum = "static"
	RuntimeDynamic RuntimeEnum = "dynamic"
)

var SupportedRuntimes = map[RuntimeEnum]bool{
	RuntimeStatic:  true,
	RuntimeDynamic: true,
}

// Generator describes the code generator that ships in the toolchain package
// rather than in the SDK.
type Generator struct {
	// Example: vala
	Name string
	// Example: 0.42
	Version string
}

// DefaultGenerator is the Vala compiler built by the last module.
var DefaultGenerator = Generator{Name: "vala", Version: "0.42"}

// Executable returns the generator binary name, e.g. valac-0.42.exe.
func (g Generator) Executable() string {
	return g.Name + "c-" + g.Version + ".exe"
}

// DataDir returns the versioned data dir name, e.g. vala-0.42.
func (g Generator) DataDir() string {
	return g.Name + "-" + g.Version
}

// Variant identifies one isolated build environment, install prefix and
// scratch dir.
type Variant struct {
	Platform      PlatformEnum
	Configuration ConfigurationEnum
	Runtime       RuntimeEnum
}

func NewVariant(platform PlatformEnum, configuration ConfigurationEnum, runtime RuntimeEnum) Variant {
	return Variant{Platform: platform, Configuration: configuration, Runtime: runtime}
}

// String returns the on-disk name of the variant, e.g. x86-release-static.
func (v Variant) String() string {
	return string(v.Platform) + "-" + strings.ToLower(string(v.Configuration)) + "-" + string(v.Runtime)
}

// Validate reports an error if any component of v is unsupported.
func (v Variant) Validate() error {
	if !SupportedPlatforms[v.Platform] {
		return fmt.Errorf("unsupported platform: %q", v.Platform)
	}
	if !SupportedConfigurations[v.Configuration] {
		return fmt.Errorf("unsupported configuration: %q", v.Configuration)
	}
	if !SupportedRuntimes[v.Runtime] {
		return fmt.Errorf("unsupported runtime: %q", v.Runtime)
	}
	return nil
}

// Sibling returns the same platform and configuration with another runtime.
func (v Variant) Sibling(runtime RuntimeEnum) Variant {
	v.Runtime = runtime
	return v
}

// ParseVariant parses a variant dir name such as x86_64-debug-dynamic.
// Platform names contain no dash, so the name is split from the right.
func ParseVariant(name string) (Variant, error) {
	runtimeIdx := strings.LastIndex(name, "-")
	if runtimeIdx == -1 {
		return Variant{}, fmt.Errorf("invalid variant: %q", name)
	}
	configIdx := strings.LastIndex(name[:runtimeIdx], "-")
	if configIdx == -1 {
		return Variant{}, fmt.Errorf("invalid variant: %q", name)
	}
	v := Variant{
		Platform:      PlatformEnum(name[:configIdx]),
		Configuration: ParseConfiguration(name[configIdx+1 : runtimeIdx]),
		Runtime:       RuntimeEnum(name[runtimeIdx+1:]),
	}
	if err := v.Validate(); err != nil {
		return Variant{}, err
	}
	return v, nil
}

// ParseConfiguration accepts any casing of debug/release.
func ParseConfiguration(s string) ConfigurationEnum {
	switch strings.ToLower(s) {
	case "debug":
		return ConfigurationDebug
	case "release":
		return ConfigurationRelease
	}
	return ConfigurationEnum(s)
}

// MSVCPlatform maps a platform to the name MSVC uses for it.
func MSVCPlatform(platform PlatformEnum) string {
	if platform == PlatformX86_64 {
		return "x64"
	}
	return "x86"
}

// HostPlatform returns the platform of the running machine.
func HostPlatform() PlatformEnum {
	if strings.HasSuffix(runtime.GOARCH, "64") {
		return PlatformX86_64
	}
	return PlatformX86
}

// Layout derives every directory of a run from the repository root.
type Layout struct {
	// RootDir is the repository root. Sources are cloned into it and the
	// final archives are written to it.
	RootDir string
	// BuildDir = ${RootDir}/build
	BuildDir string
	// PrefixesDir = ${BuildDir}/fts-windows
	PrefixesDir string
	// ScratchDir = ${BuildDir}/fts-tmp-windows
	ScratchDir string
	// BootstrapDir = ${BuildDir}/fts-toolchain-windows
	BootstrapDir string
}

func NewLayout(rootDir string) *Layout {
	buildDir := filepath.Join(rootDir, "build")
	return &Layout{
		RootDir:      rootDir,
		BuildDir:     buildDir,
		PrefixesDir:  filepath.Join(buildDir, "fts-windows"),
		ScratchDir:   filepath.Join(buildDir, "fts-tmp-windows"),
		BootstrapDir: filepath.Join(buildDir, "fts-toolchain-windows"),
	}
}

// PrefixDir = ${PrefixesDir}/${Variant}
func (l *Layout) PrefixDir(v Variant) string {
	return filepath.Join(l.PrefixesDir, v.String())
}

// VariantScratchDir = ${ScratchDir}/${Variant}
// Holds the generated wrappers and one build dir per module.
func (l *Layout) VariantScratchDir(v Variant) string {
	return filepath.Join(l.ScratchDir, v.String())
}

// SourceDir = ${RootDir}/${Module}
func (l *Layout) SourceDir(module string) string {
	return filepath.Join(l.RootDir, module)
}

// ModuleBuildDir = ${VariantScratchDir}/${Module}
func (l *Layout) ModuleBuildDir(v Variant, module string) string {
	return filepath.Join(l.VariantScratchDir(v), module)
}

// MesonScript is the meson entry point vendored next to this tool.
func (l *Layout) MesonScript() string {
	return filepath.Join(l.RootDir, "releng", "meson", "meson.py")
}
