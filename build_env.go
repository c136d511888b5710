package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tattocau/frida/io2"
)

// Windows tools expect ';' separated path lists regardless of where the
// wrappers are generated.
const pathListSeparator = ";"

// Defines injected into every C and resource compiler invocation so the
// output keeps running on Windows XP.
var winXPDefines = []string{
	"_USING_V110_SDK71_",
	"_UNICODE",
	"UNICODE",
}

// BuildEnv is the isolated environment of one variant. It is never mutated
// after Materialize returns it.
type BuildEnv struct {
	Variant Variant
	// Dir is the variant scratch dir holding the wrappers.
	Dir string

	SearchPath  []string
	IncludePath []string
	LibraryPath []string
	// Vars are the env overrides other than PATH.
	Vars map[string]string

	EnvScript        string
	RCWrapper        string
	PkgConfigWrapper string
}

// Environ returns KEY=VALUE overrides for spawned processes, sorted by key.
// PATH is the search path prepended to the PATH of this process.
func (e *BuildEnv) Environ() []string {
	keys := make([]string, 0, len(e.Vars))
	for k := range e.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	path := strings.Join(e.SearchPath, pathListSeparator)
	if cur := os.Getenv("PATH"); cur != "" {
		path += pathListSeparator + cur
	}
	env := []string{"PATH=" + path}
	for _, k := range keys {
		env = append(env, k+"="+e.Vars[k])
	}
	return env
}

// Materializer derives and caches one BuildEnv per variant. It is not safe
// for concurrent use.
type Materializer struct {
	Layout       *Layout
	Toolchain    *Resolver
	Generator    Generator
	HostPlatform PlatformEnum

	cache map[Variant]*BuildEnv
}

func NewMaterializer(layout *Layout, toolchain *Resolver, generator Generator, host PlatformEnum) *Materializer {
	return &Materializer{
		Layout:       layout,
		Toolchain:    toolchain,
		Generator:    generator,
		HostPlatform: host,
		cache:        map[Variant]*BuildEnv{},
	}
}

func (m *Materializer) Materialize(platform PlatformEnum, configuration ConfigurationEnum, runtime RuntimeEnum) (*BuildEnv, error) {
	v := NewVariant(platform, configuration, runtime)
	if env, ok := m.cache[v]; ok {
		return env, nil
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	env, err := m.generate(v)
	if err != nil {
		return nil, err
	}
	m.cache[v] = env
	return env, nil
}

func (m *Materializer) generate(v Variant) (*BuildEnv, error) {
	vsDir, err := m.Toolchain.CompilerSuite()
	if err != nil {
		return nil, err
	}
	msvcDir, err := m.Toolchain.MSVCToolDir()
	if err != nil {
		return nil, err
	}
	winXP, err := m.Toolchain.PlatformSDK(SDKWinXP)
	if err != nil {
		return nil, err
	}
	win10, err := m.Toolchain.PlatformSDK(SDKWin10)
	if err != nil {
		return nil, err
	}
	bootstrapDir, err := m.Toolchain.BootstrapBundle()
	if err != nil {
		return nil, err
	}

	prefix := m.Layout.PrefixDir(v)
	envDir := m.Layout.VariantScratchDir(v)
	if err := io2.Mkdirp(envDir); err != nil {
		return nil, err
	}

	vcDir := filepath.Join(vsDir, "VC")
	msvcPlatform := MSVCPlatform(v.Platform)
	msvcHost := MSVCPlatform(m.HostPlatform)
	msvcBinDir := filepath.Join(msvcDir, "bin", "Host"+msvcHost, msvcPlatform)

	winXPBinDir := filepath.Join(winXP.Dir, "Bin")
	winXPLibDir := filepath.Join(winXP.Dir, "Lib")
	if v.Platform != PlatformX86 {
		winXPBinDir = filepath.Join(winXPBinDir, msvcPlatform)
		winXPLibDir = filepath.Join(winXPLibDir, msvcPlatform)
	}

	searchPath := []string{
		filepath.Join(prefix, "bin"),
		envDir,
		filepath.Join(bootstrapDir, "bin"),
		winXPBinDir,
		msvcBinDir,
	}
	// Cross compilers load DLLs from the native host toolset.
	if v.Platform != m.HostPlatform {
		searchPath = append(searchPath, filepath.Join(msvcDir, "bin", "Host"+msvcHost, msvcHost))
	}

	includePath := []string{
		filepath.Join(msvcDir, "include"),
		filepath.Join(msvcDir, "atlmfc", "include"),
		filepath.Join(vcDir, "Auxiliary", "VS", "include"),
		filepath.Join(win10.Dir, "Include", win10.Version, "ucrt"),
		filepath.Join(winXP.Dir, "Include"),
	}

	libraryPath := []string{
		filepath.Join(msvcDir, "lib", msvcPlatform),
		filepath.Join(msvcDir, "atlmfc", "lib", msvcPlatform),
		filepath.Join(vcDir, "Auxiliary", "VS", "lib", msvcPlatform),
		filepath.Join(win10.Dir, "Lib", win10.Version, "ucrt", msvcPlatform),
		winXPLibDir,
	}

	clFlags := "/D" + strings.Join(winXPDefines, " /D")

	env := &BuildEnv{
		Variant:     v,
		Dir:         envDir,
		SearchPath:  searchPath,
		IncludePath: includePath,
		LibraryPath: libraryPath,
		Vars: map[string]string{
			"INCLUDE":          strings.Join(includePath, pathListSeparator),
			"LIB":              strings.Join(libraryPath, pathListSeparator),
			"CL":               clFlags,
			"VCINSTALLDIR":     vcDir + `\`,
			"Platform":         msvcPlatform,
			"M4":               filepath.Join(bootstrapDir, "bin", "m4.exe"),
			"BISON_PKGDATADIR": filepath.Join(bootstrapDir, "share", "bison"),
			"VALAC":            m.Generator.Executable(),
		},
		EnvScript:        filepath.Join(envDir, "env.bat"),
		RCWrapper:        filepath.Join(envDir, "rc.bat"),
		PkgConfigWrapper: filepath.Join(envDir, "pkg-config.bat"),
	}

	if err := io2.WriteFile(env.EnvScript, env.envScript()); err != nil {
		return nil, err
	}
	rcPath := filepath.Join(winXPBinDir, "rc.exe")
	if err := io2.WriteFile(env.RCWrapper, fmt.Sprintf(rcWrapperFormat, rcPath, clFlags)); err != nil {
		return nil, err
	}
	pkgConfigPath := filepath.Join(bootstrapDir, "bin", "pkg-config.exe")
	pkgConfigLibDir := filepath.Join(prefix, "lib", "pkgconfig")
	if err := io2.WriteFile(env.PkgConfigWrapper, fmt.Sprintf(pkgConfigWrapperFormat, pkgConfigLibDir, pkgConfigPath)); err != nil {
		return nil, err
	}
	return env, nil
}

// envScriptVars is the order in which env.bat sets the variables.
var envScriptVars = []string{
	"INCLUDE",
	"LIB",
	"CL",
	"VCINSTALLDIR",
	"Platform",
	"M4",
	"BISON_PKGDATADIR",
	"VALAC",
}

func (e *BuildEnv) envScript() string {
	var sb strings.Builder
	sb.WriteString("@ECHO OFF\n")
	sb.WriteString("set PATH=" + strings.Join(e.SearchPath, pathListSeparator) + ";%PATH%\n")
	for _, k := range envScriptVars {
		sb.WriteString("set " + k + "=" + e.Vars[k] + "\n")
	}
	return sb.String()
}

// rcWrapperFormat args: rc.exe path, defines.
const rcWrapperFormat = `@ECHO OFF
SETLOCAL EnableExtensions
SET _res=0
"%[1]s" %[2]s %%* || SET _res=1
ENDLOCAL & SET _res=%%_res%%
EXIT /B %%_res%%`

// pkgConfigWrapperFormat args: pkg-config search dir, pkg-config.exe path.
const pkgConfigWrapperFormat = `@ECHO OFF
SETLOCAL EnableExtensions
SET _res=0
SET PKG_CONFIG_PATH=%[1]s
"%[2]s" --static %%* || SET _res=1
ENDLOCAL & SET _res=%%_res%%
EXIT /B %%_res%%`
