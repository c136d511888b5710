package deps

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

type SDKTag string

const (
	SDKWinXP SDKTag = "winxp"
	SDKWin10 SDKTag = "win10"
)

// Human readable names used in missing dependency reports.
const (
	VisualStudioName = "Visual Studio 2017"
	MSVCToolsetName  = "MSVC toolset"
)

var sdkNames = map[SDKTag]string{
	SDKWinXP: "Windows XP SDK",
	SDKWin10: "Windows 10 SDK",
}

func SDKName(tag SDKTag) string {
	if name, ok := sdkNames[tag]; ok {
		return name
	}
	return string(tag) + " SDK"
}

// SDK is an installed platform SDK.
type SDK struct {
	Dir     string
	Version string
}

// Locator finds the host toolchain. Every failure to find a component is a
// *MissingDependencyError.
type Locator interface {
	// LocateCompilerSuite returns the Visual Studio installation dir.
	LocateCompilerSuite() (string, error)
	LocatePlatformSDK(tag SDKTag) (SDK, error)
	// LocateBootstrapBundle returns the bootstrap toolchain dir, fetching
	// and unpacking it on first use.
	LocateBootstrapBundle() (string, error)
}

// ConfigLocator prefers explicitly configured paths and falls back to the
// system locator for everything left empty.
type ConfigLocator struct {
	VSDir     string
	SDKs      map[SDKTag]SDK
	Bootstrap *Bootstrapper
	System    Locator
}

func NewConfigLocator(cfg *ToolchainConfig, runner Runner, bootstrap *Bootstrapper) *ConfigLocator {
	loc := &ConfigLocator{
		SDKs:      map[SDKTag]SDK{},
		Bootstrap: bootstrap,
		System:    newSystemLocator(runner, bootstrap),
	}
	if cfg == nil {
		return loc
	}
	loc.VSDir = cfg.VSDir
	if cfg.WinXPSDKDir != "" {
		loc.SDKs[SDKWinXP] = SDK{Dir: cfg.WinXPSDKDir, Version: cfg.WinXPSDKVersion}
	}
	if cfg.Win10SDKDir != "" {
		loc.SDKs[SDKWin10] = SDK{Dir: cfg.Win10SDKDir, Version: cfg.Win10SDKVersion}
	}
	return loc
}

func (l *ConfigLocator) LocateCompilerSuite() (string, error) {
	if l.VSDir != "" {
		return l.VSDir, nil
	}
	if l.System == nil {
		return "", missingDependency(VisualStudioName)
	}
	return l.System.LocateCompilerSuite()
}

func (l *ConfigLocator) LocatePlatformSDK(tag SDKTag) (SDK, error) {
	if sdk, ok := l.SDKs[tag]; ok {
		if sdk.Version == "" {
			ver, err := NewestVersion(filepath.Join(sdk.Dir, "Include"))
			if err != nil {
				return SDK{}, missingDependency(SDKName(tag))
			}
			sdk.Version = ver
		}
		return sdk, nil
	}
	if l.System == nil {
		return SDK{}, missingDependency(SDKName(tag))
	}
	return l.System.LocatePlatformSDK(tag)
}

func (l *ConfigLocator) LocateBootstrapBundle() (string, error) {
	return l.Bootstrap.Ensure()
}

// Resolver memoizes locator results for one run. It is not safe for
// concurrent use.
type Resolver struct {
	Locator Locator

	stringCache map[string]string
	sdkCache    map[SDKTag]SDK
}

func NewResolver(loc Locator) *Resolver {
	return &Resolver{
		Locator:     loc,
		stringCache: map[string]string{},
		sdkCache:    map[SDKTag]SDK{},
	}
}

func (r *Resolver) CompilerSuite() (string, error) {
	return r.cacheString("vs", r.Locator.LocateCompilerSuite)
}

// MSVCToolDir returns the newest toolset under VC/Tools/MSVC.
func (r *Resolver) MSVCToolDir() (string, error) {
	return r.cacheString("msvc", func() (string, error) {
		vsDir, err := r.CompilerSuite()
		if err != nil {
			return "", err
		}
		toolsDir := filepath.Join(vsDir, "VC", "Tools", "MSVC")
		ver, err := NewestVersion(toolsDir)
		if err != nil {
			return "", missingDependency(MSVCToolsetName)
		}
		return filepath.Join(toolsDir, ver), nil
	})
}

func (r *Resolver) PlatformSDK(tag SDKTag) (SDK, error) {
	if sdk, ok := r.sdkCache[tag]; ok {
		return sdk, nil
	}
	sdk, err := r.Locator.LocatePlatformSDK(tag)
	if err != nil {
		return SDK{}, err
	}
	r.sdkCache[tag] = sdk
	return sdk, nil
}

func (r *Resolver) BootstrapBundle() (string, error) {
	return r.cacheString("bootstrap", r.Locator.LocateBootstrapBundle)
}

// Check resolves every component up front so a missing one aborts the run
// before any module is built.
func (r *Resolver) Check() error {
	if _, err := r.BootstrapBundle(); err != nil {
		return err
	}
	if _, err := r.MSVCToolDir(); err != nil {
		return err
	}
	for _, tag := range []SDKTag{SDKWinXP, SDKWin10} {
		if _, err := r.PlatformSDK(tag); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) cacheString(key string, fn func() (string, error)) (string, error) {
	if val, ok := r.stringCache[key]; ok {
		return val, nil
	}
	val, err := fn()
	if err != nil {
		return "", err
	}
	r.stringCache[key] = val
	return val, nil
}

// NewestVersion returns the highest dotted version dir name (at least three
// components, e.g. 14.16.27023 or 10.0.17134.0) inside dir.
func NewestVersion(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var versions []string
	for _, entry := range entries {
		if entry.IsDir() && versionKey(entry.Name()) != "" {
			versions = append(versions, entry.Name())
		}
	}
	if len(versions) == 0 {
		return "", os.ErrNotExist
	}
	sort.Slice(versions, func(i, j int) bool {
		if c := semver.Compare(versionKey(versions[i]), versionKey(versions[j])); c != 0 {
			return c < 0
		}
		return versions[i] < versions[j]
	})
	return versions[len(versions)-1], nil
}

// versionKey turns the first three components of a dotted version into a
// semver string, or returns "" if name is not a version.
func versionKey(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) < 3 {
		return ""
	}
	v := "v" + strings.Join(parts[:3], ".")
	if !semver.IsValid(v) {
		return ""
	}
	return v
}
