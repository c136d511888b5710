//go:build windows

package deps

import (
	"encoding/json"
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

const (
	winXPSDKKey = `SOFTWARE\Microsoft\Microsoft SDKs\Windows\v7.1A`
	win10SDKKey = `SOFTWARE\Microsoft\Windows Kits\Installed Roots`
)

// systemLocator asks vswhere (shipped in the bootstrap bundle) for Visual
// Studio and reads the SDK roots from the registry.
type systemLocator struct {
	runner    Runner
	bootstrap *Bootstrapper
}

func newSystemLocator(runner Runner, bootstrap *Bootstrapper) Locator {
	return &systemLocator{runner: runner, bootstrap: bootstrap}
}

func (l *systemLocator) LocateCompilerSuite() (string, error) {
	bootstrapDir, err := l.bootstrap.Ensure()
	if err != nil {
		return "", err
	}
	output, err := l.runner.Output(&RunOpt{
		Name: filepath.Join(bootstrapDir, "bin", "vswhere.exe"),
		Args: []string{
			"-version", "15.0",
			"-format", "json",
			"-property", "installationPath",
		},
	})
	if err != nil {
		return "", missingDependency(VisualStudioName)
	}
	var installations []struct {
		InstallationPath string `json:"installationPath"`
	}
	if err := json.Unmarshal(output, &installations); err != nil || len(installations) == 0 {
		return "", missingDependency(VisualStudioName)
	}
	return installations[0].InstallationPath, nil
}

func (l *systemLocator) LocatePlatformSDK(tag SDKTag) (SDK, error) {
	var sdk SDK
	var err error
	switch tag {
	case SDKWinXP:
		sdk, err = readWinXPSDK()
	case SDKWin10:
		sdk, err = readWin10SDK()
	default:
		return SDK{}, missingDependency(SDKName(tag))
	}
	// Any registry or filesystem failure is reported as "not installed".
	if err != nil {
		return SDK{}, missingDependency(SDKName(tag))
	}
	return sdk, nil
}

func (l *systemLocator) LocateBootstrapBundle() (string, error) {
	return l.bootstrap.Ensure()
}

func readWinXPSDK() (SDK, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, winXPSDKKey, registry.QUERY_VALUE)
	if err != nil {
		return SDK{}, err
	}
	defer key.Close()

	dir, _, err := key.GetStringValue("InstallationFolder")
	if err != nil {
		return SDK{}, err
	}
	version, _, err := key.GetStringValue("ProductVersion")
	if err != nil {
		return SDK{}, err
	}
	return SDK{Dir: dir, Version: version}, nil
}

func readWin10SDK() (SDK, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, win10SDKKey, registry.QUERY_VALUE)
	if err != nil {
		return SDK{}, err
	}
	defer key.Close()

	dir, _, err := key.GetStringValue("KitsRoot10")
	if err != nil {
		return SDK{}, err
	}
	version, err := NewestVersion(filepath.Join(dir, "Include"))
	if err != nil {
		return SDK{}, err
	}
	return SDK{Dir: dir, Version: version}, nil
}
