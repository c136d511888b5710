//go:build !windows

package deps

// systemLocator has no registry to read outside Windows; compiler and SDK
// paths must come from the config file.
type systemLocator struct {
	bootstrap *Bootstrapper
}

func newSystemLocator(_ Runner, bootstrap *Bootstrapper) Locator {
	return &systemLocator{bootstrap: bootstrap}
}

func (l *systemLocator) LocateCompilerSuite() (string, error) {
	return "", missingDependency(VisualStudioName)
}

func (l *systemLocator) LocatePlatformSDK(tag SDKTag) (SDK, error) {
	return SDK{}, missingDependency(SDKName(tag))
}

func (l *systemLocator) LocateBootstrapBundle() (string, error) {
	return l.bootstrap.Ensure()
}
