package deps

import (
	"errors"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/tattocau/frida/io2"
)

type testPipeline struct {
	*Pipeline
	bs         *fakeBuildSystem
	src        *fakeSource
	compressor *fakeCompressor
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()
	root := t.TempDir()
	tc := t.TempDir()
	mustMkdir(t, filepath.Join(tc, "VS", "VC", "Tools", "MSVC", testMSVCVersion))

	cfg := &Config{
		Toolchain: ToolchainConfig{
			VSDir:           filepath.Join(tc, "VS"),
			WinXPSDKDir:     filepath.Join(tc, "v7.1A"),
			WinXPSDKVersion: "7.1.51106",
			Win10SDKDir:     filepath.Join(tc, "10"),
			Win10SDKVersion: "10.0.17134.0",
		},
		Modules: []*ModuleConfig{
			{Name: "zlib", Artifact: "zlib.pc", Kind: "pkgconfig"},
			{Name: "vala", Artifact: "valac-0.42.exe", Kind: "executable"},
		},
	}
	p, err := NewPipeline(CreateDefaultTunnel(), root, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// The bundle is already unpacked, nothing gets downloaded.
	mustMkdir(t, filepath.Join(p.Layout.BootstrapDir, "bin"))

	tp := &testPipeline{
		Pipeline:   p,
		bs:         &fakeBuildSystem{},
		src:        &fakeSource{},
		compressor: newFakeCompressor(),
	}
	p.Sequencer.BuildSystem = tp.bs
	p.Sequencer.Source = tp.src
	p.Packager.Compressor = tp.compressor
	p.LookPath = func(file string) (string, error) {
		return filepath.Join("bin", file), nil
	}
	return tp
}

func TestNewPipeline(t *testing.T) {
	p, err := NewPipeline(CreateDefaultTunnel(), t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Packager.Compressor.(*SevenZip); !ok {
		t.Errorf("Compressor = %T, want *SevenZip", p.Packager.Compressor)
	}
	if p.Packager.Level != DefaultCompressionLevel {
		t.Errorf("Level = %d", p.Packager.Level)
	}
	if len(p.Sequencer.Modules) != len(DefaultModules) {
		t.Errorf("Modules = %d, want %d", len(p.Sequencer.Modules), len(DefaultModules))
	}
	if p.Bootstrap.Dir != p.Layout.BootstrapDir || p.Bootstrap.URL != DefaultBootstrapURL {
		t.Errorf("Bootstrap = %+v", p.Bootstrap)
	}

	if _, err := NewPipeline(CreateDefaultTunnel(), t.TempDir(), &Config{Build: BuildConfig{Format: "zip"}}); err == nil {
		t.Error("NewPipeline() with an unknown format error = nil")
	}
}

func TestNewCompressor(t *testing.T) {
	c, err := NewCompressor(FormatTarXz, nil)
	if err != nil || c.Ext() != ".tar.xz" {
		t.Errorf("NewCompressor(tar.xz) = %v, %v", c, err)
	}
	c, err = NewCompressor(FormatSevenZip, nil)
	if err != nil || c.Ext() != ".exe" {
		t.Errorf("NewCompressor(7z) = %v, %v", c, err)
	}
}

func TestCheckEnvironment(t *testing.T) {
	p := newTestPipeline(t)
	if err := p.CheckEnvironment(); err != nil {
		t.Fatalf("CheckEnvironment() error = %v", err)
	}

	p.LookPath = func(file string) (string, error) {
		if file == "py" {
			return "", exec.ErrNotFound
		}
		return file, nil
	}
	err := p.CheckEnvironment()
	var missing *MissingDependencyError
	if !errors.As(err, &missing) || missing.Name != "py" {
		t.Errorf("CheckEnvironment() error = %v, want py missing", err)
	}
}

func TestCheckEnvironmentMissingToolchain(t *testing.T) {
	p := newTestPipeline(t)
	p.Toolchain = NewResolver(&ConfigLocator{Bootstrap: p.Bootstrap})
	if err := p.CheckEnvironment(); !IsMissingDependency(err) {
		t.Errorf("CheckEnvironment() error = %v, want missing dependency", err)
	}
}

func TestStartLoop(t *testing.T) {
	p := newTestPipeline(t)
	var built []string
	err := p.StartLoop(&StartLoopOptions{
		Platforms:      []PlatformEnum{PlatformX86, PlatformX86_64},
		Configurations: []ConfigurationEnum{ConfigurationRelease},
		AfterEachFn: func(platform PlatformEnum, configuration ConfigurationEnum) {
			built = append(built, string(platform)+"/"+string(configuration))
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	// zlib static+dynamic and vala static, for both platforms.
	if len(p.bs.configured) != 6 {
		t.Errorf("configured %v", configuredNames(p.bs))
	}
	if len(built) != 2 || built[0] != "x86/Release" || built[1] != "x86_64/Release" {
		t.Errorf("built %v", built)
	}
	toolchainPath, sdkPath := p.Packager.ArchivePaths()
	if !io2.FileExists(toolchainPath) || !io2.FileExists(sdkPath) {
		t.Error("packages were not written")
	}
}

func TestStartLoopSkipPackage(t *testing.T) {
	p := newTestPipeline(t)
	err := p.StartLoop(&StartLoopOptions{
		Platforms:      []PlatformEnum{PlatformX86},
		Configurations: []ConfigurationEnum{ConfigurationDebug},
		SkipPackage:    true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.compressor.staging) != 0 {
		t.Errorf("compressed %v, want nothing", p.compressor.staging)
	}
}

func TestStartLoopFailsBeforeBuilding(t *testing.T) {
	p := newTestPipeline(t)
	p.LookPath = func(file string) (string, error) {
		return "", exec.ErrNotFound
	}
	err := p.StartLoop(&StartLoopOptions{
		Platforms:      []PlatformEnum{PlatformX86},
		Configurations: []ConfigurationEnum{ConfigurationRelease},
	})
	if !IsMissingDependency(err) {
		t.Fatalf("StartLoop() error = %v, want missing dependency", err)
	}
	if len(p.bs.configured) != 0 || len(p.compressor.staging) != 0 {
		t.Error("StartLoop() built or packaged after a failed check")
	}
}
