package deps

import (
	"fmt"
	"os/exec"

	"github.com/mgenware/j9/v3"
)

// Pipeline wires every component of a run around one tunnel and one
// repository root.
type Pipeline struct {
	Tunnel    *j9.Tunnel
	Layout    *Layout
	Bootstrap *Bootstrapper
	Toolchain *Resolver
	Envs      *Materializer
	Sequencer *Sequencer
	Packager  *Packager

	// HostTools must be on PATH before anything is built.
	HostTools []string
	LookPath  func(file string) (string, error)
}

// NewPipeline assembles the default components. Fields can be replaced
// before calling StartLoop.
func NewPipeline(tunnel *j9.Tunnel, rootDir string, cfg *Config) (*Pipeline, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	runner := NewTunnelRunner(tunnel)
	layout := NewLayout(rootDir)

	bootstrap := &Bootstrapper{
		Tunnel: tunnel,
		Runner: runner,
		URL:    cfg.BootstrapURL(),
		Dir:    layout.BootstrapDir,
	}
	toolchain := NewResolver(NewConfigLocator(&cfg.Toolchain, runner, bootstrap))
	envs := NewMaterializer(layout, toolchain, DefaultGenerator, HostPlatform())

	compressor, err := NewCompressor(cfg.Build.Format, runner)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		Tunnel:    tunnel,
		Layout:    layout,
		Bootstrap: bootstrap,
		Toolchain: toolchain,
		Envs:      envs,
		Sequencer: &Sequencer{
			Tunnel:      tunnel,
			Layout:      layout,
			Envs:        envs,
			Source:      NewGitSource(runner, cfg.Build.SourceURL),
			BuildSystem: NewMeson(runner, layout.MesonScript()),
			Modules:     cfg.ModuleList(),
		},
		Packager: &Packager{
			Tunnel:     tunnel,
			Layout:     layout,
			Classifier: &Classifier{Generator: DefaultGenerator},
			Compressor: compressor,
			Level:      cfg.CompressionLevel(),
		},
		HostTools: []string{"git", "py"},
		LookPath:  exec.LookPath,
	}, nil
}

// NewCompressor returns the compressor for a config format name. Empty means
// 7z.
func NewCompressor(format string, runner Runner) (Compressor, error) {
	switch format {
	case "", FormatSevenZip:
		return NewSevenZip(runner), nil
	case FormatTarXz:
		return TarXz{}, nil
	}
	return nil, fmt.Errorf("unsupported format: %q", format)
}

// CheckEnvironment makes sure every external dependency is available:
// the bootstrap bundle (fetched if needed), Visual Studio, both SDKs and the
// host tools.
func (p *Pipeline) CheckEnvironment() error {
	if _, err := p.Toolchain.BootstrapBundle(); err != nil {
		return err
	}
	if err := p.Toolchain.Check(); err != nil {
		return err
	}
	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, tool := range p.HostTools {
		if _, err := lookPath(tool); err != nil {
			return missingDependency(tool)
		}
	}
	return nil
}

type StartLoopOptions struct {
	Platforms      []PlatformEnum
	Configurations []ConfigurationEnum
	// Package selects the prefix the toolchain package is taken from.
	PackagePlatform      PlatformEnum
	PackageConfiguration ConfigurationEnum
	SkipPackage          bool
	// Called after each (platform, configuration) is fully built.
	AfterEachFn func(PlatformEnum, ConfigurationEnum)
}

// StartLoop checks the environment, builds every requested platform and
// configuration, then packages the result.
func (p *Pipeline) StartLoop(opt *StartLoopOptions) error {
	if opt == nil {
		panic("StartLoop: opt is nil")
	}
	if err := p.CheckEnvironment(); err != nil {
		return err
	}

	for _, platform := range opt.Platforms {
		for _, configuration := range opt.Configurations {
			if err := p.Sequencer.EnsureAllBuilt(platform, configuration); err != nil {
				return err
			}
			if opt.AfterEachFn != nil {
				opt.AfterEachFn(platform, configuration)
			}
		}
	}

	if opt.SkipPackage {
		return nil
	}
	platform, configuration := opt.PackagePlatform, opt.PackageConfiguration
	if platform == "" {
		platform = PlatformX86
	}
	if configuration == "" {
		configuration = ConfigurationRelease
	}
	_, _, err := p.Packager.Package(platform, configuration)
	return err
}
