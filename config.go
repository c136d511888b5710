package deps

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml"
)

// ConfigFileName is looked up in the repository root when no config path is
// given.
const ConfigFileName = "fdeps.toml"

// Config is the contents of fdeps.toml. Every field is optional.
type Config struct {
	Build     BuildConfig     `toml:"build"`
	Toolchain ToolchainConfig `toml:"toolchain"`
	Modules   []*ModuleConfig `toml:"module"`
}

type BuildConfig struct {
	Root           string   `toml:"root,omitempty"`
	Platforms      []string `toml:"platforms,omitempty"`
	Configurations []string `toml:"configurations,omitempty"`
	// 0 (fastest) to 9 (smallest). Nil means DefaultCompressionLevel.
	CompressionLevel *int `toml:"compression-level,omitempty"`
	// "7z" or "tar.xz".
	Format       string `toml:"format,omitempty"`
	BootstrapURL string `toml:"bootstrap-url,omitempty"`
	SourceURL    string `toml:"source-url,omitempty"`
}

// ToolchainConfig pins toolchain components instead of looking them up in
// the registry.
type ToolchainConfig struct {
	VSDir           string `toml:"vs-dir,omitempty"`
	WinXPSDKDir     string `toml:"winxp-sdk-dir,omitempty"`
	WinXPSDKVersion string `toml:"winxp-sdk-version,omitempty"`
	Win10SDKDir     string `toml:"win10-sdk-dir,omitempty"`
	// Empty means the newest version under ${Win10SDKDir}/Include.
	Win10SDKVersion string `toml:"win10-sdk-version,omitempty"`
}

// ModuleConfig replaces the module list when at least one is given.
type ModuleConfig struct {
	Name     string   `toml:"name"`
	Artifact string   `toml:"artifact"`
	Kind     string   `toml:"kind"`
	Options  []string `toml:"options,omitempty"`
}

const (
	FormatSevenZip = "7z"
	FormatTarXz    = "tar.xz"
)

const DefaultCompressionLevel = 9

// LoadConfig reads the config file at path. A missing file yields an empty
// config.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	buff, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(buff, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for _, p := range c.Build.Platforms {
		if !SupportedPlatforms[PlatformEnum(p)] {
			return fmt.Errorf("unsupported platform: %q", p)
		}
	}
	for _, s := range c.Build.Configurations {
		if !SupportedConfigurations[ParseConfiguration(s)] {
			return fmt.Errorf("unsupported configuration: %q", s)
		}
	}
	if lvl := c.Build.CompressionLevel; lvl != nil && (*lvl < 0 || *lvl > 9) {
		return fmt.Errorf("compression-level must be between 0 and 9, got %d", *lvl)
	}
	switch c.Build.Format {
	case "", FormatSevenZip, FormatTarXz:
	default:
		return fmt.Errorf("unsupported format: %q", c.Build.Format)
	}
	for i, m := range c.Modules {
		if m.Name == "" || m.Artifact == "" {
			return fmt.Errorf("module #%d: name and artifact are required", i+1)
		}
		switch ArtifactKind(m.Kind) {
		case ArtifactPkgConfig, ArtifactExecutable:
		default:
			return fmt.Errorf("module %s: %w: %q", m.Name, ErrUnsupportedArtifactKind, m.Kind)
		}
	}
	return nil
}

// PlatformList returns the configured platforms, both by default.
func (c *Config) PlatformList() []PlatformEnum {
	if len(c.Build.Platforms) == 0 {
		return []PlatformEnum{PlatformX86, PlatformX86_64}
	}
	res := make([]PlatformEnum, len(c.Build.Platforms))
	for i, p := range c.Build.Platforms {
		res[i] = PlatformEnum(p)
	}
	return res
}

// ConfigurationList returns the configured configurations, both by default.
func (c *Config) ConfigurationList() []ConfigurationEnum {
	if len(c.Build.Configurations) == 0 {
		return []ConfigurationEnum{ConfigurationDebug, ConfigurationRelease}
	}
	res := make([]ConfigurationEnum, len(c.Build.Configurations))
	for i, s := range c.Build.Configurations {
		res[i] = ParseConfiguration(s)
	}
	return res
}

func (c *Config) CompressionLevel() int {
	if c.Build.CompressionLevel == nil {
		return DefaultCompressionLevel
	}
	return *c.Build.CompressionLevel
}

func (c *Config) BootstrapURL() string {
	if c.Build.BootstrapURL == "" {
		return DefaultBootstrapURL
	}
	return c.Build.BootstrapURL
}

// ModuleList returns the configured modules, or DefaultModules.
func (c *Config) ModuleList() []*Module {
	if len(c.Modules) == 0 {
		return DefaultModules
	}
	res := make([]*Module, len(c.Modules))
	for i, m := range c.Modules {
		res[i] = &Module{
			Name:     m.Name,
			Artifact: m.Artifact,
			Kind:     ArtifactKind(m.Kind),
			Options:  m.Options,
		}
	}
	return res
}
