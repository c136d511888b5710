package deps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mgenware/j9/v3"
	"github.com/tattocau/frida/io2"
)

// Sequencer builds the module list in order, skipping every module whose
// artifact is already installed.
type Sequencer struct {
	Tunnel      *j9.Tunnel
	Layout      *Layout
	Envs        *Materializer
	Source      SourceProvider
	BuildSystem BuildSystem
	Modules     []*Module
}

// EnsureAllBuilt builds every missing (module, runtime) pair for platform and
// configuration. The first failure aborts the whole sequence.
func (s *Sequencer) EnsureAllBuilt(platform PlatformEnum, configuration ConfigurationEnum) error {
	for _, m := range s.Modules {
		subpath, err := m.ArtifactSubpath()
		if err != nil {
			return err
		}
		runtimes, err := m.Runtimes()
		if err != nil {
			return err
		}
		for _, runtime := range runtimes {
			v := NewVariant(platform, configuration, runtime)
			artifactPath := filepath.Join(s.Layout.PrefixDir(v), subpath)
			if io2.FileExists(artifactPath) {
				logVerbose(s.Tunnel, fmt.Sprintf("Skipping %s (%s): %s exists", m.Name, v, artifactPath))
				continue
			}
			if err := s.buildModule(m, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Sequencer) buildModule(m *Module, v Variant) error {
	logWarning(s.Tunnel, fmt.Sprintf("*** Building name=%s platform=%s runtime=%s configuration=%s",
		m.Name, v.Platform, v.Runtime, v.Configuration))

	env, err := s.Envs.Materialize(v.Platform, v.Configuration, v.Runtime)
	if err != nil {
		return err
	}

	sourceDir := s.Layout.SourceDir(m.Name)
	if err := s.Source.CloneIfAbsent(m.Name, sourceDir); err != nil {
		return err
	}

	// Every build configures into an empty build dir.
	buildDir := s.Layout.ModuleBuildDir(v, m.Name)
	if err := os.RemoveAll(buildDir); err != nil {
		return err
	}

	environ := env.Environ()
	if err := s.BuildSystem.Configure(&ConfigureOpt{
		SourceDir: sourceDir,
		BuildDir:  buildDir,
		BuildType: MesonBuildType(v.Configuration),
		Runtime:   v.Runtime,
		Prefix:    s.Layout.PrefixDir(v),
		Options:   m.Options,
		Env:       environ,
	}); err != nil {
		return err
	}
	return s.BuildSystem.Install(buildDir, environ)
}
