package deps

// BuildSystem is the configure + install step for one module.
type BuildSystem interface {
	Configure(opt *ConfigureOpt) error
	Install(buildDir string, env []string) error
}

type ConfigureOpt struct {
	SourceDir string
	BuildDir  string
	BuildType string
	Runtime   RuntimeEnum
	Prefix    string
	Options   []string
	Env       []string
}

// Meson configures with the meson.py vendored in the repo and installs with
// ninja.
type Meson struct {
	Runner Runner
	// Script is the path of meson.py.
	Script string
	// Python launcher and its args, e.g. py -3.
	Python     string
	PythonArgs []string
}

func NewMeson(runner Runner, script string) *Meson {
	return &Meson{
		Runner:     runner,
		Script:     script,
		Python:     "py",
		PythonArgs: []string{"-3"},
	}
}

// MesonBuildType maps a configuration to the meson build type.
func MesonBuildType(configuration ConfigurationEnum) string {
	if configuration == ConfigurationRelease {
		return "minsize"
	}
	return "debug"
}

func (m *Meson) ConfigureArgs(opt *ConfigureOpt) []string {
	args := append([]string{}, m.PythonArgs...)
	args = append(args,
		m.Script,
		opt.BuildDir,
		"--buildtype", opt.BuildType,
		"--msvcrt", string(opt.Runtime),
		"--prefix", opt.Prefix,
		"--default-library", "static",
		"--backend", "ninja",
	)
	for _, option := range opt.Options {
		args = append(args, "-D"+option)
	}
	return args
}

func (m *Meson) Configure(opt *ConfigureOpt) error {
	return m.Runner.Run(&RunOpt{
		Name: m.Python,
		Args: m.ConfigureArgs(opt),
		Env:  opt.Env,
		Dir:  opt.SourceDir,
	})
}

func (m *Meson) Install(buildDir string, env []string) error {
	return m.Runner.Run(&RunOpt{
		Name: "ninja",
		Args: []string{"install"},
		Env:  env,
		Dir:  buildDir,
	})
}
