package internal

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	deps "github.com/tattocau/frida"
)

var (
	rootDir    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "fdeps",
	Short: "fdeps builds the Windows dependencies and packages the SDK",
	Long: `fdeps builds every native dependency for each platform, configuration
and C runtime, then assembles the toolchain and SDK packages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Repository root")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <root>/"+deps.ConfigFileName+")")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and resolves the repository root, which
// the config may override.
func loadConfig() (*deps.Config, string, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, "", err
	}
	path := configPath
	if path == "" {
		path = filepath.Join(root, deps.ConfigFileName)
	}
	cfg, err := deps.LoadConfig(path)
	if err != nil {
		return nil, "", err
	}
	if cfg.Build.Root != "" && !rootCmd.PersistentFlags().Changed("root") {
		root = cfg.Build.Root
		if !filepath.IsAbs(root) {
			root = filepath.Join(filepath.Dir(path), root)
		}
	}
	return cfg, root, nil
}

func newPipeline() (*deps.Pipeline, *deps.Config, error) {
	cfg, root, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	p, err := deps.NewPipeline(deps.CreateDefaultTunnel(), root, cfg)
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}
