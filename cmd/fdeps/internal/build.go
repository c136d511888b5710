package internal

import (
	"fmt"

	"github.com/spf13/cobra"
	deps "github.com/tattocau/frida"
)

var (
	buildPlatforms      []string
	buildConfigurations []string
	buildNoPackage      bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build all dependencies and package them",
	Long: `Build checks the host toolchain, builds every module that is not yet
installed for each platform and configuration, then writes the toolchain and
SDK packages to the repository root.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringSliceVarP(&buildPlatforms, "platform", "p", nil, "Platforms to build (default: from config, or x86,x86_64)")
	buildCmd.Flags().StringSliceVarP(&buildConfigurations, "configuration", "c", nil, "Configurations to build (default: from config, or Debug,Release)")
	buildCmd.Flags().BoolVar(&buildNoPackage, "no-package", false, "Skip packaging")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	p, cfg, err := newPipeline()
	if err != nil {
		return err
	}

	platforms := cfg.PlatformList()
	if len(buildPlatforms) > 0 {
		if platforms, err = parsePlatforms(buildPlatforms); err != nil {
			return err
		}
	}
	configurations := cfg.ConfigurationList()
	if len(buildConfigurations) > 0 {
		if configurations, err = parseConfigurations(buildConfigurations); err != nil {
			return err
		}
	}

	err = p.StartLoop(&deps.StartLoopOptions{
		Platforms:      platforms,
		Configurations: configurations,
		SkipPackage:    buildNoPackage,
		AfterEachFn: func(platform deps.PlatformEnum, configuration deps.ConfigurationEnum) {
			printSuccess("Built", fmt.Sprintf("%s %s", platform, configuration))
		},
	})
	if err != nil {
		return err
	}
	printSuccess("Done", "All dependencies are up to date")
	return nil
}

func parsePlatforms(values []string) ([]deps.PlatformEnum, error) {
	res := make([]deps.PlatformEnum, 0, len(values))
	for _, v := range values {
		platform := deps.PlatformEnum(v)
		if !deps.SupportedPlatforms[platform] {
			return nil, fmt.Errorf("unsupported platform: %q", v)
		}
		res = append(res, platform)
	}
	return res, nil
}

func parseConfigurations(values []string) ([]deps.ConfigurationEnum, error) {
	res := make([]deps.ConfigurationEnum, 0, len(values))
	for _, v := range values {
		configuration := deps.ParseConfiguration(v)
		if !deps.SupportedConfigurations[configuration] {
			return nil, fmt.Errorf("unsupported configuration: %q", v)
		}
		res = append(res, configuration)
	}
	return res, nil
}
