package internal

import (
	"github.com/spf13/cobra"
	deps "github.com/tattocau/frida"
)

var (
	packagePlatform      string
	packageConfiguration string
)

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Package already built dependencies",
	Long: `Package assembles the toolchain and SDK packages from the install
prefixes without building anything. Existing packages of the same day are
kept as is.`,
	RunE: runPackage,
}

func init() {
	packageCmd.Flags().StringVarP(&packagePlatform, "platform", "p", string(deps.PlatformX86), "Platform the toolchain is taken from")
	packageCmd.Flags().StringVarP(&packageConfiguration, "configuration", "c", string(deps.ConfigurationRelease), "Configuration the toolchain is taken from")
	rootCmd.AddCommand(packageCmd)
}

func runPackage(cmd *cobra.Command, args []string) error {
	platforms, err := parsePlatforms([]string{packagePlatform})
	if err != nil {
		return err
	}
	configurations, err := parseConfigurations([]string{packageConfiguration})
	if err != nil {
		return err
	}

	p, _, err := newPipeline()
	if err != nil {
		return err
	}
	toolchainPath, sdkPath, err := p.Packager.Package(platforms[0], configurations[0])
	if err != nil {
		return err
	}
	printSuccess("Toolchain", toolchainPath)
	printSuccess("SDK", sdkPath)
	return nil
}
