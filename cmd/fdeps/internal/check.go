package internal

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the host toolchain is installed",
	Long: `Check fetches the bootstrap toolchain if needed and verifies that Visual
Studio, the MSVC toolset, both Windows SDKs, git and Python are available.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, _, err := newPipeline()
	if err != nil {
		return err
	}
	if err := p.CheckEnvironment(); err != nil {
		return err
	}

	vsDir, err := p.Toolchain.CompilerSuite()
	if err != nil {
		return err
	}
	msvcDir, err := p.Toolchain.MSVCToolDir()
	if err != nil {
		return err
	}
	printSuccess("Visual Studio", vsDir)
	printSuccess("MSVC", msvcDir)
	return nil
}
