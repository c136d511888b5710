package internal

import (
	"fmt"

	"github.com/spf13/cobra"
	deps "github.com/tattocau/frida"
)

var envCmd = &cobra.Command{
	Use:   "env <variant>",
	Short: "Generate the build environment of one variant",
	Long: `Env writes env.bat, rc.bat and pkg-config.bat for a variant such as
x86_64-release-static and prints their paths.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnv,
}

func init() {
	rootCmd.AddCommand(envCmd)
}

func runEnv(cmd *cobra.Command, args []string) error {
	v, err := deps.ParseVariant(args[0])
	if err != nil {
		return err
	}
	p, _, err := newPipeline()
	if err != nil {
		return err
	}
	env, err := p.Envs.Materialize(v.Platform, v.Configuration, v.Runtime)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "env:        %s\n", env.EnvScript)
	fmt.Fprintf(out, "rc:         %s\n", env.RCWrapper)
	fmt.Fprintf(out, "pkg-config: %s\n", env.PkgConfigWrapper)
	return nil
}
