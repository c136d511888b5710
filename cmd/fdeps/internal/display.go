package internal

import (
	"errors"

	"github.com/pterm/pterm"
	deps "github.com/tattocau/frida"
)

var (
	successColorFG = pterm.FgLightGreen
	successStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	errorColorFG   = pterm.FgRed
	errorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
)

func errorTag(err error) string {
	var missing *deps.MissingDependencyError
	var step *deps.BuildStepError
	switch {
	case errors.As(err, &missing):
		return "Missing Dependency"
	case errors.As(err, &step):
		return "Build Error"
	case errors.Is(err, deps.ErrUnsupportedArtifactKind):
		return "Module Error"
	}
	return "Error"
}

func printError(err error) {
	errorStyleBG.Print(" " + errorTag(err) + " ")
	errorColorFG.Println(" " + err.Error())
}

func printSuccess(tag, msg string) {
	successStyleBG.Print(" " + tag + " ")
	successColorFG.Println(" " + msg)
}
