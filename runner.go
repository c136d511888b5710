package deps

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mgenware/j9/v3"
)

// RunOpt describes one external command.
type RunOpt struct {
	Name string
	Args []string
	// Env entries are KEY=VALUE overrides on top of the current process env.
	Env []string
	// Dir is the working directory. Empty means the current one.
	Dir string
}

// Runner executes external commands and blocks until they exit.
type Runner interface {
	Run(opt *RunOpt) error
	Output(opt *RunOpt) ([]byte, error)
}

// TunnelRunner runs commands through a j9 tunnel, which echoes every command
// line and streams its output to the console. Failures are returned, not
// fatal.
type TunnelRunner struct {
	Tunnel *j9.Tunnel
}

func NewTunnelRunner(tunnel *j9.Tunnel) *TunnelRunner {
	return &TunnelRunner{Tunnel: tunnel}
}

func CreateDefaultTunnel() *j9.Tunnel {
	return j9.NewTunnel(j9.NewLocalNode(), j9.NewConsoleLogger())
}

// Run spawns the command. Opt.Dir is passed per call, the tunnel dir is
// never changed.
func (r *TunnelRunner) Run(opt *RunOpt) error {
	err := r.Tunnel.SpawnRaw(&j9.SpawnOpt{
		Name:       opt.Name,
		Args:       opt.Args,
		Env:        opt.Env,
		WorkingDir: opt.Dir,
	})
	if err != nil {
		return &BuildStepError{Name: opt.Name, Args: opt.Args, Err: err}
	}
	return nil
}

// Output runs the command and returns its stdout. Used for tool queries whose
// output has to be parsed, so nothing is echoed.
func (r *TunnelRunner) Output(opt *RunOpt) ([]byte, error) {
	cmd := exec.Command(opt.Name, opt.Args...)
	cmd.Dir = opt.Dir
	if len(opt.Env) > 0 {
		cmd.Env = append(cmd.Environ(), opt.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &BuildStepError{Name: opt.Name, Args: opt.Args, Err: err}
	}
	return stdout.Bytes(), nil
}

func logVerbose(tunnel *j9.Tunnel, msg string) {
	tunnel.Logger().Log(j9.LogLevelVerbose, msg)
}

func logWarning(tunnel *j9.Tunnel, msg string) {
	tunnel.Logger().Log(j9.LogLevelWarning, msg)
}
