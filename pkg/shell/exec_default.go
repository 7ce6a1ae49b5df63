package shell

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// DefaultExec runs the command on the host. The command inherits the current environment, with Env layered on top.
func DefaultExec(c *Command) Result {
	cmd := exec.Command(c.Name, c.Args...)
	if len(c.Env) > 0 {
		env := os.Environ()
		for n, v := range c.Env {
			env = append(env, fmt.Sprintf("%s=%s", n, v))
		}
		cmd.Env = env
	}
	cmd.Dir = c.Dir
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}
	if err := cmd.Start(); err != nil {
		return Result{ExitStatus: 1, Error: err}
	}
	if err := cmd.Wait(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return Result{ExitStatus: exitError.ExitCode(), Error: exitError}
		}
		return Result{ExitStatus: 1, Error: err}
	}
	return Result{ExitStatus: cmd.ProcessState.ExitCode(), Error: nil}
}
