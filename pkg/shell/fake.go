package shell

import (
	"fmt"
	"io"
	"strings"
)

type FakeInput struct {
	Name string
	Args string
}

type FakeOutput struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

func NewFakeInput(name string, args []string) FakeInput {
	return FakeInput{
		Name: name,
		Args: strings.Join(args, " "),
	}
}

// NewFake returns an Exec that replays the output registered for each expected command line.
// A non-zero ExitStatus fails the command after its output has been written.
func NewFake(expectations map[FakeInput]FakeOutput) Exec {
	return func(cmd *Command) Result {
		input := NewFakeInput(cmd.Name, cmd.Args)
		output, ok := expectations[input]
		if !ok {
			err := fmt.Errorf("unexpected input: %v", input)
			return Result{ExitStatus: 1, Error: err}
		}

		if err := writeAll(cmd.Stdout, output.Stdout); err != nil {
			return Result{ExitStatus: 1, Error: fmt.Errorf("writing stdout: %w", err)}
		}

		if err := writeAll(cmd.Stderr, output.Stderr); err != nil {
			return Result{ExitStatus: 1, Error: fmt.Errorf("writing stderr: %w", err)}
		}

		if output.ExitStatus != 0 {
			return Result{ExitStatus: output.ExitStatus, Error: fmt.Errorf("exit status %d", output.ExitStatus)}
		}

		return Result{ExitStatus: 0, Error: nil}
	}
}

func writeAll(w io.Writer, s string) error {
	if w == nil || s == "" {
		return nil
	}

	n, err := io.WriteString(w, s)
	if err != nil {
		return err
	}

	if n != len(s) {
		return fmt.Errorf("insufficient write: wrote only %d of %d", n, len(s))
	}

	return nil
}
