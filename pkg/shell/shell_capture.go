package shell

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

type CaptureResult struct {
	ExitStatus int
	Stdout     string
	Stderr     string
}

type CaptureOpts struct {
	LogStdout func(string)
	LogStderr func(string)
}

const maxLineSize = 1024 * 1024

type line struct {
	stderr bool
	text   string
}

// Capture runs the command, calling the configured loggers with every output line as it arrives.
// Both streams are also collected into the returned CaptureResult.
func (s *Shell) Capture(cmd *Command, opts ...CaptureOpts) (*CaptureResult, error) {
	logStdout := func(_ string) {}
	logStderr := func(_ string) {}

	for _, o := range opts {
		if o.LogStdout != nil {
			logStdout = o.LogStdout
		}
		if o.LogStderr != nil {
			logStderr = o.LogStderr
		}
	}

	outR, outW := io.Pipe()
	errR, errW := io.Pipe()

	cmd.Stdout = outW
	cmd.Stderr = errW

	res := make(chan Result, 1)
	go func() {
		r := s.Wait(cmd)
		outW.Close()
		errW.Close()
		res <- r
	}()

	lines := make(chan line)

	var wg sync.WaitGroup
	scan := func(r io.Reader, stderr bool) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			lines <- line{stderr: stderr, text: scanner.Text()}
		}
		// Drain whatever is left so that the writer never blocks on a line too long to scan
		io.Copy(io.Discard, r)
	}

	wg.Add(2)
	go scan(outR, false)
	go scan(errR, true)

	go func() {
		wg.Wait()
		close(lines)
	}()

	var stdout, stderr []string

	// Coordinating stdout/stderr in this single place to not screw up message ordering
	for l := range lines {
		if l.stderr {
			logStderr(l.text)
			stderr = append(stderr, l.text)
		} else {
			logStdout(l.text)
			stdout = append(stdout, l.text)
		}
	}

	r := <-res

	return &CaptureResult{
		ExitStatus: r.ExitStatus,
		Stdout:     strings.Join(stdout, "\n"),
		Stderr:     strings.Join(stderr, "\n"),
	}, r.Error
}
