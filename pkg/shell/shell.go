package shell

type Shell struct {
	Exec Exec
}

func New() *Shell {
	return &Shell{Exec: DefaultExec}
}

// Wait runs the command and wait until it returns
func (s *Shell) Wait(cmd *Command) Result {
	return s.Exec(cmd)
}
