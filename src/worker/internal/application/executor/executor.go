package executor

import (
	"context"
	"io"
	"os/exec"
)

type Executor interface {
	Command(ctx context.Context, name string, args ...string) Command
}

type Command interface {
	SetDir(dir string)
	SetStdin(stdin io.Reader)
	SetStdout(stdout io.Writer)
	SetStderr(stderr io.Writer)
	Run() error
	CombinedOutput() ([]byte, error)
}

var _ Executor = BinaryFileExecutor{}

// BinaryFileExecutor runs real binaries. Cancelling ctx kills the process.
type BinaryFileExecutor struct{}

func (BinaryFileExecutor) Command(ctx context.Context, name string, args ...string) Command {
	return &BinaryCommand{cmd: exec.CommandContext(ctx, name, args...)}
}

var _ Command = &BinaryCommand{}

type BinaryCommand struct {
	cmd *exec.Cmd
}

func (b *BinaryCommand) SetDir(dir string) {
	b.cmd.Dir = dir
}

func (b *BinaryCommand) SetStdin(stdin io.Reader) {
	b.cmd.Stdin = stdin
}

func (b *BinaryCommand) SetStdout(stdout io.Writer) {
	b.cmd.Stdout = stdout
}

func (b *BinaryCommand) SetStderr(stderr io.Writer) {
	b.cmd.Stderr = stderr
}

func (b *BinaryCommand) Run() error {
	return b.cmd.Run()
}

func (b *BinaryCommand) CombinedOutput() ([]byte, error) {
	return b.cmd.CombinedOutput()
}
