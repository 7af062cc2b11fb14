package dummy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/executor"
)

var _ executor.Executor = &FFmpegExecutor{}

// FFmpegExecutor pretends to be ffmpeg working on raw float PCM files, so decoding
// copies the input file to stdout and encoding copies stdin to the output file.
type FFmpegExecutor struct {
	Missing  bool
	FailWith string

	mutex    sync.Mutex
	commands [][]string
}

func NewDummyFFmpegExecutor() *FFmpegExecutor {
	return &FFmpegExecutor{}
}

func (f *FFmpegExecutor) Commands() [][]string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return slices.Clone(f.commands)
}

func (f *FFmpegExecutor) Command(ctx context.Context, name string, args ...string) executor.Command {
	f.mutex.Lock()
	f.commands = append(f.commands, append([]string{name}, args...))
	f.mutex.Unlock()

	return &ffmpegCommand{
		ctx:      ctx,
		name:     name,
		args:     args,
		missing:  f.Missing,
		failWith: f.FailWith,
	}
}

type ffmpegCommand struct {
	ctx      context.Context
	name     string
	args     []string
	missing  bool
	failWith string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *ffmpegCommand) SetDir(string) {}

func (c *ffmpegCommand) SetStdin(stdin io.Reader) {
	c.stdin = stdin
}

func (c *ffmpegCommand) SetStdout(stdout io.Writer) {
	c.stdout = stdout
}

func (c *ffmpegCommand) SetStderr(stderr io.Writer) {
	c.stderr = stderr
}

func (c *ffmpegCommand) CombinedOutput() ([]byte, error) {
	output := &bytes.Buffer{}
	c.stdout = output
	c.stderr = output
	err := c.Run()
	return output.Bytes(), err
}

func (c *ffmpegCommand) Run() error {
	if c.missing {
		return &exec.Error{Name: c.name, Err: exec.ErrNotFound}
	}

	if c.ctx.Err() != nil {
		return c.ctx.Err()
	}

	if c.failWith != "" {
		if c.stderr != nil {
			_, _ = fmt.Fprintln(c.stderr, c.failWith)
		}
		return errors.New("exit status 1")
	}

	input := c.argAfter("-i")
	output := c.args[len(c.args)-1]

	if input == "pipe:0" {
		contents, err := io.ReadAll(c.stdin)
		if err != nil {
			return err
		}
		return os.WriteFile(output, contents, 0o644)
	}

	contents, err := os.ReadFile(input)
	if err != nil {
		if c.stderr != nil {
			_, _ = fmt.Fprintf(c.stderr, "%s: No such file or directory\n", input)
		}
		return errors.New("exit status 1")
	}

	_, err = c.stdout.Write(contents)
	return err
}

func (c *ffmpegCommand) argAfter(flag string) string {
	index := slices.Index(c.args, flag)
	if index < 0 || index+1 >= len(c.args) {
		return ""
	}
	return c.args[index+1]
}
