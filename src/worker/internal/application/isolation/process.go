package isolation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sys/unix"
)

const stderrTailSize = 4096

const KilledMessage = "The separation worker was killed before it finished, most likely because it ran out of memory"

var _ Isolator = ProcessIsolator{}

// ProcessIsolator runs each task in a fresh child process with its own process group.
// Cancelling or timing out kills the whole group, so nothing the task started survives.
type ProcessIsolator struct {
	table   TaskTable
	command []string
	env     []string
	stderr  io.Writer
}

// NewProcessIsolator starts children with command, usually this binary and its isolate subcommand.
func NewProcessIsolator(table TaskTable, command []string, env []string) ProcessIsolator {
	return ProcessIsolator{
		table:   table,
		command: command,
		env:     env,
		stderr:  os.Stderr,
	}
}

// WithStderr sends the child's log output somewhere other than this process's stderr.
func (p ProcessIsolator) WithStderr(stderr io.Writer) ProcessIsolator {
	p.stderr = stderr
	return p
}

func (p ProcessIsolator) Run(ctx context.Context, task string, args []byte, timeout time.Duration) Outcome {
	logger := log.WithFields(log.Fields{
		"task":    task,
		"timeout": timeout,
	})

	if _, err := p.table.lookup(task); err != nil {
		return Outcome{Status: Failed, Err: err}
	}

	payload, err := msgpack.Marshal(request{Task: task, Args: args})
	if err != nil {
		return Outcome{Status: Failed, Err: cerr.Wrap(err).Error("Failed to encode isolated task request")}
	}

	stdout := &bytes.Buffer{}
	tail := &tailBuffer{limit: stderrTailSize}

	cmd := exec.Command(p.command[0], p.command[1:]...)
	cmd.Env = append(os.Environ(), p.env...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(p.stderr, tail)
	cmd.SysProcAttr = childProcAttr()

	if err := cmd.Start(); err != nil {
		return Outcome{
			Status: Crashed,
			Err:    cerr.Field("command", p.command).Wrap(err).Error("Failed to start isolated worker"),
		}
	}

	logger = logger.WithField("pid", cmd.Process.Pid)
	logger.Info("Started isolated worker")

	waited := make(chan error, 1)
	go func() {
		waited <- cmd.Wait()
	}()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case waitErr := <-waited:
		return p.finished(logger, waitErr, stdout.Bytes(), tail.String())

	case <-ctx.Done():
		killGroup(logger, cmd.Process.Pid)
		<-waited
		logger.Info("Isolated worker was cancelled")
		return Outcome{Status: Cancelled}

	case <-timer:
		killGroup(logger, cmd.Process.Pid)
		<-waited
		logger.Warn("Isolated worker timed out")
		return Outcome{
			Status: TimedOut,
			Err:    mark.Message(jobentity.TimeoutMark, jobentity.TimedOutMessage),
		}
	}
}

func (p ProcessIsolator) finished(logger log.Interface, waitErr error, stdout []byte, stderrTail string) Outcome {
	resp := response{}
	decodeErr := msgpack.Unmarshal(stdout, &resp)

	if waitErr == nil && decodeErr == nil {
		if resp.ErrorKind != "" {
			kind := jobentity.ErrorKind(resp.ErrorKind)
			return Outcome{
				Status: Failed,
				Err:    mark.Message(jobentity.MarkFor(kind), resp.ErrorMessage),
			}
		}

		return Outcome{Status: Completed, Result: resp.Result}
	}

	errctx := cerr.Field("stderr_tail", stderrTail)

	exitErr := &exec.ExitError{}
	if errors.As(waitErr, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() && status.Signal() == syscall.SIGKILL {
			logger.Error("Isolated worker was killed")
			return Outcome{
				Status: Crashed,
				Err: errctx.Wrap(mark.Message(jobentity.ResourceExhaustedMark, KilledMessage)).
					Error("Isolated worker was killed"),
			}
		}
	}

	message := "The separation worker crashed"
	if line := lastLine(stderrTail); line != "" {
		message = fmt.Sprintf("%s: %s", message, line)
	}

	cause := waitErr
	if cause == nil {
		cause = decodeErr
	}

	logger.WithError(cause).Error("Isolated worker crashed")
	return Outcome{
		Status: Crashed,
		Err:    errctx.Wrap(mark.Wrap(cause, jobentity.RuntimeMark, message)).Error("Isolated worker crashed"),
	}
}

func killGroup(logger log.Interface, pid int) {
	// a negative pid addresses the whole process group
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		logger.WithError(err).Error("Failed to kill isolated worker group")
	}
}

func lastLine(output string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(output)), []byte("\n"))
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}

// tailBuffer keeps the last limit bytes written to it
type tailBuffer struct {
	mutex sync.Mutex
	limit int
	data  []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.data = append(t.data, p...)
	if overflow := len(t.data) - t.limit; overflow > 0 {
		t.data = t.data[overflow:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return string(t.data)
}
