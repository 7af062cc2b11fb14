package isolation

import (
	"context"
	"io"

	"github.com/apex/log"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
	"github.com/vmihailenco/msgpack/v5"
)

type request struct {
	Task string `msgpack:"task"`
	Args []byte `msgpack:"args"`
}

type response struct {
	Result       []byte `msgpack:"result"`
	ErrorKind    string `msgpack:"error_kind"`
	ErrorMessage string `msgpack:"error_message"`
}

// Serve is the child side: it reads one request from stdin, runs it and writes the response to stdout.
// Logs must go to stderr, stdout belongs to the protocol.
func Serve(ctx context.Context, table TaskTable, stdin io.Reader, stdout io.Writer) error {
	req := request{}
	if err := msgpack.NewDecoder(stdin).Decode(&req); err != nil {
		return cerr.Wrap(err).Error("Failed to decode isolated task request")
	}

	task, err := table.lookup(req.Task)
	if err != nil {
		return err
	}

	logger := log.WithField("task", req.Task)
	logger.Info("Running isolated task")

	resp := response{}
	result, err := task(ctx, req.Args)
	if err != nil {
		cerr.Log(err)
		resp.ErrorKind = string(jobentity.ClassifyError(err))
		resp.ErrorMessage = err.Error()
	} else {
		resp.Result = result
	}

	if err := msgpack.NewEncoder(stdout).Encode(resp); err != nil {
		return cerr.Wrap(err).Error("Failed to encode isolated task response")
	}

	logger.Info("Finished isolated task")
	return nil
}
