package application

import (
	"context"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stemsplit-be/src/shared/cloud_storage/store"
	"github.com/veedubyou/stemsplit-be/src/shared/config"
	"github.com/veedubyou/stemsplit-be/src/shared/job/dispatch"
	"github.com/veedubyou/stemsplit-be/src/shared/job/lifecycle"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/rabbitmq"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/stores"
	"github.com/veedubyou/stemsplit-be/src/shared/source"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/audio"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/devices"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/executor"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/handoff"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/isolation"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/cancel"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/import_source"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/job_router"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/purge"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/jobs/separate"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/modelcache"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/reaper"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/separation"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/separator"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/application/worker"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/cerr"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/lib/working_dir"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/workerconfig"
	"golang.org/x/sync/errgroup"
)

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}

type Config struct {
	RabbitMQURL                string
	RabbitMQFastQueueName      string
	RabbitMQSlowQueueName      string
	RabbitMQCancelExchangeName string

	JobStoreConfig config.JobStore
	StorageConfig  config.Storage

	FFmpegPath     string
	WorkingDirPath string
	Worker         workerconfig.Config
	// IsolateCommand starts this binary as an isolated child, see the isolate subcommand
	IsolateCommand []string
}

type App struct {
	workers []*worker.QueueWorker
	reaper  *reaper.Reaper
	closers []func() error
}

func NewApp(config Config) App {
	workingDir := must(working_dir.NewWorkingDir(config.WorkingDirPath))
	jobStore, closeJobStore := must2(stores.NewJobStore(config.JobStoreConfig))
	fileStore := must(stores.NewFileStore(config.StorageConfig))

	publishers := newPublishers(config)
	machine := lifecycle.NewMachine(jobStore, publishers.dispatcher())

	consumerConn := must(amqp091.Dial(config.RabbitMQURL))
	registry := cancel.NewRegistry()
	router := job_router.NewJobRouter(
		newSeparateJobHandler(config, workingDir, machine, fileStore, registry),
		newImportSourceHandler(config, workingDir, fileStore),
		purge.NewJobHandler(newHandoff(config, workingDir, fileStore)),
		cancel.NewJobHandler(registry),
	)

	app := App{
		workers: []*worker.QueueWorker{
			must(worker.NewQueueWorkerFromConnection(
				consumerConn,
				config.RabbitMQSlowQueueName,
				router,
				config.Worker.Queues.SeparationConsumers)),
			must(worker.NewQueueWorkerFromConnection(
				consumerConn,
				config.RabbitMQFastQueueName,
				router,
				config.Worker.Queues.FastConsumers)),
			must(worker.NewBroadcastWorkerFromConnection(
				consumerConn,
				config.RabbitMQCancelExchangeName,
				router)),
		},
		closers: append(publishers.closers(), consumerConn.Close, closeJobStore),
	}

	if config.Worker.Reaper.Enabled {
		jobReaper := reaper.NewReaper(jobStore, machine, config.Worker.ReaperThreshold(), config.Worker.ReaperInterval())
		app.reaper = &jobReaper
	}

	return app
}

func must2[T any](t T, closer func() error, err error) (T, func() error) {
	if err != nil {
		panic(err)
	}

	return t, closer
}

// Start runs every worker and the reaper until ctx ends or one of the workers fails.
func (a *App) Start(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	for _, queueWorker := range a.workers {
		group.Go(func() error {
			return queueWorker.Start(ctx)
		})
	}

	if a.reaper != nil {
		group.Go(func() error {
			a.reaper.Run(ctx)
			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return cerr.Wrap(err).Error("Failed to start worker")
	}

	return nil
}

func (a *App) Stop() {
	for _, queueWorker := range a.workers {
		queueWorker.Stop()
	}

	for _, closer := range a.closers {
		if err := closer(); err != nil {
			log.WithError(err).Warn("Failed to close worker resource")
		}
	}
}

type publishers struct {
	fast    *rabbitmq.QueuePublisher
	slow    *rabbitmq.QueuePublisher
	cancels *rabbitmq.QueuePublisher
}

func newPublishers(config Config) publishers {
	return publishers{
		fast:    must(rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQFastQueueName)),
		slow:    must(rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQSlowQueueName)),
		cancels: must(rabbitmq.NewExchangePublisher(config.RabbitMQURL, config.RabbitMQCancelExchangeName)),
	}
}

func (p publishers) dispatcher() dispatch.RabbitMQDispatcher {
	return dispatch.NewRabbitMQDispatcher(p.fast, p.slow, p.cancels)
}

func (p publishers) closers() []func() error {
	return []func() error{p.fast.Close, p.slow.Close, p.cancels.Close}
}

func newSeparateJobHandler(
	config Config,
	workingDir working_dir.WorkingDir,
	machine lifecycle.Machine,
	fileStore store.FileStore,
	registry *cancel.Registry,
) separate.JobHandler {
	pipeline := newPipeline(config, workingDir)

	return separate.NewJobHandler(
		machine,
		source.NewStore(fileStore),
		NewIsolator(config, pipeline),
		newHandoff(config, workingDir, fileStore),
		devices.NewPool(config.Worker.Devices.Accelerators),
		registry,
		separate.Config{
			Timeout:  config.Worker.SeparationTimeout(),
			Attempts: config.Worker.Separation.Attempts,
		},
	)
}

func newImportSourceHandler(config Config, workingDir working_dir.WorkingDir, fileStore store.FileStore) import_source.JobHandler {
	transferrer := import_source.NewSourceTransferrer(
		newCodec(config),
		source.NewStore(fileStore),
		workingDir,
	)

	return import_source.NewJobHandler(transferrer)
}

// newHandoff keeps scratch space inside a disk store's root, so finished outputs are
// repointed rather than copied.
func newHandoff(cfg Config, workingDir working_dir.WorkingDir, fileStore store.FileStore) handoff.Handoff {
	scratchRoot := workingDir.ScratchDir()
	if disk, ok := cfg.StorageConfig.(config.DiskStorage); ok {
		scratchRoot = filepath.Join(disk.Root, "scratch")
	}

	return must(handoff.NewHandoff(fileStore, scratchRoot))
}

func newCodec(config Config) audio.Codec {
	return audio.NewCodec(config.FFmpegPath, executor.BinaryFileExecutor{})
}

// NewPipeline builds the separation that runs inside the isolated child.
func NewPipeline(config Config) separation.Pipeline {
	return newPipeline(config, must(working_dir.NewWorkingDir(config.WorkingDirPath)))
}

func newPipeline(config Config, workingDir working_dir.WorkingDir) separation.Pipeline {
	cache := must(modelcache.NewCache(
		config.Worker.ModelsDir(workingDir.Root()),
		modelcache.WithRetryInterval(config.Worker.ModelRetryInterval()),
	))

	sep := must(separator.NewSeparator(cache, config.Worker.Catalog()))
	return separation.NewPipeline(newCodec(config), sep)
}

func NewIsolator(config Config, pipeline separation.Pipeline) isolation.Isolator {
	switch config.Worker.Separation.Isolation {
	case workerconfig.GoroutineIsolation:
		return isolation.NewGoroutineIsolator(pipeline.Tasks())

	default:
		return isolation.NewProcessIsolator(pipeline.Tasks(), config.IsolateCommand, os.Environ())
	}
}

// NewReaper builds a standalone reaper for one off sweeps.
func NewReaper(config Config) (reaper.Reaper, func()) {
	jobStore, closeJobStore := must2(stores.NewJobStore(config.JobStoreConfig))
	publishers := newPublishers(config)

	machine := lifecycle.NewMachine(jobStore, publishers.dispatcher())
	jobReaper := reaper.NewReaper(jobStore, machine, config.Worker.ReaperThreshold(), config.Worker.ReaperInterval())

	return jobReaper, func() {
		for _, closer := range append(publishers.closers(), closeJobStore) {
			_ = closer()
		}
	}
}
