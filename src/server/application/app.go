package application

import (
	"context"
	"net/http"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/veedubyou/stemsplit-be/src/server/internal/job/gateway"
	"github.com/veedubyou/stemsplit-be/src/server/internal/job/usecase"
	"github.com/veedubyou/stemsplit-be/src/server/internal/source/gateway"
	"github.com/veedubyou/stemsplit-be/src/server/internal/source/usecase"
	"github.com/veedubyou/stemsplit-be/src/shared/cloud_storage/store"
	"github.com/veedubyou/stemsplit-be/src/shared/config"
	"github.com/veedubyou/stemsplit-be/src/shared/job/dispatch"
	jobentity "github.com/veedubyou/stemsplit-be/src/shared/job/entity"
	"github.com/veedubyou/stemsplit-be/src/shared/job/lifecycle"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/rabbitmq"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/stores"
	"github.com/veedubyou/stemsplit-be/src/shared/source"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	PUT    HTTPMethod = "PUT"
	DELETE HTTPMethod = "DELETE"
)

type App struct {
	echo    *echo.Echo
	port    string
	closers []func() error
}

type Config struct {
	JobStoreConfig             config.JobStore
	StorageConfig              config.Storage
	RabbitMQURL                string
	RabbitMQFastQueueName      string
	RabbitMQSlowQueueName      string
	RabbitMQCancelExchangeName string
	CORSAllowedOrigins         []string
	Port                       string
	Log                        bool
}

// Dependencies are the stores and the queue the routes run against.
type Dependencies struct {
	JobStore   jobentity.Store
	FileStore  store.FileStore
	Dispatcher dispatch.RabbitMQDispatcher
}

func NewApp(config Config) App {
	jobStore, closeJobStore, err := stores.NewJobStore(config.JobStoreConfig)
	if err != nil {
		panic(errors.Wrap(err, "Failed to open the job store"))
	}

	fileStore, err := stores.NewFileStore(config.StorageConfig)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create the file store"))
	}

	publishers := makeRabbitMQPublishers(config)
	closers := []func() error{closeJobStore}
	for _, publisher := range publishers {
		closers = append(closers, publisher.Close)
	}

	app := NewAppWithDependencies(config, Dependencies{
		JobStore:   jobStore,
		FileStore:  fileStore,
		Dispatcher: dispatch.NewRabbitMQDispatcher(publishers[0], publishers[1], publishers[2]),
	})
	app.closers = closers
	return app
}

func NewAppWithDependencies(config Config, deps Dependencies) App {
	e := echo.New()
	e.HideBanner = true

	if config.Log {
		e.Use(middleware.Logger())
	}

	corsMiddleware := makeCorsMiddleware(config)

	handleRoute := func(method HTTPMethod, path string, handlerFunc echo.HandlerFunc) {
		params := func() (string, echo.HandlerFunc, echo.MiddlewareFunc) {
			return path, handlerFunc, corsMiddleware
		}

		e.OPTIONS(params())

		switch method {
		case GET:
			e.GET(params())
		case POST:
			e.POST(params())
		case PUT:
			e.PUT(params())
		case DELETE:
			e.DELETE(params())
		default:
			panic("unhandled http method!")
		}
	}

	sources := source.NewStore(deps.FileStore)
	machine := lifecycle.NewMachine(deps.JobStore, deps.Dispatcher)

	jobGateway := jobgateway.NewGateway(jobusecase.NewUsecase(machine, sources))
	sourceGateway := sourcegateway.NewGateway(sourceusecase.NewUsecase(sources, deps.Dispatcher))

	// health check
	handleRoute(GET, "/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// job routes
	handleRoute(POST, "/jobs", jobGateway.SubmitJob)
	handleRoute(GET, "/jobs/:id", func(c echo.Context) error {
		jobID := c.Param("id")
		return jobGateway.GetJob(c, jobID)
	})
	handleRoute(POST, "/jobs/:id/cancel", func(c echo.Context) error {
		jobID := c.Param("id")
		return jobGateway.CancelJob(c, jobID)
	})
	handleRoute(DELETE, "/jobs/:id", func(c echo.Context) error {
		jobID := c.Param("id")
		return jobGateway.DeleteJob(c, jobID)
	})

	// source routes
	handleRoute(POST, "/sources", sourceGateway.ImportSource)
	handleRoute(GET, "/sources/:id", func(c echo.Context) error {
		sourceID := c.Param("id")
		return sourceGateway.GetSource(c, sourceID)
	})

	return App{
		echo: e,
		port: config.Port,
	}
}

// Handler exposes the routes without listening, for tests.
func (a *App) Handler() http.Handler {
	return a.echo
}

func (a *App) Start() error {
	err := a.echo.Start(a.port)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop(ctx context.Context) error {
	err := a.echo.Shutdown(ctx)

	for _, closer := range a.closers {
		if closeErr := closer(); closeErr != nil {
			log.WithError(closeErr).Warn("Failed to close server resource")
		}
	}

	if err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	return nil
}

func makeRabbitMQPublishers(config Config) []*rabbitmq.QueuePublisher {
	fast, err := rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQFastQueueName)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create the fast queue publisher"))
	}

	slow, err := rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQSlowQueueName)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create the slow queue publisher"))
	}

	cancels, err := rabbitmq.NewExchangePublisher(config.RabbitMQURL, config.RabbitMQCancelExchangeName)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create the cancel exchange publisher"))
	}

	return []*rabbitmq.QueuePublisher{fast, slow, cancels}
}

func makeCorsMiddleware(config Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
}
