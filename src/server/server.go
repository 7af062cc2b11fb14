package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/veedubyou/stemsplit-be/src/server/application"
	"github.com/veedubyou/stemsplit-be/src/shared/config"
	"github.com/veedubyou/stemsplit-be/src/shared/config/dev"
	"github.com/veedubyou/stemsplit-be/src/shared/config/envvar"
	"github.com/veedubyou/stemsplit-be/src/shared/config/prod"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/env"
)

func main() {
	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		commaSeparatedOrigins := envvar.MustGet(envvar.CORS_ALLOWED_ORIGINS)
		allowedOrigins := strings.Split(commaSeparatedOrigins, ",")

		appConfig = application.Config{
			JobStoreConfig: config.JobStoreFromEnv(config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			}),
			StorageConfig: config.StorageFromEnv(func() config.CloudStorage {
				return config.ProdCloudStorage{
					StorageHost: prod.GOOGLE_STORAGE_HOST,
					SecretKey:   envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
					BucketName:  envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
				}
			}),
			RabbitMQURL:                envvar.MustGet(envvar.RABBITMQ_URL),
			RabbitMQFastQueueName:      envvar.GetOr(envvar.RABBITMQ_FAST_QUEUE_NAME, prod.RabbitMQFastQueueName),
			RabbitMQSlowQueueName:      envvar.GetOr(envvar.RABBITMQ_SLOW_QUEUE_NAME, prod.RabbitMQSlowQueueName),
			RabbitMQCancelExchangeName: envvar.GetOr(envvar.RABBITMQ_CANCEL_EXCHANGE_NAME, prod.RabbitMQCancelExchangeName),
			CORSAllowedOrigins:         allowedOrigins,
			Port:                       ":" + envvar.GetOr(envvar.PORT, "5000"),
			Log:                        true,
		}
	case env.Development:
		appConfig = application.Config{
			JobStoreConfig: config.JobStoreFromEnv(dev.DynamoConfig),
			StorageConfig: config.StorageFromEnv(func() config.CloudStorage {
				return dev.CloudStorageConfig
			}),
			RabbitMQURL:                dev.RabbitMQHost,
			RabbitMQFastQueueName:      dev.RabbitMQFastQueueName,
			RabbitMQSlowQueueName:      dev.RabbitMQSlowQueueName,
			RabbitMQCancelExchangeName: dev.RabbitMQCancelExchangeName,
			CORSAllowedOrigins:         []string{"*"},
			Port:                       ":5000",
			Log:                        true,
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)

	signalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-signalCtx.Done()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()

		if err := app.Stop(shutdownCtx); err != nil {
			log.WithError(err).Error("Failed to shut down cleanly")
		}
	}()

	if err := app.Start(); err != nil {
		panic(err)
	}
}
