package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/veedubyou/stemsplit-be/src/shared/config"
	"github.com/veedubyou/stemsplit-be/src/shared/config/dev"
	"github.com/veedubyou/stemsplit-be/src/shared/config/envvar"
	"github.com/veedubyou/stemsplit-be/src/shared/config/local"
	"github.com/veedubyou/stemsplit-be/src/shared/config/prod"
	"github.com/veedubyou/stemsplit-be/src/shared/lib/env"
	"github.com/veedubyou/stemsplit-be/src/worker/application"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/cli"
	"github.com/veedubyou/stemsplit-be/src/worker/internal/workerconfig"
)

func main() {
	cmd := cli.NewRootCommand(cli.Options{
		Deployment: deploymentConfig,
		Local:      localConfig,
	})

	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func deploymentConfig(worker workerconfig.Config) application.Config {
	appConfig := localConfig(worker)

	switch env.Get() {
	case env.Production:
		appConfig.JobStoreConfig = config.JobStoreFromEnv(config.ProdDynamo{
			AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
			SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
			Region:          prod.DynamoDBRegion,
		})
		appConfig.StorageConfig = config.StorageFromEnv(func() config.CloudStorage {
			return config.ProdCloudStorage{
				StorageHost: prod.GOOGLE_STORAGE_HOST,
				SecretKey:   envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
				BucketName:  envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
			}
		})
		appConfig.RabbitMQURL = envvar.MustGet(envvar.RABBITMQ_URL)
		appConfig.RabbitMQFastQueueName = envvar.GetOr(envvar.RABBITMQ_FAST_QUEUE_NAME, prod.RabbitMQFastQueueName)
		appConfig.RabbitMQSlowQueueName = envvar.GetOr(envvar.RABBITMQ_SLOW_QUEUE_NAME, prod.RabbitMQSlowQueueName)
		appConfig.RabbitMQCancelExchangeName = envvar.GetOr(envvar.RABBITMQ_CANCEL_EXCHANGE_NAME, prod.RabbitMQCancelExchangeName)

	case env.Development:
		appConfig.JobStoreConfig = config.JobStoreFromEnv(dev.DynamoConfig)
		appConfig.StorageConfig = config.StorageFromEnv(func() config.CloudStorage {
			return dev.CloudStorageConfig
		})
		appConfig.RabbitMQURL = dev.RabbitMQHost
		appConfig.RabbitMQFastQueueName = dev.RabbitMQFastQueueName
		appConfig.RabbitMQSlowQueueName = dev.RabbitMQSlowQueueName
		appConfig.RabbitMQCancelExchangeName = dev.RabbitMQCancelExchangeName

	default:
		panic("Unexpected environment")
	}

	return appConfig
}

func localConfig(worker workerconfig.Config) application.Config {
	var workingDir string
	switch env.Get() {
	case env.Production:
		workingDir = envvar.MustGet(envvar.WORKING_DIR_PATH)
	default:
		workingDir = envvar.GetOr(envvar.WORKING_DIR_PATH, path.Join(local.ProjectRoot(), "/src/worker/wd"))
	}

	return application.Config{
		FFmpegPath:     config.FFmpegPath(envvar.GetOr(envvar.FFMPEG_BIN_PATH, "")),
		WorkingDirPath: workingDir,
		Worker:         worker,
	}
}
