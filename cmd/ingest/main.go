// Package main creates marketplace work items from CSV batches uploaded to S3.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/chrhicks/task-integrator/internal/app"
	"github.com/chrhicks/task-integrator/internal/config"
)

func main() {
	a, err := app.Build(context.Background(), config.NewEnvLoader())
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	lambda.Start(func(ctx context.Context, ev events.S3Event) (string, error) {
		return a.Ingest(ctx, ev)
	})
}
