// Package main relays completed-assignment notifications from the delivery
// queue to per-HIT-type SNS topics.
package main

import (
	"context"

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
	lambda.Start(func(ctx context.Context) (string, error) {
		return a.Relay(ctx)
	})
}
