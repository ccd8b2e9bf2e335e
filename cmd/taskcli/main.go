// Package main is a local runner for the three pipelines, for development
// against the sandbox or localstack without deploying the Lambdas.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/chrhicks/task-integrator/internal/app"
	"github.com/chrhicks/task-integrator/internal/config"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cliApp := &cli.App{
		Name:  "taskcli",
		Usage: "Run the task-integrator pipelines locally",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			switch c.String("log-level") {
			case "debug":
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			case "warn":
				zerolog.SetGlobalLevel(zerolog.WarnLevel)
			case "error":
				zerolog.SetGlobalLevel(zerolog.ErrorLevel)
			default:
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "ingest",
				Usage: "Create HITs from an uploaded CSV batch",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "bucket",
						Usage:    "S3 bucket holding the batch objects",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "key",
						Usage:    "object key(s) of the form {layoutId}/{filename}",
						Required: true,
					},
				},
				Action: runIngest,
			},
			{
				Name:   "relay",
				Usage:  "Drain the notification queue once and publish to SNS",
				Action: runRelay,
			},
			{
				Name:   "balance",
				Usage:  "Print the requester account balance",
				Action: runBalance,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func runIngest(c *cli.Context) error {
	a, err := app.Build(c.Context, config.NewEnvLoader())
	if err != nil {
		return err
	}

	ev := events.S3Event{}
	for _, key := range c.StringSlice("key") {
		rec := events.S3EventRecord{}
		rec.S3.Bucket.Name = c.String("bucket")
		rec.S3.Object.Key = key
		ev.Records = append(ev.Records, rec)
	}

	out, err := a.Ingest(c.Context, ev)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runRelay(c *cli.Context) error {
	a, err := app.Build(c.Context, config.NewEnvLoader())
	if err != nil {
		return err
	}
	out, err := a.Relay(c.Context)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runBalance(c *cli.Context) error {
	a, err := app.Build(c.Context, config.NewEnvLoader())
	if err != nil {
		return err
	}
	out, err := a.Balance(c.Context)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
