// Package app wires configuration and AWS clients into the three pipelines.
package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/mturk"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/chrhicks/task-integrator/internal/awsutil"
	"github.com/chrhicks/task-integrator/internal/config"
	"github.com/chrhicks/task-integrator/internal/ingest"
	"github.com/chrhicks/task-integrator/internal/ledger"
	"github.com/chrhicks/task-integrator/internal/mturkx"
	"github.com/chrhicks/task-integrator/internal/notify"
	"github.com/chrhicks/task-integrator/internal/relay"
	"github.com/chrhicks/task-integrator/internal/topics"
)

// App holds the long-lived state shared across invocations: configuration,
// clients, and the process-wide topic cache.
type App struct {
	Cfg    config.Config
	MTurk  *mturk.Client
	S3     *s3.Client
	SQS    *sqs.Client
	SNS    *sns.Client
	DDB    *dynamodb.Client
	Topics *topics.Cache
}

// Build loads configuration and constructs the AWS clients. The marketplace
// client uses the requester credentials from configuration; everything else
// uses the ambient AWS identity.
func Build(ctx context.Context, loader config.Loader) (*App, error) {
	cfg, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	awsCfg, endpoint, err := awsutil.Load(ctx, cfg.Region, "", "")
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	turkCfg, _, err := awsutil.Load(ctx, cfg.Region, cfg.Auth.AccessKey, cfg.Auth.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("load requester config: %w", err)
	}

	app := &App{
		Cfg:   cfg,
		MTurk: mturkx.New(turkCfg, cfg.Sandbox),
		S3: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if endpoint != "" {
				o.UsePathStyle = true // localstack/dev friendliness
			}
		}),
		SQS: sqs.NewFromConfig(awsCfg),
		SNS: sns.NewFromConfig(awsCfg),
		DDB: dynamodb.NewFromConfig(awsCfg),
	}
	app.Topics = topics.NewCache(app.SNS, cfg.TopicPrefix)
	return app, nil
}

// Ingest runs the upload pipeline for one storage event. The notification
// coordinator is scoped to the invocation; the batch ledger is attached when
// a table is configured.
func (a *App) Ingest(ctx context.Context, ev events.S3Event) (string, error) {
	o := &ingest.Orchestrator{
		S3:       a.S3,
		MTurk:    a.MTurk,
		Notifier: notify.NewCoordinator(a.MTurk),
		Cfg:      a.Cfg,
	}
	if a.Cfg.LedgerTable != "" {
		o.Ledger = &ledger.Ledger{DB: a.DDB, Table: a.Cfg.LedgerTable}
	}

	n, err := o.Run(ctx, ev)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d HITs created.", n), nil
}

// Relay drains the notification queue once and reports the publish count.
// The topic cache is shared across invocations for the process lifetime.
func (a *App) Relay(ctx context.Context) (string, error) {
	r := relay.New(a.SQS, a.SNS, a.MTurk, a.Topics, a.Cfg.NotificationQueueURL)
	n, err := r.Drain(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d messages pushed to SNS.", n), nil
}

// Balance reports the marketplace account balance.
func (a *App) Balance(ctx context.Context) (string, error) {
	out, err := a.MTurk.GetAccountBalance(ctx, &mturk.GetAccountBalanceInput{})
	if err != nil {
		return "", fmt.Errorf("get account balance: %w", err)
	}
	return "$" + *out.AvailableBalance, nil
}
