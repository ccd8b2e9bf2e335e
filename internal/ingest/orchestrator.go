// Package ingest turns uploaded CSV batches into marketplace work items.
package ingest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/chrhicks/task-integrator/internal/config"
	"github.com/chrhicks/task-integrator/internal/hits"
	"github.com/chrhicks/task-integrator/internal/ledger"
	"github.com/chrhicks/task-integrator/internal/mturkx"
	"github.com/chrhicks/task-integrator/internal/s3io"
)

// notifier enables queue notifications for a batch's HIT type.
type notifier interface {
	EnsureNotifications(ctx context.Context, ids []hits.WorkItemID, queueURL string) error
}

// Orchestrator drives one ingest invocation: build and submit HITs for every
// uploaded object, then enable notifications once for the combined batch.
// Any failure aborts the invocation; HITs created before the failure remain
// at the marketplace (no compensating deletion), which is why the ledger
// records what was created.
type Orchestrator struct {
	S3       s3io.ObjectGetter
	MTurk    mturkx.HITCreator
	Notifier notifier
	Ledger   *ledger.Ledger // nil disables audit records
	Cfg      config.Config
}

// Run processes every storage record in the event and returns the number of
// work items created.
func (o *Orchestrator) Run(ctx context.Context, ev events.S3Event) (int, error) {
	batchID := ulid.Make().String()
	var created []hits.WorkItemID
	lastLayout := ""

	for _, rec := range ev.Records {
		key, _ := url.QueryUnescape(rec.S3.Object.Key)
		ids, layoutID, err := o.processRecord(ctx, rec.S3.Bucket.Name, key, batchID)
		created = append(created, ids...)
		if layoutID != "" {
			lastLayout = layoutID
		}
		if err != nil {
			o.record(ctx, batchID, lastLayout, created)
			return 0, fmt.Errorf("ingest %s: %w", key, err)
		}
	}

	if err := o.Notifier.EnsureNotifications(ctx, created, o.Cfg.NotificationQueueURL); err != nil {
		o.record(ctx, batchID, lastLayout, created)
		return 0, err
	}

	o.record(ctx, batchID, lastLayout, created)
	log.Info().Str("batch_id", batchID).Int("created", len(created)).Msg("Batch complete")
	return len(created), nil
}

// processRecord builds and submits the HITs for one uploaded object.
func (o *Orchestrator) processRecord(ctx context.Context, bucket, key, batchID string) ([]hits.WorkItemID, string, error) {
	layoutID, filename, err := s3io.ParseKey(key)
	if err != nil {
		return nil, "", err
	}

	body, err := s3io.Fetch(ctx, o.S3, bucket, key)
	if err != nil {
		return nil, layoutID, err
	}

	reqs, err := hits.Build(body, o.Cfg.Layouts, layoutID, batchID)
	if err != nil {
		return nil, layoutID, err
	}
	log.Info().Str("layout", layoutID).Str("file", filename).Int("rows", len(reqs)).Msg("Submitting batch")

	ids, err := hits.Submit(ctx, o.MTurk, reqs)
	return ids, layoutID, err
}

// record writes the batch audit entry. Failures are logged, never fatal: the
// HITs exist remotely regardless.
func (o *Orchestrator) record(ctx context.Context, batchID, layoutID string, ids []hits.WorkItemID) {
	if o.Ledger == nil || len(ids) == 0 {
		return
	}
	if err := o.Ledger.RecordBatch(ctx, batchID, layoutID, ids); err != nil {
		log.Error().Err(err).Str("batch_id", batchID).Msg("Failed to write batch ledger record")
	}
}
