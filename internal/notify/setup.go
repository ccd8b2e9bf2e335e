// Package notify enables queue-delivery notifications for a batch's HIT type.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mturk"
	"github.com/aws/aws-sdk-go-v2/service/mturk/types"
	"github.com/rs/zerolog/log"

	"github.com/chrhicks/task-integrator/internal/hits"
	"github.com/chrhicks/task-integrator/internal/mturkx"
)

// notificationVersion is the marketplace notification API version.
const notificationVersion = "2006-05-05"

// marketplace is the slice of the requester client the coordinator needs.
type marketplace interface {
	mturkx.HITGetter
	mturkx.NotificationUpdater
}

// Coordinator enables queue notifications for a HIT type at most once per
// run. A batch maps one CSV to one layout, so every HIT it creates shares a
// type; the coordinator verifies that instead of assuming it, then configures
// the type once. Re-enabling at the service is a safe no-op, so the per-run
// guard only saves redundant calls.
type Coordinator struct {
	mturk      marketplace
	configured map[string]bool
}

// NewCoordinator builds a coordinator scoped to one pipeline invocation.
func NewCoordinator(m marketplace) *Coordinator {
	return &Coordinator{mturk: m, configured: make(map[string]bool)}
}

// EnsureNotifications enables SQS delivery of assignment-submitted events for
// the type shared by the batch's HITs. A batch that created nothing is a
// no-op. HITs with mixed types fail loudly: that breaks the one-layout-per-
// batch invariant the whole setup optimization rests on.
func (c *Coordinator) EnsureNotifications(ctx context.Context, ids []hits.WorkItemID, queueURL string) error {
	if len(ids) == 0 {
		return nil
	}

	typeID, err := c.batchType(ctx, ids)
	if err != nil {
		return err
	}

	if c.configured[typeID] {
		return nil
	}

	_, err = c.mturk.UpdateNotificationSettings(ctx, &mturk.UpdateNotificationSettingsInput{
		HITTypeId: aws.String(typeID),
		Active:    aws.Bool(true),
		Notification: &types.NotificationSpecification{
			Destination: aws.String(queueURL),
			Transport:   types.NotificationTransportSqs,
			Version:     aws.String(notificationVersion),
			EventTypes:  []types.EventType{types.EventTypeAssignmentSubmitted},
		},
	})
	if err != nil {
		return fmt.Errorf("enable notifications for type %s: %w", typeID, err)
	}

	c.configured[typeID] = true
	log.Info().Str("hit_type_id", typeID).Str("queue_url", queueURL).Msg("Notifications enabled")
	return nil
}

// batchType resolves every HIT's type and verifies the batch carries one.
func (c *Coordinator) batchType(ctx context.Context, ids []hits.WorkItemID) (string, error) {
	typeID := ""
	for _, id := range ids {
		out, err := c.mturk.GetHIT(ctx, &mturk.GetHITInput{HITId: aws.String(string(id))})
		if err != nil {
			return "", fmt.Errorf("get hit %s: %w", id, err)
		}
		got := aws.ToString(out.HIT.HITTypeId)
		if typeID == "" {
			typeID = got
			continue
		}
		if got != typeID {
			return "", fmt.Errorf("batch mixes hit types %s and %s (hit %s)", typeID, got, id)
		}
	}
	return typeID, nil
}
