// Package relay drains the marketplace notification queue and republishes
// flattened completion events to per-HIT-type SNS topics.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mturk"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	"github.com/chrhicks/task-integrator/internal/answers"
	"github.com/chrhicks/task-integrator/internal/flatten"
	"github.com/chrhicks/task-integrator/internal/mturkx"
	"github.com/chrhicks/task-integrator/internal/topics"
)

// QueueClient is the slice of the SQS client the relay needs.
type QueueClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Publisher is the slice of the SNS client the relay needs.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// marketplace is the slice of the requester client the relay needs.
type marketplace interface {
	mturkx.AssignmentGetter
	mturkx.HITGetter
}

// Relay polls the notification queue a bounded number of rounds per
// invocation. The bound compensates for SQS not surfacing every message in a
// single receive, not for errors. A queue message is deleted only after every
// event it references has published; a partial failure leaves it for
// redelivery, so events that already published will publish again. Consumers
// of the topics must tolerate those duplicates (at-least-once end to end).
type Relay struct {
	sqs      QueueClient
	sns      Publisher
	mturk    marketplace
	topics   *topics.Cache
	queueURL string

	// MaxRounds caps receive rounds per invocation; the queue may not be
	// drained when it is reached.
	MaxRounds int
	// StopAfterEmpty ends the invocation early after this many consecutive
	// empty receives. Zero disables the early stop.
	StopAfterEmpty int
	// WaitSeconds is the per-receive long-poll wait.
	WaitSeconds int32
}

// New builds a relay with the default drain bounds.
func New(q QueueClient, p Publisher, m marketplace, t *topics.Cache, queueURL string) *Relay {
	return &Relay{
		sqs:            q,
		sns:            p,
		mturk:          m,
		topics:         t,
		queueURL:       queueURL,
		MaxRounds:      10,
		StopAfterEmpty: 2,
		WaitSeconds:    1,
	}
}

// Drain runs the bounded polling loop and returns the number of events
// published. Messages are processed independently: one failing message does
// not stop the round, but every failure surfaces in the returned error.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	published := 0
	emptyRounds := 0
	var errs []error

	for round := 1; round <= r.MaxRounds; round++ {
		out, err := r.sqs.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(r.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     r.WaitSeconds,
		})
		if err != nil {
			return published, fmt.Errorf("receive round %d: %w", round, err)
		}

		if len(out.Messages) == 0 {
			emptyRounds++
			if r.StopAfterEmpty > 0 && emptyRounds >= r.StopAfterEmpty {
				break
			}
			continue
		}
		emptyRounds = 0

		for _, msg := range out.Messages {
			n, err := r.processMessage(ctx, msg)
			published += n
			if err != nil {
				// leave the message undeleted; SQS redelivers it and the
				// events that already published go out again
				log.Warn().Err(err).Str("message_id", aws.ToString(msg.MessageId)).
					Msg("Message left on queue for redelivery")
				errs = append(errs, err)
			}
		}
	}

	return published, errors.Join(errs...)
}

// processMessage publishes every completion event in one queue message and
// deletes the message once all of them succeeded.
func (r *Relay) processMessage(ctx context.Context, msg sqstypes.Message) (int, error) {
	payload, err := answers.ParsePayload(aws.ToString(msg.Body))
	if err != nil {
		return 0, fmt.Errorf("message %s: %w", aws.ToString(msg.MessageId), err)
	}

	published := 0
	for _, ev := range payload.Events {
		if err := r.publishEvent(ctx, ev); err != nil {
			return published, fmt.Errorf("message %s: %w", aws.ToString(msg.MessageId), err)
		}
		published++
	}

	if _, err := r.sqs.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(r.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		return published, fmt.Errorf("delete message %s: %w", aws.ToString(msg.MessageId), err)
	}
	return published, nil
}

// publishEvent resolves one completion event's assignment and answers and
// publishes the flattened answer document to the HIT type's topic.
func (r *Relay) publishEvent(ctx context.Context, ev answers.Event) error {
	asg, err := r.mturk.GetAssignment(ctx, &mturk.GetAssignmentInput{
		AssignmentId: aws.String(ev.AssignmentID),
	})
	if err != nil {
		return fmt.Errorf("get assignment %s: %w", ev.AssignmentID, err)
	}

	hit, err := r.mturk.GetHIT(ctx, &mturk.GetHITInput{HITId: aws.String(ev.HITID)})
	if err != nil {
		return fmt.Errorf("get hit %s: %w", ev.HITID, err)
	}

	arn, err := r.topics.Resolve(ctx, aws.ToString(hit.HIT.HITTypeId))
	if err != nil {
		return err
	}

	doc, err := answers.ParseAnswerDocument(aws.ToString(asg.Assignment.Answer))
	if err != nil {
		return fmt.Errorf("assignment %s: %w", ev.AssignmentID, err)
	}

	body, err := json.Marshal(flatten.Flatten(doc))
	if err != nil {
		return fmt.Errorf("encode assignment %s: %w", ev.AssignmentID, err)
	}

	if _, err := r.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(arn),
		Message:  aws.String(string(body)),
	}); err != nil {
		return fmt.Errorf("publish assignment %s: %w", ev.AssignmentID, err)
	}

	log.Debug().Str("assignment_id", ev.AssignmentID).Str("topic_arn", arn).Msg("Event published")
	return nil
}
