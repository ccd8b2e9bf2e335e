// Package topics memoizes the per-HIT-type SNS topic ARNs.
package topics

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"
)

// TopicCreator is the slice of the SNS client the cache needs.
type TopicCreator interface {
	CreateTopic(ctx context.Context, params *sns.CreateTopicInput, optFns ...func(*sns.Options)) (*sns.CreateTopicOutput, error)
}

// Cache maps HIT type identifiers to topic ARNs, creating topics lazily on
// first resolution. Entries are never evicted; the cache lives as long as the
// process. The mutex is held across the remote create so concurrent first
// resolutions of one type collapse into a single creation call.
type Cache struct {
	mu     sync.Mutex
	sns    TopicCreator
	prefix string
	arns   map[string]string
}

// NewCache builds a cache creating topics named "{prefix}-{hitTypeID}".
func NewCache(c TopicCreator, prefix string) *Cache {
	return &Cache{sns: c, prefix: prefix, arns: make(map[string]string)}
}

// Resolve returns the topic ARN for a HIT type, creating the topic on a miss.
// CreateTopic is idempotent by name at the service, so a retried miss after a
// failed memoization is harmless.
func (c *Cache) Resolve(ctx context.Context, hitTypeID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if arn, ok := c.arns[hitTypeID]; ok {
		return arn, nil
	}

	name := c.prefix + "-" + hitTypeID
	out, err := c.sns.CreateTopic(ctx, &sns.CreateTopicInput{Name: aws.String(name)})
	if err != nil {
		return "", fmt.Errorf("create topic %s: %w", name, err)
	}
	arn := *out.TopicArn
	c.arns[hitTypeID] = arn
	log.Info().Str("hit_type_id", hitTypeID).Str("topic_arn", arn).Msg("Topic created")
	return arn, nil
}
