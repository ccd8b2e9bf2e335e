// Package ledger records created batches in DynamoDB so partially created
// batches stay discoverable.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/chrhicks/task-integrator/internal/hits"
)

// ItemPutter is the slice of the DynamoDB client the ledger needs.
type ItemPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Ledger writes batch audit records. Writes are best-effort from the caller's
// point of view: the ingest pipeline logs a failed write and carries on,
// since the HITs exist remotely whether or not the record lands.
type Ledger struct {
	DB    ItemPutter
	Table string
}

// BatchRecord is the audit item for one upload batch. A failed batch leaves
// already-created HITs stranded at the marketplace; this record is how an
// operator finds them.
type BatchRecord struct {
	PK        string   `dynamodbav:"PK"` // BATCH#<batchID>
	SK        string   `dynamodbav:"SK"` // META
	BatchID   string   `dynamodbav:"batch_id"`
	LayoutID  string   `dynamodbav:"layout_id"`
	HITIDs    []string `dynamodbav:"hit_ids"`
	CreatedAt string   `dynamodbav:"created_at"` // ISO8601
}

// RecordBatch writes the audit record for one batch.
func (l *Ledger) RecordBatch(ctx context.Context, batchID, layoutID string, ids []hits.WorkItemID) error {
	rec := BatchRecord{
		PK:        fmt.Sprintf("BATCH#%s", batchID),
		SK:        "META",
		BatchID:   batchID,
		LayoutID:  layoutID,
		HITIDs:    make([]string, len(ids)),
		CreatedAt: NowISO(),
	}
	for i, id := range ids {
		rec.HITIDs[i] = string(id)
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return err
	}
	_, err = l.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &l.Table,
		Item:      item,
	})
	return err
}

// NowISO returns the current time in ISO8601 format.
func NowISO() string { return time.Now().UTC().Format(time.RFC3339) }
