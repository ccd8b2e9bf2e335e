package hits

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/chrhicks/task-integrator/internal/config"
	"github.com/chrhicks/task-integrator/internal/mturkx"
)

// ErrLayoutNotFound is returned when a batch names a layout the configuration
// does not carry.
var ErrLayoutNotFound = errors.New("layout not found")

// sanitizer strips all markup from untrusted CSV fields before they reach a
// marketplace-rendered template.
var sanitizer = bluemonday.StrictPolicy()

// maxParallelCreates bounds the submission fan-out per batch.
const maxParallelCreates = 8

// Build parses a CSV byte-stream and emits one Request per data row, in row
// order, merged against the named layout. The first row is a header naming
// the layout placeholders; every field value is HTML-sanitized before it is
// stored in the ParameterSet. Rows are not deduplicated.
func Build(csvBytes []byte, layouts map[string]config.Layout, layoutID, annotation string) ([]Request, error) {
	layout, ok := layouts[layoutID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLayoutNotFound, layoutID)
	}

	records, err := csv.NewReader(bytes.NewReader(csvBytes)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse csv: missing header row")
	}

	header := records[0]
	reqs := make([]Request, 0, len(records)-1)
	for _, row := range records[1:] {
		params := make(ParameterSet, len(header))
		for i, name := range header {
			params[name] = sanitizer.Sanitize(row[i])
		}
		reqs = append(reqs, Request{
			LayoutID:   layoutID,
			Layout:     layout,
			Params:     params,
			Annotation: annotation,
		})
	}
	return reqs, nil
}

// Submit fans the requests out to the marketplace with bounded parallelism.
// Each row's submission is independent: one row failing does not stop the
// others. The IDs of every successful creation are returned even when some
// rows fail; failures come back joined, labeled by row number.
func Submit(ctx context.Context, client mturkx.HITCreator, reqs []Request) ([]WorkItemID, error) {
	ids := make([]WorkItemID, len(reqs))
	rowErrs := make([]error, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelCreates)
	for i, req := range reqs {
		g.Go(func() error {
			out, err := client.CreateHIT(ctx, req.Input())
			if err != nil {
				rowErrs[i] = fmt.Errorf("row %d: create hit: %w", i+1, err)
				return nil
			}
			ids[i] = WorkItemID(*out.HIT.HITId)
			log.Debug().Str("hit_id", string(ids[i])).Str("layout", req.LayoutID).Msg("HIT created")
			return nil
		})
	}
	_ = g.Wait() // goroutines report through rowErrs

	created := make([]WorkItemID, 0, len(reqs))
	for _, id := range ids {
		if id != "" {
			created = append(created, id)
		}
	}
	return created, errors.Join(rowErrs...)
}
