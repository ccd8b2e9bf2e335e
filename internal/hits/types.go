// Package hits builds work-item creation requests from tabular batch input
// and submits them to the marketplace.
package hits

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mturk"
	"github.com/aws/aws-sdk-go-v2/service/mturk/types"

	"github.com/chrhicks/task-integrator/internal/config"
)

// WorkItemID is the opaque HIT identifier the marketplace assigns on
// creation. It is the join key for type and assignment lookups later.
type WorkItemID string

// ParameterSet maps layout placeholder names to sanitized row values.
type ParameterSet map[string]string

// Request is one HIT creation request: a layout template merged with one CSV
// row. Built fresh per row, never mutated, submitted once.
type Request struct {
	LayoutID   string
	Layout     config.Layout
	Params     ParameterSet
	Annotation string
}

// Input converts the request into the marketplace call shape.
func (r Request) Input() *mturk.CreateHITInput {
	params := make([]types.HITLayoutParameter, 0, len(r.Params))
	for name, value := range r.Params {
		params = append(params, types.HITLayoutParameter{
			Name:  aws.String(name),
			Value: aws.String(value),
		})
	}

	in := &mturk.CreateHITInput{
		HITLayoutId:                 aws.String(r.Layout.HITLayoutID),
		HITLayoutParameters:         params,
		Title:                       aws.String(r.Layout.Title),
		Description:                 aws.String(r.Layout.Description),
		Keywords:                    aws.String(r.Layout.Keywords),
		Reward:                      aws.String(r.Layout.Reward),
		AssignmentDurationInSeconds: aws.Int64(r.Layout.AssignmentDurationInSeconds),
		LifetimeInSeconds:           aws.Int64(r.Layout.LifetimeInSeconds),
	}
	if r.Layout.MaxAssignments > 0 {
		in.MaxAssignments = aws.Int32(r.Layout.MaxAssignments)
	}
	if r.Annotation != "" {
		in.RequesterAnnotation = aws.String(r.Annotation)
	}
	return in
}
