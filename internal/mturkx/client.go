// Package mturkx wires the Mechanical Turk requester client and declares the
// narrow interfaces each pipeline consumes, so tests can mock single calls.
package mturkx

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mturk"
)

// SandboxEndpoint is the requester sandbox; production is the SDK default.
const SandboxEndpoint = "https://mturk-requester-sandbox.us-east-1.amazonaws.com"

// New builds a requester client, pointed at the sandbox when requested.
func New(cfg aws.Config, sandbox bool) *mturk.Client {
	return mturk.NewFromConfig(cfg, func(o *mturk.Options) {
		if sandbox {
			o.BaseEndpoint = aws.String(SandboxEndpoint)
		}
	})
}

// HITCreator creates work items.
type HITCreator interface {
	CreateHIT(ctx context.Context, params *mturk.CreateHITInput, optFns ...func(*mturk.Options)) (*mturk.CreateHITOutput, error)
}

// HITGetter resolves a work item, including its type identifier.
type HITGetter interface {
	GetHIT(ctx context.Context, params *mturk.GetHITInput, optFns ...func(*mturk.Options)) (*mturk.GetHITOutput, error)
}

// AssignmentGetter resolves one worker's completed assignment.
type AssignmentGetter interface {
	GetAssignment(ctx context.Context, params *mturk.GetAssignmentInput, optFns ...func(*mturk.Options)) (*mturk.GetAssignmentOutput, error)
}

// NotificationUpdater enables or disables notifications for a HIT type.
type NotificationUpdater interface {
	UpdateNotificationSettings(ctx context.Context, params *mturk.UpdateNotificationSettingsInput, optFns ...func(*mturk.Options)) (*mturk.UpdateNotificationSettingsOutput, error)
}

// BalanceGetter reports the requester account balance.
type BalanceGetter interface {
	GetAccountBalance(ctx context.Context, params *mturk.GetAccountBalanceInput, optFns ...func(*mturk.Options)) (*mturk.GetAccountBalanceOutput, error)
}
