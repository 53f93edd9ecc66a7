package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"workspacediff/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// DetailTypeDiffStale is the detail type of stale notifications
const DetailTypeDiffStale = "WorkspaceDiffStale"

// PutEventsAPI is the subset of the EventBridge client the notifier uses
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// StaleNotifier publishes stale diff set notifications to EventBridge so
// other instances and listeners reload the workspace
type StaleNotifier struct {
	client       PutEventsAPI
	eventBusName string
	source       string
	logger       *zap.Logger
	now          func() time.Time
}

// NewStaleNotifier creates a new EventBridge stale notifier
func NewStaleNotifier(client PutEventsAPI, eventBusName string, logger *zap.Logger) *StaleNotifier {
	return &StaleNotifier{
		client:       client,
		eventBusName: eventBusName,
		source:       "workspacediff",
		logger:       logger,
		now:          time.Now,
	}
}

// NotifyStale publishes one event for a finished submission
func (n *StaleNotifier) NotifyStale(ctx context.Context, event ports.StaleEvent) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal stale event: %w", err)
	}

	input := &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			EventBusName: aws.String(n.eventBusName),
			Source:       aws.String(n.source),
			DetailType:   aws.String(DetailTypeDiffStale),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(n.now()),
			Resources:    []string{fmt.Sprintf("arn:aws:workspacediff::%s", event.WorkspaceID)},
		}},
	}

	result, err := n.client.PutEvents(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish events to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for _, entry := range result.Entries {
			if entry.ErrorCode != nil {
				n.logger.Error("Failed to publish event",
					zap.String("eventType", DetailTypeDiffStale),
					zap.String("errorCode", *entry.ErrorCode),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}

	n.logger.Debug("Stale event published to EventBridge",
		zap.String("workspaceID", event.WorkspaceID),
		zap.String("snapshotID", event.SnapshotID),
		zap.String("eventBus", n.eventBusName),
	)

	return nil
}
