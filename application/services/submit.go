package services

import (
	"context"
	stderrors "errors"
	"time"

	"workspacediff/application/ports"
	"workspacediff/domain/selection"
	"workspacediff/domain/submission"
	"workspacediff/pkg/errors"
	"workspacediff/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Pending is an in-flight submission. Its snapshot is fixed when Submit
// returns; later mark changes do not join it.
type Pending struct {
	snapshot *submission.Snapshot
	done     chan struct{}
	outcome  *submission.Outcome
	err      error
}

func resolved(snapshot *submission.Snapshot, err error) *Pending {
	p := &Pending{snapshot: snapshot, done: make(chan struct{}), err: err}
	close(p.done)
	return p
}

// Snapshot returns the frozen submission, nil when Submit was rejected before
// one could be taken
func (p *Pending) Snapshot() *submission.Snapshot {
	return p.snapshot
}

// Done is closed once the submission resolved
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the submission resolved or ctx ends
func (p *Pending) Wait(ctx context.Context) (*submission.Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, p.err
	case <-ctx.Done():
		return nil, errors.NewTimeoutError("waiting for submission").WithCause(ctx.Err())
	}
}

// Submit snapshots every row marked for action and sends it in one request.
// The request runs on its own goroutine under ctx.
func (s *Session) Submit(ctx context.Context, action selection.Action) *Pending {
	s.mu.Lock()
	if s.machine == nil {
		s.mu.Unlock()
		return resolved(nil, notLoaded())
	}
	snapshot, skipped := submission.NewSnapshot(s.workspaceID, action, s.machine.MarkedFor(action), s.resolveLocked)
	s.mu.Unlock()

	if len(skipped) > 0 {
		s.logger.Warn("Skipped untranslatable diffs", zap.Strings("diffIDs", skipped))
	}
	if snapshot.Empty() {
		return resolved(snapshot, errors.NewValidationError("nothing is marked for "+action.String()).
			WithCode(errors.CodeEmptySubmission))
	}

	s.logger.Info("Submitting workspace diffs",
		zap.String("snapshotID", snapshot.ID),
		zap.String("action", action.String()),
		zap.Int("instructions", len(snapshot.Instructions)),
	)

	p := &Pending{snapshot: snapshot, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		spanCtx, span := observability.StartSpan(ctx, "session.submit",
			attribute.String("workspace.id", snapshot.WorkspaceID),
			attribute.String("snapshot.id", snapshot.ID),
			attribute.String("action", action.String()),
			attribute.Int("instructions", len(snapshot.Instructions)),
		)
		p.outcome, p.err = s.send(spanCtx, snapshot)
		if p.outcome != nil {
			span.SetAttributes(attribute.Int("failures", len(p.outcome.Failures)))
		}
		observability.EndSpan(span, p.err)
	}()
	return p
}

func (s *Session) send(ctx context.Context, snapshot *submission.Snapshot) (*submission.Outcome, error) {
	start := time.Now()

	var (
		resp *submission.Response
		err  error
	)
	switch snapshot.Action {
	case selection.ActionPublish:
		resp, err = s.deps.Transport.Publish(ctx, snapshot.WorkspaceID, snapshot.Instructions)
	case selection.ActionUndo:
		resp, err = s.deps.Transport.Undo(ctx, snapshot.WorkspaceID, snapshot.Instructions)
	default:
		err = errors.NewValidationError("unknown action " + snapshot.Action.String()).WithCode(errors.CodeUnknownAction)
	}
	if err == nil && resp == nil {
		err = errNoResponse
	}

	if err != nil {
		if ctx.Err() != nil {
			// the backend may have applied an abandoned request
			s.markStale()
		}
		s.record(snapshot, "error", start)
		s.logger.Error("Submission failed",
			zap.String("snapshotID", snapshot.ID),
			zap.String("action", snapshot.Action.String()),
			zap.Error(err),
		)
		return nil, submissionError(err)
	}

	outcome := &submission.Outcome{
		SnapshotID: snapshot.ID,
		Action:     snapshot.Action.String(),
		Sent:       len(snapshot.Instructions),
		Success:    resp.Success && !resp.PartialFailure(),
		Failures:   resp.Failures,
	}

	if !resp.Success && !resp.PartialFailure() {
		s.record(snapshot, "rejected", start)
		return nil, errors.NewExternalError("workspace backend", errNoSuccess).
			WithCode(errors.CodeSubmissionFailed).
			WithDetail("snapshotId", snapshot.ID)
	}

	s.mu.Lock()
	if outcome.Success && s.machine != nil {
		outcome.Cleared = s.machine.Release(snapshot.Marked, snapshot.Action)
	}
	s.stale = true
	s.mu.Unlock()

	label := "success"
	if !outcome.Success {
		label = "partial"
		s.logger.Warn("Submission partially failed",
			zap.String("snapshotID", snapshot.ID),
			zap.Int("failures", len(outcome.Failures)),
		)
	} else {
		s.logger.Info("Submission succeeded",
			zap.String("snapshotID", snapshot.ID),
			zap.Int("cleared", len(outcome.Cleared)),
		)
	}
	s.record(snapshot, label, start)
	s.notify(ctx, outcome)

	return outcome, nil
}

var (
	errNoResponse = stderrors.New("backend returned no response")
	errNoSuccess  = stderrors.New("backend reported failure without details")
)

func submissionError(err error) error {
	if errors.IsAppError(err) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError("submission").WithCause(err)
	}
	return errors.NewExternalError("workspace backend", err).WithCode(errors.CodeSubmissionFailed)
}

func (s *Session) record(snapshot *submission.Snapshot, outcome string, start time.Time) {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.SubmissionCompleted(snapshot.Action.String(), len(snapshot.Instructions), outcome, time.Since(start).Seconds())
}

func (s *Session) notify(ctx context.Context, outcome *submission.Outcome) {
	if s.deps.Notifier == nil {
		return
	}
	event := ports.StaleEvent{
		WorkspaceID: s.workspaceID,
		SnapshotID:  outcome.SnapshotID,
		Action:      outcome.Action,
		Sent:        outcome.Sent,
		Failed:      len(outcome.Failures),
		Cleared:     outcome.Cleared,
	}
	if err := s.deps.Notifier.NotifyStale(ctx, event); err != nil {
		s.logger.Warn("Failed to publish stale notification",
			zap.String("snapshotID", outcome.SnapshotID),
			zap.Error(err),
		)
	}
}
