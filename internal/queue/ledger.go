package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/cpas-demos/internal/model"
)

// LedgerWriter is the part of the run ledger the subscriber writes to
type LedgerWriter interface {
	StartRun(ctx context.Context, run *model.Run) error
	RecordRow(ctx context.Context, ev model.RowResultEvent) error
	FinishRun(ctx context.Context, runID string, summary model.Summary) error
}

// EventRecorder publishes run and row outcomes instead of writing them directly
type EventRecorder struct {
	Queue Queue
	Topic string
}

func (r *EventRecorder) StartRun(_ context.Context, run *model.Run) error {
	return r.Queue.Publish(r.Topic, model.LedgerEvent{Type: model.EventRunStarted, RunID: run.ID, Run: run})
}

func (r *EventRecorder) RecordRow(_ context.Context, ev model.RowResultEvent) error {
	return r.Queue.Publish(r.Topic, model.LedgerEvent{Type: model.EventRowResult, RunID: ev.RunID, Row: &ev})
}

func (r *EventRecorder) FinishRun(_ context.Context, runID string, summary model.Summary) error {
	return r.Queue.Publish(r.Topic, model.LedgerEvent{Type: model.EventRunFinished, RunID: runID, Summary: &summary})
}

// StartLedgerSubscriber writes every event published on topic into the ledger
func StartLedgerSubscriber(q Queue, topic string, ledger LedgerWriter, log logrus.FieldLogger) error {
	return q.Subscribe(topic, func(payload any) error {
		ev, err := decodeLedgerEvent(payload)
		if err != nil {
			log.WithError(err).Warn("Invalid ledger event, dropping")
			return nil // no retry
		}

		entry := log.WithFields(logrus.Fields{"type": ev.Type, "run_id": ev.RunID})
		if err := ApplyLedgerEvent(context.Background(), ledger, ev); err != nil {
			entry.WithError(err).Warn("Failed to record ledger event")
			return err // triggers retry in queue
		}
		entry.Debug("Ledger event recorded")
		return nil
	})
}

// ApplyLedgerEvent dispatches one event to the matching ledger write
func ApplyLedgerEvent(ctx context.Context, ledger LedgerWriter, ev model.LedgerEvent) error {
	switch ev.Type {
	case model.EventRunStarted:
		if ev.Run == nil {
			return fmt.Errorf("%s event without run", ev.Type)
		}
		return ledger.StartRun(ctx, ev.Run)
	case model.EventRowResult:
		if ev.Row == nil {
			return fmt.Errorf("%s event without row", ev.Type)
		}
		return ledger.RecordRow(ctx, *ev.Row)
	case model.EventRunFinished:
		if ev.Summary == nil {
			return fmt.Errorf("%s event without summary", ev.Type)
		}
		return ledger.FinishRun(ctx, ev.RunID, *ev.Summary)
	default:
		return fmt.Errorf("unknown ledger event type %q", ev.Type)
	}
}

// decodeLedgerEvent accepts the in-memory struct or a raw AMQP body
func decodeLedgerEvent(payload any) (model.LedgerEvent, error) {
	switch p := payload.(type) {
	case model.LedgerEvent:
		return p, nil
	case *model.LedgerEvent:
		return *p, nil
	case []byte:
		var ev model.LedgerEvent
		if err := json.Unmarshal(p, &ev); err != nil {
			return ev, err
		}
		return ev, nil
	default:
		return model.LedgerEvent{}, fmt.Errorf("unexpected payload type %T", payload)
	}
}
