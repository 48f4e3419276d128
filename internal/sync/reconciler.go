// Package sync drains the outbox against the remote gateway and
// tracks connectivity. Writes never block on the network; they land
// in the outbox and the reconciler replays them in order.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/daystreak/habitsync/internal/db"
	"github.com/daystreak/habitsync/internal/logger"
	"github.com/daystreak/habitsync/internal/model"
	"github.com/daystreak/habitsync/internal/outbox"
	"github.com/daystreak/habitsync/internal/remote"
)

const (
	// MaxRetries is how many times a single action is attempted
	// before it is dropped and counted as failed.
	MaxRetries = 5

	// BaseDelay is the first backoff step; each retry doubles it.
	BaseDelay = time.Second
)

// Result summarizes one drain pass.
type Result struct {
	Succeeded int
	Failed    int
	LastError string
}

// Reconciler replays pending outbox actions against the remote
// gateway, oldest first.
type Reconciler struct {
	outbox     *outbox.Outbox
	gateway    remote.Gateway
	db         *db.DB
	maxRetries int
	baseDelay  time.Duration

	// sleep is injectable so tests can observe backoff without
	// waiting for it.
	sleep func(context.Context, time.Duration)
}

// NewReconciler creates a Reconciler over an outbox, a gateway and
// the local database that records the last successful sync time.
func NewReconciler(ob *outbox.Outbox, gw remote.Gateway, database *db.DB) *Reconciler {
	return &Reconciler{
		outbox:     ob,
		gateway:    gw,
		db:         database,
		maxRetries: MaxRetries,
		baseDelay:  BaseDelay,
		sleep:      sleepContext,
	}
}

// Drain replays every pending action in enqueue order. Actions that
// succeed are removed. Actions that fail with a permanent error, or
// that have exhausted their retries, are dropped and counted as
// failed. Everything else stays queued with its retry count bumped.
// Drain itself never fails; per-action errors are folded into Result.
func (r *Reconciler) Drain(ctx context.Context) Result {
	var result Result

	actions, err := r.outbox.PeekAll(ctx)
	if err != nil {
		logger.Error("failed to read outbox", logger.F("error", err))
		result.LastError = err.Error()
		return result
	}
	if len(actions) == 0 {
		return result
	}

	logger.Info("draining outbox", logger.F("pending", len(actions)))

	for _, action := range actions {
		if ctx.Err() != nil {
			result.LastError = ctx.Err().Error()
			return result
		}

		if action.RetryCount >= r.maxRetries {
			logger.Warn("dropping action after max retries",
				logger.F("id", action.ID),
				logger.F("type", action.Type))
			if err := r.outbox.Remove(ctx, action.ID); err != nil {
				logger.Error("failed to drop action", logger.F("error", err))
			}
			result.Failed++
			continue
		}

		err := r.dispatch(ctx, action)
		if err == nil {
			if err := r.outbox.Remove(ctx, action.ID); err != nil {
				logger.Error("failed to remove synced action", logger.F("error", err))
			}
			result.Succeeded++
			continue
		}

		result.LastError = err.Error()

		if remote.ClassOf(err) == remote.Permanent {
			logger.Warn("dropping action on permanent error",
				logger.F("id", action.ID),
				logger.F("type", action.Type),
				logger.F("error", err))
			if err := r.outbox.Remove(ctx, action.ID); err != nil {
				logger.Error("failed to drop action", logger.F("error", err))
			}
			result.Failed++
			continue
		}

		logger.Warn("action failed, will retry",
			logger.F("id", action.ID),
			logger.F("type", action.Type),
			logger.F("retry", action.RetryCount),
			logger.F("error", err))
		if err := r.outbox.IncrementRetry(ctx, action.ID); err != nil {
			logger.Error("failed to bump retry count", logger.F("error", err))
		}
		result.Failed++

		r.sleep(ctx, r.backoff(action.RetryCount))
	}

	if result.Succeeded > 0 {
		if err := r.db.SetLastSyncAt(time.Now()); err != nil {
			logger.Error("failed to record sync time", logger.F("error", err))
		}
	}

	logger.Info("drain finished",
		logger.F("succeeded", result.Succeeded),
		logger.F("failed", result.Failed))
	return result
}

// dispatch routes one action to the matching gateway call.
func (r *Reconciler) dispatch(ctx context.Context, action outbox.Action) error {
	switch p := action.Payload.(type) {
	case outbox.TaskPayload:
		return r.gateway.UpsertTask(ctx, model.Task(p))
	case outbox.TaskDeletePayload:
		return r.gateway.DeleteTask(ctx, p.UserID, p.TaskID)
	case outbox.EntryPayload:
		return r.gateway.UpsertEntry(ctx, model.Entry(p))
	case outbox.DayNotePayload:
		return r.gateway.UpsertDayNote(ctx, model.DayNote(p))
	case outbox.SettingsPayload:
		return r.gateway.UpdateSettings(ctx, model.UserSettings(p))
	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

// backoff returns BaseDelay doubled once per completed retry.
func (r *Reconciler) backoff(retryCount int) time.Duration {
	return r.baseDelay * time.Duration(1<<uint(retryCount))
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
