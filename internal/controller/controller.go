package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"EtfSentinel/internal/engine"
	"EtfSentinel/internal/model"
	"EtfSentinel/internal/notifier"
	"EtfSentinel/internal/pricesource"
	"EtfSentinel/internal/recorder"
	"EtfSentinel/internal/statestore"

	"github.com/google/uuid"
)

// Controller sequences one invocation safely across non-transactional
// collaborators: fetch price, load state, decide, persist, notify. The store
// offers whole-document read/write only, so duplicate-trigger and crash
// hazards are handled with the idempotency gate and the pending marker
// instead of locks.
type Controller struct {
	Source   pricesource.Source
	Store    statestore.Store
	Sink     notifier.Sink
	Recorder recorder.Recorder
	Ticker   string
	Params   engine.Params

	// Now is the clock; injectable so tests can pin the calendar date.
	Now func() time.Time
}

// New creates a Controller. A nil recorder falls back to noop.
func New(src pricesource.Source, store statestore.Store, sink notifier.Sink, rec recorder.Recorder, ticker string, params engine.Params) *Controller {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Controller{
		Source:   src,
		Store:    store,
		Sink:     sink,
		Recorder: rec,
		Ticker:   ticker,
		Params:   params,
		Now:      time.Now,
	}
}

// Run executes one full decision cycle and returns its terminal outcome.
// Exactly one of three things happens: a decision is made and persisted, the
// run is a no-op because today is already decided, or a classified error is
// returned with the store untouched beyond logically complete steps.
func (c *Controller) Run(ctx context.Context) (*model.Outcome, error) {
	runID := uuid.NewString()
	today := c.Now()

	state, err := c.loadState(ctx)
	if err != nil && !errors.Is(err, statestore.ErrNotFound) {
		return nil, err
	}

	if state != nil {
		if verr := state.Validate(); verr != nil {
			return nil, verr
		}

		// A pending marker means a prior run decided BUY, persisted it, and
		// then died before finalizing. That buy is already decided: finish
		// its cycle instead of manufacturing a second one.
		if state.Status == model.StatusBoughtPendingAck {
			return c.recoverPendingBuy(ctx, runID, state)
		}

		// Idempotency gate: at most one decision per calendar day. A
		// duplicate trigger replays the prior outcome without touching the
		// price source or the sink.
		if model.SameDay(state.LastDecisionDate, today) {
			log.Printf("[INFO] run %s: %s already decided today (%s), no-op", runID, c.Ticker, state.LastAction)
			return &model.Outcome{
				Action:     model.Action(state.LastAction),
				Reason:     model.ReasonCode(state.LastReason),
				DaysWaited: model.DaysBetween(state.BaselineDate, today),
				NoOp:       true,
			}, nil
		}
	}

	sample, err := c.fetchPrice(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] run %s: %s latest price %s (via %s)", runID, c.Ticker, sample.Price, c.Source.Name())

	if state == nil {
		state = model.NewState(c.Ticker, sample.Price, today)
		log.Printf("[INFO] run %s: no prior state for %s, starting a fresh waiting episode at %s", runID, c.Ticker, sample.Price)
	}

	decision, next, err := engine.Decide(sample.Price, today, state, c.Params)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] run %s: decision %s (%s), threshold %s, waited %d days",
		runID, decision.Action, decision.Reason, decision.ThresholdUsed.StringFixed(4), decision.DaysWaited)

	notified := false
	if decision.Action == model.ActionBuy {
		// Two-phase persist. Phase one records the buy under the pending
		// marker with the prior decision date, so a crash anywhere after
		// this write is recoverable and can never double-announce.
		pending := next.Clone()
		pending.Status = model.StatusBoughtPendingAck
		pending.LastDecisionDate = state.LastDecisionDate
		if err := c.saveState(ctx, pending); err != nil {
			// Nothing was sent yet; the run evaporates and the next trigger
			// recomputes from the old document.
			return nil, err
		}

		notified = c.trySend(ctx, notifier.FormatBuyAlert(c.Ticker, sample.Price, decision))

		if err := c.saveState(ctx, next); err != nil {
			// The buy is durable under the pending marker; the next run
			// finalizes it. Still a completed decision from the caller's
			// point of view.
			log.Printf("[ERROR] run %s: finalize after buy failed, pending marker left for recovery: %v", runID, err)
		}
	} else {
		if err := c.saveState(ctx, next); err != nil {
			return nil, err
		}
	}

	c.recordCycle(&recorder.CycleRecord{
		RunID:      runID,
		Ticker:     c.Ticker,
		Price:      sample.Price.String(),
		Sigma:      decision.Sigma,
		Threshold:  decision.ThresholdUsed.String(),
		DaysWaited: decision.DaysWaited,
		Action:     decision.Action,
		Reason:     decision.Reason,
		Notified:   notified,
	})

	return &model.Outcome{
		Action:     decision.Action,
		Reason:     decision.Reason,
		DaysWaited: decision.DaysWaited,
	}, nil
}

// recoverPendingBuy finishes a half-committed BUY: re-attempt the
// notification, then finalize the document. The threshold logic never reruns
// for that buy, so the baseline resets exactly once.
func (c *Controller) recoverPendingBuy(ctx context.Context, runID string, state *model.InvestmentState) (*model.Outcome, error) {
	log.Printf("[WARN] run %s: found pending buy for %s from %s, finishing that cycle", runID, c.Ticker, state.BaselineDate.Format("2006-01-02"))

	notified := c.trySend(ctx, notifier.FormatRecoveredBuyAlert(state))

	final := state.Clone()
	final.Status = model.StatusWaiting
	// The decision belongs to the day the buy actually happened. A same-day
	// re-trigger then lands on the idempotency gate; a later day decides
	// fresh.
	final.LastDecisionDate = state.BaselineDate
	if err := c.saveState(ctx, final); err != nil {
		return nil, err
	}

	c.recordCycle(&recorder.CycleRecord{
		RunID:     runID,
		Ticker:    c.Ticker,
		Price:     state.BaselinePrice.String(),
		Action:    model.ActionBuy,
		Reason:    model.ReasonCode(state.LastReason),
		Notified:  notified,
		Recovered: true,
	})

	return &model.Outcome{
		Action:    model.ActionBuy,
		Reason:    model.ReasonCode(state.LastReason),
		Recovered: true,
	}, nil
}

// loadState reads the document with a single bounded retry for transient
// failures. ErrNotFound passes through untouched.
func (c *Controller) loadState(ctx context.Context) (*model.InvestmentState, error) {
	state, err := c.Store.Read(ctx, c.Ticker)
	if err != nil && !errors.Is(err, statestore.ErrNotFound) && !errors.Is(err, model.ErrInvalidInput) {
		log.Printf("[WARN] state read failed, retrying once: %v", err)
		state, err = c.Store.Read(ctx, c.Ticker)
	}
	if err != nil {
		if errors.Is(err, statestore.ErrNotFound) || errors.Is(err, model.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read %s: %v", statestore.ErrUnavailable, c.Ticker, err)
	}
	return state, nil
}

func (c *Controller) saveState(ctx context.Context, state *model.InvestmentState) error {
	err := c.Store.Write(ctx, c.Ticker, state)
	if err != nil {
		log.Printf("[WARN] state write failed, retrying once: %v", err)
		err = c.Store.Write(ctx, c.Ticker, state)
	}
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", statestore.ErrUnavailable, c.Ticker, err)
	}
	return nil
}

// fetchPrice gets the latest quote with a single bounded retry. An error or a
// non-positive quote surfaces as ErrUnavailable; the store has not been
// touched yet, so the next scheduled trigger retries cleanly.
func (c *Controller) fetchPrice(ctx context.Context) (model.PriceSample, error) {
	sample, err := c.Source.LatestPrice(ctx, c.Ticker)
	if err != nil {
		log.Printf("[WARN] price fetch failed, retrying once: %v", err)
		sample, err = c.Source.LatestPrice(ctx, c.Ticker)
	}
	if err != nil {
		return model.PriceSample{}, fmt.Errorf("%w: %s: %v", pricesource.ErrUnavailable, c.Ticker, err)
	}
	if !sample.Price.IsPositive() {
		return model.PriceSample{}, fmt.Errorf("%w: %s: non-positive quote %s", pricesource.ErrUnavailable, c.Ticker, sample.Price)
	}
	return sample, nil
}

// trySend delivers a message with one retry. Delivery failure is logged and
// reported in the cycle record but never fails the invocation: by the time a
// send is attempted the decision is already durable.
func (c *Controller) trySend(ctx context.Context, text string) bool {
	err := c.Sink.Send(ctx, text)
	if err != nil {
		log.Printf("[WARN] notification send failed, retrying once: %v", err)
		err = c.Sink.Send(ctx, text)
	}
	if err != nil {
		log.Printf("[ERROR] %v: %v", notifier.ErrDeliveryFailed, err)
		return false
	}
	return true
}

func (c *Controller) recordCycle(rec *recorder.CycleRecord) {
	if err := c.Recorder.RecordCycle(rec); err != nil {
		log.Printf("[ERROR] record cycle: %v", err)
	}
}
