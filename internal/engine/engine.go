// counterbridge - Counter Event Aggregation & Flush Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/counterbridge

package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/counterbridge/internal/logging"
	"github.com/tomtom215/counterbridge/internal/metrics"
)

// defaultReadErrorBackoff is the default ReadErrorBackoff. The read loop
// retries a failed read at most once per ReadErrorBackoff interval: the
// first failure after a quiet interval is retried at once, and each further
// failure waits until an interval has passed since the previous retry.
const defaultReadErrorBackoff = time.Second

// Config controls the engine's batching, recovery and resilience behavior.
type Config struct {
	MaxWait           time.Duration
	MaxMessages       int64
	RecoveryBatchSize int64
	ReadErrorBackoff  time.Duration

	// Breaker, if non-nil, wraps every provider.Flush call. An open
	// breaker is treated as an immediate total failure without invoking
	// the provider.
	Breaker *gobreaker.CircuitBreaker[FlushResult]
}

func (c Config) withDefaults() Config {
	if c.MaxWait <= 0 {
		c.MaxWait = 500 * time.Millisecond
	}
	if c.MaxMessages <= 0 {
		c.MaxMessages = 1000
	}
	if c.RecoveryBatchSize <= 0 {
		c.RecoveryBatchSize = c.MaxMessages
	}
	if c.ReadErrorBackoff <= 0 {
		c.ReadErrorBackoff = defaultReadErrorBackoff
	}
	return c
}

// Engine is the counter consumer engine: Stream Reader, Event Parser,
// Aggregator and Flush Coordinator composed into one supervised lifecycle.
//
// The read loop and the flush timer run in two goroutines and both trigger
// flushes; flushMu serializes the flushes, and the Aggregator and pending id
// list guard their own state with mutexes. Stop, Stats, Running and the
// provider-delegating Get, GetBatch and Delete are called from other
// goroutines (the supervisor and the admin API) while the loops run.
type Engine struct {
	cfg      Config
	provider Provider
	stream   StreamReader
	bus      *Bus
	log      *logging.EngineLogger

	batchGetter BatchGetter
	initializer Initializer
	closer      Closer
	deleter     Deleter

	agg     *Aggregator
	pending *pendingIDList

	// readBackoff bounds the rate of read-error retries to at most one
	// per ReadErrorBackoff interval, reusing its token for the whole
	// engine lifetime rather than a fresh timer per error.
	readBackoff *rate.Limiter

	flushMu       sync.Mutex
	flushing      bool
	followUpAfter bool

	running atomic.Bool
	wg      sync.WaitGroup
	stopCh  chan struct{}

	eventsProcessed atomic.Uint64
	flushCount      atomic.Uint64
	errorCount      atomic.Uint64
	lastFlushAtNano atomic.Int64
	avgBatchSize    atomic.Int64
}

// New constructs an Engine. Optional Provider capabilities (BatchGetter,
// Initializer, Closer, Deleter) are detected once here via type assertion,
// never re-checked per call.
func New(cfg Config, provider Provider, stream StreamReader) *Engine {
	e := &Engine{
		cfg:      cfg.withDefaults(),
		provider: provider,
		stream:   stream,
		bus:      NewBus(),
		log:      logging.NewEngineLogger(),
		agg:      NewAggregator(),
		pending:  newPendingIDList(),
		stopCh:   make(chan struct{}),
	}
	e.readBackoff = rate.NewLimiter(rate.Every(e.cfg.ReadErrorBackoff), 1)

	if bg, ok := provider.(BatchGetter); ok {
		e.batchGetter = bg
	}
	if init, ok := provider.(Initializer); ok {
		e.initializer = init
	}
	if c, ok := provider.(Closer); ok {
		e.closer = c
	}
	if d, ok := provider.(Deleter); ok {
		e.deleter = d
	}

	return e
}

// Subscribe returns a channel receiving every published Event of kind.
func (e *Engine) Subscribe(kind EventKind) <-chan Event {
	return e.bus.Subscribe(kind)
}

// Running reports whether Start has completed and Stop has not yet been
// called. Used by the admin API's /readyz probe.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Stats returns a point-in-time snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	var lastFlush time.Time
	if nano := e.lastFlushAtNano.Load(); nano != 0 {
		lastFlush = time.Unix(0, nano)
	}
	return Stats{
		EventsProcessed: e.eventsProcessed.Load(),
		FlushCount:      e.flushCount.Load(),
		LastFlushAt:     lastFlush,
		PendingMessages: e.agg.Size(),
		AvgBatchSize:    e.avgBatchSize.Load(),
		ErrorCount:      e.errorCount.Load(),
	}
}

// Start is idempotent: calling it twice invokes provider Initialize exactly
// once. The sequence is: Initialize -> EnsureGroup -> recovery -> mark
// running -> emit started -> spawn read loop -> arm flush timer.
func (e *Engine) Start(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return nil
	}

	if e.initializer != nil {
		if err := e.initializer.Initialize(ctx); err != nil {
			e.running.Store(false)
			return err
		}
	}

	if err := e.stream.EnsureGroup(ctx); err != nil && !errors.Is(err, ErrConsumerGroupExists) {
		e.running.Store(false)
		return err
	}

	if err := e.recover(ctx); err != nil {
		e.running.Store(false)
		return err
	}

	e.log.LogStarted("", "")
	e.bus.Publish(Event{Kind: EventStarted})

	e.wg.Add(2)
	go e.readLoop()
	go e.timerLoop()

	return nil
}

// Stop marks the engine not-running, cancels the flush timer, waits out any
// in-flight flush, performs one final flush, closes the provider if it
// supports it, and closes the log connection. Safe to call even if Start
// failed partway or was never called.
func (e *Engine) Stop(ctx context.Context) error {
	if !e.running.CompareAndSwap(true, false) {
		return nil
	}

	close(e.stopCh)
	e.wg.Wait()

	e.doFlush(ctx)

	if e.closer != nil {
		if err := e.closer.Close(); err != nil {
			e.log.LogTotalFlushFailure(ctx, 0, err)
		}
	}
	if err := e.stream.Close(); err != nil {
		e.log.LogTotalFlushFailure(ctx, 0, err)
	}

	e.log.LogStopped()
	e.bus.Publish(Event{Kind: EventStopped})
	return nil
}

// recover drains the pending-for-this-consumer cursor before live
// consumption begins, then performs one synchronous flush so the in-flight
// set is cleared.
func (e *Engine) recover(ctx context.Context) error {
	recovered := 0
	for {
		entries, err := e.stream.ReadPending(ctx, e.cfg.RecoveryBatchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			break
		}
		for _, entry := range entries {
			e.fold(ctx, entry)
		}
		recovered += len(entries)
		if int64(len(entries)) < e.cfg.RecoveryBatchSize {
			break
		}
	}

	e.log.LogRecovery(ctx, recovered)
	e.bus.Publish(Event{Kind: EventRecovery, Fields: map[string]interface{}{"recoveredCount": recovered}})

	e.doFlush(ctx)
	return nil
}

// readLoop is the engine's single control flow for live consumption: it
// blocks on the log's new-entries cursor, folds each batch, and triggers a
// size-based flush when the Aggregator crosses the threshold.
func (e *Engine) readLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		ctx := context.Background()
		entries, err := e.stream.ReadNew(ctx, e.cfg.MaxMessages, e.cfg.MaxWait)
		if err != nil {
			e.errorCount.Add(1)
			metrics.ErrorsTotal.WithLabelValues("read").Inc()
			e.log.LogReadError(ctx, err)
			e.bus.Publish(Event{Kind: EventError, Message: err.Error()})
			reservation := e.readBackoff.Reserve()
			select {
			case <-time.After(reservation.Delay()):
			case <-e.stopCh:
				reservation.Cancel()
				return
			}
			continue
		}

		metrics.ReadBatchSize.Observe(float64(len(entries)))
		for _, entry := range entries {
			e.fold(ctx, entry)
		}

		if e.agg.Size() >= e.cfg.MaxMessages {
			e.triggerFlush(ctx)
		}
	}
}

// timerLoop fires a time-based flush every MaxWait while the engine runs.
func (e *Engine) timerLoop() {
	defer e.wg.Done()

	timer := time.NewTimer(e.cfg.MaxWait)
	defer timer.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-timer.C:
			if e.agg.Size() > 0 {
				e.triggerFlush(context.Background())
			}
			timer.Reset(e.cfg.MaxWait)
		}
	}
}

// fold parses one log entry and folds it into the Aggregator, or drops it
// with a warning if malformed. Malformed entries are never acknowledged.
func (e *Engine) fold(ctx context.Context, entry LogEntry) {
	event, metadataErr, err := parseEntry(entry.Fields)
	if err != nil {
		metrics.EventsDroppedTotal.WithLabelValues("malformed").Inc()
		e.log.LogMalformedEvent(ctx, entry.ID, entry.Fields)
		e.bus.Publish(Event{Kind: EventWarn, Message: "Dropped malformed event", Fields: map[string]interface{}{
			"entryId": entry.ID,
			"fields":  entry.Fields,
		}})
		return
	}
	if metadataErr != nil {
		e.log.LogMetadataDecodeFailure(ctx, entry.ID, metadataErr)
		e.bus.Publish(Event{Kind: EventWarn, Message: "Metadata decode failed", Fields: map[string]interface{}{
			"entryId": entry.ID,
		}})
	}

	e.agg.Add(event)
	e.pending.add(entry.ID)
	e.eventsProcessed.Add(1)
	metrics.EventsProcessedTotal.Inc()
	e.reportPendingMessages()
}

// reportPendingMessages publishes the Aggregator's current size to the
// counterbridge_pending_messages gauge so operators can observe backpressure
// building up between flushes.
func (e *Engine) reportPendingMessages() {
	metrics.PendingMessages.Set(float64(e.agg.Size()))
}

// triggerFlush requests a flush, coalescing concurrent triggers: if a flush
// is already in progress it records a follow-up request and returns
// without starting a second provider call.
func (e *Engine) triggerFlush(ctx context.Context) {
	e.flushMu.Lock()
	if e.flushing {
		e.followUpAfter = true
		e.flushMu.Unlock()
		return
	}
	e.flushing = true
	e.flushMu.Unlock()

	e.runFlushAndFollowUps(ctx)
}

// runFlushAndFollowUps performs doFlush, then repeats it while a follow-up
// trigger arrived during the in-flight flush and the Aggregator is still
// non-empty, clearing the in-progress flag only once no follow-up remains.
func (e *Engine) runFlushAndFollowUps(ctx context.Context) {
	for {
		e.doFlush(ctx)

		e.flushMu.Lock()
		followUp := e.followUpAfter
		e.followUpAfter = false
		if !followUp || e.agg.Size() == 0 {
			e.flushing = false
			e.flushMu.Unlock()
			return
		}
		e.flushMu.Unlock()
	}
}

// doFlush drains the Aggregator and pending ids, invokes the provider, and
// applies the three possible outcomes per the flush procedure design. It
// is a no-op if the Aggregator is empty at call time.
func (e *Engine) doFlush(ctx context.Context) {
	batch := e.agg.Drain()
	if batch == nil {
		return
	}
	idsToAck := e.pending.drain()

	start := time.Now()
	result, err := e.callProvider(ctx, batch)
	metrics.FlushDurationSeconds.Observe(time.Since(start).Seconds())
	metrics.FlushBatchSize.Observe(float64(len(batch)))

	switch {
	case err != nil:
		e.handleTotalFailure(ctx, batch, idsToAck, err)
	case len(result.Failed) == 0:
		e.handleSuccess(ctx, batch, idsToAck)
	case len(result.Failed) >= len(batch):
		// All scopes failed via FlushResult: per the design notes this is
		// treated as total failure, not partial, to avoid silently
		// acknowledging ids whose data was never durable.
		e.handleTotalFailure(ctx, batch, idsToAck, errors.New("all scopes failed"))
	default:
		e.handlePartialFailure(ctx, result.Failed, idsToAck, len(batch))
	}

	e.reportPendingMessages()
}

// callProvider invokes provider.Flush, optionally through the circuit
// breaker. An open breaker is surfaced as an error, which doFlush treats
// identically to a provider-returned total failure.
func (e *Engine) callProvider(ctx context.Context, batch FlushBatch) (FlushResult, error) {
	if e.cfg.Breaker == nil {
		return e.provider.Flush(ctx, batch)
	}
	metrics.CircuitBreakerState.Set(float64(e.cfg.Breaker.State()))
	return e.cfg.Breaker.Execute(func() (FlushResult, error) {
		return e.provider.Flush(ctx, batch)
	})
}

func (e *Engine) handleSuccess(ctx context.Context, batch FlushBatch, idsToAck []string) {
	if err := e.ack(ctx, idsToAck); err != nil {
		e.log.LogReadError(ctx, err)
	}
	e.recordFlushStats(len(batch))
	metrics.FlushTotal.WithLabelValues("success").Inc()
	e.log.LogFlush(ctx, len(batch), e.flushCount.Load())
	e.bus.Publish(Event{Kind: EventFlush, Fields: map[string]interface{}{
		"scopeCount":  len(batch),
		"flushNumber": e.flushCount.Load(),
	}})
}

func (e *Engine) handlePartialFailure(ctx context.Context, failed FlushBatch, idsToAck []string, totalScopes int) {
	now := time.Now().UnixMilli()
	for scope, delta := range failed {
		e.agg.Add(CounterEvent{Scope: scope, Delta: delta, Timestamp: now})
	}

	if err := e.ack(ctx, idsToAck); err != nil {
		e.log.LogReadError(ctx, err)
	}
	e.recordFlushStats(totalScopes)
	metrics.FlushTotal.WithLabelValues("partial").Inc()
	e.log.LogPartialFlushFailure(ctx, len(failed), totalScopes)
	e.bus.Publish(Event{Kind: EventWarn, Message: "Partial flush failure", Fields: map[string]interface{}{
		"failedScopes": len(failed),
		"totalScopes":  totalScopes,
	}})
}

func (e *Engine) handleTotalFailure(ctx context.Context, batch FlushBatch, idsToAck []string, flushErr error) {
	now := time.Now().UnixMilli()
	for scope, delta := range batch {
		e.agg.Add(CounterEvent{Scope: scope, Delta: delta, Timestamp: now})
	}
	e.pending.prepend(idsToAck)

	e.errorCount.Add(1)
	metrics.ErrorsTotal.WithLabelValues("flush").Inc()
	metrics.FlushTotal.WithLabelValues("total_failure").Inc()
	e.log.LogTotalFlushFailure(ctx, len(batch), flushErr)
	e.bus.Publish(Event{Kind: EventError, Message: flushErr.Error(), Fields: map[string]interface{}{
		"scopeCount": len(batch),
	}})
}

func (e *Engine) recordFlushStats(batchSize int) {
	count := e.flushCount.Add(1)
	e.lastFlushAtNano.Store(time.Now().UnixNano())

	old := e.avgBatchSize.Load()
	newAvg := (old*int64(count-1) + int64(batchSize))
	if count > 0 {
		newAvg = roundDiv(newAvg, int64(count))
	}
	e.avgBatchSize.Store(newAvg)
}

func roundDiv(numerator, denominator int64) int64 {
	if denominator == 0 {
		return 0
	}
	if numerator < 0 {
		return -roundDiv(-numerator, denominator)
	}
	return (numerator + denominator/2) / denominator
}

func (e *Engine) ack(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return e.stream.Ack(ctx, ids)
}

// Get returns the current persisted value for scope, or zero if never
// written.
func (e *Engine) Get(ctx context.Context, scope string) (int64, error) {
	return e.provider.Get(ctx, scope)
}

// GetBatch returns the current persisted values for scopes. It delegates
// to the provider's BatchGetter when available, falling back to parallel
// single-scope Get calls otherwise.
func (e *Engine) GetBatch(ctx context.Context, scopes []string) (map[string]int64, error) {
	if e.batchGetter != nil {
		return e.batchGetter.GetBatch(ctx, scopes)
	}

	type result struct {
		scope string
		value int64
		err   error
	}
	results := make(chan result, len(scopes))
	for _, scope := range scopes {
		go func(scope string) {
			v, err := e.provider.Get(ctx, scope)
			results <- result{scope: scope, value: v, err: err}
		}(scope)
	}

	out := make(map[string]int64, len(scopes))
	var firstErr error
	for range scopes {
		r := <-results
		if r.err != nil && firstErr == nil {
			firstErr = r.err
			continue
		}
		out[r.scope] = r.value
	}
	return out, firstErr
}

// Delete removes scope entirely if the configured Provider supports it.
func (e *Engine) Delete(ctx context.Context, scope string) error {
	if e.deleter == nil {
		return ErrScopeDeleteUnsupported
	}
	return e.deleter.Delete(ctx, scope)
}
