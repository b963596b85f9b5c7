// Package sink delivers a run's transaction rows to their destination in
// fixed-size chunks with a pause between chunks.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pennywise-dev/pennywise/internal/logger"
)

// ErrQuotaExceeded is the quota-class delivery failure. It ends the run's
// delivery; rows already sent stay sent.
var ErrQuotaExceeded = errors.New("sink quota exceeded")

// Appender appends rows to a destination in one call.
type Appender interface {
	AppendRows(ctx context.Context, rows [][]string) error
}

// DeliveryError reports the chunk that failed and how many rows were
// delivered before it.
type DeliveryError struct {
	Chunk     int // 1-based
	Delivered int
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering chunk %d (%d rows already delivered): %v", e.Chunk, e.Delivered, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Quota reports whether the failure was quota-class.
func (e *DeliveryError) Quota() bool { return errors.Is(e.Err, ErrQuotaExceeded) }

// Result summarises a delivery.
type Result struct {
	Total     int
	Delivered int
	Chunks    int
}

// Complete reports whether every row was delivered.
func (r Result) Complete() bool { return r.Delivered == r.Total }

// Defaults for chunked delivery.
const (
	DefaultBatchSize = 100
	DefaultDelay     = 2 * time.Second
)

// Uploader splits rows into chunks and hands them to an Appender.
type Uploader struct {
	appender  Appender
	batchSize int
	delay     time.Duration

	// Sleep waits between chunks. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewUploader creates an Uploader. Non-positive sizes fall back to the
// defaults; a negative delay means none.
func NewUploader(a Appender, batchSize int, delay time.Duration) *Uploader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if delay < 0 {
		delay = 0
	}
	return &Uploader{appender: a, batchSize: batchSize, delay: delay, Sleep: sleepCtx}
}

// Deliver sends rows in order. The first failing chunk ends delivery and
// is returned as a *DeliveryError alongside the partial Result.
func (u *Uploader) Deliver(ctx context.Context, rows [][]string) (Result, error) {
	log := logger.FromContext(ctx)
	res := Result{Total: len(rows)}

	for start := 0; start < len(rows); start += u.batchSize {
		if start > 0 && u.delay > 0 {
			if err := u.Sleep(ctx, u.delay); err != nil {
				return res, &DeliveryError{Chunk: res.Chunks + 1, Delivered: res.Delivered, Err: err}
			}
		}

		end := min(start+u.batchSize, len(rows))
		chunk := res.Chunks + 1
		if err := u.appender.AppendRows(ctx, rows[start:end]); err != nil {
			derr := &DeliveryError{Chunk: chunk, Delivered: res.Delivered, Err: err}
			if derr.Quota() {
				log.Error().Err(err).Int("chunk", chunk).Int("delivered", res.Delivered).Msg("quota exceeded, stopping delivery")
			} else {
				log.Error().Err(err).Int("chunk", chunk).Int("delivered", res.Delivered).Msg("delivery failed, stopping")
			}
			return res, derr
		}

		res.Chunks = chunk
		res.Delivered = end
		log.Debug().Int("chunk", chunk).Int("rows", end-start).Msg("chunk delivered")
	}

	log.Info().Int("rows", res.Delivered).Int("chunks", res.Chunks).Msg("delivery complete")
	return res, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
