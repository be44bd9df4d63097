package ocr

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultAttempts        = 3
	DefaultInitialInterval = time.Second
	DefaultMaxInterval     = 10 * time.Second
)

// Retrying retries a transcriber with exponential backoff. Once every attempt
// has failed it gives up with empty text and a nil error, so a bad photo
// yields an empty transcript instead of a failed run.
type Retrying struct {
	next   Transcriber
	logger *log.Logger

	Attempts        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func NewRetrying(next Transcriber, logger *log.Logger) *Retrying {
	if logger == nil {
		logger = log.Default()
	}
	return &Retrying{
		next:            next,
		logger:          logger,
		Attempts:        DefaultAttempts,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
	}
}

func (r *Retrying) Transcribe(ctx context.Context, imageB64 string) (string, error) {
	var text string
	op := func() error {
		t, err := r.next.Transcribe(ctx, imageB64)
		if err != nil {
			return err
		}
		text = t
		return nil
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Printf("[ocr] attempt failed, retrying in %s: %v", wait, err)
	}

	if err := backoff.RetryNotify(op, r.policy(ctx), notify); err != nil {
		r.logger.Printf("[ocr] giving up after %d attempts: %v", r.attempts(), err)
		return "", nil
	}
	return text, nil
}

func (r *Retrying) attempts() int {
	if r.Attempts < 1 {
		return 1
	}
	return r.Attempts
}

func (r *Retrying) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.InitialInterval
	exp.MaxInterval = r.MaxInterval
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.attempts()-1)), ctx)
}
