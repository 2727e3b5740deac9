package query

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dynamori/dynamori/pkg/core"
	"github.com/dynamori/dynamori/pkg/errors"
)

// Rate-limited scan defaults.
const (
	DefaultReadCapacityPerSecond  = 10
	DefaultMaxSleepBetweenPage    = 10 * time.Second
	DefaultMaxConsecutiveFailures = 10
)

// RateLimitOptions tunes the rate-limited scan driver.
type RateLimitOptions struct {
	// ReadCapacityToConsumePerSecond is the capacity budget. It doubles as
	// the page Limit so a page costs at most roughly one second of budget.
	ReadCapacityToConsumePerSecond int32
	// MaxSleepBetweenPage caps the pause computed from consumed capacity.
	MaxSleepBetweenPage time.Duration
	// MaxConsecutiveExceptions aborts the scan once this many RPCs fail in
	// a row.
	MaxConsecutiveExceptions int
	// AllowWithoutConsumedCapacity lets the scan continue when the backend
	// omits ConsumedCapacity; otherwise the driver fails fast rather than
	// scanning unthrottled.
	AllowWithoutConsumedCapacity bool
}

// DefaultRateLimitOptions returns the baseline driver settings.
func DefaultRateLimitOptions() RateLimitOptions {
	return RateLimitOptions{
		ReadCapacityToConsumePerSecond: DefaultReadCapacityPerSecond,
		MaxSleepBetweenPage:            DefaultMaxSleepBetweenPage,
		MaxConsecutiveExceptions:       DefaultMaxConsecutiveFailures,
	}
}

func (o RateLimitOptions) withDefaults() RateLimitOptions {
	if o.ReadCapacityToConsumePerSecond <= 0 {
		o.ReadCapacityToConsumePerSecond = DefaultReadCapacityPerSecond
	}
	if o.MaxSleepBetweenPage <= 0 {
		o.MaxSleepBetweenPage = DefaultMaxSleepBetweenPage
	}
	if o.MaxConsecutiveExceptions <= 0 {
		o.MaxConsecutiveExceptions = DefaultMaxConsecutiveFailures
	}
	return o
}

// RateLimitedScanner drives a scan under a capacity budget: after each page
// it sleeps proportionally to the capacity the page consumed, so sustained
// throughput approximates the budget.
type RateLimitedScanner struct {
	exec         *Executor
	req          *core.CompiledRequest
	opts         RateLimitOptions
	resumeKey    map[string]types.AttributeValue
	sleep        func(context.Context, time.Duration) error
	pagesFetched int
	consecutive  int
	exhausted    bool
}

// NewRateLimitedScanner prepares a scan under the given budget. The request
// is forced to report consumed capacity.
func NewRateLimitedScanner(exec *Executor, req *core.CompiledRequest, opts RateLimitOptions) *RateLimitedScanner {
	req.ReturnConsumedCapacity = core.ReturnConsumedCapacityTotal
	return &RateLimitedScanner{
		exec:  exec,
		req:   req,
		opts:  opts.withDefaults(),
		sleep: sleepWithContext,
	}
}

// Next fetches the next page, pausing beforehand if the previous page spent
// budget. Transient RPC failures are retried up to MaxConsecutiveExceptions
// times; past that the scan aborts with a ScanAbortedError.
func (s *RateLimitedScanner) Next(ctx context.Context) (*core.Page, error) {
	if s.exhausted {
		return nil, errors.ErrIteratorExhausted
	}

	limit := s.opts.ReadCapacityToConsumePerSecond
	for {
		page, err := s.exec.FetchPage(ctx, s.req, s.resumeKey, &limit)
		if err != nil {
			s.consecutive++
			if s.consecutive > s.opts.MaxConsecutiveExceptions {
				s.exhausted = true
				return nil, &errors.ScanAbortedError{
					Err:          err,
					Consecutive:  s.consecutive,
					PagesFetched: s.pagesFetched,
				}
			}
			if serr := s.sleep(ctx, s.backoff()); serr != nil {
				s.exhausted = true
				return nil, serr
			}
			continue
		}

		s.consecutive = 0
		s.pagesFetched++
		s.resumeKey = page.LastEvaluatedKey
		if !page.HasMore() {
			s.exhausted = true
		}

		if err := s.throttle(ctx, page); err != nil {
			s.exhausted = true
			return nil, err
		}
		return page, nil
	}
}

// Run drains the scan, invoking fn for every page.
func (s *RateLimitedScanner) Run(ctx context.Context, fn func(*core.Page) error) error {
	for {
		page, err := s.Next(ctx)
		if err != nil {
			if err == errors.ErrIteratorExhausted {
				return nil
			}
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
	}
}

// PagesFetched returns the number of successful RPCs so far.
func (s *RateLimitedScanner) PagesFetched() int { return s.pagesFetched }

// throttle sleeps proportionally to the page's consumed capacity. A page
// that consumed the whole budget costs one second.
func (s *RateLimitedScanner) throttle(ctx context.Context, page *core.Page) error {
	consumed := page.ConsumedCapacityUnits
	if !page.HasConsumedCapacity {
		if !s.opts.AllowWithoutConsumedCapacity {
			return errors.ErrCapacityUnavailable
		}
		// Backend reports no cost; assume a full budget's worth so the
		// scan still paces itself.
		consumed = float64(s.opts.ReadCapacityToConsumePerSecond)
	}
	if s.exhausted || consumed <= 0 {
		return nil
	}

	pause := time.Duration(consumed / float64(s.opts.ReadCapacityToConsumePerSecond) * float64(time.Second))
	if pause > s.opts.MaxSleepBetweenPage {
		pause = s.opts.MaxSleepBetweenPage
	}
	if pause <= 0 {
		return nil
	}
	return s.sleep(ctx, pause)
}

// backoff is the pause between failed attempts, scaled by the current
// consecutive-failure count and capped like the page pause.
func (s *RateLimitedScanner) backoff() time.Duration {
	pause := time.Duration(s.consecutive) * time.Second
	if pause > s.opts.MaxSleepBetweenPage {
		pause = s.opts.MaxSleepBetweenPage
	}
	return pause
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
