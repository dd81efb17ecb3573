package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ErrKind classifies an evaluation-service failure for the retry protocol.
type ErrKind int

const (
	// KindRateLimited is a quota response, retried after the advertised wait.
	KindRateLimited ErrKind = iota
	// KindTransient is a recoverable network/service failure, retried after
	// the default wait.
	KindTransient
	// KindFatal is a malformed request or auth failure. Never retried.
	KindFatal
)

func (k ErrKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	}
	return "unknown"
}

// CallError is the terminal result of a failed external call.
type CallError struct {
	Kind       ErrKind
	RetryAfter time.Duration // advisory; rate-limited responses only
	Err        error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("ai: %s call error: %v", e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Classify maps an arbitrary error onto the retry taxonomy. Errors already
// wrapped as *CallError pass through unchanged.
func Classify(err error) *CallError {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, reqErr.Error(), err)
	}
	return &CallError{Kind: KindTransient, Err: err}
}

func classifyStatus(status int, msg string, err error) *CallError {
	switch {
	case status == 429:
		wait, _ := parseRetryAfter(msg)
		return &CallError{Kind: KindRateLimited, RetryAfter: wait, Err: err}
	case status == 400 || status == 401 || status == 403 || status == 404:
		return &CallError{Kind: KindFatal, Err: err}
	default:
		return &CallError{Kind: KindTransient, Err: err}
	}
}

// Known shapes of retry hints inside rate-limit payloads, e.g.
// "Please retry in 54.37s" or "retry_delay { seconds: 54 }".
var retryAfterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)s`),
	regexp.MustCompile(`(?i)retry_delay\s*\{\s*seconds:\s*(\d+)`),
	regexp.MustCompile(`(?i)try again in (\d+(?:\.\d+)?)s`),
	regexp.MustCompile(`(?i)\bseconds:\s*(\d+)`),
}

// parseRetryAfter extracts an advertised wait from a rate-limit payload,
// rounded up to whole seconds.
func parseRetryAfter(msg string) (time.Duration, bool) {
	for _, re := range retryAfterPatterns {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		sec, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return time.Duration(math.Ceil(sec)) * time.Second, true
	}
	return 0, false
}

// Retrier wraps every external evaluation/generation call with the shared
// retry protocol: minimum spacing between consecutive calls against a single
// quota, bounded attempts, advertised-wait backoff on rate limits, immediate
// abort on fatal errors.
type Retrier struct {
	MaxAttempts int
	DefaultWait time.Duration
	Margin      time.Duration // safety margin on top of advertised waits
	Limiter     *rate.Limiter
	Sleep       func(context.Context, time.Duration) error // injectable for tests
}

// NewRetrier builds a Retrier enforcing one call per spacing interval.
func NewRetrier(maxAttempts int, spacing, defaultWait, margin time.Duration) *Retrier {
	var lim *rate.Limiter
	if spacing > 0 {
		lim = rate.NewLimiter(rate.Every(spacing), 1)
	}
	return &Retrier{
		MaxAttempts: maxAttempts,
		DefaultWait: defaultWait,
		Margin:      margin,
		Limiter:     lim,
	}
}

// Do runs fn under the retry protocol and returns nil or a *CallError.
func (r *Retrier) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	var ce *CallError
	for attempt := 1; attempt <= attempts; attempt++ {
		if r.Limiter != nil {
			if err := r.Limiter.Wait(ctx); err != nil {
				return err
			}
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		ce = Classify(err)
		if ce.Kind == KindFatal {
			slog.Error("ai: fatal call error", "op", op, "error", err)
			return ce
		}
		if attempt == attempts {
			break
		}
		wait := r.DefaultWait
		if ce.Kind == KindRateLimited && ce.RetryAfter > 0 {
			wait = ce.RetryAfter + r.Margin
		}
		slog.Warn("ai: call failed, backing off",
			"op", op, "attempt", attempt, "kind", ce.Kind.String(), "wait", wait, "error", err)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	slog.Error("ai: attempts exhausted", "op", op, "attempts", attempts, "error", ce)
	return ce
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
