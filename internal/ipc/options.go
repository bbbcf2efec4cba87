package ipc

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/shared/result"
)

// Observer receives dispatch and session lifecycle events
type Observer interface {
	ObserveDispatch(service, command string, res result.Result, duration time.Duration)
	SessionOpened(service string)
	SessionClosed(service string)
}

type nopObserver struct{}

func (nopObserver) ObserveDispatch(string, string, result.Result, time.Duration) {}
func (nopObserver) SessionOpened(string)                                         {}
func (nopObserver) SessionClosed(string)                                         {}

// Option configures a Session. Sessions minted from replies inherit the
// options of their parent.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	observer   Observer
	queueDepth int
	rateLimit  rate.Limit
	burst      int
}

const DefaultQueueDepth = 16

func defaultOptions() options {
	return options{
		logger:     zap.NewNop(),
		observer:   nopObserver{},
		queueDepth: DefaultQueueDepth,
	}
}

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver sets the metrics observer
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithQueueDepth bounds the number of requests waiting on a session
func WithQueueDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueDepth = n
		}
	}
}

// WithRateLimit caps each session at rps requests per second with the
// given burst. Requests over the limit fail with ResultRateLimited.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		if rps <= 0 {
			o.rateLimit = 0
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.rateLimit = rate.Limit(rps)
		o.burst = burst
	}
}

func (o options) limiter() *rate.Limiter {
	if o.rateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(o.rateLimit, o.burst)
}
