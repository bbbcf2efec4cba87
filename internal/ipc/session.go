package ipc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/appletd/internal/shared/result"
)

// ErrSessionClosed is returned by Call once the session stops taking requests
var ErrSessionClosed = errors.New("ipc: session closed")

// Reply is what the client sees for one Call. Sessions holds one session
// per object the command returned, in declaration order; the caller owns
// them and must Close them.
type Reply struct {
	Result   result.Result
	Data     []byte
	Sessions []*Session
}

type call struct {
	ctx   context.Context
	req   *Request
	reply chan *Reply
}

// Session serves one object for one client. Requests run one at a time in
// arrival order on the session's own goroutine.
type Session struct {
	id      id.SessionID
	object  Object
	service *Service
	client  kernel.ProcessID
	opts    options
	limiter *rate.Limiter
	logger  *zap.Logger

	mu      sync.RWMutex
	closed  bool
	closing atomic.Bool
	calls   chan *call
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewSession starts serving object for the client process
func NewSession(object Object, client kernel.ProcessID, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newSession(object, client, o)
}

func newSession(object Object, client kernel.ProcessID, o options) *Session {
	s := &Session{
		id:      id.NewSessionID(),
		object:  object,
		client:  client,
		opts:    o,
		limiter: o.limiter(),
		calls:   make(chan *call, o.queueDepth),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if object != nil {
		s.service = object.Service()
	}
	s.logger = o.logger.With(
		zap.String("session", s.id.String()),
		zap.String("service", s.ServiceName()),
		zap.Uint64("client_pid", uint64(client)),
	)

	o.observer.SessionOpened(s.ServiceName())
	s.logger.Debug("Session opened")

	go s.serve()
	return s
}

// ID returns the session id
func (s *Session) ID() id.SessionID {
	return s.id
}

// ClientPID returns the process the session was opened for
func (s *Session) ClientPID() kernel.ProcessID {
	return s.client
}

// ServiceName returns the name of the served object's command table
func (s *Session) ServiceName() string {
	if s.service == nil {
		return "none"
	}
	return s.service.Name()
}

// Call sends req and waits for the reply. ctx bounds the wait for a queue
// slot; once accepted the request runs to completion. The returned error
// covers transport failures only, command outcomes are in Reply.Result.
func (s *Session) Call(ctx context.Context, req Request) (*Reply, error) {
	req.ClientPID = s.client

	if s.limiter != nil && !s.limiter.Allow() {
		req.release()
		s.opts.observer.ObserveDispatch(s.ServiceName(), s.commandName(req.Command), ResultRateLimited, 0)
		s.logger.Debug("Request rate limited", zap.Uint32("command", uint32(req.Command)))
		return &Reply{Result: ResultRateLimited}, nil
	}

	c := &call{ctx: ctx, req: &req, reply: make(chan *Reply, 1)}
	if err := s.enqueue(c); err != nil {
		req.release()
		return nil, err
	}
	return <-c.reply, nil
}

func (s *Session) enqueue(c *call) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSessionClosed
	}
	select {
	case s.calls <- c:
		return nil
	case <-s.quit:
		return ErrSessionClosed
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// Close stops the session. Queued requests fail with ResultSessionClosed,
// the request in flight finishes, and the object is closed if it is an
// io.Closer. Close must not be called from a handler running on this
// session.
func (s *Session) Close() {
	s.once.Do(func() {
		s.closing.Store(true)
		close(s.quit)

		s.mu.Lock()
		s.closed = true
		close(s.calls)
		s.mu.Unlock()

		<-s.done
		if s.object != nil {
			closeObject(s.object)
		}

		s.opts.observer.SessionClosed(s.ServiceName())
		s.logger.Debug("Session closed", zap.Duration("age", s.age()))
	})
}

// age is derived from the creation time embedded in the session id
func (s *Session) age() time.Duration {
	created, err := id.Timestamp(s.id.String())
	if err != nil {
		return 0
	}
	return time.Since(created)
}

func (s *Session) serve() {
	defer close(s.done)

	for c := range s.calls {
		if s.closing.Load() {
			c.req.release()
			c.reply <- &Reply{Result: ResultSessionClosed}
			continue
		}
		c.reply <- s.handle(c)
	}
}

func (s *Session) handle(c *call) *Reply {
	ctx := context.WithoutCancel(c.ctx)
	command := s.commandName(c.req.Command)

	start := time.Now()
	var resp *Response
	if s.service == nil {
		c.req.release()
		resp = failure(ResultUnknownCommand)
	} else {
		resp = s.service.Dispatch(ctx, s.object, c.req)
	}
	elapsed := time.Since(start)

	s.opts.observer.ObserveDispatch(s.ServiceName(), command, resp.Result, elapsed)
	s.logDispatch(c.req.Command, command, resp, elapsed)

	reply := &Reply{Result: resp.Result, Data: resp.Data}
	for _, obj := range resp.Objects {
		reply.Sessions = append(reply.Sessions, newSession(obj, s.client, s.opts))
	}
	return reply
}

func (s *Session) logDispatch(cmd CommandID, name string, resp *Response, elapsed time.Duration) {
	fields := []zap.Field{
		zap.Uint32("command", uint32(cmd)),
		zap.String("command_name", name),
		zap.String("result", resp.Result.String()),
		zap.Duration("duration", elapsed),
	}

	switch resp.Result {
	case ResultHandlerPanic:
		s.logger.Error("Handler panicked", append(fields, zap.Any("panic", resp.panicValue))...)
	case ResultUnknownCommand, ResultInvalidRequest:
		s.logger.Warn("Rejected request", fields...)
	default:
		s.logger.Debug("Dispatched request", fields...)
	}
}

func (s *Session) commandName(cmd CommandID) string {
	if s.service == nil {
		return "unknown"
	}
	return s.service.CommandName(cmd)
}
