// Package task implements the Task Engine (C5): the heartbeat loop, the
// task-stream reader, per-task dispatch, chunked model transfer, the
// three result-submission RPCs, and the per-task logging context.
package task

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oklog/run"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/scaleoutsystems/fedn-go-client/internal/config"
	"github.com/scaleoutsystems/fedn-go-client/internal/errs"
	"github.com/scaleoutsystems/fedn-go-client/internal/fednpb"
	"github.com/scaleoutsystems/fedn-go-client/internal/scratch"
	"github.com/scaleoutsystems/fedn-go-client/pkg/metrics"
)

const defaultHeartbeatInterval = 10 * time.Second

// Engine owns the client's runtime loop: one task-stream consumer (T1)
// and one heartbeat ticker (T2), each run as an actor of the run.Group
// that Run blocks on.
type Engine struct {
	connector fednpb.ConnectorClient
	combiner  fednpb.CombinerClient
	models    fednpb.ModelServiceClient
	store     *scratch.Store

	sender Sender

	callbacks Callbacks

	chunkSize int64 // atomic

	heartbeatInterval time.Duration

	log zerolog.Logger

	ctx loggingContext
}

// Sender is the {name, role, client_id} triple every RPC in the spec
// tags its caller with.
type Sender struct {
	Name     string
	ClientID string
}

func (s Sender) toClient() *fednpb.Client {
	return &fednpb.Client{Name: s.Name, Role: fednpb.RoleClient, ClientId: s.ClientID}
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithCallbacks installs the user train/validate/predict functions.
// Unset fields fall back to the identity-ish defaults spec.md §6
// describes.
func WithCallbacks(cb Callbacks) Option {
	return func(e *Engine) { e.callbacks = cb.withDefaults() }
}

// WithHeartbeatInterval overrides defaultHeartbeatInterval.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.heartbeatInterval = d
		}
	}
}

// WithLogger attaches the base logger the engine enriches per task.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// withClients installs the three RPC client stubs: New passes the
// channel-backed ones, tests pass fakes.
func withClients(c fednpb.ConnectorClient, cb fednpb.CombinerClient, m fednpb.ModelServiceClient) Option {
	return func(e *Engine) {
		e.connector = c
		e.combiner = cb
		e.models = m
	}
}

// New builds an Engine bound to conn for RPCs and store for scratch
// files. ctl supplies the sender identity.
func New(conn *grpc.ClientConn, store *scratch.Store, ctl config.ControlPlane, opts ...Option) *Engine {
	opts = append([]Option{
		withClients(fednpb.NewConnectorClient(conn), fednpb.NewCombinerClient(conn), fednpb.NewModelServiceClient(conn)),
	}, opts...)
	return newEngine(store, ctl, opts...)
}

func newEngine(store *scratch.Store, ctl config.ControlPlane, opts ...Option) *Engine {
	e := &Engine{
		store:             store,
		sender:            Sender{Name: ctl.Name, ClientID: ctl.ClientID},
		chunkSize:         scratch.DefaultChunkSize,
		heartbeatInterval: defaultHeartbeatInterval,
		log:               zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.callbacks = e.callbacks.withDefaults()
	return e
}

// SetChunkSize changes the upload chunk size. Safe to call between tasks:
// T1 is idle between tasks (I1), so a single atomic store is sufficient
// against the read upload makes on T1.
func (e *Engine) SetChunkSize(n int) {
	if n > 0 {
		atomic.StoreInt64(&e.chunkSize, int64(n))
	}
}

func (e *Engine) chunkSizeNow() int {
	return int(atomic.LoadInt64(&e.chunkSize))
}

// Run binds the callbacks already installed via WithCallbacks and blocks,
// running the heartbeat actor and the task-stream actor until either
// exits or ctx is canceled.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g run.Group

	g.Add(func() error {
		return e.runHeartbeatLoop(ctx)
	}, func(error) {
		cancel()
	})

	g.Add(func() error {
		return e.runTaskStreamLoop(ctx)
	}, func(error) {
		cancel()
	})

	return g.Run()
}

func (e *Engine) runHeartbeatLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := e.Heartbeat(ctx); err != nil {
				e.log.Warn().Err(err).Msg("heartbeat failed")
			}
		}
	}
}

// Heartbeat issues one SendHeartbeat RPC. Failures are logged by the
// caller and never propagated into the task-stream consumer (spec.md
// §4.5.5).
func (e *Engine) Heartbeat(ctx context.Context) error {
	_, err := e.connector.SendHeartbeat(ctx, &fednpb.Heartbeat{
		Sender: e.sender.toClient(),
	})
	if err != nil {
		metrics.HeartbeatsTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("%w: %v", errs.ErrChannelUnavailable, err)
	}
	metrics.HeartbeatsTotal.WithLabelValues("success").Inc()
	return nil
}

func (e *Engine) runTaskStreamLoop(ctx context.Context) error {
	stream, err := e.connectTaskStream(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrChannelUnavailable, err)
	}

	for {
		req, err := stream.Recv()
		if err != nil {
			return fmt.Errorf("%w: task stream read: %v", errs.ErrChannelUnavailable, err)
		}
		e.dispatch(ctx, req)
	}
}

// connectTaskStream opens the server-streamed TaskStream RPC.
func (e *Engine) connectTaskStream(ctx context.Context) (fednpb.Combiner_TaskStreamClient, error) {
	msg := &fednpb.ClientAvailableMessage{
		Sender: e.sender.toClient(),
	}
	return e.combiner.TaskStream(ctx, msg)
}
