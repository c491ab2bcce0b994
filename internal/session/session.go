// Package session serializes user intents onto the workflow engine and the saved registry.
//
// Intents are queued on one channel and applied one at a time by Run, so no two collaborator
// calls are ever outstanding together.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resumeflow/internal/analysis"
	"github.com/jonathan/resumeflow/internal/gateway"
	"github.com/jonathan/resumeflow/internal/registry"
	"github.com/jonathan/resumeflow/internal/workflow"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("session closed")

// Snapshot is the state a renderer needs after an intent has been applied.
type Snapshot struct {
	Document workflow.Document
	Catalog  workflow.Catalog
	Records  []analysis.SavedRecord
	Criteria registry.Criteria
	OpenID   string
	Gateway  gateway.State
}

// Result reports one applied intent.
type Result struct {
	Intent   Intent
	Err      error
	Snapshot Snapshot
}

// Options configures a Session.
type Options struct {
	DefaultRole string
	Now         func() time.Time
	// Buffer is the intent queue capacity.
	Buffer int
	// Observer is called from the loop goroutine after every intent.
	Observer func(Result)
}

// Session owns the engine, the registry and the gateway they share.
type Session struct {
	svc      analysis.Service
	gw       *gateway.Gateway
	engine   *workflow.Engine
	registry *registry.Registry
	log      *zap.Logger
	observe  func(Result)
	intents  chan Intent
	done     chan struct{}
}

// New wires a session around svc.
func New(svc analysis.Service, log *zap.Logger, opts Options) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	gw := gateway.New(log)
	reg := registry.New(svc, gw, log)
	eng := workflow.NewEngine(svc, gw, reg, log, workflow.Options{
		DefaultRole: opts.DefaultRole,
		Now:         opts.Now,
	})
	return &Session{
		svc:      svc,
		gw:       gw,
		engine:   eng,
		registry: reg,
		log:      log.Named("session"),
		observe:  opts.Observer,
		intents:  make(chan Intent, opts.Buffer),
		done:     make(chan struct{}),
	}
}

// Engine returns the workflow engine.
func (s *Session) Engine() *workflow.Engine { return s.engine }

// Registry returns the saved registry.
func (s *Session) Registry() *registry.Registry { return s.registry }

// Gateway returns the shared gateway.
func (s *Session) Gateway() *gateway.Gateway { return s.gw }

// Submit queues an intent. It blocks while the queue is full.
func (s *Session) Submit(ctx context.Context, in Intent) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.intents <- in:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting intents. Run drains what is already queued and returns.
// Close must be called once, by the producer.
func (s *Session) Close() {
	close(s.done)
}

// Run applies queued intents until Close or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case in := <-s.intents:
			s.handle(ctx, in)
		case <-s.done:
			for {
				select {
				case in := <-s.intents:
					s.handle(ctx, in)
				default:
					return nil
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) handle(ctx context.Context, in Intent) {
	err := s.Apply(ctx, in)
	if err != nil {
		s.log.Debug("intent failed", zap.String("intent", in.Name()), zap.Error(err))
	}
	if s.observe != nil {
		s.observe(Result{Intent: in, Err: err, Snapshot: s.Snapshot()})
	}
}

// Apply performs one intent synchronously. Callers that do not use Run must not call it
// from more than one goroutine.
func (s *Session) Apply(ctx context.Context, in Intent) error {
	switch in := in.(type) {
	case Bootstrap:
		return s.bootstrap(ctx)
	case SelectFile:
		s.engine.SelectFile(in.File)
		return nil
	case Parse:
		return s.engine.Parse(ctx)
	case RunAnalysis:
		return s.engine.Analyze(ctx, in.Kind)
	case SelectRole:
		return s.engine.SelectJDRole(ctx, in.Role)
	case SetJDText:
		return s.engine.SetJDText(in.Text)
	case Confirm:
		_, err := s.engine.Confirm(ctx)
		return err
	case ClearOutputs:
		s.engine.ClearOutputs()
		return nil
	case ClearEverything:
		_, err := s.engine.ClearEverything(ctx, in.Confirmer)
		return err
	case SetSort:
		return s.registry.SetSort(ctx, in.Key)
	case SetFilter:
		return s.registry.SetFilter(ctx, in.Role)
	case SetCriteria:
		return s.registry.Query(ctx, in.Criteria)
	case ToggleDetail:
		id := s.resolve(in.RecordID)
		source := in.DetailSourceID
		if source == "" {
			if rec, ok := s.registry.Record(id); ok {
				source = rec.QAFilename
			}
		}
		return s.registry.ToggleDetail(ctx, id, source)
	case Download:
		_, err := s.registry.Download(ctx, s.resolve(in.RecordID), in.Dest)
		return err
	case ShowView:
		s.engine.ShowView(in.View)
		if in.View == workflow.ViewSaved {
			return s.registry.Refresh(ctx)
		}
		return nil
	case Inspect:
		return nil
	}
	return fmt.Errorf("unsupported intent %T", in)
}

// resolve accepts a record id or a row number of the saved list. Unknown refs pass
// through so the registry reports them.
func (s *Session) resolve(ref string) string {
	if id, ok := s.registry.Resolve(ref); ok {
		return id
	}
	return ref
}

// bootstrap runs the three startup fetches as one gated call.
func (s *Session) bootstrap(ctx context.Context) error {
	out := gateway.Do(ctx, s.gw, "load startup data", func(ctx context.Context) error {
		roles, err := s.svc.Roles(ctx)
		if err != nil {
			return fmt.Errorf("failed to load job description roles: %w", err)
		}
		jd, err := s.svc.DefaultJD(ctx)
		if err != nil {
			return fmt.Errorf("failed to load default job description: %w", err)
		}
		s.engine.LoadCatalog(roles, jd)
		if err := s.registry.Load(ctx); err != nil {
			return fmt.Errorf("failed to load saved resumes: %w", err)
		}
		return nil
	})
	if !out.OK {
		return out.Err
	}
	s.log.Info("startup data loaded",
		zap.Int("roles", len(s.engine.Catalog().Roles)),
		zap.Int("saved", len(s.registry.Records())),
	)
	return nil
}

// Snapshot captures the current state.
func (s *Session) Snapshot() Snapshot {
	openID, _ := s.registry.OpenID()
	return Snapshot{
		Document: s.engine.Document(),
		Catalog:  s.engine.Catalog(),
		Records:  s.registry.Records(),
		Criteria: s.registry.Criteria(),
		OpenID:   openID,
		Gateway:  s.gw.State(),
	}
}
