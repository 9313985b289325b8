// Package services contains the application services that orchestrate the
// domain model against the ports.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/ports"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/aggregates"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/events"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/history"
	pkgerrors "github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/errors"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/observability"
)

// PlanService manages plan documents: persistence, open editing sessions,
// undo/redo and lifecycle events. Each open plan has exactly one Session;
// concurrent requests against the same plan serialize on the session.
type PlanService struct {
	store         ports.PlanStore
	bus           ports.EventBus
	metrics       *observability.Metrics
	logger        *zap.Logger
	autosaveDelay time.Duration
	historyDelay  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewPlanService creates a plan service.
func NewPlanService(
	store ports.PlanStore,
	bus ports.EventBus,
	metrics *observability.Metrics,
	logger *zap.Logger,
	autosaveDelay time.Duration,
	historyPushDelay time.Duration,
) *PlanService {
	return &PlanService{
		store:         store,
		bus:           bus,
		metrics:       metrics,
		logger:        logger,
		autosaveDelay: autosaveDelay,
		historyDelay:  historyPushDelay,
		sessions:      make(map[string]*Session),
	}
}

func sessionKey(ownerID, planKey string) string {
	return fmt.Sprintf("%s/%s", ownerID, planKey)
}

// CreatePlan creates a new plan with a fresh single-page document, persists
// it and opens an editing session for it.
func (s *PlanService) CreatePlan(ctx context.Context, ownerID, name string) (*Session, error) {
	if name == "" {
		name = "Untitled plan"
	}
	planKey := uuid.New().String()
	doc := aggregates.NewDocument()
	data, err := doc.ToJSON()
	if err != nil {
		return nil, err
	}

	record := &ports.PlanRecord{
		Key:       planKey,
		OwnerID:   ownerID,
		Name:      name,
		UpdatedAt: time.Now(),
		Data:      data,
	}
	if err := s.store.Set(ctx, record); err != nil {
		return nil, err
	}

	session := s.newSession(planKey, ownerID, name, doc, data)
	s.mu.Lock()
	s.sessions[sessionKey(ownerID, planKey)] = session
	s.mu.Unlock()

	if err := s.bus.Publish(ctx, events.NewPlanCreated(planKey, ownerID, name, time.Now())); err != nil {
		s.logger.Warn("failed to publish plan created event",
			zap.String("planKey", planKey),
			zap.Error(err))
	}
	s.metrics.IncrementCounter(ctx, "PlanCreated", 1, nil)
	s.logger.Info("plan created",
		zap.String("planKey", planKey),
		zap.String("ownerID", ownerID))

	return session, nil
}

// OpenPlan loads a plan from the store and opens an editing session. If a
// session is already open for the plan it is returned instead.
func (s *PlanService) OpenPlan(ctx context.Context, ownerID, planKey string) (*Session, error) {
	s.mu.Lock()
	if session, ok := s.sessions[sessionKey(ownerID, planKey)]; ok {
		s.mu.Unlock()
		return session, nil
	}
	s.mu.Unlock()

	record, err := s.store.Get(ctx, ownerID, planKey)
	if err != nil {
		return nil, err
	}
	doc, err := aggregates.FromJSON(record.Data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have opened the plan while we were loading.
	if session, ok := s.sessions[sessionKey(ownerID, planKey)]; ok {
		return session, nil
	}
	session := s.newSession(planKey, ownerID, record.Name, doc, record.Data)
	s.sessions[sessionKey(ownerID, planKey)] = session
	return session, nil
}

// Session returns the open session for a plan, or a not-found error.
func (s *PlanService) Session(ownerID, planKey string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionKey(ownerID, planKey)]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("plan session")
	}
	return session, nil
}

// ClosePlan flushes and closes the plan's editing session. Closing a plan
// without an open session is a no-op.
func (s *PlanService) ClosePlan(ctx context.Context, ownerID, planKey string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionKey(ownerID, planKey)]
	delete(s.sessions, sessionKey(ownerID, planKey))
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return session.Close(ctx)
}

// DeletePlan removes a plan from the store. Any open session is discarded
// without a final save so no write lands after the delete.
func (s *PlanService) DeletePlan(ctx context.Context, ownerID, planKey string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionKey(ownerID, planKey)]
	delete(s.sessions, sessionKey(ownerID, planKey))
	s.mu.Unlock()
	if ok {
		session.discard()
	}

	if err := s.store.Delete(ctx, ownerID, planKey); err != nil {
		return err
	}

	if err := s.bus.Publish(ctx, events.NewPlanDeleted(planKey, ownerID, time.Now())); err != nil {
		s.logger.Warn("failed to publish plan deleted event",
			zap.String("planKey", planKey),
			zap.Error(err))
	}
	s.metrics.IncrementCounter(ctx, "PlanDeleted", 1, nil)
	s.logger.Info("plan deleted",
		zap.String("planKey", planKey),
		zap.String("ownerID", ownerID))
	return nil
}

// ListPlans retrieves the plan summaries of an owner.
func (s *PlanService) ListPlans(ctx context.Context, ownerID string) ([]*ports.PlanRecord, error) {
	return s.store.List(ctx, ownerID)
}

// Shutdown closes every open session, flushing pending saves.
func (s *PlanService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		if err := session.Close(ctx); err != nil {
			s.logger.Warn("failed to close session during shutdown",
				zap.String("planKey", session.Key()),
				zap.Error(err))
		}
	}
}

func (s *PlanService) newSession(planKey, ownerID, name string, doc *aggregates.Document, initial []byte) *Session {
	session := &Session{
		svc:     s,
		key:     planKey,
		ownerID: ownerID,
		name:    name,
		doc:     doc,
	}
	session.history = history.NewManager(doc, s.logger, history.WithPushDelay(s.historyDelay))
	session.history.Reset(initial)
	session.save = newSaveDebouncer(session, s.autosaveDelay)
	return session
}
