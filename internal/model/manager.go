package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ekisa-team/awairs/internal/backend"
	"github.com/ekisa-team/awairs/internal/config"
	"github.com/ekisa-team/awairs/internal/inference"
	"github.com/ekisa-team/awairs/internal/metrics"
	"github.com/ekisa-team/awairs/internal/source"
)

// StatusListener is notified after a model changes status.
type StatusListener func(id string, status Status)

// Manager lazily loads models on first use and keeps them for the process lifetime.
type Manager struct {
	registry *Registry
	backend  backend.Backend
	fetcher  source.Fetcher
	metrics  *metrics.Collector

	group singleflight.Group

	mu        sync.RWMutex
	listeners []StatusListener
}

// NewManager creates a manager for the models configured in cfg.
// A nil collector disables metrics.
func NewManager(cfg *config.Config, b backend.Backend, f source.Fetcher, m *metrics.Collector) *Manager {
	return &Manager{
		registry: NewRegistry(cfg),
		backend:  b,
		fetcher:  f,
		metrics:  m,
	}
}

// Registry returns the model registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// OnStatusChange registers a listener for status transitions.
func (m *Manager) OnStatusChange(l StatusListener) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listeners = append(m.listeners, l)
}

// Session returns the loaded session of a model, fetching and loading it on
// first use. Concurrent callers share one in-flight load. A failed load is
// reported to every waiter and retried by the next call.
func (m *Manager) Session(ctx context.Context, id string) (backend.Session, error) {
	instance, ok := m.registry.Get(id)
	if !ok {
		return nil, inference.Wrap(inference.KindConfig, "model "+id, ErrNotFound)
	}

	if s := instance.Session(); s != nil {
		return s, nil
	}

	// The load is detached from the caller; every waiter shares its result.
	ch := m.group.DoChan(id, func() (any, error) {
		return m.load(context.WithoutCancel(ctx), instance)
	})

	select {
	case <-ctx.Done():
		return nil, inference.Wrap(inference.KindRuntime, "load model "+id, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(backend.Session), nil
	}
}

func (m *Manager) load(ctx context.Context, instance *Instance) (backend.Session, error) {
	// A previous flight may have completed between the caller's check and DoChan.
	if s := instance.Session(); s != nil {
		return s, nil
	}

	instance.setLoading()
	m.notify(instance.ID, StatusLoading)
	slog.Info("Fetching model", "model_id", instance.ID, "url", instance.Config.URL)

	artifact, err := m.fetcher.Fetch(ctx, instance.Config.URL)
	if err != nil {
		m.countFetch(instance.ID, "error")
		return nil, m.fail(instance, inference.Wrap(inference.KindFetch, "fetch model "+instance.ID, err))
	}
	m.countFetch(instance.ID, "ok")

	session, err := m.backend.Load(ctx, instance.ID, artifact, instance.Config.Options)
	if err != nil {
		return nil, m.fail(instance, inference.Wrap(inference.KindRuntime, "load model "+instance.ID, err))
	}

	instance.setLoaded(session)
	if m.metrics != nil {
		m.metrics.ModelsLoaded.Inc()
	}
	m.notify(instance.ID, StatusLoaded)

	slog.Info("Model loaded", "model_id", instance.ID, "bytes", len(artifact))
	return session, nil
}

func (m *Manager) fail(instance *Instance, err error) error {
	instance.setFailed(err)
	m.notify(instance.ID, StatusFailed)

	slog.Error("Failed to load model", "model_id", instance.ID, "error", err)
	return err
}

// Preload starts background loads for every model configured with preload.
// Failures are logged; the model stays available for lazy loading.
func (m *Manager) Preload(ctx context.Context) {
	for _, instance := range m.registry.List() {
		if !instance.Config.Preload {
			continue
		}

		go func(id string) {
			if _, err := m.Session(ctx, id); err != nil {
				slog.Warn("Model preload failed", "model_id", id, "error", err)
			}
		}(instance.ID)
	}
}

// List returns a snapshot of every model.
func (m *Manager) List() []Info {
	instances := m.registry.List()

	infos := make([]Info, 0, len(instances))
	for _, instance := range instances {
		infos = append(infos, instance.Info())
	}

	return infos
}

// Close releases every loaded session.
func (m *Manager) Close() error {
	var errs []error
	for _, instance := range m.registry.List() {
		s := instance.release()
		if s == nil {
			continue
		}
		if m.metrics != nil {
			m.metrics.ModelsLoaded.Dec()
		}
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close model %s: %w", instance.ID, err))
		}
	}

	return errors.Join(errs...)
}

func (m *Manager) countFetch(id, result string) {
	if m.metrics != nil {
		m.metrics.ModelFetches.WithLabelValues(id, result).Inc()
	}
}

func (m *Manager) notify(id string, status Status) {
	m.mu.RLock()
	listeners := m.listeners
	m.mu.RUnlock()

	for _, l := range listeners {
		l(id, status)
	}
}
