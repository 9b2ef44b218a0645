package model

import (
	"sync"
	"time"

	"github.com/ekisa-team/awairs/internal/backend"
	"github.com/ekisa-team/awairs/internal/config"
)

// Status is the current loading status of a model.
type Status string

const (
	// StatusUnloaded indicates that the model has not been fetched yet.
	StatusUnloaded Status = "unloaded"

	// StatusLoading indicates that a fetch is in flight.
	StatusLoading Status = "loading"

	// StatusLoaded indicates that the model is held in memory.
	StatusLoaded Status = "loaded"

	// StatusFailed indicates that the last load failed. The next request retries.
	StatusFailed Status = "failed"
)

// Info is a point-in-time view of a model instance.
type Info struct {
	ID       string     `json:"id"`
	URL      string     `json:"url"`
	Status   Status     `json:"status"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Instance is a configured model and, once loaded, its session.
type Instance struct {
	ID     string
	Config config.ModelConfig

	mu       sync.RWMutex
	status   Status
	session  backend.Session
	loadedAt time.Time
	lastErr  error
}

// NewInstance creates an unloaded model instance.
func NewInstance(id string, cfg config.ModelConfig) *Instance {
	return &Instance{
		ID:     id,
		Config: cfg,
		status: StatusUnloaded,
	}
}

// Session returns the loaded session, or nil when the model is not loaded.
func (mi *Instance) Session() backend.Session {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	return mi.session
}

// Status returns the current status.
func (mi *Instance) Status() Status {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	return mi.status
}

// Info returns a snapshot of the instance.
func (mi *Instance) Info() Info {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	info := Info{
		ID:     mi.ID,
		URL:    mi.Config.URL,
		Status: mi.status,
	}
	if mi.status == StatusLoaded {
		loadedAt := mi.loadedAt
		info.LoadedAt = &loadedAt
	}
	if mi.lastErr != nil {
		info.Error = mi.lastErr.Error()
	}

	return info
}

func (mi *Instance) setLoading() {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	mi.status = StatusLoading
}

func (mi *Instance) setLoaded(session backend.Session) {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	mi.status = StatusLoaded
	mi.session = session
	mi.loadedAt = time.Now()
	mi.lastErr = nil
}

func (mi *Instance) setFailed(err error) {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	mi.status = StatusFailed
	mi.lastErr = err
}

// release drops the session and returns it so the caller can close it.
func (mi *Instance) release() backend.Session {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	s := mi.session
	mi.session = nil
	mi.status = StatusUnloaded
	return s
}
