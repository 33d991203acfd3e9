package exam

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/homework/internal/model"
)

// ReapGrace is how long past the exam duration an idle session survives
// before Reap discards it.
const ReapGrace = 15 * time.Minute

// Registry holds the live exam sessions of this process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	duration time.Duration
	now      func() time.Time
}

// NewRegistry creates a registry whose sessions run for d.
func NewRegistry(d time.Duration) *Registry {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Registry{
		sessions: make(map[string]*Session),
		duration: d,
		now:      time.Now,
	}
}

// Create starts a new session on a for the given examinee.
func (r *Registry) Create(a model.Assignment, examineeName, examineeClass string) *Session {
	sess := NewSession(uuid.NewString(), a, examineeName, examineeClass, r.duration, r.now())
	sess.now = r.now
	sess.Start()

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	slog.Info("exam session started",
		"session_id", sess.ID,
		"assignment_id", a.ID,
		"examinee", examineeName,
		"class", examineeClass,
		"duration", r.duration,
	)
	return sess
}

// Get returns the session with the given ID, or nil.
func (r *Registry) Get(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Remove tears a session down and stops its clock.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		sess.Close()
		slog.Info("exam session closed", "session_id", id)
	}
	return ok
}

// IdleLimit is the inactivity after which a session is considered abandoned.
func (r *Registry) IdleLimit() time.Duration {
	return r.duration + ReapGrace
}

// Reap removes sessions with no activity for longer than maxIdle and stops
// their clocks. It returns how many were removed.
func (r *Registry) Reap(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var stale []*Session
	for id, sess := range r.sessions {
		if sess.LastActive().Before(cutoff) {
			stale = append(stale, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range stale {
		sess.Close()
		slog.Info("exam session reaped", "session_id", sess.ID, "examinee", sess.ExamineeName)
	}
	return len(stale)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops every session clock. Used on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
