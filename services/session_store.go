package services

import (
	"context"
	"sync"
	"time"

	"github/itish2003/pdfquery/models"
	"github/itish2003/pdfquery/views"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session is one browser page: its own gate and the view the page renders.
type Session struct {
	ID   string
	View *views.WebView
	Gate *UploadGate

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns when the session was last created or looked up.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Snapshot combines the gate state with what the view shows. A pending
// notice is handed out once.
func (s *Session) Snapshot() models.SessionSnapshot {
	snap := s.View.Snapshot()
	snap.Notice = s.View.TakeNotice()
	snap.ID = s.ID
	snap.State = s.Gate.State()
	snap.LastSeen = s.LastSeen()
	return snap
}

// SessionStore keeps the sessions of the web front-end.
type SessionStore struct {
	service PDFService
	logger  logrus.FieldLogger
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore creates a store whose sessions expire after ttl of inactivity.
func NewSessionStore(service PDFService, ttl time.Duration, logger logrus.FieldLogger) *SessionStore {
	return &SessionStore{
		service:  service,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session with a fresh, closed gate.
func (st *SessionStore) Create() *Session {
	id := uuid.New().String()
	view := views.NewWebView()
	sess := &Session{
		ID:       id,
		View:     view,
		Gate:     NewUploadGate(st.service, view, st.logger.WithField("session", id)),
		lastSeen: st.now(),
	}

	st.mu.Lock()
	st.sessions[id] = sess
	st.mu.Unlock()

	st.logger.WithField("session", id).Debug("SESSIONS: Created session")
	return sess
}

// Get looks up a session and marks it as active.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil, false
	}
	sess.touch(st.now())
	return sess, true
}

// Delete removes a session. It reports whether the session existed.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Prune drops sessions idle for longer than the ttl and returns how many
// were removed.
func (st *SessionStore) Prune(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sess := range st.sessions {
		if now.Sub(sess.LastSeen()) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Run prunes every interval until ctx is cancelled.
func (st *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := st.Prune(st.now()); n > 0 {
				st.logger.WithField("removed", n).Info("SESSIONS: Pruned idle sessions")
			}
		case <-ctx.Done():
			st.logger.Debug("SESSIONS: Context cancelled, stopping pruner.")
			return
		}
	}
}
