package services

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/scuciatto/paperballspoker/internal/models"
)

// DefaultSessionName is used when a session is created without a name.
const DefaultSessionName = "Poker Planning Session"

var ErrSessionNotFound = errors.New("session not found")

// Registry is the single in-process authority mapping session id to
// session. Nothing is persisted: sessions live and die with the process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*models.Session),
	}
}

// Create stores a new empty session under a fresh UUID. The id doubles
// as the capability token for joining, so it must not be guessable.
func (r *Registry) Create(name string) *models.Session {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSessionName
	}

	session := models.NewSession(uuid.NewString(), name)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return session
}

// Get is a pure lookup; a miss never creates state.
func (r *Registry) Get(id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DisposeIfEmpty removes the session iff it has no participants left.
// Returns true when the session was removed. An emptied session is gone
// for good; the id is never reused.
func (r *Registry) DisposeIfEmpty(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || !session.IsEmpty() {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
