package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"neurabot/internal/storage"
)

var (
	// ErrUnknownSession is returned for operations targeting an id that is
	// not present in the store.
	ErrUnknownSession = errors.New("unknown session")

	// ErrNothingToExport is returned when an export target has no messages.
	ErrNothingToExport = errors.New("nothing to export")
)

// Storage is the durable layer the store writes through to.
type Storage interface {
	Put(key string, v any) error
	Get(key string, v any) (bool, error)
}

// Store owns all conversation sessions and the active-session pointer.
// Every mutation writes through to durable storage so a restart resumes
// exactly where the user left off.
type Store struct {
	mu       sync.Mutex
	db       Storage
	sessions map[string]*Session
	order    []string // creation order, oldest first
	activeID string
	now      func() time.Time
}

// state is the persisted snapshot of the store.
type state struct {
	Active   string              `json:"active"`
	Order    []string            `json:"order"`
	Sessions map[string]*Session `json:"sessions"`
}

// NewStore creates an empty store writing through db.
func NewStore(db Storage) *Store {
	return &Store{
		db:       db,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Load hydrates the store from durable storage and returns the active
// session. An empty store gets a fresh session; a stale active pointer is
// reassigned to the most recently created session.
func (s *Store) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st state
	found, err := s.db.Get(storage.KeySessions, &st)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	if found && len(st.Sessions) > 0 {
		s.sessions = st.Sessions
		s.order = st.Order
		s.activeID = st.Active

		// Repair the order list for snapshots written before it existed.
		seen := make(map[string]bool, len(s.order))
		for _, id := range s.order {
			seen[id] = true
		}
		for id := range s.sessions {
			if !seen[id] {
				s.order = append(s.order, id)
			}
		}

		if _, ok := s.sessions[s.activeID]; !ok {
			s.activeID = s.sortedLocked()[0].ID
			if err := s.saveLocked(); err != nil {
				return nil, err
			}
		}
		return s.sessions[s.activeID], nil
	}

	sess := s.createLocked()
	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	return sess, nil
}

// Create starts a new session, makes it active, and persists.
func (s *Store) Create() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.createLocked()
	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) createLocked() *Session {
	now := s.now()
	// Bump only the id on a clash; CreatedAt keeps the real time so
	// sessions created in the same instant sort by insertion order.
	id := newSessionID(now)
	for next := now; ; {
		if _, exists := s.sessions[id]; !exists {
			break
		}
		next = next.Add(time.Nanosecond)
		id = newSessionID(next)
	}

	sess := &Session{
		ID:        id,
		Title:     DefaultTitle,
		CreatedAt: now,
		Messages: []Message{{
			Content:   WelcomeMessage,
			Sender:    SenderBot,
			Timestamp: now.Format("15:04"),
		}},
	}
	s.sessions[id] = sess
	s.order = append(s.order, id)
	s.activeID = id
	return sess
}

// Activate switches the active session. Unknown ids are a no-op and
// return false with no error. A storage failure is reported alongside
// true: the switch took effect in memory but did not persist.
func (s *Store) Activate(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false, nil
	}
	s.activeID = id
	return true, s.saveLocked()
}

// Append adds a message to the given session, deriving the title from the
// first user message. It reports whether the title changed. When persist
// is false the write-through is skipped, which callers use for synthetic
// notices that should not survive a restart.
func (s *Store) Append(id, content string, sender Sender, persist bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false, ErrUnknownSession
	}

	sess.Messages = append(sess.Messages, Message{
		Content:   content,
		Sender:    sender,
		Timestamp: s.now().Format("15:04"),
	})

	titleChanged := false
	if sender == SenderUser && sess.HasDefaultTitle() {
		sess.Title = deriveTitle(content)
		titleChanged = true
	}

	if persist {
		if err := s.saveLocked(); err != nil {
			return titleChanged, err
		}
	}
	return titleChanged, nil
}

// Delete removes a session. When the active session is deleted the most
// recently created survivor becomes active; deleting the last session
// creates a fresh one. Returns the resulting active session.
func (s *Store) Delete(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return nil, ErrUnknownSession
	}

	delete(s.sessions, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	if s.activeID == id {
		if len(s.sessions) > 0 {
			s.activeID = s.sortedLocked()[0].ID
		} else {
			s.createLocked()
		}
	}

	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	return s.sessions[s.activeID], nil
}

// ClearAll drops every session and starts over with a single fresh one.
func (s *Store) ClearAll() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*Session)
	s.order = nil
	sess := s.createLocked()
	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	return sess, nil
}

// ClearActive empties the active session's messages. The session record
// and its title survive.
func (s *Store) ClearActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[s.activeID]
	if !ok {
		return ErrUnknownSession
	}
	sess.Messages = nil
	return s.saveLocked()
}

// Export renders a session as plain text: a header line followed by one
// line per message.
func (s *Store) Export(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return "", ErrUnknownSession
	}
	if len(sess.Messages) == 0 {
		return "", ErrNothingToExport
	}

	var b strings.Builder
	fmt.Fprintf(&b, "NeuraBot Chat Export - %s\n", sess.CreatedAt.Format("Jan 2, 2006 15:04"))
	for _, msg := range sess.Messages {
		fmt.Fprintf(&b, "%s (%s): %s\n", msg.Sender, msg.Timestamp, msg.Content)
	}
	return b.String(), nil
}

// ExportActive exports the active session.
func (s *Store) ExportActive() (string, error) {
	s.mu.Lock()
	id := s.activeID
	s.mu.Unlock()
	if id == "" {
		return "", ErrNothingToExport
	}
	return s.Export(id)
}

// Sorted returns sessions newest-first. Sessions sharing a creation time
// keep their insertion order.
func (s *Store) Sorted() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *Store) sortedLocked() []*Session {
	out := make([]*Session, 0, len(s.order))
	for _, id := range s.order {
		if sess, ok := s.sessions[id]; ok {
			out = append(out, sess)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Active returns the active session, or nil when the store is empty.
func (s *Store) Active() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[s.activeID]
}

// ActiveID returns the active session id.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Get looks up a session by id.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Len reports the number of sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) saveLocked() error {
	st := state{
		Active:   s.activeID,
		Order:    s.order,
		Sessions: s.sessions,
	}
	if err := s.db.Put(storage.KeySessions, st); err != nil {
		return fmt.Errorf("failed to persist sessions: %w", err)
	}
	return nil
}
