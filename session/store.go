package session

import (
	"crypto/rand"
	"encoding/base64"
	"sort"
	"sync"
	"time"

	"github.com/djdjm-value-shore/smoothoperatormini/core"
	"github.com/djdjm-value-shore/smoothoperatormini/logging"
)

// Session is the identity unit. It becomes fully authenticated once the
// passcode has been verified and a user API key is attached. The key lives
// in memory only and is never persisted.
type Session struct {
	ID               string
	PasscodeVerified bool
	UserAPIKey       string
	CreatedAt        time.Time
	LastAccessed     time.Time
	TTL              time.Duration
}

// Authenticated reports whether both the passcode flag and a user credential
// are present.
func (s *Session) Authenticated() bool {
	return s.PasscodeVerified && s.UserAPIKey != ""
}

// Thread is a conversation-history container owned by a session. SessionID is
// a lookup key, not a live reference: a thread may be created against a
// session identifier that no longer (or never did) resolve.
type Thread struct {
	ID           string
	SessionID    string
	CurrentAgent string
	Messages     []core.Message
	CreatedAt    time.Time
	LastAccessed time.Time
	TTL          time.Duration
}

// Options configure a Store.
type Options struct {
	// SessionTTL is the idle lifetime of a session record.
	SessionTTL time.Duration
	// ThreadTTL is the idle lifetime of a thread record.
	ThreadTTL time.Duration
	// Logger receives store lifecycle events.
	Logger logging.Logger
	// Clock overrides the time source, used by TTL tests.
	Clock func() time.Time
}

// Store holds sessions, threads and per-session notes behind a single mutex.
// The coarse lock makes touch-on-access, eviction and creation linearizable
// per key: a read never observes a half-evicted record and eviction cannot
// race a concurrent touch into resurrecting a deleted entry.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	threads  map[string]*Thread
	notes    map[string]map[string]string

	sessionTTL time.Duration
	threadTTL  time.Duration
	now        func() time.Time
	logger     logging.Logger

	reaperStop chan struct{}
	reaperDone chan struct{}
}

// NewStore constructs an empty store with optional overrides.
func NewStore(optFns ...func(o *Options)) *Store {
	opts := Options{
		SessionTTL: time.Hour,
		ThreadTTL:  2 * time.Hour,
		Logger:     logging.NoOpLogger{},
		Clock:      time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		sessions:   make(map[string]*Session),
		threads:    make(map[string]*Thread),
		notes:      make(map[string]map[string]string),
		sessionTTL: opts.SessionTTL,
		threadTTL:  opts.ThreadTTL,
		now:        opts.Clock,
		logger:     opts.Logger,
	}
}

// newToken returns a URL-safe random identifier with n bytes of entropy.
func newToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure means the process has no usable entropy source.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// CreateSession inserts a fresh session and allocates its note namespace.
// Identifier generation is assumed never to collide (256 bits of entropy).
func (s *Store) CreateSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := &Session{
		ID:           newToken(32),
		CreatedAt:    now,
		LastAccessed: now,
		TTL:          s.sessionTTL,
	}
	s.sessions[sess.ID] = sess
	s.notes[sess.ID] = make(map[string]string)
	s.logger.Debug("store.session.created", "session_id", sess.ID)
	return cloneSession(sess)
}

// GetSession returns a snapshot of the session, refreshing its expiry window.
// An expired session is deleted on sight, together with its notes and owned
// threads, and reported as absent.
func (s *Store) GetSession(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.lookupSessionLocked(id)
	if !ok {
		return nil, false
	}
	return cloneSession(sess), true
}

// DeleteSession removes the session, its note namespace and every thread it
// owns. It reports whether the session existed.
func (s *Store) DeleteSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	s.deleteSessionLocked(id)
	s.logger.Debug("store.session.deleted", "session_id", id)
	return true
}

// SetPasscodeVerified marks the session as passcode-verified, refreshing its
// expiry window. Reports whether the session existed and was not expired.
func (s *Store) SetPasscodeVerified(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.lookupSessionLocked(id)
	if !ok {
		return false
	}
	sess.PasscodeVerified = true
	return true
}

// SetAPIKey attaches the user credential to the session, refreshing its
// expiry window. Reports whether the session existed and was not expired.
func (s *Store) SetAPIKey(id, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.lookupSessionLocked(id)
	if !ok {
		return false
	}
	sess.UserAPIKey = key
	return true
}

// CreateThread inserts a fresh thread linked to sessionID. The session is not
// validated: the linkage is a lookup key recorded for later authorization
// checks and cascade deletion.
func (s *Store) CreateThread(sessionID string) *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	th := &Thread{
		ID:           newToken(16),
		SessionID:    sessionID,
		CreatedAt:    now,
		LastAccessed: now,
		TTL:          s.threadTTL,
	}
	s.threads[th.ID] = th
	s.logger.Debug("store.thread.created", "thread_id", th.ID, "session_id", sessionID)
	return cloneThread(th)
}

// GetThread returns a snapshot of the thread with the same touch-on-access
// and lazy-expiry semantics as GetSession.
func (s *Store) GetThread(id string) (*Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.lookupThreadLocked(id)
	if !ok {
		return nil, false
	}
	return cloneThread(th), true
}

// AppendMessages appends conversation history to the thread, refreshing its
// expiry window. Reports whether the thread existed and was not expired.
func (s *Store) AppendMessages(threadID string, msgs ...core.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.lookupThreadLocked(threadID)
	if !ok {
		return false
	}
	th.Messages = append(th.Messages, msgs...)
	return true
}

// SetCurrentAgent records which agent drives the thread's next turn.
func (s *Store) SetCurrentAgent(threadID, agent string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.lookupThreadLocked(threadID)
	if !ok {
		return false
	}
	th.CurrentAgent = agent
	return true
}

// SaveNote stores note content under a title in the session's namespace. The
// namespace is created on demand so tools keep working for the lifetime of a
// turn even if the session record raced an eviction.
func (s *Store) SaveNote(sessionID, title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.notes[sessionID]
	if !ok {
		ns = make(map[string]string)
		s.notes[sessionID] = ns
	}
	ns[title] = content
	s.logger.Debug("store.note.saved", "session_id", sessionID, "title", title)
}

// GetNote returns the note content stored under title, if any.
func (s *Store) GetNote(sessionID, title string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.notes[sessionID][title]
	return content, ok
}

// NoteTitles lists the session's note titles in lexical order.
func (s *Store) NoteTitles(sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.notes[sessionID]
	titles := make([]string, 0, len(ns))
	for title := range ns {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// HasNotes reports whether a note namespace exists for the session. Exists
// independently of note count; used to verify reaper cleanup.
func (s *Store) HasNotes(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.notes[sessionID]
	return ok
}

// lookupSessionLocked resolves a live session, touching it, or deletes it if
// expired. Caller holds s.mu.
func (s *Store) lookupSessionLocked(id string) (*Session, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(sess.LastAccessed) > sess.TTL {
		s.deleteSessionLocked(id)
		s.logger.Debug("store.session.expired", "session_id", id)
		return nil, false
	}
	sess.LastAccessed = now
	return sess, true
}

// lookupThreadLocked resolves a live thread, touching it, or deletes it if
// expired. Caller holds s.mu.
func (s *Store) lookupThreadLocked(id string) (*Thread, bool) {
	th, ok := s.threads[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(th.LastAccessed) > th.TTL {
		delete(s.threads, id)
		s.logger.Debug("store.thread.expired", "thread_id", id)
		return nil, false
	}
	th.LastAccessed = now
	return th, true
}

// deleteSessionLocked removes the session, its note namespace and its owned
// threads. Caller holds s.mu.
func (s *Store) deleteSessionLocked(id string) {
	delete(s.sessions, id)
	delete(s.notes, id)
	for tid, th := range s.threads {
		if th.SessionID == id {
			delete(s.threads, tid)
		}
	}
}

func cloneSession(s *Session) *Session {
	c := *s
	return &c
}

func cloneThread(t *Thread) *Thread {
	c := *t
	c.Messages = make([]core.Message, len(t.Messages))
	copy(c.Messages, t.Messages)
	return &c
}
