package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"huahuacuna/internal/models"
)

// ErrInvalidSession is returned by Set for an empty id or token
var ErrInvalidSession = errors.New("session id and token are required")

// InitResult summarizes a rehydration pass
type InitResult struct {
	Restored  int
	Discarded int
}

// Store is the single source of truth for live sessions. Reads are answered
// from memory; every mutation writes through to Storage first.
type Store struct {
	storage Storage
	sealer  *Sealer
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	// writeMu serializes storage writes with the memory swap that follows
	writeMu sync.Mutex

	once    sync.Once
	ready   atomic.Bool
	result  InitResult
	initErr error
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock overrides time.Now
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store over storage. Nothing is loaded until Initialize.
func NewStore(storage Storage, sealer *Sealer, opts ...StoreOption) *Store {
	s := &Store{
		storage:  storage,
		sealer:   sealer,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a fresh session id
func NewID() string {
	return uuid.NewString()
}

// Ready reports whether Initialize has completed
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// Initialize rehydrates persisted sessions. It runs once; later calls return
// the first result. A storage read failure leaves the store empty but ready.
func (s *Store) Initialize(ctx context.Context) (InitResult, error) {
	s.once.Do(func() {
		defer s.ready.Store(true)
		s.result, s.initErr = s.rehydrate(ctx)
	})
	return s.result, s.initErr
}

// rehydrate holds writeMu from Load until the merge, so Set and Clear issued
// while loading apply after it and are never overwritten by the snapshot.
func (s *Store) rehydrate(ctx context.Context) (InitResult, error) {
	var res InitResult

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	entries, err := s.storage.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load persisted sessions")
		return res, fmt.Errorf("failed to load sessions: %w", err)
	}

	restored := make(map[string]*Session, len(entries))
	for _, entry := range entries {
		sess, err := s.Inspect(entry)
		if err != nil {
			res.Discarded++
			log.Debug().Str("session_id", entry.ID).Err(err).Msg("discarding persisted session")
			if delErr := s.storage.Delete(ctx, entry.ID); delErr != nil {
				log.Warn().Err(delErr).Str("session_id", entry.ID).Msg("failed to delete discarded session")
			}
			continue
		}
		restored[entry.ID] = sess
		res.Restored++
	}

	s.mu.Lock()
	for id, sess := range restored {
		s.sessions[id] = sess
	}
	s.mu.Unlock()

	log.Info().Int("restored", res.Restored).Int("discarded", res.Discarded).Msg("sessions rehydrated")
	return res, nil
}

// Inspect decodes one persisted entry. It fails when either key is missing,
// the token cannot be unsealed or carries no readable expiry, the token has
// expired, or the user blob is not valid JSON.
func (s *Store) Inspect(entry Entry) (*Session, error) {
	sealed, ok := entry.Values[KeyToken]
	if !ok || sealed == "" {
		return nil, fmt.Errorf("missing %s", KeyToken)
	}
	blob, ok := entry.Values[KeyUser]
	if !ok || blob == "" {
		return nil, fmt.Errorf("missing %s", KeyUser)
	}

	token, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, err
	}
	exp, err := DecodeExpiry(token)
	if err != nil {
		return nil, err
	}
	if !s.now().Before(exp) {
		return nil, ErrTokenExpired
	}

	var user models.User
	if err := json.Unmarshal([]byte(blob), &user); err != nil {
		return nil, fmt.Errorf("corrupt %s: %w", KeyUser, err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("corrupt %s: missing id", KeyUser)
	}

	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

// Get returns the live session for id. An expired session is cleared and
// reported absent.
func (s *Store) Get(ctx context.Context, id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if now := s.now(); sess.Expired(now) {
		if _, err := s.clearExpired(ctx, id, now); err != nil {
			log.Warn().Err(err).Str("session_id", id).Msg("failed to clear expired session")
		}
		return nil, false
	}
	cp := *sess
	return &cp, true
}

// Set replaces the session for id. Storage is written first; on error the
// previous session stays in place. A token whose exp has already passed is
// rejected. A token without a readable exp is kept for the life of the process.
func (s *Store) Set(ctx context.Context, id string, user models.User, token string) (*Session, error) {
	if id == "" || token == "" {
		return nil, ErrInvalidSession
	}

	exp, err := DecodeExpiry(token)
	switch {
	case err == nil:
		if !s.now().Before(exp) {
			return nil, ErrTokenExpired
		}
	case errors.Is(err, ErrNoExpiry), errors.Is(err, ErrMalformedToken):
		exp = time.Time{}
	default:
		return nil, err
	}

	blob, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	sealed, err := s.sealer.Seal(token)
	if err != nil {
		return nil, err
	}

	sess := &Session{User: user, Token: token, ExpiresAt: exp}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	entry := Entry{
		ID:        id,
		Values:    map[string]string{KeyToken: sealed, KeyUser: string(blob)},
		ExpiresAt: exp,
	}
	if err := s.storage.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	cp := *sess
	return &cp, nil
}

// Clear removes the session for id from memory and storage. Clearing an
// absent session is a no-op.
func (s *Store) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.remove(ctx, id)
}

// clearExpired removes id only if it is still expired at now
func (s *Store) clearExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || !sess.Expired(now) {
		return false, nil
	}
	return true, s.remove(ctx, id)
}

// remove requires writeMu
func (s *Store) remove(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	if err := s.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete persisted session: %w", err)
	}
	return nil
}

// AuthorizationHeaderValue returns "Bearer <token>" for a live session, or "".
func (s *Store) AuthorizationHeaderValue(ctx context.Context, id string) string {
	sess, ok := s.Get(ctx, id)
	if !ok {
		return ""
	}
	return sess.AuthorizationHeaderValue()
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep clears every expired session and returns how many were removed
func (s *Store) Sweep(ctx context.Context) int {
	now := s.now()

	s.mu.RLock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, id := range expired {
		ok, err := s.clearExpired(ctx, id, now)
		if err != nil {
			log.Warn().Err(err).Str("session_id", id).Msg("failed to sweep session")
			continue
		}
		if ok {
			removed++
		}
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("expired sessions swept")
	}
	return removed
}
