// Package casa wires the client-state components into one service used by the
// CLI.
package casa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/hay-kot/casa/internal/core/config"
	"github.com/hay-kot/casa/internal/core/prefs"
	"github.com/hay-kot/casa/internal/core/push"
	"github.com/hay-kot/casa/internal/core/recent"
	"github.com/hay-kot/casa/internal/core/session"
	"github.com/hay-kot/casa/internal/store/memory"
	"github.com/hay-kot/casa/internal/store/sqlite"
)

var (
	// ErrInvalidPattern is returned when a search filter is not a valid glob.
	ErrInvalidPattern = errors.New("invalid filter pattern")
	// ErrNotObservable is returned by WatchSearches for backends without
	// change notification.
	ErrNotObservable = errors.New("recent backend cannot be watched")
)

// Service orchestrates casa operations.
type Service struct {
	config    *config.Config
	prefs     prefs.Store
	sessions  session.Store
	registrar *push.Registrar
	log       zerolog.Logger
	now       func() time.Time

	db     *sqlite.DB
	memory *memory.Store
	ledger *recent.Ledger
	async  *recent.AsyncPersister
}

// New creates a Service. A nil client disables sending push tokens.
func New(cfg *config.Config, store prefs.Store, client push.Client, log zerolog.Logger) *Service {
	return &Service{
		config:    cfg,
		prefs:     store,
		sessions:  session.NewPrefsStore(store),
		registrar: push.NewRegistrar(store, client, cfg.Push.Platform, log.With().Str("component", "push").Logger()),
		log:       log,
		now:       time.Now,
	}
}

// RecordSearch adds query to the recent searches and returns the updated list.
func (s *Service) RecordSearch(ctx context.Context, query string) ([]string, error) {
	l, err := s.searches(ctx)
	if err != nil {
		return nil, err
	}

	l.Record(ctx, query)
	s.log.Debug().Str("query", query).Int("size", l.Len()).Msg("recorded search")

	return l.List(), nil
}

// RecentSearches returns recent searches, newest first. A non-empty pattern
// keeps only entries matching it as a glob (e.g. "villa*", "*{mare,lago}*").
func (s *Service) RecentSearches(ctx context.Context, pattern string) ([]string, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	l, err := s.searches(ctx)
	if err != nil {
		return nil, err
	}

	entries := l.List()
	if pattern == "" {
		return entries, nil
	}

	matched := make([]string, 0, len(entries))
	for _, e := range entries {
		ok, err := doublestar.Match(pattern, e)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		if ok {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// WatchSearches returns a channel receiving the recent searches after every
// change, nil meaning cleared. Only the memory backend supports it. The
// channel keeps just the newest snapshot; stop closes it.
func (s *Service) WatchSearches(ctx context.Context) (<-chan []string, func(), error) {
	if _, err := s.searches(ctx); err != nil {
		return nil, nil, err
	}
	if s.memory == nil || s.config.Recent.Backend != config.BackendMemory {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotObservable, s.config.Recent.Backend)
	}

	ch, stop := s.memory.Subscribe()
	return ch, stop, nil
}

// ClearSearches removes all recent searches.
func (s *Service) ClearSearches(ctx context.Context) error {
	l, err := s.searches(ctx)
	if err != nil {
		return err
	}

	l.Clear(ctx)
	s.log.Info().Msg("cleared recent searches")
	return nil
}

// Login stores a session and sends any push token cached while logged out.
// A zero ttl means the session does not expire.
func (s *Service) Login(ctx context.Context, userID, accessToken string, ttl time.Duration) (session.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return session.Session{}, fmt.Errorf("user is required")
	}
	if strings.TrimSpace(accessToken) == "" {
		return session.Session{}, fmt.Errorf("access token is required")
	}

	now := s.now()
	sess := session.Session{UserID: userID, AccessToken: accessToken, CreatedAt: now}
	if ttl > 0 {
		sess.ExpiresAt = now.Add(ttl)
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("save session: %w", err)
	}

	if err := s.registrar.Sync(ctx, sess); err != nil {
		s.log.Warn().Err(err).Msg("sync push token after login")
	}

	s.log.Info().Str("user", userID).Msg("logged in")
	return sess, nil
}

// Logout removes the stored session.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.Delete(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CurrentSession returns the stored session. Returns session.ErrNotFound when
// logged out.
func (s *Service) CurrentSession(ctx context.Context) (session.Session, error) {
	return s.sessions.Get(ctx)
}

// RegisterPushToken caches token and sends it when a valid session exists.
func (s *Service) RegisterPushToken(ctx context.Context, token string) error {
	sess, err := s.optionalSession(ctx)
	if err != nil {
		return err
	}
	return s.registrar.Register(ctx, sess, token)
}

// SyncPushToken resends a cached token that has not reached the backend.
func (s *Service) SyncPushToken(ctx context.Context) error {
	sess, err := s.optionalSession(ctx)
	if err != nil {
		return err
	}
	return s.registrar.Sync(ctx, sess)
}

// PushStatus returns the cached push registration.
func (s *Service) PushStatus(ctx context.Context) (push.Registration, error) {
	return s.registrar.Cached(ctx)
}

// Close waits for background writes and sends, then releases the database.
func (s *Service) Close(ctx context.Context) error {
	var errs []error

	if s.async != nil {
		if err := s.async.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush recent searches: %w", err))
		}
	}

	if err := s.registrar.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("wait for push registration: %w", err))
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		s.db = nil
	}

	return errors.Join(errs...)
}

// optionalSession returns the stored session, or the zero session when logged
// out.
func (s *Service) optionalSession(ctx context.Context) (session.Session, error) {
	sess, err := s.sessions.Get(ctx)
	if errors.Is(err, session.ErrNotFound) {
		return session.Session{}, nil
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}
