// Package push propagates the device push token to the backend.
//
// The token is always cached locally first. When the caller's session is
// authenticated the registrar also sends it to the backend in the background;
// otherwise it stays pending until Sync is called after login.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hay-kot/casa/internal/core/prefs"
	"github.com/hay-kot/casa/internal/core/session"
)

// Preference keys owned by the registrar.
const (
	KeyToken          = "push_token"
	KeyInstallationID = "installation_id"
)

var (
	// ErrEmptyToken is returned when registering a blank token.
	ErrEmptyToken = errors.New("push token is empty")
	// ErrNotFound is returned when no token is cached.
	ErrNotFound = errors.New("no push token cached")
)

// Device is what the backend receives when a token is registered.
type Device struct {
	Token          string `json:"token"`
	InstallationID string `json:"installation_id"`
	Platform       string `json:"platform"`
}

// Client sends device registrations to the backend.
type Client interface {
	RegisterDevice(ctx context.Context, accessToken string, device Device) error
}

// Registration is the locally cached token state.
type Registration struct {
	Token     string    `json:"token"`
	Synced    bool      `json:"synced"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Registrar caches push tokens and forwards them to the backend.
type Registrar struct {
	prefs    prefs.Store
	client   Client
	platform string
	log      zerolog.Logger

	now   func() time.Time
	newID func() string

	mu       sync.Mutex // guards read-modify-write of the cached registration
	inflight sync.WaitGroup
}

// NewRegistrar creates a registrar. A nil client caches tokens without ever
// sending them.
func NewRegistrar(p prefs.Store, client Client, platform string, log zerolog.Logger) *Registrar {
	return &Registrar{
		prefs:    p,
		client:   client,
		platform: platform,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Register caches token and, if sess is authenticated, sends it to the
// backend without waiting for the result. Only local caching errors are
// returned.
func (r *Registrar) Register(ctx context.Context, sess session.Session, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}

	r.mu.Lock()
	err := r.store(ctx, Registration{Token: token, UpdatedAt: r.now()})
	r.mu.Unlock()
	if err != nil {
		return err
	}

	if !r.canSend(sess) {
		r.log.Debug().Msg("push token cached until login")
		return nil
	}

	return r.send(ctx, sess, token)
}

// Sync sends a cached token that has not reached the backend yet. It is a
// no-op when nothing is pending or sess is not authenticated.
func (r *Registrar) Sync(ctx context.Context, sess session.Session) error {
	reg, err := r.Cached(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if reg.Synced || !r.canSend(sess) {
		return nil
	}

	return r.send(ctx, sess, reg.Token)
}

// Cached returns the locally cached registration.
func (r *Registrar) Cached(ctx context.Context) (Registration, error) {
	entry, err := r.prefs.Get(ctx, KeyToken)
	if errors.Is(err, prefs.ErrKeyNotFound) {
		return Registration{}, ErrNotFound
	}
	if err != nil {
		return Registration{}, fmt.Errorf("get push token: %w", err)
	}

	var reg Registration
	if err := json.Unmarshal([]byte(entry.Value), &reg); err != nil {
		return Registration{}, fmt.Errorf("decode push token: %w", err)
	}
	return reg, nil
}

// InstallationID returns the ID identifying this installation, creating and
// storing one on first use.
func (r *Registrar) InstallationID(ctx context.Context) (string, error) {
	entry, err := r.prefs.Get(ctx, KeyInstallationID)
	if err == nil {
		return entry.Value, nil
	}
	if !errors.Is(err, prefs.ErrKeyNotFound) {
		return "", fmt.Errorf("get installation id: %w", err)
	}

	id := r.newID()
	if err := r.prefs.Set(ctx, KeyInstallationID, id); err != nil {
		return "", fmt.Errorf("store installation id: %w", err)
	}
	return id, nil
}

// Wait blocks until in-flight sends finish or ctx is done.
func (r *Registrar) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registrar) canSend(sess session.Session) bool {
	return r.client != nil && sess.Authenticated(r.now())
}

func (r *Registrar) send(ctx context.Context, sess session.Session, token string) error {
	id, err := r.InstallationID(ctx)
	if err != nil {
		return err
	}

	device := Device{Token: token, InstallationID: id, Platform: r.platform}

	// Detach from the caller so a finished request doesn't cancel the send.
	sendCtx := context.WithoutCancel(ctx)

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		if err := r.client.RegisterDevice(sendCtx, sess.AccessToken, device); err != nil {
			r.log.Warn().Err(err).Str("user", sess.UserID).Msg("push token registration failed, will retry on sync")
			return
		}

		if err := r.markSynced(sendCtx, token); err != nil {
			r.log.Warn().Err(err).Msg("mark push token synced")
			return
		}

		r.log.Debug().Str("user", sess.UserID).Msg("push token registered")
	}()

	return nil
}

// markSynced flags the cached registration as sent, unless a newer token
// replaced it in the meantime.
func (r *Registrar) markSynced(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.Cached(ctx)
	if err != nil {
		return err
	}
	if reg.Token != token {
		return nil
	}

	reg.Synced = true
	reg.UpdatedAt = r.now()
	return r.store(ctx, reg)
}

func (r *Registrar) store(ctx context.Context, reg Registration) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encode push token: %w", err)
	}
	if err := r.prefs.Set(ctx, KeyToken, string(data)); err != nil {
		return fmt.Errorf("cache push token: %w", err)
	}
	return nil
}
