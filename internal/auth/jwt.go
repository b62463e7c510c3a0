package auth

import (
	"errors"
	"time"

	"github.com/ingatatech/e-learning-sub003/internal/config"
)

// Manager issues and verifies both token classes.
// Access and refresh tokens are signed with different secrets.
type Manager struct {
	access     *Codec
	refresh    *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, config.ErrMissingSecret
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}

	access, err := NewCodec(cfg.AccessSecret, cfg.Issuer, cfg.Audience)
	if err != nil {
		return nil, err
	}
	refresh, err := NewCodec(cfg.RefreshSecret, cfg.Issuer, cfg.Audience)
	if err != nil {
		return nil, err
	}

	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = config.AccessTokenTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= accessTTL {
		return nil, errors.New("auth: refresh ttl must exceed access ttl")
	}

	return &Manager{
		access:     access,
		refresh:    refresh,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

/* ===================== ISSUE TOKENS ===================== */

// IssuePair mints the token pair created at login.
func (m *Manager) IssuePair(now time.Time, id Identity) (TokenPair, error) {
	access, err := m.IssueAccess(now, id)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.refresh.Encode(id, TokenTypeRefresh, now, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (m *Manager) IssueAccess(now time.Time, id Identity) (string, error) {
	return m.access.Encode(id, TokenTypeAccess, now, m.accessTTL)
}

/* ===================== VERIFY TOKEN ===================== */

func (m *Manager) VerifyAccess(token string, now time.Time) (Claims, error) {
	return m.access.Verify(token, TokenTypeAccess, now)
}

func (m *Manager) VerifyRefresh(token string, now time.Time) (Claims, error) {
	return m.refresh.Verify(token, TokenTypeRefresh, now)
}

// AccessCodec exposes the access-token codec for the session resolver.
func (m *Manager) AccessCodec() *Codec { return m.access }

func (m *Manager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }
