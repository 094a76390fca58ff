package platform

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ringbridge/ringbridge/internal/config"
	"github.com/ringbridge/ringbridge/internal/identity"
	"github.com/ringbridge/ringbridge/internal/store"
)

// preProvisionedExpiresIn is the effective lifetime assigned to directly
// injected tokens, matching the subscription horizon.
const preProvisionedExpiresIn = 500000000

// TokenInfo is the token-exchange result echoed back to the OAuth caller.
type TokenInfo struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// CompletionFunc is invoked once the authorization flow finishes: with the
// raw access token on success, or with the error and no token on failure.
type CompletionFunc func(accessToken string, err error)

// OAuthManager performs the authorization-code exchange, installs the
// resulting credential on the shared client, and resolves the bot identity.
type OAuthManager struct {
	client   *Client
	ids      *identity.Tracker
	subs     *SubscriptionManager
	creds    *store.Store
	oauth    oauth2.Config
	complete CompletionFunc
	log      *slog.Logger
}

// NewOAuthManager wires the authorization lifecycle. subs and creds may be
// nil; identity resolution then remains the only post-exchange step.
func NewOAuthManager(cfg config.PlatformConfig, client *Client, ids *identity.Tracker, subs *SubscriptionManager, creds *store.Store) *OAuthManager {
	apiRoot := strings.TrimRight(cfg.APIRoot, "/")
	return &OAuthManager{
		client: client,
		ids:    ids,
		subs:   subs,
		creds:  creds,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  strings.TrimRight(cfg.RedirectURI, "/") + "/oauth",
			Endpoint: oauth2.Endpoint{
				AuthURL:   apiRoot + "/restapi/oauth/authorize",
				TokenURL:  apiRoot + "/restapi/oauth/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		log: slog.Default(),
	}
}

// OnComplete registers the completion callback for the code flow.
func (m *OAuthManager) OnComplete(fn CompletionFunc) {
	m.complete = fn
}

// AuthorizeURL builds the URL an operator visits to grant the bot access.
func (m *OAuthManager) AuthorizeURL(state string) string {
	return m.oauth.AuthCodeURL(state)
}

// Authorize exchanges a one-time authorization code for an access token,
// installs it, resolves the bot identity, and creates the event
// subscription. The returned TokenInfo is what the HTTP caller sees.
//
// Identity resolution failure is not fatal here: the bot can still receive
// raw webhooks, only self-message filtering degrades. Subscription failure
// is reported through the completion callback, since a bot with no
// subscription never receives events.
func (m *OAuthManager) Authorize(ctx context.Context, code string) (*TokenInfo, error) {
	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		m.log.Error("token exchange failed", "error", err)
		m.notify("", err)
		return nil, err
	}
	info := tokenInfo(tok)
	m.install(*info)

	if err := m.ResolveIdentity(ctx); err != nil {
		m.log.Error("bot identity unresolved after authorization", "error", err)
	}
	if m.subs != nil {
		if _, err := m.subs.Create(ctx); err != nil {
			m.notify(info.AccessToken, err)
			return info, nil
		}
	}
	m.notify(info.AccessToken, nil)
	return info, nil
}

// PreProvision installs a supplied token directly, skipping the code
// exchange, then resolves the bot identity. No subscription is created;
// that becomes the caller's responsibility.
func (m *OAuthManager) PreProvision(ctx context.Context, accessToken string) error {
	m.install(TokenInfo{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   preProvisionedExpiresIn,
	})
	return m.ResolveIdentity(ctx)
}

// extensionInfo is the platform's self-account-info response.
type extensionInfo struct {
	ID      json.Number `json:"id"`
	Contact struct {
		FirstName string `json:"firstName"`
	} `json:"contact"`
}

// ResolveIdentity calls the platform's self-account-info endpoint and
// records the bot's id and display name. On failure the error is logged and
// returned; the caller decides whether that is fatal.
func (m *OAuthManager) ResolveIdentity(ctx context.Context) error {
	body, err := m.client.Get(ctx, "/restapi/v1.0/account/~/extension/~")
	if err != nil {
		m.log.Error("identity resolution failed", "error", err)
		return err
	}
	var ext extensionInfo
	if err := json.Unmarshal(body, &ext); err != nil {
		m.log.Error("identity response malformed", "error", err)
		return err
	}
	m.ids.Set(identity.BotIdentity{
		ID:   ext.ID.String(),
		Name: ext.Contact.FirstName,
	})
	m.log.Info("bot identity resolved", "id", ext.ID.String(), "name", ext.Contact.FirstName)
	return nil
}

func (m *OAuthManager) install(info TokenInfo) {
	m.client.SetCredential(Credential{
		AccessToken: info.AccessToken,
		TokenType:   info.TokenType,
		ExpiresIn:   info.ExpiresIn,
	})
	if m.creds != nil {
		cred := store.Credential{
			AccessToken: info.AccessToken,
			TokenType:   info.TokenType,
		}
		if info.ExpiresIn > 0 {
			cred.ExpiresAt = time.Now().UTC().Add(time.Duration(info.ExpiresIn) * time.Second)
		}
		if err := m.creds.Save(cred); err != nil {
			m.log.Warn("failed to persist credential", "error", err)
		}
	}
}

func (m *OAuthManager) notify(token string, err error) {
	if m.complete != nil {
		m.complete(token, err)
	}
}

func tokenInfo(tok *oauth2.Token) *TokenInfo {
	info := &TokenInfo{
		AccessToken: tok.AccessToken,
		TokenType:   tok.Type(),
	}
	if v, ok := tok.Extra("expires_in").(float64); ok && v > 0 {
		info.ExpiresIn = int64(v)
	} else if !tok.Expiry.IsZero() {
		info.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	return info
}
