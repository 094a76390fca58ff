// Package config provides configuration types and loading for ringbridge.
package config

import "errors"

// Config is the root configuration struct.
// Top-level groups: Platform, Gateway, Store.
type Config struct {
	Platform PlatformConfig `json:"platform"`
	Gateway  GatewayConfig  `json:"gateway"`
	Store    StoreConfig    `json:"store"`
}

// ---------------------------------------------------------------------------
// Platform – RingCentral application credentials and endpoints
// ---------------------------------------------------------------------------

// PlatformConfig holds the RingCentral app credentials and endpoints.
// AccessToken and SubscriptionID start empty and are set once authorization
// completes; everything else is immutable after setup.
type PlatformConfig struct {
	ClientID     string `json:"clientId" envconfig:"CLIENT_ID"`
	ClientSecret string `json:"clientSecret" envconfig:"CLIENT_SECRET"`
	APIRoot      string `json:"apiRoot" envconfig:"API_ROOT"`
	RedirectURI  string `json:"redirectUri" envconfig:"REDIRECT_URI"`
	// AccessToken, when set, selects the pre-provisioned flow: the token is
	// installed directly and no OAuth code exchange takes place.
	AccessToken    string `json:"accessToken,omitempty" envconfig:"ACCESS_TOKEN"`
	SubscriptionID string `json:"subscriptionId,omitempty" envconfig:"SUBSCRIPTION_ID"`
	// IncomingWebhookURL is the optional relay target for SendWebhook.
	IncomingWebhookURL string `json:"incomingWebhookUrl,omitempty" envconfig:"INCOMING_WEBHOOK_URL"`
}

// ---------------------------------------------------------------------------
// Gateway – HTTP server networking
// ---------------------------------------------------------------------------

// GatewayConfig contains webhook gateway server settings.
type GatewayConfig struct {
	Host string `json:"host" envconfig:"HOST"`
	Port int    `json:"port" envconfig:"PORT"`
}

// ---------------------------------------------------------------------------
// Store – credential persistence
// ---------------------------------------------------------------------------

// StoreConfig contains credential store settings.
type StoreConfig struct {
	Path string `json:"path" envconfig:"PATH"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			APIRoot: "https://platform.ringcentral.com",
		},
		Gateway: GatewayConfig{
			Host: "127.0.0.1", // Secure default
			Port: 18995,
		},
		Store: StoreConfig{
			Path: "~/.ringbridge/credentials.db",
		},
	}
}

// Validate fails fast on configuration errors, before any network activity.
func (c *Config) Validate() error {
	if c.Platform.ClientID == "" || c.Platform.ClientSecret == "" {
		return errors.New("missing oauth config details: clientId and clientSecret are required")
	}
	if c.Platform.APIRoot == "" {
		return errors.New("apiRoot is required")
	}
	if c.Platform.AccessToken == "" && c.Platform.RedirectURI == "" {
		return errors.New("redirectUri is required for the authorization-code flow")
	}
	return nil
}
