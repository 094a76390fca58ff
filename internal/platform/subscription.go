package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ringbridge/ringbridge/internal/store"
)

// ReceivePath is the public webhook delivery path the subscription points at.
const ReceivePath = "/ringcentral/receive"

// subscriptionExpiresIn keeps the subscription alive effectively forever;
// the process replaces it wholesale rather than renewing in place.
const subscriptionExpiresIn = 500000000

var eventFilters = []string{
	"/restapi/v1.0/glip/posts",
	"/restapi/v1.0/glip/groups",
}

// DeliveryMode describes how the platform delivers subscribed events.
type DeliveryMode struct {
	TransportType string `json:"transportType"`
	Address       string `json:"address"`
}

// Subscription is the platform event subscription that causes webhooks to
// be delivered. One active subscription is meaningful per process; creating
// a new one replaces the previous logical subscription.
type Subscription struct {
	ID           string       `json:"id"`
	EventFilters []string     `json:"eventFilters"`
	DeliveryMode DeliveryMode `json:"deliveryMode"`
	ExpiresIn    int64        `json:"expiresIn"`
}

// SubscriptionManager creates and tracks the event subscription.
type SubscriptionManager struct {
	client      *Client
	redirectURI string
	creds       *store.Store
	log         *slog.Logger

	mu      sync.Mutex
	current *Subscription
}

// NewSubscriptionManager creates a manager delivering to
// redirectURI+ReceivePath. creds may be nil when persistence is disabled.
func NewSubscriptionManager(client *Client, redirectURI string, creds *store.Store) *SubscriptionManager {
	return &SubscriptionManager{
		client:      client,
		redirectURI: strings.TrimRight(redirectURI, "/"),
		creds:       creds,
		log:         slog.Default(),
	}
}

// Create registers the webhook subscription for the two event filters the
// bot cares about. A bot with no subscription never receives events, so
// failure is logged and returned to whatever initiated the call.
func (s *SubscriptionManager) Create(ctx context.Context) (*Subscription, error) {
	req := Subscription{
		EventFilters: eventFilters,
		DeliveryMode: DeliveryMode{
			TransportType: "WebHook",
			Address:       s.redirectURI + ReceivePath,
		},
		ExpiresIn: subscriptionExpiresIn,
	}
	body, err := s.client.Post(ctx, "/restapi/v1.0/subscription", req)
	if err != nil {
		s.log.Error("subscription creation failed", "error", err)
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	var sub Subscription
	if err := json.Unmarshal(body, &sub); err != nil {
		s.log.Error("subscription response malformed", "error", err)
		return nil, fmt.Errorf("parse subscription response: %w", err)
	}
	s.mu.Lock()
	s.current = &sub
	s.mu.Unlock()
	s.log.Info("subscription created", "id", sub.ID)
	if s.creds != nil {
		if err := s.creds.SaveSubscriptionID(sub.ID); err != nil {
			s.log.Warn("failed to persist subscription id", "error", err)
		}
	}
	return &sub, nil
}

// Current returns the tracked active subscription, if any.
func (s *SubscriptionManager) Current() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
