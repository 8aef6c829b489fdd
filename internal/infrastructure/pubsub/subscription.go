package pubsub

import (
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/polling-network/polling-daemon/internal/core/ports"
)

var errMissingTopic = errors.New("missing webhook topic")

// Subscription is the persisted registration of an endpoint for a topic.
// ports.AnyTopic subscribes to every store event.
type Subscription struct {
	ID       string `json:"id"`
	Event    string `json:"event" badgerhold:"index"`
	Endpoint string `json:"endpoint"`
	// Secret signs the bearer token sent along with every notification.
	Secret string `json:"secret"`
	// CreatedAt keeps listings in registration order.
	CreatedAt int64 `json:"createdAt"`
}

type subscriptions []Subscription

func (subs subscriptions) toPortable() []ports.Subscription {
	portable := make([]ports.Subscription, len(subs))
	for i := range subs {
		portable[i] = &subs[i]
	}
	return portable
}

func NewSubscription(topic, endpoint, secret string) (*Subscription, error) {
	if topic == ports.UnspecifiedTopic {
		return nil, errMissingTopic
	}
	if !isHTTPEndpoint(endpoint) {
		return nil, ports.ErrInvalidEndpoint
	}

	return &Subscription{
		ID:        uuid.New().String(),
		Event:     topic,
		Endpoint:  endpoint,
		Secret:    secret,
		CreatedAt: time.Now().UnixNano(),
	}, nil
}

func isHTTPEndpoint(endpoint string) bool {
	u, err := url.ParseRequestURI(endpoint)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func (s *Subscription) Topic() string    { return s.Event }
func (s *Subscription) Id() string       { return s.ID }
func (s *Subscription) NotifyAt() string { return s.Endpoint }
func (s *Subscription) IsSecured() bool  { return s.Secret != "" }
