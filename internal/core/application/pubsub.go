package application

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	"github.com/polling-network/polling-daemon/pkg/stats"
	log "github.com/sirupsen/logrus"
)

const eventQueueSize = 256

// PubSubService manages the webhooks and notifies them of every event
// applied to the store.
type PubSubService interface {
	AddWebhook(ctx context.Context, webhook Webhook) (string, error)
	RemoveWebhook(ctx context.Context, id string) error
	// ListWebhooks returns the webhooks notified for the given event. An
	// empty event lists all of them.
	ListWebhooks(ctx context.Context, event string) ([]WebhookInfo, error)
	// Start subscribes to the store and publishes events until Stop.
	Start(store *Store)
	Stop()
}

type pubsubService struct {
	pubsub  ports.PubSub
	metrics *stats.Metrics

	queue       chan EventMessage
	unsubscribe func()
	wg          sync.WaitGroup
	lock        sync.Mutex
}

func NewPubSubService(
	pubsub ports.PubSub, metrics *stats.Metrics,
) PubSubService {
	if metrics == nil {
		metrics = stats.NewMetrics(nil)
	}
	return &pubsubService{pubsub: pubsub, metrics: metrics}
}

func (s *pubsubService) AddWebhook(
	_ context.Context, webhook Webhook,
) (string, error) {
	if !isValidTopic(webhook.Event) {
		return "", ErrInvalidWebhookEvent
	}
	return s.pubsub.Subscribe(webhook.Event, webhook.Endpoint, webhook.Secret)
}

func (s *pubsubService) RemoveWebhook(_ context.Context, id string) error {
	return s.pubsub.Unsubscribe(id)
}

func (s *pubsubService) ListWebhooks(
	_ context.Context, event string,
) ([]WebhookInfo, error) {
	if event != ports.UnspecifiedTopic && !isValidTopic(event) {
		return nil, ErrInvalidWebhookEvent
	}

	subs := s.pubsub.ListSubscriptionsForTopic(event)
	webhooks := make([]WebhookInfo, 0, len(subs))
	for _, sub := range subs {
		webhooks = append(webhooks, webhookInfoFromSubscription(sub))
	}
	return webhooks, nil
}

func (s *pubsubService) Start(store *Store) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.queue != nil {
		return
	}

	s.queue = make(chan EventMessage, eventQueueSize)
	s.wg.Add(1)
	go s.publishLoop(s.queue)

	queue := s.queue
	s.unsubscribe = store.Subscribe(func(event domain.Event, state domain.State) {
		select {
		case queue <- NewEventMessage(event, state):
		default:
			log.Warnf("webhook queue full, dropped %s event", event.Type())
		}
	})
}

func (s *pubsubService) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.queue == nil {
		return
	}

	s.unsubscribe()
	close(s.queue)
	s.wg.Wait()
	s.queue = nil
}

// publishLoop delivers messages one at a time to preserve the order of
// events.
func (s *pubsubService) publishLoop(queue <-chan EventMessage) {
	defer s.wg.Done()

	for msg := range queue {
		message, err := json.Marshal(msg)
		if err != nil {
			log.WithError(err).Warnf("failed to encode %s event", msg.Event)
			continue
		}

		topic := msg.Event.String()
		if len(s.pubsub.ListSubscriptionsForTopic(topic)) <= 0 {
			continue
		}

		err = s.pubsub.Publish(topic, string(message))
		s.metrics.ObserveWebhookDelivery(err)
		if err != nil {
			log.WithError(err).Warnf("failed to publish %s event", topic)
		}
	}
}

func isValidTopic(topic string) bool {
	if topic == ports.AnyTopic {
		return true
	}
	for _, t := range domain.AllEventTypes {
		if t.String() == topic {
			return true
		}
	}
	return false
}
