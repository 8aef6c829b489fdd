package ports

import "errors"

const AnyTopic = "*"
const UnspecifiedTopic = ""

var (
	ErrSubscriptionNotFound = errors.New("webhook not found")
	ErrInvalidEndpoint      = errors.New("invalid webhook endpoint, must be a valid http URL")
)

type Subscription interface {
	Topic() string
	Id() string
	IsSecured() bool
	NotifyAt() string
}

// PubSub defines the methods of a webhook based pubsub service.
type PubSub interface {
	// Subscribe adds a new subscription for the requested topic.
	Subscribe(topic, endpoint, secret string) (string, error)
	// Unsubscribe removes the subscription with the given id.
	Unsubscribe(id string) error
	// ListSubscriptionsForTopic returns the info of all clients subscribed for
	// a certain topic, including those subscribed for any topic.
	ListSubscriptionsForTopic(topic string) []Subscription
	// Publish publishes a message for a certain topic. All clients subscribed
	// for such topic will receive the message.
	Publish(topic string, message string) error
	Close() error
}
