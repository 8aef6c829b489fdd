package application

import (
	"time"

	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
)

type Webhook struct {
	// Event is the store event type to notify, or "*" for every event.
	Event    string `json:"event"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret,omitempty"`
}

type WebhookInfo struct {
	ID        string `json:"id"`
	Event     string `json:"event"`
	Endpoint  string `json:"endpoint"`
	IsSecured bool   `json:"isSecured"`
}

func webhookInfoFromSubscription(sub ports.Subscription) WebhookInfo {
	return WebhookInfo{
		ID:        sub.Id(),
		Event:     sub.Topic(),
		Endpoint:  sub.NotifyAt(),
		IsSecured: sub.IsSecured(),
	}
}

// EventMessage is the notification published for every event applied to
// the store.
type EventMessage struct {
	Event     domain.EventType `json:"event"`
	Timestamp int64            `json:"timestamp"`
	Payload   domain.Event     `json:"payload"`
	// Account is the state of the account the event refers to, if any.
	Account *domain.Account `json:"account,omitempty"`
}

func NewEventMessage(event domain.Event, state domain.State) EventMessage {
	msg := EventMessage{
		Event:     event.Type(),
		Timestamp: time.Now().Unix(),
		Payload:   event,
	}
	if address := eventAddress(event, state); address != "" {
		if account, ok := state.GetAccount(address); ok {
			msg.Account = &account
		}
	}
	return msg
}

func eventAddress(event domain.Event, state domain.State) string {
	switch e := event.(type) {
	case domain.AccountAdded:
		return e.Account.Address
	case domain.AccountUpdated:
		return e.Update.Address
	case domain.MkrLocked:
		if e.Address == "" {
			return state.ActiveAccount
		}
		return e.Address
	case domain.MkrWithdrawn:
		if e.Address == "" {
			return state.ActiveAccount
		}
		return e.Address
	case domain.ActiveAccountSet:
		return e.Address
	default:
		return ""
	}
}
