package application_test

import (
	"encoding/json"
	"testing"

	"github.com/polling-network/polling-daemon/internal/core/application"
	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWebhookManagement(t *testing.T) {
	pubsub := &mockPubSub{}
	pubsub.On("Subscribe", "MKR_LOCKED", "http://localhost/hook", "secret").
		Return("id1", nil)
	pubsub.On("Unsubscribe", "id1").Return(nil)
	pubsub.On("ListSubscriptionsForTopic", "MKR_LOCKED").Return([]ports.Subscription{
		testSubscription{"id1", "MKR_LOCKED", "http://localhost/hook", true},
	})

	svc := application.NewPubSubService(pubsub, nil)

	_, err := svc.AddWebhook(ctx, application.Webhook{Event: "PROPOSAL_CREATED"})
	require.ErrorIs(t, err, application.ErrInvalidWebhookEvent)

	id, err := svc.AddWebhook(ctx, application.Webhook{
		Event:    "MKR_LOCKED",
		Endpoint: "http://localhost/hook",
		Secret:   "secret",
	})
	require.NoError(t, err)
	require.Equal(t, "id1", id)

	hooks, err := svc.ListWebhooks(ctx, "MKR_LOCKED")
	require.NoError(t, err)
	require.Equal(t, []application.WebhookInfo{{
		ID:        "id1",
		Event:     "MKR_LOCKED",
		Endpoint:  "http://localhost/hook",
		IsSecured: true,
	}}, hooks)

	_, err = svc.ListWebhooks(ctx, "UNKNOWN")
	require.ErrorIs(t, err, application.ErrInvalidWebhookEvent)

	require.NoError(t, svc.RemoveWebhook(ctx, "id1"))
	pubsub.AssertExpectations(t)
}

func TestPublishStoreEvents(t *testing.T) {
	var published []application.EventMessage

	pubsub := &mockPubSub{}
	pubsub.On("ListSubscriptionsForTopic", domain.EventAccountAdded.String()).
		Return([]ports.Subscription{testSubscription{id: "id1", topic: ports.AnyTopic}})
	pubsub.On("ListSubscriptionsForTopic", mock.Anything).Return(nil)
	pubsub.On("Publish", domain.EventAccountAdded.String(), mock.Anything).
		Run(func(args mock.Arguments) {
			var msg application.EventMessage
			// Payload is an interface, decode only what the test checks.
			var raw map[string]json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(args.String(1)), &raw))
			require.NoError(t, json.Unmarshal(raw["event"], &msg.Event))
			require.NoError(t, json.Unmarshal(raw["account"], &msg.Account))
			published = append(published, msg)
		}).
		Return(nil)

	store := application.NewStore()
	svc := application.NewPubSubService(pubsub, nil)
	svc.Start(store)

	store.Dispatch(domain.FetchingAccountData{Fetching: true})
	store.Dispatch(domain.AccountAdded{Account: domain.Account{
		Address: "0xf00", MkrBalance: "1",
	}})

	svc.Stop()
	// Not published once stopped.
	store.Dispatch(domain.AccountAdded{Account: domain.Account{Address: "0xbae"}})

	require.Len(t, published, 1)
	require.Equal(t, domain.EventAccountAdded, published[0].Event)
	require.Equal(t, "0xf00", published[0].Account.Address)
	pubsub.AssertNumberOfCalls(t, "Publish", 1)
}
