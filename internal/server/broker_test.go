package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/qrhunt/internal/hunt"
)

func TestBrokerRoutesByTopic(t *testing.T) {
	b := NewBroker()
	ctx := context.Background()

	event := b.Subscribe(eventTopic("ev1"))
	team := b.Subscribe(teamTopic("t1"))
	other := b.Subscribe(teamTopic("t2"))

	b.Publish(ctx, hunt.Update{Type: hunt.UpdateTeamAdvanced, EventID: "ev1", TeamID: "t1", Step: 1})

	for _, ch := range []chan []byte{event, team} {
		select {
		case data := <-ch:
			var u hunt.Update
			require.NoError(t, json.Unmarshal(data, &u))
			assert.Equal(t, hunt.UpdateTeamAdvanced, u.Type)
			assert.Equal(t, 1, u.Step)
		case <-time.After(time.Second):
			t.Fatal("expected an update")
		}
	}
	assert.Empty(t, other)

	// Event-wide updates skip team topics.
	b.Publish(ctx, hunt.Update{Type: hunt.UpdateHuntStarted, EventID: "ev1"})
	assert.Len(t, event, 1)
	assert.Empty(t, team)
}

func TestBrokerDropsWhenSubscriberIsSlow(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(eventTopic("ev1"))

	for i := 0; i < 40; i++ {
		b.Publish(context.Background(), hunt.Update{Type: hunt.UpdateDecoyScanned, EventID: "ev1"})
	}
	assert.Len(t, ch, cap(ch))
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(teamTopic("t1"))
	b.Unsubscribe(teamTopic("t1"), ch)

	b.Publish(context.Background(), hunt.Update{Type: hunt.UpdateTeamAdvanced, EventID: "ev1", TeamID: "t1"})
	assert.Empty(t, ch)
	assert.Empty(t, b.subs)
}
