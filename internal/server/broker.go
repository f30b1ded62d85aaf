package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/playperu/qrhunt/internal/hunt"
)

func teamTopic(teamID string) string   { return "team:" + teamID }
func eventTopic(eventID string) string { return "event:" + eventID }

// Broker is an in-process pub/sub for live hunt updates. Every update is
// delivered to its team topic and to its event topic.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

var _ hunt.Notifier = (*Broker)(nil)

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded updates for topic.
func (b *Broker) Subscribe(topic string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan []byte]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[topic], ch)
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
	b.mu.Unlock()
}

// Publish implements hunt.Notifier.
func (b *Broker) Publish(_ context.Context, u hunt.Update) {
	data, err := json.Marshal(u)
	if err != nil {
		return
	}

	topics := []string{eventTopic(u.EventID)}
	if u.TeamID != "" {
		topics = append(topics, teamTopic(u.TeamID))
	}

	b.mu.RLock()
	for _, topic := range topics {
		for ch := range b.subs[topic] {
			select {
			case ch <- data:
			default:
				// Drop if subscriber is slow.
			}
		}
	}
	b.mu.RUnlock()
}
