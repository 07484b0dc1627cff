package server

import (
	"encoding/json"
	"sync"

	"github.com/edudesk/gamehost/internal/minigame"
)

// SSEEvent is the payload published to a view's subscribers.
type SSEEvent struct {
	Type                 string                   `json:"type"`
	Score                int                      `json:"score"`
	Lives                int                      `json:"lives"`
	CurrentQuestionIndex int                      `json:"currentQuestionIndex"`
	Result               *minigame.TerminalResult `json:"result,omitempty"`
}

// Broker is an in-process pub/sub for SSE events, keyed by view ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded SSE events for the given view.
func (b *Broker) Subscribe(viewID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[viewID] == nil {
		b.subs[viewID] = make(map[chan []byte]struct{})
	}
	b.subs[viewID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the view's subscribers.
func (b *Broker) Unsubscribe(viewID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[viewID], ch)
	if len(b.subs[viewID]) == 0 {
		delete(b.subs, viewID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given view.
func (b *Broker) Publish(viewID string, event SSEEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[viewID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Observe implements minigame.Observer. Rejections stay out of the host UI.
func (b *Broker) Observe(e minigame.Event) {
	switch e.Type {
	case minigame.EventRejected, minigame.EventDuplicateEnd, minigame.EventOpened:
		return
	}
	b.Publish(e.ViewID, SSEEvent{
		Type:                 string(e.Type),
		Score:                e.Session.Score,
		Lives:                e.Session.Lives,
		CurrentQuestionIndex: e.Session.CurrentQuestionIndex,
		Result:               e.Session.Result,
	})
}

// observers fans a view event out to several observers.
type observers []minigame.Observer

func (o observers) Observe(e minigame.Event) {
	for _, obs := range o {
		obs.Observe(e)
	}
}

// Observers combines observers, skipping nil ones.
func Observers(list ...minigame.Observer) minigame.Observer {
	var out observers
	for _, o := range list {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}
