package kds

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Channels
const (
	ChannelOrders        = "kitchen:orders"
	ChannelStatusUpdates = "kitchen:status_updates"
	ChannelMenuUpdates   = "kitchen:menu_updates"
)

var ErrHubClosed = errors.New("kds hub closed")

// Publisher is implemented by the hub. Delivery is best effort: a publish with
// no subscriber is a no-op and never blocks the caller.
type Publisher interface {
	Publish(channel string, payload interface{}) error
}

// Message is what subscribers receive.
type Message struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
	SentAt  time.Time       `json:"sent_at"`
}

// Hub fans out published messages to subscribers of a channel. Every
// subscriber has a bounded buffer; a message for a full buffer is dropped.
type Hub struct {
	log    *logrus.Logger
	buffer int
	now    func() time.Time

	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewHub(log *logrus.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		log:    log,
		buffer: buffer,
		now:    time.Now,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Publish encodes payload once and hands it to every subscriber of channel.
func (h *Hub) Publish(channel string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", channel, err)
	}
	msg := Message{Channel: channel, Data: data, SentAt: h.now()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}

	delivered := 0
	for sub := range h.subs {
		if !sub.wants(channel) {
			continue
		}
		select {
		case sub.ch <- msg:
			delivered++
		default:
			sub.dropped.Add(1)
			h.log.WithFields(logrus.Fields{
				"channel": channel,
				"dropped": sub.dropped.Load(),
			}).Warn("Subscriber buffer full, message dropped")
		}
	}

	h.log.WithFields(logrus.Fields{
		"channel":   channel,
		"delivered": delivered,
	}).Debug("Message published")
	return nil
}

// Subscribe registers a subscriber for the given channels. The subscription
// must be closed when no longer read.
func (h *Hub) Subscribe(channels ...string) *Subscription {
	sub := &Subscription{
		hub:      h,
		channels: make(map[string]struct{}, len(channels)),
		ch:       make(chan Message, h.buffer),
	}
	for _, c := range channels {
		sub.channels[c] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		sub.closed = true
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// SubscriberCount returns the number of subscribers listening on channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for sub := range h.subs {
		if sub.wants(channel) {
			n++
		}
	}
	return n
}

// Close ends every subscription and makes further publishes fail.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		sub.closed = true
		close(sub.ch)
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.closed {
		return
	}
	delete(h.subs, sub)
	sub.closed = true
	close(sub.ch)
}

type Subscription struct {
	hub      *Hub
	channels map[string]struct{}
	ch       chan Message
	dropped  atomic.Uint64

	// guarded by hub.mu
	closed bool
}

// C returns the delivery channel. It is closed when the subscription or the
// hub is closed.
func (s *Subscription) C() <-chan Message {
	return s.ch
}

func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscription) Close() {
	s.hub.remove(s)
}

func (s *Subscription) wants(channel string) bool {
	_, ok := s.channels[channel]
	return ok
}
