package kds

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(buffer int) (*Hub, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewHub(logger, buffer), hook
}

func receive(t *testing.T, sub *Subscription) Message {
	t.Helper()
	select {
	case msg, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	hub, _ := newTestHub(4)
	assert.NoError(t, hub.Publish(ChannelOrders, map[string]int{"order_id": 1}))
}

func TestPublishDeliversToChannelSubscribers(t *testing.T) {
	hub, _ := newTestHub(4)
	kitchen := hub.Subscribe(ChannelOrders, ChannelStatusUpdates)
	defer kitchen.Close()
	menu := hub.Subscribe(ChannelMenuUpdates)
	defer menu.Close()

	require.NoError(t, hub.Publish(ChannelOrders, map[string]int{"order_id": 42}))

	msg := receive(t, kitchen)
	assert.Equal(t, ChannelOrders, msg.Channel)
	assert.JSONEq(t, `{"order_id":42}`, string(msg.Data))
	assert.False(t, msg.SentAt.IsZero())

	select {
	case <-menu.C():
		t.Fatal("menu subscriber received an order message")
	default:
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub, hook := newTestHub(1)
	sub := hub.Subscribe(ChannelMenuUpdates)
	defer sub.Close()

	require.NoError(t, hub.Publish(ChannelMenuUpdates, "first"))
	require.NoError(t, hub.Publish(ChannelMenuUpdates, "second"))

	assert.Equal(t, uint64(1), sub.Dropped())
	msg := receive(t, sub)
	assert.JSONEq(t, `"first"`, string(msg.Data))

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "dropped") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestPublishRejectsUnencodablePayload(t *testing.T) {
	hub, _ := newTestHub(1)
	err := hub.Publish(ChannelOrders, make(chan int))
	assert.Error(t, err)
}

func TestSubscriptionClose(t *testing.T) {
	hub, _ := newTestHub(1)
	sub := hub.Subscribe(ChannelOrders)
	assert.Equal(t, 1, hub.SubscriberCount(ChannelOrders))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.SubscriberCount(ChannelOrders))
	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestHubClose(t *testing.T) {
	hub, _ := newTestHub(1)
	sub := hub.Subscribe(ChannelOrders)

	hub.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.ErrorIs(t, hub.Publish(ChannelOrders, 1), ErrHubClosed)

	late := hub.Subscribe(ChannelOrders)
	_, ok = <-late.C()
	assert.False(t, ok)
	late.Close()
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	hub, _ := newTestHub(8)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := hub.Subscribe(ChannelStatusUpdates)
			time.Sleep(time.Millisecond)
			sub.Close()
		}()
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.NoError(t, hub.Publish(ChannelStatusUpdates, i*100+j))
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, hub.SubscriberCount(ChannelStatusUpdates))
}

func TestServeClientStreamsMessages(t *testing.T) {
	hub, _ := newTestHub(4)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.ServeClient(conn, ChannelOrders)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(ChannelOrders) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(ChannelOrders, map[string]string{"table_number": "5"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, ChannelOrders, msg.Channel)
	assert.JSONEq(t, `{"table_number":"5"}`, string(msg.Data))

	conn.Close()
	assert.Eventually(t, func() bool {
		return hub.SubscriberCount(ChannelOrders) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
