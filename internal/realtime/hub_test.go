package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KATHANJAIN1311/creative-era-event/internal/models"
)

// fakePublisher records publishes; the hub hands them off on a goroutine, so
// access is locked and tests wait on notify.
type fakePublisher struct {
	mu        sync.Mutex
	published []struct {
		eventID string
		event   string
		payload []byte
	}
	notify chan struct{}
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{notify: make(chan struct{}, 16)}
}

func (p *fakePublisher) PublishEventUpdate(eventID, event string, payload []byte) error {
	p.mu.Lock()
	p.published = append(p.published, struct {
		eventID string
		event   string
		payload []byte
	}{eventID, event, payload})
	p.mu.Unlock()
	p.notify <- struct{}{}
	return nil
}

func newTestClient(id, eventID string, buffer int) *Client {
	return &Client{ID: id, EventID: eventID, send: make(chan WSMessage, buffer)}
}

func TestHub_PublishCheckInReachesEventRoomOnly(t *testing.T) {
	pub := newFakePublisher()
	hub := NewHub(zap.NewNop(), pub, nil)

	a := newTestClient("a", "E1", 4)
	b := newTestClient("b", "E1", 4)
	other := newTestClient("c", "E2", 4)
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)

	hub.PublishCheckIn("E1", 7)

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			assert.Equal(t, EventNewCheckin, msg.Event)
			var payload struct {
				EventID        string `json:"event_id"`
				CheckedInCount int    `json:"checked_in_count"`
			}
			require.NoError(t, json.Unmarshal(msg.Data, &payload))
			assert.Equal(t, "E1", payload.EventID)
			assert.Equal(t, 7, payload.CheckedInCount)
		default:
			t.Fatalf("client %s received nothing", c.ID)
		}
	}
	assert.Empty(t, other.send, "E2 watcher must not receive E1 updates")

	select {
	case <-pub.notify:
	case <-time.After(time.Second):
		t.Fatal("redis publish never happened")
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.published, 1)
	assert.Equal(t, "E1", pub.published[0].eventID)
	assert.Equal(t, EventNewCheckin, pub.published[0].event)
}

func TestHub_BroadcastNeverBlocksOnFullBuffer(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	slow := newTestClient("slow", "E1", 1)
	hub.Register(slow)

	// Fill the buffer, then broadcast more; the hub must drop, not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.PublishCheckIn("E1", i)
		}
		close(done)
	}()
	<-done

	assert.Len(t, slow.send, 1, "overflow messages are dropped")
}

// Dashboards connect and drop while check-in broadcasts are in flight; the
// hub must stay safe under that churn. Run with -race.
func TestHub_BroadcastSafeWhileClientsChurn(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			c := newTestClient(fmt.Sprintf("c%d", i), "E1", 1)
			hub.Register(c)
			hub.Unregister(c)
		}
	}()

	for i := 0; i < 1000; i++ {
		hub.PublishCheckIn("E1", i)
	}
	close(done)
	wg.Wait()
}

type failingSubscriber struct{}

func (failingSubscriber) SubscribeEvent(string, func(string, []byte)) (func(), error) {
	return nil, errors.New("subscribe refused")
}

func TestHub_RegisterLogsSubscribeFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	hub := NewHub(zap.New(core), nil, failingSubscriber{})

	c := newTestClient("a", "E1", 4)
	hub.Register(c)

	// The client is still registered and local broadcasts still reach it.
	require.Equal(t, 1, hub.WatcherCount("E1"))
	hub.Broadcast("E1", EventNewCheckin, []byte(`{}`))
	assert.Len(t, c.send, 1)

	entries := logs.FilterMessage("redis subscribe failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "E1", entries[0].ContextMap()["event_id"])
}

func TestHub_UnregisterRemovesClient(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	c := newTestClient("a", "E1", 4)
	hub.Register(c)
	require.Equal(t, 1, hub.WatcherCount("E1"))

	hub.Unregister(c)
	assert.Zero(t, hub.WatcherCount("E1"))

	hub.PublishRegistration("E1", &models.Registration{RegistrationID: "A1B2C3D4"})
	assert.Empty(t, c.send)
}
