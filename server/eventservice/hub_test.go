package eventservice

import (
	"errors"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldog20/tempnet/pkg/keys"
	"github.com/caldog20/tempnet/server/internal/peer"
)

func testPeer(now time.Time) peer.Peer {
	return peer.New(keys.NewPrivateKey().PublicKey(), netip.MustParseAddr("10.0.0.2"), now, 15*time.Minute)
}

func TestHubFanOut(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	h := NewHub(WithClock(mock))

	_, a := h.Subscribe()
	_, b := h.Subscribe()
	require.Equal(t, 2, h.Subscribers())

	p := testPeer(mock.Now())
	h.PeerCreated(p)

	for _, c := range []<-chan Event{a, b} {
		e := <-c
		assert.Equal(t, PeerCreated, e.Type)
		assert.Equal(t, p.PublicKey.EncodeToString(), e.PublicKey)
		assert.Equal(t, "10.0.0.2", e.Address)
		assert.Equal(t, mock.Now(), e.At)
		assert.NotEqual(t, uuid.Nil, e.ID)
	}
}

func TestHubEvictionEvents(t *testing.T) {
	h := NewHub()
	_, c := h.Subscribe()
	p := testPeer(time.Now())

	h.PeerEvicted(p, "expired")
	h.PeerEvictFailed(p, errors.New("wg failed"))

	e := <-c
	assert.Equal(t, PeerEvicted, e.Type)
	assert.Equal(t, "expired", e.Cause)

	e = <-c
	assert.Equal(t, PeerEvictFailed, e.Type)
	assert.Equal(t, "wg failed", e.Error)
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	_, c := h.Subscribe()
	p := testPeer(time.Now())

	for i := 0; i < subscriberBuffer+5; i++ {
		h.PeerCreated(p)
	}
	assert.Len(t, c, subscriberBuffer)
	assert.Equal(t, uint64(5), h.Dropped())
}

func TestHubUnsubscribeAndClose(t *testing.T) {
	h := NewHub()
	id, c := h.Subscribe()
	h.Unsubscribe(id)
	_, ok := <-c
	assert.False(t, ok)
	h.Unsubscribe(id)

	_, c2 := h.Subscribe()
	h.Close()
	_, ok = <-c2
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers())

	_, c3 := h.Subscribe()
	_, ok = <-c3
	assert.False(t, ok)
	h.Close()
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)

	p := testPeer(time.Now())
	h.PeerEvicted(p, "revoked")

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var e Event
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, PeerEvicted, e.Type)
	assert.Equal(t, "revoked", e.Cause)
	assert.Equal(t, p.PublicKey.EncodeToString(), e.PublicKey)

	h.Close()
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestServeHTTPUnsubscribesOnDisconnect(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Subscribers() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestServeHTTPPingsOnHubClock(t *testing.T) {
	mock := clock.NewMock()
	h := NewHub(WithClock(mock))
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	pinged := make(chan struct{}, 1)
	conn.SetPingHandler(func(data string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)

	select {
	case <-pinged:
		t.Fatal("ping sent before the hub clock advanced")
	case <-time.After(50 * time.Millisecond):
	}

	// the ticker may be created just after the subscriber registers
	require.Eventually(t, func() bool {
		mock.Add(pingPeriod)
		select {
		case <-pinged:
			return true
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)
}
