package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pair returns a server-side conn and the client dialed to it.
func pair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	serverConns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case conn := <-serverConns:
		return conn, client
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
		return nil, nil
	}
}

func TestSendToUserReachesEveryConnection(t *testing.T) {
	m := NewManager()
	s1, c1 := pair(t)
	s2, c2 := pair(t)

	m.Register("u1", s1)
	m.Register("u1", s2)
	assert.Equal(t, 2, m.Count())
	assert.True(t, m.IsConnected("u1"))
	assert.Equal(t, []string{"u1"}, m.List())

	require.NoError(t, m.SendJSON("u1", map[string]string{"type": "dashboard"}))

	for _, c := range []*websocket.Conn{c1, c2} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"dashboard"}`, string(msg))
	}
}

func TestSendToUnknownUser(t *testing.T) {
	m := NewManager()
	assert.ErrorIs(t, m.SendToUser("ghost", []byte("x")), ErrNotConnected)
}

func TestUnregisterAndOnChange(t *testing.T) {
	m := NewManager()
	var totals []int
	m.OnChange(func(total int) { totals = append(totals, total) })

	s1, _ := pair(t)
	client := m.Register("u1", s1)
	m.Unregister(client)
	m.Unregister(client)

	assert.False(t, m.IsConnected("u1"))
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, []int{1, 0, 0}, totals)
}

func TestCloseAll(t *testing.T) {
	m := NewManager()
	s1, c1 := pair(t)
	m.Register("u1", s1)

	m.CloseAll()
	assert.Equal(t, 0, m.Count())

	_ = c1.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := c1.ReadMessage()
	assert.Error(t, err)
}
