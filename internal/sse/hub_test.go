package sse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Close)
	return h
}

func recv(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg, ok := <-c.Events:
		require.True(t, ok, "channel closed")
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return ""
	}
}

func TestNewClient(t *testing.T) {
	c := NewClient("bogus", "")
	assert.Equal(t, RoleOperator, c.Role)
	assert.Len(t, c.ID, 36)
	assert.NotEqual(t, c.ID, NewClient(RoleProjector, "w").ID)
}

func TestBroadcast_NamedEvent(t *testing.T) {
	h := startHub(t)
	a, b := NewClient(RoleOperator, ""), NewClient(RoleProjector, "w1")
	h.Register(a)
	h.Register(b)

	h.Broadcast("update-projection", []byte(`{"text":"hi"}`))

	want := "event: update-projection\ndata: {\"text\":\"hi\"}\n\n"
	assert.Equal(t, want, recv(t, a))
	assert.Equal(t, want, recv(t, b))
}

func TestFormat_MultiLineData(t *testing.T) {
	got := string(Format("update-projection", []byte("{\n  \"text\": \"a\nb\"\r\n}")))
	want := "event: update-projection\ndata: {\ndata:   \"text\": \"a\ndata: b\"\ndata: }\n\n"
	assert.Equal(t, want, got)

	var joined []string
	for _, line := range strings.Split(strings.TrimSuffix(got, "\n\n"), "\n")[1:] {
		joined = append(joined, strings.TrimPrefix(line, "data: "))
	}
	assert.Equal(t, "{\n  \"text\": \"a\nb\"\n}", strings.Join(joined, "\n"))
}

func TestSendToWindow(t *testing.T) {
	h := startHub(t)
	op, proj := NewClient(RoleOperator, ""), NewClient(RoleProjector, "w1")
	h.Register(op)
	h.Register(proj)

	assert.Eventually(t, func() bool { return h.WindowConnected("w1") }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.SendToWindow("w1", "window-control", []byte(`{"action":"focus"}`)))
	assert.Contains(t, recv(t, proj), "window-control")

	select {
	case <-op.Events:
		t.Fatal("operator must not receive window control")
	default:
	}
	assert.Zero(t, h.SendToWindow("other", "window-control", nil))
}

func TestOnRegister_ReplaysToNewClient(t *testing.T) {
	h := startHub(t)
	h.OnRegister(func(c *Client) {
		if c.Role == RoleProjector {
			h.Send(c, "update-styles", []byte(`{"bg":"black"}`))
		}
	})

	proj := NewClient(RoleProjector, "w1")
	h.Register(proj)
	assert.Contains(t, recv(t, proj), "update-styles")
}

func TestUnregister_ClosesChannel(t *testing.T) {
	h := startHub(t)
	c := NewClient(RoleProjector, "w1")
	h.Register(c)
	h.Unregister(c)

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Events:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.False(t, h.WindowConnected("w1"))
	assert.False(t, h.Send(c, "x", nil))
}

func TestClose_UnblocksCallers(t *testing.T) {
	h := NewHub()
	go h.Run()
	h.Close()
	h.Close()

	done := make(chan struct{})
	go func() {
		h.Register(NewClient(RoleOperator, ""))
		h.Broadcast("x", nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("calls after Close blocked")
	}
}
