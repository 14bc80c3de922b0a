package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := New("test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return h
}

func TestHub_PublishReachesClients(t *testing.T) {
	h := startHub(t)

	a, b := newClient(h, nil), newClient(h, nil)
	require.True(t, h.attach(a))
	require.True(t, h.attach(b))
	assert.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.Publish("protection", map[string]bool{"active": true}))

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			assert.Equal(t, "protection", msg.Topic)

			var env Envelope
			require.NoError(t, json.Unmarshal(msg.Data, &env))
			assert.Equal(t, "protection", env.Type)
			assert.JSONEq(t, `{"active":true}`, string(env.Data))
			assert.False(t, env.Time.IsZero())
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}
}

func TestHub_Detach(t *testing.T) {
	h := startHub(t)

	c := newClient(h, nil)
	require.True(t, h.attach(c))
	h.detach(c)

	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-c.send
	assert.False(t, ok, "send channel closed on detach")
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := startHub(t)

	c := newClient(h, nil)
	require.True(t, h.attach(c))

	for i := 0; i < cap(c.send)+10; i++ {
		h.Broadcast(Message{Topic: "result", Data: []byte{byte(i)}})
	}

	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_TopicFilter(t *testing.T) {
	h := startHub(t)

	all, peeking := newClient(h, nil), newClient(h, nil)
	peeking.Subscribe([]string{"peeking"})
	require.True(t, h.attach(all))
	require.True(t, h.attach(peeking))

	require.NoError(t, h.Publish("result", nil))
	require.NoError(t, h.Publish("peeking", nil))

	for _, want := range []string{"result", "peeking"} {
		select {
		case msg := <-all.send:
			assert.Equal(t, want, msg.Topic)
		case <-time.After(time.Second):
			t.Fatalf("%s not delivered", want)
		}
	}

	select {
	case msg := <-peeking.send:
		assert.Equal(t, "peeking", msg.Topic)
	case <-time.After(time.Second):
		t.Fatal("peeking not delivered")
	}
	assert.Empty(t, peeking.send)
}

func TestClient_Subscribe(t *testing.T) {
	c := newClient(nil, nil)
	assert.True(t, c.Wants("anything"))

	c.Subscribe([]string{"protection", "peeking"})
	assert.True(t, c.Wants("protection"))
	assert.False(t, c.Wants("result"))

	c.Subscribe(nil)
	assert.True(t, c.Wants("result"))
}

func TestHub_AttachAfterStop(t *testing.T) {
	h := New("stopped", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	cancel()
	<-h.Done()

	assert.False(t, h.attach(newClient(h, nil)))
}

func TestEncode_NilData(t *testing.T) {
	data, err := Encode("ping", nil)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "ping", env.Type)
	assert.Empty(t, env.Data)
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := Encode("bad", make(chan int))
	assert.Error(t, err)
}
