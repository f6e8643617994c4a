package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"go-kasir-ws/internal/events"
	"go-kasir-ws/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records writes and feeds scripted reads.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  bool
	reads   chan []byte
	writeCh chan []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{reads: make(chan []byte, 8), writeCh: make(chan []byte, 64)}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("closed")
	}
	f.written = append(f.written, data)
	f.writeCh <- data
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-f.reads
	if !ok {
		return 0, nil, io.EOF
	}
	return 1, data, nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) next(t *testing.T) []byte {
	t.Helper()
	select {
	case b := <-f.writeCh:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a write")
		return nil
	}
}

func (f *fakeConn) expectNothing(t *testing.T) {
	t.Helper()
	select {
	case b := <-f.writeCh:
		t.Fatalf("unexpected write: %s", b)
	case <-time.After(50 * time.Millisecond):
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(DefaultPolicy(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func connect(t *testing.T, h *Hub, role model.Role) (*Client, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	c := NewClient(conn, role, string(role)+"-1", 4)
	require.True(t, h.Register(c))
	go c.WritePump()
	return c, conn
}

func TestPolicy_Authorize(t *testing.T) {
	p := DefaultPolicy()

	assert.NoError(t, p.Authorize(events.TopicAdmin, model.RoleAdmin))
	assert.NoError(t, p.Authorize(events.TopicAdmin, model.RoleManager))
	assert.ErrorIs(t, p.Authorize(events.TopicAdmin, model.RoleCashier), model.ErrForbidden)
	assert.ErrorIs(t, p.Authorize("kitchen", model.RoleAdmin), ErrUnknownTopic)
}

func TestHub_PublishReachesOnlyJoinedObservers(t *testing.T) {
	h := startHub(t)
	admin, adminConn := connect(t, h, model.RoleAdmin)
	_, idleConn := connect(t, h, model.RoleManager)

	require.NoError(t, h.Join(admin, events.TopicAdmin))
	assert.Equal(t, 1, h.Members(events.TopicAdmin))

	h.Publish(events.Message{Topic: events.TopicAdmin, Payload: []byte(`{"barcode":"1"}`)})

	assert.Equal(t, `{"barcode":"1"}`, string(adminConn.next(t)))
	idleConn.expectNothing(t)
}

func TestHub_CashierCannotJoinAdminTopic(t *testing.T) {
	h := startHub(t)
	cashier, conn := connect(t, h, model.RoleCashier)

	err := h.Join(cashier, events.TopicAdmin)
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Equal(t, 0, h.Members(events.TopicAdmin))

	h.Publish(events.Message{Topic: events.TopicAdmin, Payload: []byte("x")})
	conn.expectNothing(t)
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	h := startHub(t)
	c, conn := connect(t, h, model.RoleAdmin)
	require.NoError(t, h.Join(c, events.TopicAdmin))

	h.Leave(c, events.TopicAdmin)
	h.Publish(events.Message{Topic: events.TopicAdmin, Payload: []byte("x")})

	conn.expectNothing(t)
	assert.Equal(t, 0, h.Members(events.TopicAdmin))
}

func TestHub_FullQueueDropsWithoutBlocking(t *testing.T) {
	h := startHub(t)
	conn := newFakeConn()
	c := NewClient(conn, model.RoleAdmin, "slow", 1)
	require.True(t, h.Register(c))
	require.NoError(t, h.Join(c, events.TopicAdmin))
	// no WritePump: the queue holds one message and the rest are dropped

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Publish(events.Message{Topic: events.TopicAdmin, Payload: []byte("x")})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow observer")
	}
	assert.Len(t, c.send, 1)
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	h := startHub(t)
	c, conn := connect(t, h, model.RoleAdmin)
	require.NoError(t, h.Join(c, events.TopicAdmin))

	h.Unregister(c)

	assert.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return conn.closed
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, h.Members(events.TopicAdmin))

	// publishing after removal must not panic on the closed queue
	h.Publish(events.Message{Topic: events.TopicAdmin, Payload: []byte("x")})
}

func TestHub_StoppedHubRejectsRegistration(t *testing.T) {
	h := NewHub(DefaultPolicy(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() { h.Run(ctx); close(stopped) }()
	cancel()
	<-stopped

	assert.False(t, h.Register(NewClient(newFakeConn(), model.RoleAdmin, "late", 1)))
}

func TestServe_JoinFrames(t *testing.T) {
	h := startHub(t)

	managerConn := newFakeConn()
	go h.Serve(managerConn, model.RoleManager, "m-1")
	managerConn.reads <- []byte(`{"action":"join","topic":"admin"}`)

	var r reply
	require.NoError(t, json.Unmarshal(managerConn.next(t), &r))
	assert.Equal(t, "joined", r.Type)
	assert.Equal(t, events.TopicAdmin, r.Topic)

	cashierConn := newFakeConn()
	go h.Serve(cashierConn, model.RoleCashier, "c-1")
	cashierConn.reads <- []byte(`{"action":"join","topic":"admin"}`)

	require.NoError(t, json.Unmarshal(cashierConn.next(t), &r))
	assert.Equal(t, "error", r.Type)
	assert.Equal(t, "forbidden", r.Error)

	h.Publish(events.Message{Topic: events.TopicAdmin, Payload: []byte(`{"type":"stock_alert"}`)})
	assert.Equal(t, `{"type":"stock_alert"}`, string(managerConn.next(t)))
	cashierConn.expectNothing(t)

	managerConn.reads <- []byte(`not json`)
	require.NoError(t, json.Unmarshal(managerConn.next(t), &r))
	assert.Equal(t, "invalid frame", r.Error)

	close(managerConn.reads)
	assert.Eventually(t, func() bool { return h.Members(events.TopicAdmin) == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_RegisteredClientCanJoinAndReceiveImmediately(t *testing.T) {
	// no Run loop: membership must not depend on it
	h := NewHub(DefaultPolicy(), zerolog.Nop())
	c := NewClient(newFakeConn(), model.RoleAdmin, "a-1", 1)
	require.True(t, h.Register(c))
	require.NoError(t, h.Join(c, events.TopicAdmin))
	assert.True(t, h.Send(c, []byte("x")))

	running := startHub(t)
	for i := 0; i < 200; i++ {
		c := NewClient(newFakeConn(), model.RoleManager, "m", 1)
		require.True(t, running.Register(c))
		require.NoError(t, running.Join(c, events.TopicAdmin), "client %d", i)
		require.True(t, running.Send(c, []byte("x")), "client %d", i)
		running.Unregister(c)
	}
	assert.Eventually(t, func() bool { return running.Members(events.TopicAdmin) == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_JoinWithUnregisteredClient(t *testing.T) {
	h := startHub(t)
	c := NewClient(newFakeConn(), model.RoleAdmin, "a-1", 1)

	assert.ErrorIs(t, h.Join(c, events.TopicAdmin), ErrNotRegistered)
	assert.False(t, h.Send(c, []byte("x")))
}

// actorTable stands in for the actor repository behind an ActorCheck.
type actorTable struct {
	mu     sync.Mutex
	roles  map[string]model.Role
	active map[string]bool
}

func (a *actorTable) set(id string, role model.Role, active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.roles[id] = role
	a.active[id] = active
}

func (a *actorTable) check(_ context.Context, id string) (model.Role, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active[id] {
		return "", model.ErrForbidden
	}
	return a.roles[id], nil
}

func TestServe_JoinUsesCurrentActorState(t *testing.T) {
	actors := &actorTable{roles: map[string]model.Role{}, active: map[string]bool{}}
	actors.set("m-1", model.RoleManager, true)

	h := NewHub(DefaultPolicy(), zerolog.Nop(), WithActorCheck(actors.check))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	conn := newFakeConn()
	go h.Serve(conn, model.RoleManager, "m-1")
	join := []byte(`{"action":"join","topic":"admin"}`)

	var r reply
	conn.reads <- join
	require.NoError(t, json.Unmarshal(conn.next(t), &r))
	assert.Equal(t, "joined", r.Type)

	conn.reads <- []byte(`{"action":"leave","topic":"admin"}`)
	require.NoError(t, json.Unmarshal(conn.next(t), &r))
	assert.Equal(t, "left", r.Type)

	// demoted after connecting
	actors.set("m-1", model.RoleCashier, true)
	conn.reads <- join
	require.NoError(t, json.Unmarshal(conn.next(t), &r))
	assert.Equal(t, "error", r.Type)
	assert.Equal(t, "forbidden", r.Error)

	// deactivated after connecting
	actors.set("m-1", model.RoleManager, false)
	conn.reads <- join
	require.NoError(t, json.Unmarshal(conn.next(t), &r))
	assert.Equal(t, "error", r.Type)
	assert.Equal(t, "unauthorized", r.Error)
	assert.Equal(t, 0, h.Members(events.TopicAdmin))

	h.Publish(events.Message{Topic: events.TopicAdmin, Payload: []byte("x")})
	conn.expectNothing(t)
	close(conn.reads)
}
