package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	SendFn func(ctx context.Context, content string) error
}

func (m *mockSender) Send(ctx context.Context, content string) error {
	return m.SendFn(ctx, content)
}

func TestDispatcher_NotifyOrder_SendsMessage(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var got string
	sender := &mockSender{SendFn: func(ctx context.Context, content string) error {
		mu.Lock()
		got = content
		mu.Unlock()
		return nil
	}}

	d := NewDispatcher(sender, time.Second, nil, nil)
	d.NotifyOrder(OrderNotification{Username: "ali", OrderID: "ord-1", Coins: 1000})
	require.NoError(t, d.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, got, "ord-1")
	assert.Contains(t, got, "1,000")
}

func TestDispatcher_NotifyOrder_ReturnsBeforeSendCompletes(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	sender := &mockSender{SendFn: func(ctx context.Context, content string) error {
		<-release
		return nil
	}}

	d := NewDispatcher(sender, time.Second, nil, nil)

	done := make(chan struct{})
	go func() {
		d.NotifyOrder(OrderNotification{OrderID: "ord-1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyOrder blocked on send")
	}

	close(release)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_NotifyOrder_FailureIsContained(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(&mockSender{SendFn: func(ctx context.Context, content string) error {
		return errors.New("discord down")
	}}, time.Second, nil, nil)

	assert.NotPanics(t, func() { d.NotifyOrder(OrderNotification{OrderID: "ord-1"}) })
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_NotifyOrder_PanicIsRecovered(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(&mockSender{SendFn: func(ctx context.Context, content string) error {
		panic("boom")
	}}, time.Second, nil, nil)

	d.NotifyOrder(OrderNotification{OrderID: "ord-1"})
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_NotifyOrder_NilSenderIsNoop(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(nil, time.Second, nil, nil)
	d.NotifyOrder(OrderNotification{OrderID: "ord-1"})
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_NotifyOrder_SendTimesOut(t *testing.T) {
	t.Parallel()

	var sawDeadline int32
	d := NewDispatcher(&mockSender{SendFn: func(ctx context.Context, content string) error {
		<-ctx.Done()
		atomic.StoreInt32(&sawDeadline, 1)
		return ctx.Err()
	}}, 20*time.Millisecond, nil, nil)

	d.NotifyOrder(OrderNotification{OrderID: "ord-1"})
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&sawDeadline))
}

func TestDispatcher_Close_DropsLateNotifications(t *testing.T) {
	t.Parallel()

	var calls int32
	d := NewDispatcher(&mockSender{SendFn: func(ctx context.Context, content string) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}}, time.Second, nil, nil)

	require.NoError(t, d.Close(context.Background()))
	d.NotifyOrder(OrderNotification{OrderID: "late"})
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDispatcher_Close_RespectsContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	d := NewDispatcher(&mockSender{SendFn: func(ctx context.Context, content string) error {
		<-release
		return nil
	}}, time.Minute, nil, nil)

	d.NotifyOrder(OrderNotification{OrderID: "slow"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
}

func TestDiscord_Send(t *testing.T) {
	t.Parallel()

	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d, err := NewDiscord(Config{WebhookURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, d.Send(context.Background(), "hello"))
	assert.Equal(t, map[string]string{"content": "hello"}, body)
}

func TestDiscord_Send_Non2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer srv.Close()

	d, err := NewDiscord(Config{WebhookURL: srv.URL})
	require.NoError(t, err)

	err = d.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAPIError)
	assert.Contains(t, err.Error(), "429")
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := Config{WebhookURL: "ftp://example.com"}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = Config{}
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.Enabled())
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestFromConfig_DisabledIsNoop(t *testing.T) {
	t.Parallel()

	d, err := FromConfig(Config{}, nil, nil)
	require.NoError(t, err)
	d.NotifyOrder(OrderNotification{OrderID: "x"})
	require.NoError(t, d.Close(context.Background()))
}
