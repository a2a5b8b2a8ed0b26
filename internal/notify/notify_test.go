package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/premiki/internal/notify/mocks"
	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEnvelope(t *testing.T) {
	at := time.Date(2024, 5, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	env := NewEnvelope(EventTransferCreated, TransferCreated{TransferID: 7, TotalQuantity: 3}, at)

	if _, err := uuid.Parse(env.MessageID); err != nil {
		t.Errorf("expected uuid message id, got %q", env.MessageID)
	}
	if env.EventType != "transfer.created" || env.Producer != Producer {
		t.Errorf("unexpected metadata %+v", env)
	}
	if env.OccurredAt.Location() != time.UTC || !env.OccurredAt.Equal(at) {
		t.Errorf("expected UTC timestamp equal to %v, got %v", at, env.OccurredAt)
	}

	body, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `"transfer_id":7`) {
		t.Errorf("expected payload in data, got %s", body)
	}

	other := NewEnvelope(EventTransferCreated, nil, at)
	if other.MessageID == env.MessageID {
		t.Error("expected distinct message ids")
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Notify(context.Background(), EventTransferCreated, TransferCreated{TransferID: 3}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !strings.Contains(buf.String(), "type=transfer.created") {
		t.Errorf("expected event type in log, got %q", buf.String())
	}
}

func TestAsyncDelivers(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockNotifier(ctrl)

	payload := TransferCreated{TransferID: 1}
	next.EXPECT().Notify(gomock.Any(), EventTransferCreated, payload).Return(nil).Times(1)

	a := NewAsync(next, 4, discardLogger())
	if err := a.Notify(context.Background(), EventTransferCreated, payload); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestAsyncDeliveryErrorIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockNotifier(ctrl)
	next.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(2)

	a := NewAsync(next, 4, discardLogger())
	for i := 0; i < 2; i++ {
		if err := a.Notify(context.Background(), EventTransferCreated, i); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestAsyncDropsWhenFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockNotifier(ctrl)

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	next.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, event string, payload any) error {
			started <- struct{}{}
			<-release
			return nil
		}).Times(2)

	a := NewAsync(next, 1, discardLogger())
	ctx := context.Background()

	if err := a.Notify(ctx, "first", nil); err != nil {
		t.Fatalf("first Notify: %v", err)
	}
	<-started

	if err := a.Notify(ctx, "second", nil); err != nil {
		t.Fatalf("second Notify: %v", err)
	}
	if err := a.Notify(ctx, "third", nil); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}

	close(release)
	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Notify(ctx, "late", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
}

func TestAsyncCloseHonorsContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockNotifier(ctrl)

	release := make(chan struct{})
	next.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, event string, payload any) error {
			<-release
			return nil
		})

	a := NewAsync(next, 1, discardLogger())
	a.Notify(context.Background(), "slow", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := a.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	close(release)
	if err := a.Close(context.Background()); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
