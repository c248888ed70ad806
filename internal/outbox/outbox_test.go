package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"telegram-finance-bot/internal/logx"
)

// flakySender fails the first failures attempts of every message, then
// delivers. Successful deliveries are recorded in order.
type flakySender struct {
	mu        sync.Mutex
	failures  map[string]int
	delivered []string
	done      chan struct{}
	want      int
}

func newFlakySender(want int, failures map[string]int) *flakySender {
	return &flakySender{failures: failures, done: make(chan struct{}), want: want}
}

func (s *flakySender) Send(recipient string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures[msg.Text] > 0 {
		s.failures[msg.Text]--
		return errors.New("flaky")
	}
	s.delivered = append(s.delivered, msg.Text)
	if len(s.delivered) == s.want {
		close(s.done)
	}
	return nil
}

func TestQueuePreservesOrderAcrossRetries(t *testing.T) {
	sender := newFlakySender(3, map[string]int{"a": 2})
	q := New(sender, logx.Nop(), 8, time.Millisecond, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	for _, text := range []string{"a", "b", "c"} {
		if err := q.Enqueue(ctx, "111", text); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatal("deliveries did not complete")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	want := []string{"a", "b", "c"}
	for i, text := range want {
		if sender.delivered[i] != text {
			t.Fatalf("delivered = %v, want %v (head-of-line blocks the rest)", sender.delivered, want)
		}
	}
}

type captureSender struct {
	mu   sync.Mutex
	got  []Message
	done chan struct{}
}

func (s *captureSender) Send(recipient string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, msg)
	close(s.done)
	return nil
}

func TestEnqueueMessageCarriesMedia(t *testing.T) {
	sender := &captureSender{done: make(chan struct{})}
	q := New(sender, logx.Nop(), 4, time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	msg := Message{Media: &Media{Data: []byte("%PDF"), MIME: "application/pdf", Filename: "relatorio.pdf"}}
	if err := q.EnqueueMessage(ctx, "111", msg); err != nil {
		t.Fatal(err)
	}

	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.got[0].Media == nil || sender.got[0].Media.Filename != "relatorio.pdf" {
		t.Errorf("delivered = %+v", sender.got[0])
	}
}

func TestEnqueueBlocksWhenFull(t *testing.T) {
	// No consumer running: a size-1 queue accepts one item and then blocks
	// until the context gives up.
	q := New(newFlakySender(0, nil), logx.Nop(), 1, time.Millisecond, time.Millisecond)

	if err := q.Enqueue(context.Background(), "111", "first"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, "111", "second")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	q := New(newFlakySender(0, nil), logx.Nop(), 1, time.Millisecond, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRetryGivesUpOnCancel(t *testing.T) {
	// A permanently failing head message must not spin forever once the
	// context is cancelled.
	sender := newFlakySender(0, map[string]int{"stuck": 1 << 30})
	q := New(sender, logx.Nop(), 1, time.Millisecond, 2*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	if err := q.Enqueue(ctx, "111", "stuck"); err != nil {
		t.Fatal(err)
	}

	errc := make(chan error, 1)
	go func() { errc <- q.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
