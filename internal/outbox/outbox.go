// Package outbox decouples outbound delivery behind a bounded FIFO queue
// with retry. Order is preserved: a failing head-of-line message blocks
// everything behind it until it goes through, a deliberate trade of
// throughput for ordering.
package outbox

import (
	"context"
	"time"

	"telegram-finance-bot/internal/logx"
)

// Media is a binary attachment.
type Media struct {
	Data     []byte
	MIME     string
	Filename string
	Caption  string
}

// Message is one outbound unit: plain text, an attachment, or text with a
// quick-reply keyboard. Transport-agnostic; the Sender renders it.
type Message struct {
	Text     string
	Media    *Media
	Keyboard [][]string
}

// Sender delivers one message to one recipient.
type Sender interface {
	Send(recipient string, msg Message) error
}

type item struct {
	recipient string
	msg       Message
}

type Queue struct {
	sender      Sender
	log         *logx.Logger
	items       chan item
	backoffBase time.Duration
	backoffCap  time.Duration
}

func New(sender Sender, log *logx.Logger, size int, backoffBase, backoffCap time.Duration) *Queue {
	return &Queue{
		sender:      sender,
		log:         log,
		items:       make(chan item, size),
		backoffBase: backoffBase,
		backoffCap:  backoffCap,
	}
}

// Enqueue appends a plain-text message. Blocks when the queue is full so
// callers feel backpressure instead of losing messages.
func (q *Queue) Enqueue(ctx context.Context, recipient, text string) error {
	return q.EnqueueMessage(ctx, recipient, Message{Text: text})
}

// EnqueueMessage appends any outbound message, media and keyboards included.
func (q *Queue) EnqueueMessage(ctx context.Context, recipient string, msg Message) error {
	select {
	case q.items <- item{recipient: recipient, msg: msg}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is cancelled. Failed sends retry in
// place with linearly increasing, capped backoff.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case it := <-q.items:
			if err := q.deliver(ctx, it); err != nil {
				return err
			}
		}
	}
}

func (q *Queue) deliver(ctx context.Context, it item) error {
	attempt := 0
	for {
		err := q.sender.Send(it.recipient, it.msg)
		if err == nil {
			return nil
		}
		attempt++
		wait := min(q.backoffCap, time.Duration(attempt)*q.backoffBase)
		q.log.Warn("send failed, retrying", "recipient", it.recipient, "attempt", attempt, "backoff", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
