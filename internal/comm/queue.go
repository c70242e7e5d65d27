package comm

import (
	"context"
	"errors"
)

var ErrQueueFull = errors.New("inbox is full")

type Reply struct {
	Body []byte
	// Err is the failure behind an error reply, for callers that map it to
	// a transport status.
	Err error
}

// Envelope carries one inbound message and the way back to its sender.
type Envelope struct {
	Payload []byte
	ctx     context.Context
	reply   chan Reply
}

// Abandoned reports whether the sender stopped waiting.
func (e *Envelope) Abandoned() bool {
	return e.ctx.Err() != nil
}

func (e *Envelope) Respond(r Reply) {
	select {
	case e.reply <- r:
	default:
	}
}

// Inbox is the receiving end of an endpoint.
type Inbox interface {
	Incoming() <-chan *Envelope
}

// Queue is a bounded Inbox fed by Submit.
type Queue struct {
	envelopes chan *Envelope
}

// Submit enqueues payload and waits for its reply or for ctx to end.
func (q *Queue) Submit(ctx context.Context, payload []byte) (Reply, error) {
	env := &Envelope{Payload: payload, ctx: ctx, reply: make(chan Reply, 1)}
	select {
	case q.envelopes <- env:
	default:
		return Reply{}, ErrQueueFull
	}

	select {
	case r := <-env.reply:
		return r, nil
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

func (q *Queue) Incoming() <-chan *Envelope {
	return q.envelopes
}

func (q *Queue) Len() int {
	return len(q.envelopes)
}

func NewQueue(size int) *Queue {
	return &Queue{envelopes: make(chan *Envelope, size)}
}
