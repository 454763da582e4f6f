// Package notify delivers best-effort activity events (messages, likes,
// comments, follows) to interested users. Publishing never fails the
// request that produced the event.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"masterboxer.com/project-instaclone/logger"
)

type EventType string

const (
	EventMessage EventType = "message"
	EventLike    EventType = "like"
	EventDislike EventType = "dislike"
	EventComment EventType = "comment"
	EventFollow  EventType = "follow"
)

type Event struct {
	Type        EventType `json:"type"`
	RecipientID string    `json:"recipientId"`
	ActorID     string    `json:"actorId"`
	PostID      string    `json:"postId,omitempty"`
	Body        string    `json:"body,omitempty"`
	Payload     any       `json:"payload,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Multi fans an event out to every sink concurrently
type Multi []Sink

func (m Multi) Publish(ctx context.Context, event Event) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range m {
		sink := sink
		g.Go(func() error {
			return sink.Publish(gctx, event)
		})
	}
	return g.Wait()
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// LogSink records events in the application log
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, event Event) error {
	logger.Get().Info("Activity event",
		zap.String("type", string(event.Type)),
		zap.String("recipient_id", event.RecipientID),
		zap.String("actor_id", event.ActorID),
		zap.String("post_id", event.PostID),
	)
	return nil
}

// Async publishes on a background goroutine detached from the request
// context. Failures are logged and dropped.
type Async struct {
	sink    Sink
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(sink Sink, timeout time.Duration) *Async {
	return &Async{sink: sink, timeout: timeout}
}

func (a *Async) Publish(ctx context.Context, event Event) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		if err := a.sink.Publish(ctx, event); err != nil {
			logger.Get().Warn("Failed to deliver event",
				zap.String("type", string(event.Type)),
				zap.String("recipient_id", event.RecipientID),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Wait blocks until in-flight deliveries finish
func (a *Async) Wait() {
	a.wg.Wait()
}
