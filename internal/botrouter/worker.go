package botrouter

import (
	"context"
	"log"
	"time"

	"campchat/backend/internal/storage"
)

const (
	readBlock    = 5 * time.Second
	retryBackoff = time.Second
)

// Worker consumes the bot event stream and routes member join/leave events
// to the groups' bots. Events are acknowledged only after dispatch, so a
// crashed worker replays its pending entries (at-least-once).
type Worker struct {
	streams  *storage.Service
	router   *Router
	consumer string
}

func NewWorker(streams *storage.Service, router *Router, consumer string) *Worker {
	return &Worker{streams: streams, router: router, consumer: consumer}
}

// Run блокує до скасування контексту.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.streams.EnsureBotEventGroup(ctx); err != nil {
		return err
	}
	log.Printf("INFO: bot worker %s started", w.consumer)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entries, err := w.streams.ReadBotEvents(ctx, w.consumer, readBlock)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("WARNING: failed to read bot events: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
			continue
		}

		for _, entry := range entries {
			w.router.HandleMemberEvent(ctx, entry.Event)
			w.streams.AckBotEvent(ctx, entry.ID)
		}
	}
}
