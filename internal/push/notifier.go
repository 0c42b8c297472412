package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"github.com/screenquest/screenquest/internal/model"
	"github.com/screenquest/screenquest/internal/store"
	"github.com/screenquest/screenquest/internal/task"
)

const dispatchTimeout = 30 * time.Second

// Notifier turns task domain events into push notifications: the child's
// devices hear about new assignments and declines, parents hear about
// submissions waiting for review.
type Notifier struct {
	svc    *Service
	subs   *store.PushStore
	logger *slog.Logger
}

func NewNotifier(svc *Service, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{svc: svc, subs: subs, logger: logger}
}

// HandleEvent satisfies task.EventFunc. Delivery happens on a separate
// goroutine so the event publisher never blocks on network I/O.
func (n *Notifier) HandleEvent(e task.Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := n.dispatch(ctx, e); err != nil {
			n.logger.Warn("push dispatch", "type", e.Type, "assignment_id", e.AssignmentID, "error", err)
		}
	}()
}

func (n *Notifier) dispatch(ctx context.Context, e task.Event) error {
	switch e.Type {
	case task.EventTaskAssigned:
		subs, err := n.subs.ListByMember(e.ChildID)
		if err != nil {
			return err
		}
		return n.sendAll(ctx, subs, Payload{
			Title: "New task",
			Body:  e.Title,
			URL:   "/tasks",
			Tag:   "task-" + e.AssignmentID.String(),
		})

	case task.EventTaskSubmitted:
		subs, err := n.subs.ListByRole(model.RoleParent)
		if err != nil {
			return err
		}
		return n.sendAll(ctx, subs, Payload{
			Title: "Ready for review",
			Body:  e.Title,
			URL:   "/review",
			Tag:   "review-" + e.AssignmentID.String(),
		})

	case task.EventTaskApproved:
		subs, err := n.subs.ListByMember(e.ChildID)
		if err != nil {
			return err
		}
		body := e.Title + " approved"
		if xp, ok := e.Extra["xp_awarded"].(int); ok {
			body = fmt.Sprintf("%s approved — +%d XP", e.Title, xp)
		}
		return n.sendAll(ctx, subs, Payload{
			Title: "Task approved",
			Body:  body,
			URL:   "/tasks",
			Tag:   "task-" + e.AssignmentID.String(),
		})

	case task.EventTaskDeclined:
		subs, err := n.subs.ListByMember(e.ChildID)
		if err != nil {
			return err
		}
		return n.sendAll(ctx, subs, Payload{
			Title: "Task needs another look",
			Body:  e.Title,
			URL:   "/tasks",
			Tag:   "task-" + e.AssignmentID.String(),
		})
	}

	// task_started and task_expired stay on the realtime feed only.
	return nil
}

// sendAll delivers to every subscription, pruning expired endpoints and
// aggregating the remaining failures.
func (n *Notifier) sendAll(ctx context.Context, subs []model.PushSubscription, payload Payload) error {
	var errs error
	for i := range subs {
		sub := &subs[i]
		err := n.svc.Send(ctx, sub, payload)
		if errors.Is(err, ErrExpired) {
			if delErr := n.subs.DeleteByEndpoint(sub.Endpoint); delErr != nil {
				errs = multierr.Append(errs, delErr)
			}
			continue
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("subscription %d: %w", sub.ID, err))
		}
	}
	return errs
}
