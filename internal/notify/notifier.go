// Package notify fans arbitrage events out to chat channels. Delivery is
// fire-and-forget: a slow or failing webhook must never hold up a detection
// cycle, so sends run on their own goroutine with a bounded timeout.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CadeYu/polymarketArb/internal/domain"
)

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Event types that can be enabled in configuration.
const (
	EventOpportunity = "opportunity"
	EventExecution   = "execution"
)

const sendTimeout = 10 * time.Second

// Notifier formats arbitrage events and dispatches them to every configured
// sender. Only event types in the allowed set are forwarded; an empty set
// allows everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a notifier over the given senders.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// OpportunityDetected reports a freshly detected opportunity.
func (n *Notifier) OpportunityDetected(opp domain.Opportunity) {
	title := fmt.Sprintf("Arbitrage detected: %s", opp.Type)
	message := fmt.Sprintf(
		"market: %s\nlegs: %d\ncost: %s\nestimated profit: %s",
		opp.MarketID, len(opp.RequiredOrders), opp.TotalCost.String(), opp.EstimatedProfit.String(),
	)
	n.dispatch(EventOpportunity, title, message)
}

// ExecutionResult reports the terminal state of an execution, including how
// many legs were left unhedged.
func (n *Notifier) ExecutionResult(opp domain.Opportunity, state string, unhedged int) {
	title := fmt.Sprintf("Execution %s: %s", state, opp.Type)
	message := fmt.Sprintf("market: %s\nopportunity: %s", opp.MarketID, opp.ID)
	if unhedged > 0 {
		message += fmt.Sprintf("\nUNHEDGED LEGS: %d", unhedged)
	}
	n.dispatch(EventExecution, title, message)
}

func (n *Notifier) dispatch(event, title, message string) {
	if len(n.senders) == 0 {
		return
	}
	if len(n.events) > 0 && !n.events[event] {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		for _, s := range n.senders {
			if err := s.Send(ctx, title, message); err != nil {
				n.logger.Error("sender failed",
					slog.String("sender", s.Name()),
					slog.Any("error", err),
				)
			}
		}
	}()
}
