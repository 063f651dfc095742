package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CadeYu/polymarketArb/internal/arbitrage"
	"github.com/CadeYu/polymarketArb/internal/domain"
	"github.com/CadeYu/polymarketArb/internal/engine"
)

// OpportunityNotifier receives detected opportunities. May be nil.
type OpportunityNotifier interface {
	OpportunityDetected(opp domain.Opportunity)
}

// Orchestrator runs the two pipeline loops: the ingestor keeping the market
// snapshot fresh, and the detection cycle running every registered strategy
// against it and handing executable opportunities to the engine.
type Orchestrator struct {
	ingestor       *Ingestor
	strategies     []arbitrage.Strategy
	engine         *engine.Engine
	notifier       OpportunityNotifier
	detectInterval time.Duration
	logger         *slog.Logger
}

// NewOrchestrator creates an orchestrator. notifier may be nil.
func NewOrchestrator(
	ingestor *Ingestor,
	strategies []arbitrage.Strategy,
	eng *engine.Engine,
	notifier OpportunityNotifier,
	detectInterval time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		ingestor:       ingestor,
		strategies:     strategies,
		engine:         eng,
		notifier:       notifier,
		detectInterval: detectInterval,
		logger:         logger.With(slog.String("component", "orchestrator")),
	}
}

// Cycle runs one detection pass. Every strategy is isolated: a detector
// error or panic is logged and the remaining strategies still run, and an
// execution failure never stops the other opportunities of the same pass.
func (o *Orchestrator) Cycle(ctx context.Context) {
	for _, strategy := range o.strategies {
		opportunities := o.detect(ctx, strategy)
		for _, opp := range opportunities {
			if o.notifier != nil {
				o.notifier.OpportunityDetected(opp)
			}
			if len(opp.RequiredOrders) == 0 {
				continue
			}
			state := o.engine.Execute(ctx, opp)
			o.logger.Info("opportunity handled",
				slog.String("strategy", strategy.Name()),
				slog.String("opportunity", opp.ID),
				slog.String("state", string(state)),
			)
		}
	}
}

func (o *Orchestrator) detect(ctx context.Context, strategy arbitrage.Strategy) (opportunities []domain.Opportunity) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("strategy panicked",
				slog.String("strategy", strategy.Name()),
				slog.Any("panic", r),
			)
			opportunities = nil
		}
	}()

	opportunities, err := strategy.Detect(ctx)
	if err != nil {
		o.logger.Error("strategy detection failed",
			slog.String("strategy", strategy.Name()),
			slog.Any("error", err),
		)
		return nil
	}
	if len(opportunities) > 0 {
		o.logger.Info("opportunities detected",
			slog.String("strategy", strategy.Name()),
			slog.Int("count", len(opportunities)),
		)
	}
	return opportunities
}

// Run starts the ingest and detection loops and blocks until the context is
// cancelled or a loop fails unrecoverably.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("orchestrator starting",
		slog.Int("strategies", len(o.strategies)),
		slog.Duration("detect_interval", o.detectInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := o.ingestor.RunLoop(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("pipeline: ingest loop: %w", err)
	})

	g.Go(func() error {
		err := o.detectLoop(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("pipeline: detect loop: %w", err)
	})

	err := g.Wait()
	if err != nil {
		o.logger.Error("orchestrator stopped with error", slog.Any("error", err))
		return err
	}
	o.logger.Info("orchestrator stopped")
	return nil
}

// detectLoop runs detection cycles on a fixed delay, counted from the end of
// the previous cycle.
func (o *Orchestrator) detectLoop(ctx context.Context) error {
	for {
		o.Cycle(ctx)

		select {
		case <-ctx.Done():
			o.logger.Info("detect loop stopped")
			return ctx.Err()
		case <-time.After(o.detectInterval):
		}
	}
}
