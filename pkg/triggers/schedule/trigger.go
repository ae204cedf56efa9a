// Package schedule provides a trigger that requests graph runs on a cron
// schedule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ideonhq/ideon/pkg/protocol"
)

type Trigger struct {
	CronExpr string
	GraphID  string

	cron     *cron.Cron
	callback protocol.TriggerCallback
	logger   *slog.Logger
}

func NewTrigger(config map[string]any, logger *slog.Logger) (*Trigger, error) {
	cronExpr, _ := config["cron"].(string)
	graphID, _ := config["graph_id"].(string)

	trigger := &Trigger{
		CronExpr: cronExpr,
		GraphID:  graphID,
		logger: logger.With(
			"module", "schedule_trigger",
			"cron", cronExpr,
			"graph_id", graphID,
		),
	}

	if err := trigger.Validate(); err != nil {
		return nil, err
	}

	return trigger, nil
}

func (t *Trigger) Validate() error {
	if t.GraphID == "" {
		return errors.New("schedule trigger graph_id is required")
	}

	if t.CronExpr == "" {
		return errors.New("schedule trigger cron expression is required")
	}

	if _, err := cron.ParseStandard(t.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	t.logger.InfoContext(ctx, "Starting schedule trigger")
	t.callback = callback

	// SkipIfStillRunning keeps a slow graph from stacking run requests on
	// top of each other.
	t.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := t.cron.AddFunc(t.CronExpr, t.run)
	if err != nil {
		return fmt.Errorf("failed to add cron job for graph %s: %w", t.GraphID, err)
	}

	t.logger.InfoContext(ctx, "Added cron job", "entry_id", id)
	t.cron.Start()

	return nil
}

func (t *Trigger) run() {
	t.logger.Info("Cron schedule fired")

	triggerData := map[string]any{
		"cron":      t.CronExpr,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	go func() {
		if err := t.callback(context.Background(), t.GraphID, triggerData); err != nil {
			t.logger.Error("Error requesting graph run", "graph_id", t.GraphID, "error", err)
		}
	}()
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping schedule trigger", "graph_id", t.GraphID)

	if t.cron != nil {
		t.cron.Stop()
	}

	return nil
}
