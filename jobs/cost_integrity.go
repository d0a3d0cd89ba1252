package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/pulseboard/pulseboard/internal/observability"
	"github.com/pulseboard/pulseboard/internal/reporting"
)

// CostLister feeds the scan with stored cost records.
type CostLister interface {
	ListCosts(ctx context.Context) ([]reporting.BusinessCost, error)
}

// CostIntegrityJob scans stored costs for records the aggregation would
// have to exclude: recurring costs with no frequency, and end dates at
// or before the effective date.
type CostIntegrityJob struct {
	Costs   CostLister
	Logger  *slog.Logger
	Metrics *observability.Metrics
	clock   func() time.Time
}

// NewCostIntegrityJob initialises the scan handler.
func NewCostIntegrityJob(costs CostLister, logger *slog.Logger, metrics *observability.Metrics) *CostIntegrityJob {
	return &CostIntegrityJob{
		Costs:   costs,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the integrity scan.
func (j *CostIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Costs == nil {
		return errors.New("cost integrity: handler not configured")
	}
	var payload CostIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	runID := uuid.NewString()
	start := j.now()
	logger := j.logger().With(
		slog.String("run_id", runID),
		slog.Bool("include_inactive", payload.IncludeInactive),
	)
	logger.Info("starting cost integrity scan")

	records, err := j.Costs.ListCosts(ctx)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	flagged := 0
	for _, cost := range records {
		if !cost.IsActive && !payload.IncludeInactive {
			continue
		}
		problems := inspect(cost)
		if len(problems) == 0 {
			continue
		}
		flagged++
		for _, p := range problems {
			logger.Warn("malformed cost record",
				slog.Int64("cost_id", cost.ID),
				slog.String("name", cost.Name),
				slog.String("problem", p),
			)
		}
	}
	if flagged > 0 {
		j.Metrics.MalformedCostsExcluded(flagged)
	}

	logger.Info("completed cost integrity scan",
		slog.Int("records", len(records)),
		slog.Int("flagged", flagged),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func inspect(cost reporting.BusinessCost) []string {
	var problems []string
	if cost.CostType == reporting.CostTypeRecurring && cost.Frequency == nil {
		problems = append(problems, "recurring cost without frequency")
	}
	if cost.CostType == reporting.CostTypeOneTime && cost.Frequency != nil {
		problems = append(problems, "one-time cost carries a frequency")
	}
	if cost.EndDate != nil && !cost.EndDate.After(cost.EffectiveDate) {
		problems = append(problems, "end date not after effective date")
	}
	return problems
}

func (j *CostIntegrityJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *CostIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
