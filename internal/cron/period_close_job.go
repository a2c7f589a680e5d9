package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/colondancer/raffle-bee/internal/periods"
	"github.com/colondancer/raffle-bee/internal/prizepool"
	"github.com/colondancer/raffle-bee/pkg/db/models"
	"github.com/colondancer/raffle-bee/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stalePoolReader interface {
	ListActiveBefore(ctx context.Context, period string) ([]models.PrizePool, error)
}

type poolDeactivator interface {
	Deactivate(ctx context.Context, period string) (bool, error)
}

type transactionalPoolRepoFactory func(tx *gorm.DB) poolDeactivator

func defaultTransactionalPoolRepo(tx *gorm.DB) poolDeactivator {
	return prizepool.NewRepository(tx)
}

type PeriodCloseJobParams struct {
	Logger                   *logger.Logger
	DB                       txRunner
	Repository               stalePoolReader
	TransactionalRepoFactory transactionalPoolRepoFactory
}

// NewPeriodCloseJob builds the job that closes prize pools of past periods.
// Amounts are left untouched and rows are never deleted.
func NewPeriodCloseJob(params PeriodCloseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("prize pool repository required")
	}
	factory := params.TransactionalRepoFactory
	if factory == nil {
		factory = defaultTransactionalPoolRepo
	}
	return &periodCloseJob{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		repoFactory: factory,
		now:         time.Now,
	}, nil
}

type periodCloseJob struct {
	logg        *logger.Logger
	db          txRunner
	repo        stalePoolReader
	repoFactory transactionalPoolRepoFactory
	now         func() time.Time
}

func (j *periodCloseJob) Name() string { return "prize-pool-period-close" }

func (j *periodCloseJob) Run(ctx context.Context) error {
	current := periods.Current(j.now())
	stale, err := j.repo.ListActiveBefore(ctx, current)
	if err != nil {
		return fmt.Errorf("list open prize pools: %w", err)
	}

	var (
		errs   error
		closed []string
	)
	for _, pool := range stale {
		if !periods.Before(pool.Period, current) {
			continue
		}
		var changed bool
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var txErr error
			changed, txErr = j.repoFactory(tx).Deactivate(ctx, pool.Period)
			return txErr
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close period %s: %w", pool.Period, err))
			continue
		}
		if changed {
			closed = append(closed, pool.Period)
			poolCtx := j.logg.WithFields(ctx, map[string]any{
				"period":         pool.Period,
				"current_amount": pool.CurrentAmount.StringFixed(2),
			})
			j.logg.Info(poolCtx, "prize pool closed")
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"current_period": current,
		"candidates":     len(stale),
		"closed":         closed,
	})
	j.logg.Info(logCtx, "prize pool period close complete")
	return errs
}
