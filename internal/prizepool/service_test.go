package prizepool

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/colondancer/raffle-bee/pkg/db"
	"github.com/colondancer/raffle-bee/pkg/db/dbtest"
	"github.com/colondancer/raffle-bee/pkg/db/models"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
	"github.com/colondancer/raffle-bee/pkg/logger"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestLedger(t *testing.T, now time.Time) (*Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		TxRunner: db.Wrap(conn),
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)
	return svc, conn
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s got %s", want, got)
}

func TestApplyContributionCreatesThenIncrements(t *testing.T) {
	svc, _ := newTestLedger(t, time.Now())
	ctx := context.Background()

	total, err := svc.ApplyContribution(ctx, "2024-Q2", d("1.20"))
	require.NoError(t, err)
	assertAmount(t, "1.20", total)

	total, err = svc.ApplyContribution(ctx, "2024-Q2", d("1.50"))
	require.NoError(t, err)
	assertAmount(t, "2.70", total)

	state, err := svc.ReadPool(ctx, "2024-Q2")
	require.NoError(t, err)
	assert.True(t, state.Exists)
	assert.True(t, state.IsActive)
	assertAmount(t, "2.70", state.CurrentAmount)

	other, err := svc.ReadPool(ctx, "2024-Q3")
	require.NoError(t, err)
	assert.False(t, other.Exists)
	assert.False(t, other.IsActive)
	assert.True(t, other.CurrentAmount.IsZero())
}

func TestApplyContributionValidation(t *testing.T) {
	svc, _ := newTestLedger(t, time.Now())
	ctx := context.Background()

	_, err := svc.ApplyContribution(ctx, "2024-Q9", d("1"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.ApplyContribution(ctx, "2024-Q1", d("-1"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestApplyContributionConcurrentIncrementsAreNotLost(t *testing.T) {
	svc, _ := newTestLedger(t, time.Now())
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyContribution(ctx, "2024-Q2", d("1.50"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	state, err := svc.ReadPool(ctx, "2024-Q2")
	require.NoError(t, err)
	assertAmount(t, "30.00", state.CurrentAmount)
}

func TestApplyOrderContributionIsOncePerOrder(t *testing.T) {
	svc, conn := newTestLedger(t, time.Now())
	ctx := context.Background()
	client := db.Wrap(conn)

	apply := func(orderID string) OrderContribution {
		var result OrderContribution
		require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			result, err = svc.ApplyOrderContribution(ctx, tx, orderID, "2024-Q2", d("1.20"))
			return err
		}))
		return result
	}

	first := apply("1001")
	assert.True(t, first.Applied)
	assertAmount(t, "1.20", first.Total)

	again := apply("1001")
	assert.False(t, again.Applied)
	assertAmount(t, "1.20", again.Total)

	other := apply("1002")
	assert.True(t, other.Applied)
	assertAmount(t, "2.40", other.Total)

	var ledgerRows int64
	require.NoError(t, conn.Model(&models.PrizePoolContribution{}).Count(&ledgerRows).Error)
	assert.EqualValues(t, 2, ledgerRows)
}

func TestApplyOrderContributionRollsBackWithCaller(t *testing.T) {
	svc, conn := newTestLedger(t, time.Now())
	ctx := context.Background()

	err := db.Wrap(conn).WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := svc.ApplyOrderContribution(ctx, tx, "1001", "2024-Q2", d("1.20")); err != nil {
			return err
		}
		return fmt.Errorf("entry update failed")
	})
	require.Error(t, err)

	state, err := svc.ReadPool(ctx, "2024-Q2")
	require.NoError(t, err)
	assert.False(t, state.Exists)
	var ledgerRows int64
	require.NoError(t, conn.Model(&models.PrizePoolContribution{}).Count(&ledgerRows).Error)
	assert.Zero(t, ledgerRows)
}

func TestDisplayAmountDefaultsWithoutCreatingPool(t *testing.T) {
	svc, conn := newTestLedger(t, time.Now())
	ctx := context.Background()

	amount, err := svc.DisplayAmount(ctx, "2024-Q2")
	require.NoError(t, err)
	assertAmount(t, "1000", amount)

	var pools int64
	require.NoError(t, conn.Model(&models.PrizePool{}).Count(&pools).Error)
	assert.Zero(t, pools)

	_, err = svc.ApplyContribution(ctx, "2024-Q2", d("12.34"))
	require.NoError(t, err)
	amount, err = svc.DisplayAmount(ctx, "2024-Q2")
	require.NoError(t, err)
	assertAmount(t, "12.34", amount)
}

func TestCurrentSummary(t *testing.T) {
	svc, _ := newTestLedger(t, time.Date(2024, time.April, 15, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	summary, err := svc.CurrentSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-Q2", summary.Period)
	assert.Equal(t, "2024-06-30", summary.NextDrawing)
	assert.Equal(t, "2024 Q2 (Apr-Jun)", summary.PeriodLabel)
	assert.True(t, summary.CurrentAmount.IsZero())
	assert.Equal(t, "$0.00", summary.FormattedAmount)

	displayed, err := svc.DisplayAmount(ctx, "2024-Q2")
	require.NoError(t, err)
	assertAmount(t, "1000", displayed)

	_, err = svc.ApplyContribution(ctx, "2024-Q2", d("1234.5"))
	require.NoError(t, err)
	summary, err = svc.CurrentSummary(ctx)
	require.NoError(t, err)
	assertAmount(t, "1234.50", summary.CurrentAmount)
	assert.Equal(t, "$1,234.50", summary.FormattedAmount)
}

func TestRepositoryDeactivateAndListActiveBefore(t *testing.T) {
	svc, conn := newTestLedger(t, time.Now())
	ctx := context.Background()
	for _, period := range []string{"2023-Q4", "2024-Q1", "2024-Q2"} {
		_, err := svc.ApplyContribution(ctx, period, d("1"))
		require.NoError(t, err)
	}

	repo := NewRepository(conn)
	stale, err := repo.ListActiveBefore(ctx, "2024-Q2")
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, "2023-Q4", stale[0].Period)

	changed, err := repo.Deactivate(ctx, "2023-Q4")
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.Deactivate(ctx, "2023-Q4")
	require.NoError(t, err)
	assert.False(t, changed)

	stale, err = repo.ListActiveBefore(ctx, "2024-Q2")
	require.NoError(t, err)
	require.Len(t, stale, 1)

	state, err := svc.ReadPool(ctx, "2023-Q4")
	require.NoError(t, err)
	assert.False(t, state.IsActive)
	assertAmount(t, "1", state.CurrentAmount)
}

func TestFormatUSD(t *testing.T) {
	cases := map[string]string{
		"0":          "$0.00",
		"1.5":        "$1.50",
		"999.99":     "$999.99",
		"1000":       "$1,000.00",
		"1234567.89": "$1,234,567.89",
		"-12.5":      "-$12.50",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatUSD(d(in)), in)
	}
}

func TestLedgerWritesAreSingleStatementUpserts(t *testing.T) {
	svc, conn := newTestLedger(t, time.Now())
	inserts := dbtest.CaptureInserts(t, conn)
	ctx := context.Background()

	_, err := svc.ApplyContribution(ctx, "2024-Q2", d("1.20"))
	require.NoError(t, err)
	_, err = svc.ApplyOrderContribution(ctx, conn, "order-1", "2024-Q2", d("1.20"))
	require.NoError(t, err)

	pools := dbtest.InsertInto(inserts(), "prize_pools")
	require.Len(t, pools, 2)
	for _, stmt := range pools {
		assert.Contains(t, stmt, "ON CONFLICT")
		assert.Contains(t, stmt, "DO UPDATE SET")
		assert.Contains(t, stmt, "prize_pools.current_amount +")
	}

	ledger := dbtest.InsertInto(inserts(), "prize_pool_contributions")
	require.Len(t, ledger, 1)
	assert.Contains(t, ledger[0], "ON CONFLICT")
	assert.Contains(t, ledger[0], "DO NOTHING")
}
