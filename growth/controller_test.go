package growth

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"voice-lab/domain"
	"voice-lab/errors"
	"voice-lab/mocks"
)

const testUnit = domain.UnitID("unit-under-test")

func newController(t *testing.T) (*Controller, *mocks.MockLedger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedger(ctrl)
	return NewController(slog.New(slog.DiscardHandler), ledger, domain.GrowthMaxSizeBinary, nil), ledger
}

// growingLedger makes the mock behave like a unit that grows by one full
// step per submitted request.
func growingLedger(ledger *mocks.MockLedger, size *int) {
	ledger.EXPECT().ReadUnitSize(gomock.Any(), testUnit).
		DoAndReturn(func(context.Context, domain.UnitID) (int, error) {
			return *size, nil
		}).AnyTimes()
	ledger.EXPECT().SubmitGrowthStep(gomock.Any(), testUnit, domain.GrowthStepSize).
		DoAndReturn(func(context.Context, domain.UnitID, int) error {
			*size += domain.GrowthStepSize
			return nil
		}).AnyTimes()
}

func TestController_Plan(t *testing.T) {
	req := require.New(t)
	controller, _ := newController(t)

	steps, err := controller.Plan(40 * 1024)
	req.NoError(err)
	req.Equal(3, steps)

	// A target within the initial allocation needs no step at all
	steps, err = controller.Plan(domain.GrowthInitialSize)
	req.NoError(err)
	req.Equal(0, steps)

	// Partial last step still counts as a full one
	steps, err = controller.Plan(domain.GrowthInitialSize + 1)
	req.NoError(err)
	req.Equal(1, steps)

	_, err = controller.Plan(domain.GrowthMaxSizeBinary + 1)
	req.ErrorIs(err, errors.ErrTargetTooLarge)
}

func TestController_GrowReachesTarget(t *testing.T) {
	req := require.New(t)
	controller, ledger := newController(t)

	size := domain.GrowthInitialSize
	growingLedger(ledger, &size)

	target := domain.NewGrowthTarget(testUnit, 40*1024)
	final, err := controller.Grow(context.Background(), target)
	req.NoError(err)
	req.Equal(40*1024, final)
	req.Equal(40*1024, size)
	req.Equal(domain.GrowthComplete, target.State)
}

func TestController_StepAlreadyAtTargetSkipsLedger(t *testing.T) {
	req := require.New(t)
	controller, ledger := newController(t)

	// Only a read, never a growth request
	ledger.EXPECT().ReadUnitSize(gomock.Any(), testUnit).Return(50*1024, nil).Times(1)

	target := domain.NewGrowthTarget(testUnit, 40*1024)
	observed, done, err := controller.Step(context.Background(), target)
	req.NoError(err)
	req.True(done)
	req.Equal(50*1024, observed)
	req.Equal(domain.GrowthComplete, target.State)
}

func TestController_GrowResumesFromActualSize(t *testing.T) {
	req := require.New(t)
	controller, ledger := newController(t)

	// A previous run already grew the unit partway
	size := 30 * 1024
	submitted := 0
	ledger.EXPECT().ReadUnitSize(gomock.Any(), testUnit).
		DoAndReturn(func(context.Context, domain.UnitID) (int, error) {
			return size, nil
		}).AnyTimes()
	ledger.EXPECT().SubmitGrowthStep(gomock.Any(), testUnit, domain.GrowthStepSize).
		DoAndReturn(func(context.Context, domain.UnitID, int) error {
			submitted++
			size += domain.GrowthStepSize
			return nil
		}).AnyTimes()

	target := domain.NewGrowthTarget(testUnit, 40*1024)
	final, err := controller.Grow(context.Background(), target)
	req.NoError(err)
	req.Equal(40*1024, final)
	req.Equal(1, submitted)
}

func TestController_NoGrowthNeededIsSuccess(t *testing.T) {
	req := require.New(t)
	controller, ledger := newController(t)

	ledger.EXPECT().ReadUnitSize(gomock.Any(), testUnit).Return(30*1024, nil).Times(1)
	ledger.EXPECT().SubmitGrowthStep(gomock.Any(), testUnit, domain.GrowthStepSize).
		Return(fmt.Errorf("%w: unit at ceiling", errors.ErrNoGrowthNeeded)).Times(1)

	target := domain.NewGrowthTarget(testUnit, 40*1024)
	_, done, err := controller.Step(context.Background(), target)
	req.NoError(err)
	req.True(done)
	req.Equal(domain.GrowthComplete, target.State)
}

func TestController_GrowSurfacesIncomplete(t *testing.T) {
	req := require.New(t)
	controller, ledger := newController(t)

	// The unit silently stops growing; the bounded loop must give up
	ledger.EXPECT().ReadUnitSize(gomock.Any(), testUnit).Return(domain.GrowthInitialSize, nil).AnyTimes()
	ledger.EXPECT().SubmitGrowthStep(gomock.Any(), testUnit, domain.GrowthStepSize).Return(nil).AnyTimes()

	target := domain.NewGrowthTarget(testUnit, 40*1024)
	_, err := controller.Grow(context.Background(), target)
	req.ErrorIs(err, errors.ErrGrowthIncomplete)
}

func TestController_GrowRejectsTargetBeyondProfile(t *testing.T) {
	req := require.New(t)
	controller, _ := newController(t)

	target := domain.NewGrowthTarget(testUnit, domain.GrowthMaxSizeBinary+1)
	_, err := controller.Grow(context.Background(), target)
	req.ErrorIs(err, errors.ErrTargetTooLarge)
}

func TestController_StepReadFailurePropagates(t *testing.T) {
	req := require.New(t)
	controller, ledger := newController(t)

	readErr := stderrors.New("rpc timeout")
	ledger.EXPECT().ReadUnitSize(gomock.Any(), testUnit).Return(0, readErr).Times(1)

	target := domain.NewGrowthTarget(testUnit, 40*1024)
	_, done, err := controller.Step(context.Background(), target)
	req.ErrorIs(err, readErr)
	req.False(done)
}
