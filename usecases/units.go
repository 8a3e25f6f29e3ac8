package usecases

import (
	"context"
	"math"

	"energy-server/apperrors"
	"energy-server/entities"
	"energy-server/metrics"
	"energy-server/repositories"
)

type UnitUseCase struct {
	Units   repositories.UnitRepository
	Usage   repositories.UsageRepository
	Metrics *metrics.Metrics
}

func NewUnitUseCase(units repositories.UnitRepository, usage repositories.UsageRepository, m *metrics.Metrics) *UnitUseCase {
	return &UnitUseCase{Units: units, Usage: usage, Metrics: m}
}

func (uc *UnitUseCase) Purchase(ctx context.Context, userID string, amount float64) (*entities.PowerUnitPurchase, error) {
	if !finitePositive(amount) {
		return nil, apperrors.Validation("Valid units_amount (positive number) is required.")
	}

	purchase := &entities.PowerUnitPurchase{UserID: userID, UnitsAmount: amount}
	if err := uc.Units.Create(ctx, purchase); err != nil {
		return nil, storeErr("Error adding power units.", err)
	}

	uc.Metrics.AddUnits(amount)
	return purchase, nil
}

// Balance is the sum of every purchase the user has made.
func (uc *UnitUseCase) Balance(ctx context.Context, userID string) (float64, error) {
	total, err := uc.Units.SumByUser(ctx, userID)
	if err != nil {
		return 0, storeErr("Error fetching unit balance.", err)
	}
	return total, nil
}

// Summary reconciles purchases with logged consumption. Remaining never
// goes below zero.
func (uc *UnitUseCase) Summary(ctx context.Context, userID string) (entities.UnitSummary, error) {
	balance, err := uc.Balance(ctx, userID)
	if err != nil {
		return entities.UnitSummary{}, err
	}
	consumed, err := uc.Usage.SumConsumedByUser(ctx, userID)
	if err != nil {
		return entities.UnitSummary{}, storeErr("Error fetching unit balance.", err)
	}
	return entities.UnitSummary{
		Balance:   balance,
		Consumed:  consumed,
		Remaining: math.Max(balance-consumed, 0),
	}, nil
}
