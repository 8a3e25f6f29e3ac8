package usecases

import (
	"context"
	"time"

	"energy-server/apperrors"
	"energy-server/cache"
	"energy-server/entities"
	"energy-server/metrics"
	"energy-server/repositories"

	"go.uber.org/zap"
)

type AlertUseCase struct {
	Alerts  repositories.AlertRepository
	Cache   *cache.AlertCache
	Metrics *metrics.Metrics
	Log     *zap.Logger

	now func() time.Time
}

func NewAlertUseCase(alerts repositories.AlertRepository, ac *cache.AlertCache, m *metrics.Metrics, log *zap.Logger) *AlertUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &AlertUseCase{Alerts: alerts, Cache: ac, Metrics: m, Log: log, now: time.Now}
}

// List returns unread alerts newest first.
func (uc *AlertUseCase) List(ctx context.Context, userID string) ([]entities.Alert, error) {
	alerts, err := uc.Alerts.ListUnread(ctx, userID)
	if err != nil {
		return nil, storeErr("Error fetching alerts.", err)
	}
	return alerts, nil
}

func (uc *AlertUseCase) MarkRead(ctx context.Context, alertID, userID string) error {
	if err := uc.Alerts.MarkRead(ctx, alertID, userID); err != nil {
		if isNotFound(err) {
			return apperrors.NotFound("Alert not found or not authorized.")
		}
		return storeErr("Error marking alert as read.", err)
	}
	return nil
}

// Raise persists trigger for userID unless the same key was raised inside
// the cooldown window. It returns nil, nil when suppressed.
func (uc *AlertUseCase) Raise(ctx context.Context, userID string, trigger AlertTrigger) (*entities.Alert, error) {
	if uc.Cache != nil && !uc.Cache.ShouldRaise(userID, trigger.Key, uc.now()) {
		return nil, nil
	}

	alert := &entities.Alert{
		UserID:    userID,
		AlertType: trigger.Type,
		Message:   trigger.Message,
	}
	if err := uc.Alerts.Create(ctx, alert); err != nil {
		if uc.Cache != nil {
			uc.Cache.Forget(userID, trigger.Key)
		}
		return nil, storeErr("Error creating alert.", err)
	}

	uc.Metrics.IncAlert(trigger.Type)
	uc.Log.Info("Alert raised",
		zap.String("user_id", userID),
		zap.String("alert_type", trigger.Type),
		zap.String("severity", string(trigger.Severity)),
	)
	return alert, nil
}
