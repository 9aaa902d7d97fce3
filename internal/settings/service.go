package settings

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
)

const (
	settingValueTrue  = "true"
	settingValueFalse = "false"
)

// Service exposes the orders-enabled gate. Values are re-read from the store
// on every call so concurrent writers are always observed; nothing is cached
// in process.
type Service interface {
	OrdersEnabled(ctx context.Context) (bool, error)
	SetOrdersEnabled(ctx context.Context, enabled bool, source enums.SettingSource) error
	GetSetting(ctx context.Context, key string) (*models.StoreSetting, error)
}

type service struct {
	repo Repository
}

// NewService builds a settings service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

// OrdersEnabled reads the gate. A missing row means the store has never been
// closed, so ordering defaults to open.
func (s *service) OrdersEnabled(ctx context.Context) (bool, error) {
	setting, err := s.repo.Find(ctx, models.SettingOrdersEnabled)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return true, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read orders_enabled")
	}
	return setting.Value == settingValueTrue, nil
}

// SetOrdersEnabled writes the gate. Scheduler writes never overwrite a value
// an admin has set; admin writes always win and take over the source marker.
func (s *service) SetOrdersEnabled(ctx context.Context, enabled bool, source enums.SettingSource) error {
	if !source.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid setting source")
	}

	if source == enums.SettingSourceSchedule {
		existing, err := s.repo.Find(ctx, models.SettingOrdersEnabled)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read orders_enabled")
		}
		if existing != nil && existing.Source == enums.SettingSourceAdmin {
			return nil
		}
	}

	value := settingValueFalse
	if enabled {
		value = settingValueTrue
	}
	setting := &models.StoreSetting{
		Key:    models.SettingOrdersEnabled,
		Value:  value,
		Source: source,
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write orders_enabled")
	}
	return nil
}

func (s *service) GetSetting(ctx context.Context, key string) (*models.StoreSetting, error) {
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "setting key required")
	}
	setting, err := s.repo.Find(ctx, key)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "setting not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read setting")
	}
	return setting, nil
}
