package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
)

type stubSettingsRepo struct {
	settings map[string]*models.StoreSetting
	findErr  error
}

func newStubSettingsRepo() *stubSettingsRepo {
	return &stubSettingsRepo{settings: make(map[string]*models.StoreSetting)}
}

func (s *stubSettingsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubSettingsRepo) Find(ctx context.Context, key string) (*models.StoreSetting, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	setting, ok := s.settings[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *setting
	return &copied, nil
}

func (s *stubSettingsRepo) Upsert(ctx context.Context, setting *models.StoreSetting) error {
	copied := *setting
	s.settings[setting.Key] = &copied
	return nil
}

func TestOrdersEnabledDefaultsOpen(t *testing.T) {
	svc, err := NewService(newStubSettingsRepo())
	require.NoError(t, err)

	enabled, err := svc.OrdersEnabled(context.Background())
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestOrdersEnabledReadsStoredValue(t *testing.T) {
	repo := newStubSettingsRepo()
	repo.settings[models.SettingOrdersEnabled] = &models.StoreSetting{
		Key:    models.SettingOrdersEnabled,
		Value:  "false",
		Source: enums.SettingSourceAdmin,
	}
	svc, _ := NewService(repo)

	enabled, err := svc.OrdersEnabled(context.Background())
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestScheduleWriteDoesNotOverrideAdmin(t *testing.T) {
	repo := newStubSettingsRepo()
	svc, _ := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SetOrdersEnabled(ctx, false, enums.SettingSourceAdmin))
	require.NoError(t, svc.SetOrdersEnabled(ctx, true, enums.SettingSourceSchedule))

	enabled, err := svc.OrdersEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled, "admin close must survive a scheduler open")
	assert.Equal(t, enums.SettingSourceAdmin, repo.settings[models.SettingOrdersEnabled].Source)
}

func TestAdminWriteOverridesSchedule(t *testing.T) {
	repo := newStubSettingsRepo()
	svc, _ := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SetOrdersEnabled(ctx, false, enums.SettingSourceSchedule))
	require.NoError(t, svc.SetOrdersEnabled(ctx, true, enums.SettingSourceAdmin))

	enabled, err := svc.OrdersEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestScheduleWriteAppliesWhenNoAdminValue(t *testing.T) {
	repo := newStubSettingsRepo()
	svc, _ := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SetOrdersEnabled(ctx, false, enums.SettingSourceSchedule))

	enabled, err := svc.OrdersEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestSetOrdersEnabledRejectsInvalidSource(t *testing.T) {
	svc, _ := NewService(newStubSettingsRepo())

	err := svc.SetOrdersEnabled(context.Background(), true, enums.SettingSource("cron"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetSettingNotFound(t *testing.T) {
	svc, _ := NewService(newStubSettingsRepo())

	_, err := svc.GetSetting(context.Background(), "theme")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
