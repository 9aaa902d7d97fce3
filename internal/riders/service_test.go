package riders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
)

type stubRidersRepo struct {
	riders map[uuid.UUID]*models.Rider
}

func newStubRidersRepo() *stubRidersRepo {
	return &stubRidersRepo{riders: make(map[uuid.UUID]*models.Rider)}
}

func (s *stubRidersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubRidersRepo) Create(ctx context.Context, rider *models.Rider) (*models.Rider, error) {
	if rider.ID == uuid.Nil {
		rider.ID = uuid.New()
	}
	copied := *rider
	s.riders[rider.ID] = &copied
	return rider, nil
}

func (s *stubRidersRepo) Find(ctx context.Context, id uuid.UUID) (*models.Rider, error) {
	rider, ok := s.riders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *rider
	return &copied, nil
}

func (s *stubRidersRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Rider, error) {
	for _, rider := range s.riders {
		if rider.UserID != nil && *rider.UserID == userID {
			copied := *rider
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRidersRepo) List(ctx context.Context) ([]models.Rider, error) {
	all := make([]models.Rider, 0, len(s.riders))
	for _, rider := range s.riders {
		all = append(all, *rider)
	}
	return all, nil
}

func (s *stubRidersRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RiderStatus) error {
	if rider, ok := s.riders[id]; ok {
		rider.Status = status
	}
	return nil
}

func TestCreateRiderDefaultsActive(t *testing.T) {
	svc, err := NewService(newStubRidersRepo())
	require.NoError(t, err)

	rider, err := svc.CreateRider(context.Background(), CreateRiderInput{Name: "Aung Ko", Phone: "09790000001"})
	require.NoError(t, err)
	assert.Equal(t, enums.RiderStatusActive, rider.Status)
	assert.NotEqual(t, uuid.Nil, rider.ID)
}

func TestCreateRiderValidation(t *testing.T) {
	svc, _ := NewService(newStubRidersRepo())

	_, err := svc.CreateRider(context.Background(), CreateRiderInput{Phone: "09790000001"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetRiderNotFound(t *testing.T) {
	svc, _ := NewService(newStubRidersRepo())

	_, err := svc.GetRider(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSetRiderStatus(t *testing.T) {
	repo := newStubRidersRepo()
	svc, _ := NewService(repo)
	ctx := context.Background()

	rider, err := svc.CreateRider(ctx, CreateRiderInput{Name: "Su Su", Phone: "09790000002"})
	require.NoError(t, err)

	require.NoError(t, svc.SetRiderStatus(ctx, rider.ID, enums.RiderStatusInactive))
	assert.Equal(t, enums.RiderStatusInactive, repo.riders[rider.ID].Status)

	err = svc.SetRiderStatus(ctx, rider.ID, enums.RiderStatus("vacation"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
