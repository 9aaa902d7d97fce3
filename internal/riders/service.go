package riders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyeinchan/shwecart-backend/pkg/db/models"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
)

// Service exposes rider bookkeeping used by dispatch and staff tooling.
type Service interface {
	CreateRider(ctx context.Context, input CreateRiderInput) (*models.Rider, error)
	GetRider(ctx context.Context, id uuid.UUID) (*models.Rider, error)
	GetRiderByUser(ctx context.Context, userID uuid.UUID) (*models.Rider, error)
	ListRiders(ctx context.Context) ([]models.Rider, error)
	SetRiderStatus(ctx context.Context, id uuid.UUID, status enums.RiderStatus) error
}

// CreateRiderInput carries the fields needed to register a rider.
type CreateRiderInput struct {
	Name   string
	Phone  string
	UserID *uuid.UUID
}

type service struct {
	repo Repository
}

// NewService builds a riders service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("riders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateRider(ctx context.Context, input CreateRiderInput) (*models.Rider, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rider name required")
	}
	if input.Phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rider phone required")
	}
	rider := &models.Rider{
		Name:   input.Name,
		Phone:  input.Phone,
		Status: enums.RiderStatusActive,
		UserID: input.UserID,
	}
	created, err := s.repo.Create(ctx, rider)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rider")
	}
	return created, nil
}

func (s *service) GetRider(ctx context.Context, id uuid.UUID) (*models.Rider, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rider id required")
	}
	rider, err := s.repo.Find(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rider")
	}
	return rider, nil
}

func (s *service) GetRiderByUser(ctx context.Context, userID uuid.UUID) (*models.Rider, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rider, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rider by user")
	}
	return rider, nil
}

func (s *service) ListRiders(ctx context.Context) ([]models.Rider, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list riders")
	}
	return all, nil
}

func (s *service) SetRiderStatus(ctx context.Context, id uuid.UUID, status enums.RiderStatus) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "rider id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid rider status")
	}
	if _, err := s.GetRider(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rider status")
	}
	return nil
}
