package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nyeinchan/shwecart-backend/api/responses"
	"github.com/nyeinchan/shwecart-backend/api/validators"
	"github.com/nyeinchan/shwecart-backend/internal/riders"
	"github.com/nyeinchan/shwecart-backend/pkg/enums"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
)

type createRiderRequest struct {
	Name   string     `json:"name" validate:"required,max=200"`
	Phone  string     `json:"phone" validate:"required,max=30"`
	UserID *uuid.UUID `json:"user_id,omitempty" validate:"omitempty,uuid4"`
}

// CreateRider registers a new delivery rider.
func CreateRider(svc riders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createRiderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rider, err := svc.CreateRider(r.Context(), riders.CreateRiderInput{
			Name:   payload.Name,
			Phone:  payload.Phone,
			UserID: payload.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newRiderResponse(rider))
	}
}

// GetRider returns one rider.
func GetRider(svc riders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "riderId"), "riderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rider, err := svc.GetRider(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newRiderResponse(rider))
	}
}

// ListRiders returns all riders.
func ListRiders(svc riders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListRiders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]riderResponse, 0, len(list))
		for i := range list {
			resp = append(resp, newRiderResponse(&list[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

type riderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// SetRiderStatus activates or deactivates a rider.
func SetRiderStatus(svc riders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "riderId"), "riderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload riderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := enums.RiderStatus(payload.Status)
		if !status.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown rider status"))
			return
		}

		if err := svc.SetRiderStatus(r.Context(), id, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rider, err := svc.GetRider(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newRiderResponse(rider))
	}
}
