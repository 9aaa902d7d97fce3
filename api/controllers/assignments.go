package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nyeinchan/shwecart-backend/api/middleware"
	"github.com/nyeinchan/shwecart-backend/api/responses"
	"github.com/nyeinchan/shwecart-backend/api/validators"
	"github.com/nyeinchan/shwecart-backend/internal/assignments"
	pkgerrors "github.com/nyeinchan/shwecart-backend/pkg/errors"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
)

type createAssignmentRequest struct {
	OrderID uuid.UUID       `json:"order_id" validate:"required,uuid4"`
	RiderID uuid.UUID       `json:"rider_id" validate:"required,uuid4"`
	Fee     decimal.Decimal `json:"fee"`
	Notes   *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// CreateAssignment offers an order to a rider; any live offer on the same
// order is closed first.
func CreateAssignment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createAssignmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Create(r.Context(), assignments.CreateInput{
			OrderID: payload.OrderID,
			RiderID: payload.RiderID,
			Fee:     payload.Fee,
			Notes:   payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newAssignmentResponse(assignment))
	}
}

type respondAssignmentRequest struct {
	Accept bool `json:"accept"`
}

// riderIDFromRequest resolves the caller's rider identity seeded by the auth
// middleware.
func riderIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.RiderIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "rider identity required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "rider identity required")
	}
	return id, nil
}

// RespondAssignment records the rider's accept or reject.
func RespondAssignment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID, err := validators.ParsePathUUID(chi.URLParam(r, "assignmentId"), "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		riderID, err := riderIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload respondAssignmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Respond(r.Context(), assignments.RespondInput{
			AssignmentID: assignmentID,
			RiderID:      riderID,
			Accept:       payload.Accept,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAssignmentResponse(assignment))
	}
}

// CompleteAssignment marks an accepted assignment delivered.
func CompleteAssignment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID, err := validators.ParsePathUUID(chi.URLParam(r, "assignmentId"), "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		riderID, err := riderIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Complete(r.Context(), assignmentID, riderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAssignmentResponse(assignment))
	}
}

// OrderAssignmentHistory lists every offer made for an order, newest first.
func OrderAssignmentHistory(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.ListOrderHistory(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]assignmentResponse, 0, len(history))
		for i := range history {
			resp = append(resp, newAssignmentResponse(&history[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// RiderEarnings reports the caller's trailing-window earnings. Staff can
// read any rider by id; riders read their own.
func RiderEarnings(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		riderID, err := validators.ParsePathUUID(chi.URLParam(r, "riderId"), "riderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if own := middleware.RiderIDFromContext(r.Context()); own != "" && own != riderID.String() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "riders may only read their own earnings"))
			return
		}

		summary, err := svc.Earnings(r.Context(), riderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// RiderLeaderboard returns the top riders by completed deliveries in the
// trailing window.
func RiderLeaderboard(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.Leaderboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
