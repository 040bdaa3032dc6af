package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/srgjo27/car_rental/internal/core/domain"
	"github.com/srgjo27/car_rental/internal/platform/auth"
)

type Reserver interface {
	BookCarAtomic(ctx context.Context, caller auth.Identity, resourceID string) domain.ReservationResult
}

type CarReader interface {
	GetCar(ctx context.Context, id string) (*domain.Car, error)
	ListAvailable(ctx context.Context) ([]domain.Car, error)
}

type BookCarRequest struct {
	ResourceID string `json:"resource_id" validate:"required"`
}

type BookCarResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type BookingHandler struct {
	reserver Reserver
	cars     CarReader
	validate *validator.Validate
	log      *log.Entry
}

func NewBookingHandler(reserver Reserver, cars CarReader, logger *log.Entry) *BookingHandler {
	return &BookingHandler{
		reserver: reserver,
		cars:     cars,
		validate: validator.New(),
		log:      logger,
	}
}

func (h *BookingHandler) BookCarAtomic(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req BookCarRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)).Decode(&req); err != nil {
		writeBodyError(w, err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "resource_id is required")
		return
	}

	result := h.reserver.BookCarAtomic(r.Context(), caller, req.ResourceID)

	writeJSON(w, reservationStatus(result), BookCarResponse{
		Success: result.Success,
		Error:   result.Error(),
	})
}

func reservationStatus(result domain.ReservationResult) int {
	if result.Success {
		return http.StatusOK
	}

	switch result.Reason {
	case domain.ReasonNotFound:
		return http.StatusNotFound
	case domain.ReasonAlreadyBooked:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

func (h *BookingHandler) GetCar(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	car, err := h.cars.GetCar(r.Context(), ps.ByName("id"))
	if err != nil {
		if errors.Is(err, domain.ErrCarNotFound) {
			writeError(w, http.StatusNotFound, domain.ReasonNotFound.Message())
			return
		}

		h.log.WithError(err).Error("failed to load car")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, car)
}

func (h *BookingHandler) ListAvailable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cars, err := h.cars.ListAvailable(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to list available cars")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, cars)
}

func (h *BookingHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
