package handler

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"github.com/srgjo27/car_rental/internal/platform/auth"
)

type RouterConfig struct {
	Verifier       *auth.Verifier
	Idempotency    IdempotencyStore
	RequestTimeout time.Duration
}

func NewRouter(h *BookingHandler, cfg RouterConfig, logger *log.Entry) http.Handler {
	router := httprouter.New()

	rpc := []Middleware{Authenticate(cfg.Verifier)}
	if cfg.Idempotency != nil {
		rpc = append(rpc, Idempotency(cfg.Idempotency, logger))
	}

	router.Handler(http.MethodPost, "/rpc/book_car_atomic", Chain(adapt(h.BookCarAtomic), rpc...))
	router.GET("/cars", h.ListAvailable)
	router.GET("/cars/:id", h.GetCar)
	router.GET("/health", h.Health)

	return Chain(router,
		Recovery(logger),
		RequestLogging(logger),
		RequestTimeout(cfg.RequestTimeout),
	)
}

func adapt(h httprouter.Handle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, r, httprouter.ParamsFromContext(r.Context()))
	})
}
