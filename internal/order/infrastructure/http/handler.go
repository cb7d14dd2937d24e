package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	catalog "github.com/dmehra2102/Atelier-Order-System/internal/catalog/domain"
	"github.com/dmehra2102/Atelier-Order-System/internal/order/application"
	"github.com/dmehra2102/Atelier-Order-System/internal/order/domain"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/checkout", h.checkout)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/transitions", h.transition)
	r.Get("/reservations", h.reservations)
	r.Get("/instruments/{id}", h.getInstrument)
	r.Post("/webhooks/payment", h.paymentWebhook)
	return r
}

type checkoutReq struct {
	AccountID    string `json:"account_id"`
	GuestEmail   string `json:"guest_email"`
	InstrumentID string `json:"instrument_id"`
}

type orderResp struct {
	ID         string         `json:"id"`
	Number     string         `json:"number"`
	AccountID  string         `json:"account_id,omitempty"`
	GuestEmail string         `json:"guest_email,omitempty"`
	Items      []lineItemResp `json:"items"`
	TotalCents int64          `json:"total_cents"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type lineItemResp struct {
	InstrumentID string `json:"instrument_id"`
	Title        string `json:"title"`
	PriceCents   int64  `json:"price_cents"`
}

func newOrderResp(o domain.Order) orderResp {
	resp := orderResp{
		ID:         o.ID,
		Number:     o.Number,
		AccountID:  o.Identity.AccountID,
		GuestEmail: o.Identity.GuestEmail,
		Items:      make([]lineItemResp, 0, len(o.Items)),
		TotalCents: o.TotalCents,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, lineItemResp{
			InstrumentID: item.InstrumentID,
			Title:        item.Title,
			PriceCents:   item.PriceCents,
		})
	}
	return resp
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Checkout")
	defer span.End()

	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	identity := domain.Identity{AccountID: req.AccountID, GuestEmail: req.GuestEmail}

	order, err := h.service.TryReserve(ctx, identity, req.InstrumentID)
	if err != nil {
		h.writeReserveError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderResp(order))
}

func (h *Handler) writeReserveError(w http.ResponseWriter, err error) {
	var limitErr *domain.ReservationLimitError
	switch {
	case errors.As(err, &limitErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "reservation_limit_exceeded",
			"count": limitErr.Count,
			"limit": limitErr.Limit,
		})
	case errors.Is(err, domain.ErrInstrumentUnavailable):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "instrument_unavailable"})
	case errors.Is(err, catalog.ErrInstrumentNotFound):
		writeError(w, http.StatusNotFound, "instrument not found")
	case errors.Is(err, domain.ErrInvalidIdentity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("checkout failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	order, err := h.service.GetOrder(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.log.Error("get order failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, newOrderResp(order))
}

type transitionReq struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
}

type transitionResp struct {
	Order   orderResp `json:"order"`
	Effects []string  `json:"effects"`
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TransitionOrder")
	defer span.End()

	var req transitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	h.runTransition(ctx, w, chi.URLParam(r, "id"), domain.OrderStatus(req.Status), req.Actor)
}

func (h *Handler) runTransition(ctx context.Context, w http.ResponseWriter, orderID string, target domain.OrderStatus, actor string) {
	order, effects, err := h.service.Transition(ctx, orderID, target, actor)
	if err != nil {
		var invalidErr *domain.InvalidTransitionError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.As(err, &invalidErr):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error": "invalid_transition",
				"from":  string(invalidErr.From),
				"to":    string(invalidErr.To),
			})
		case errors.Is(err, domain.ErrConflict):
			writeJSON(w, http.StatusConflict, map[string]any{"error": "conflict"})
		default:
			h.log.Error("transition failed", "order_id", orderID, "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	resp := transitionResp{Order: newOrderResp(order), Effects: make([]string, 0, len(effects))}
	for _, eff := range effects {
		resp.Effects = append(resp.Effects, string(eff.Kind))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) reservations(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Reservations")
	defer span.End()

	identity := domain.Identity{
		AccountID:  r.URL.Query().Get("account_id"),
		GuestEmail: r.URL.Query().Get("guest_email"),
	}
	quota, err := h.service.Reservations(ctx, identity)
	if errors.Is(err, domain.ErrInvalidIdentity) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.Error("reservations query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, quota)
}

func (h *Handler) getInstrument(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetInstrument")
	defer span.End()

	in, err := h.service.Instrument(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrInstrumentNotFound) {
		writeError(w, http.StatusNotFound, "instrument not found")
		return
	}
	if err != nil {
		h.log.Error("get instrument failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           in.ID,
		"title":        in.Title,
		"price_cents":  in.PriceCents,
		"availability": string(in.Availability),
	})
}

type paymentWebhookReq struct {
	OrderID string `json:"order_id"`
	Event   string `json:"event"`
}

// paymentWebhook maps gateway callbacks onto lifecycle transitions.
// Gateways redeliver, so the underlying idempotent transition is what
// keeps double "payment_succeeded" harmless.
func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PaymentWebhook")
	defer span.End()

	var req paymentWebhookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	var target domain.OrderStatus
	switch req.Event {
	case "payment_succeeded":
		target = domain.StatusPaid
	case "payment_failed", "payment_expired":
		target = domain.StatusCancelled
	default:
		writeError(w, http.StatusBadRequest, "unknown payment event")
		return
	}
	h.runTransition(ctx, w, req.OrderID, target, "payment-webhook")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
