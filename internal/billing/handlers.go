package billing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-billing/internal/common"
	"github.com/noah-isme/backend-billing/internal/paylink"
)

// ReceiptRenderer produces a printable document for a bill. qrPNG may be nil.
type ReceiptRenderer interface {
	Render(bill Bill, qrPNG []byte) ([]byte, error)
}

// Handler exposes bill and payment link endpoints.
type Handler struct {
	Svc      *Service
	Receipts ReceiptRenderer
	Logger   zerolog.Logger
	// Writes wraps the persisting routes, e.g. idempotency.
	Writes []func(http.Handler) http.Handler
	// Limited wraps the image and payment-link routes, e.g. rate limiting.
	Limited []func(http.Handler) http.Handler
}

// Routes mounts the billing endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/bills/preview", h.Preview)
	r.Get("/bills", h.List)
	r.Get("/bills/{id}", h.Get)
	r.Get("/bills/{id}/receipt.pdf", h.Receipt)
	r.With(h.Writes...).Post("/bills", h.Create)
	r.With(h.Writes...).Put("/bills/{id}", h.Put)
	r.With(h.Limited...).Get("/bills/{id}/qr.png", h.QR)
	r.With(h.Limited...).Post("/payment-links", h.PaymentLink)
}

// Preview returns freshly computed totals without persisting anything.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var draft Draft
	if !decode(w, r, &draft) {
		return
	}
	bill, err := h.Svc.Preview(r.Context(), draft)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, bill)
}

// Create stores a new bill under a generated id.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "", http.StatusCreated)
}

// Put upserts the bill identified by the {id} path parameter.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	h.save(w, r, id, http.StatusOK)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, id string, status int) {
	if !h.ready(w) {
		return
	}
	var draft Draft
	if !decode(w, r, &draft) {
		return
	}
	bill, err := h.Svc.Save(r.Context(), id, draft)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, status, bill)
}

// Get returns one stored bill.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	bill, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, bill)
}

// List returns recently updated bills. ?limit caps the result size at 100.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be a positive integer", nil)
			return
		}
		limit = min(parsed, 100)
	}
	bills, err := h.Svc.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, bills)
}

// QR streams the payment QR code of a stored bill as PNG.
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id := chi.URLParam(r, "id")
	img, err := h.Svc.BillQR(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Binary(w, "image/png", id+".png", img)
}

// Receipt renders a printable PDF of a stored bill. The QR code is omitted when it
// cannot be rendered.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if h.Receipts == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "receipt renderer not configured", nil)
		return
	}
	bill, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	var qrPNG []byte
	if bill.PaymentURI != "" {
		img, err := h.Svc.RenderQR(r.Context(), bill.PaymentURI)
		if err != nil {
			h.Logger.Warn().Err(err).Str("bill_id", bill.ID).Msg("receipt without qr")
		} else {
			qrPNG = img
		}
	}
	doc, err := h.Receipts.Render(bill, qrPNG)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Binary(w, "application/pdf", bill.ID+".pdf", doc)
}

// PaymentLink builds an ad-hoc deep link and its inline QR image.
func (h *Handler) PaymentLink(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req paylink.Request
	if !decode(w, r, &req) {
		return
	}
	link, err := h.Svc.PaymentLink(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, link)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "billing service not configured", nil)
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		linkErr *paylink.ValidationError
		encErr  *paylink.EncodingError
	)
	if verr, ok := AsValidationError(err); ok {
		common.WriteError(w, common.ValidationFailed(err, verr.Fields))
		return
	}
	switch {
	case errors.As(err, &linkErr):
		common.WriteError(w, common.ValidationFailed(err, []FieldError{{Field: linkErr.Field, Constraint: "valid", Message: linkErr.Message}}))
	case errors.Is(err, ErrBillNotFound):
		common.WriteError(w, common.NotFound("bill not found", err))
	case errors.Is(err, ErrNoPaymentLink):
		common.JSONError(w, http.StatusConflict, "NO_PAYMENT_DUE", "bill has no outstanding balance", nil)
	case errors.As(err, &encErr):
		common.JSONError(w, http.StatusBadGateway, "ENCODING_FAILED", "payment image could not be rendered", map[string]any{"uri": encErr.URI})
	default:
		h.Logger.Error().Err(err).Msg("billing request failed")
		common.WriteError(w, err)
	}
}
