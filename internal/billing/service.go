package billing

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-billing/internal/money"
	"github.com/noah-isme/backend-billing/internal/obs"
	"github.com/noah-isme/backend-billing/internal/paylink"
)

// ServiceConfig wires the collaborators of Service.
type ServiceConfig struct {
	Store    Store
	Encoder  *paylink.Encoder
	Renderer paylink.Renderer
	Logger   zerolog.Logger
	Now      func() time.Time
	NewID    func() string
}

// Service computes, persists and renders bills.
type Service struct {
	store    Store
	encoder  *paylink.Encoder
	renderer paylink.Renderer
	logger   zerolog.Logger
	now      func() time.Time
	newID    func() string
	validate *validator.Validate
}

// PaymentLink is a deep link with its optional inline image. ImageError is set when the
// image could not be rendered; the URI remains usable.
type PaymentLink struct {
	URI        string `json:"uri"`
	QRDataURI  string `json:"qrDataUri,omitempty"`
	ImageError string `json:"imageError,omitempty"`
}

// NewService validates cfg and returns a ready service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("billing: store is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Renderer == nil {
		cfg.Renderer = paylink.QRRenderer{}
	}
	return &Service{
		store:    cfg.Store,
		encoder:  cfg.Encoder,
		renderer: cfg.Renderer,
		logger:   cfg.Logger,
		now:      cfg.Now,
		newID:    cfg.NewID,
		validate: newValidator(),
	}, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Preview computes the bill for draft without persisting it.
func (s *Service) Preview(ctx context.Context, draft Draft) (Bill, error) {
	_, span := otel.Tracer("billing.Service").Start(ctx, "BillingService.Preview")
	defer span.End()
	return s.build("", draft, s.now(), time.Time{}, false)
}

// Save recomputes draft from scratch and writes it under id with a single upsert.
// An empty id allocates a new one.
func (s *Service) Save(ctx context.Context, id string, draft Draft) (Bill, error) {
	ctx, span := otel.Tracer("billing.Service").Start(ctx, "BillingService.Save")
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		id = s.newID()
	}
	span.SetAttributes(attribute.String("bill.id", id))

	now := s.now()
	createdAt := now
	existing, err := s.store.Get(ctx, id)
	switch {
	case err == nil:
		createdAt = existing.CreatedAt
	case errors.Is(err, ErrBillNotFound):
	default:
		return Bill{}, fmt.Errorf("load bill %s: %w", id, err)
	}

	bill, err := s.build(id, draft, now, createdAt, true)
	if err != nil {
		return Bill{}, err
	}
	if err := s.store.Upsert(ctx, bill); err != nil {
		return Bill{}, err
	}
	span.SetAttributes(
		attribute.String("bill.status", string(bill.Totals.Status)),
		attribute.Int64("bill.grand_total_minor", int64(bill.Totals.GrandTotal)),
	)
	obs.CountResult(obs.BillSavedTotal, string(bill.Totals.Status))
	s.logger.Info().
		Str("bill_id", bill.ID).
		Str("status", string(bill.Totals.Status)).
		Str("grand_total", bill.Totals.GrandTotal.String()).
		Str("balance", bill.Totals.Balance.String()).
		Bool("overpaid", bill.Totals.Overpaid).
		Msg("bill saved")
	return bill, nil
}

// Get loads a stored bill.
func (s *Service) Get(ctx context.Context, id string) (Bill, error) {
	return s.store.Get(ctx, strings.TrimSpace(id))
}

// List returns the most recently updated bills.
func (s *Service) List(ctx context.Context, limit int) ([]Bill, error) {
	return s.store.List(ctx, limit)
}

// BillQR renders the stored payment URI of bill id as a PNG.
func (s *Service) BillQR(ctx context.Context, id string) ([]byte, error) {
	bill, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill.PaymentURI == "" {
		return nil, ErrNoPaymentLink
	}
	return s.RenderQR(ctx, bill.PaymentURI)
}

// RenderQR renders uri with the configured renderer. One attempt is made.
func (s *Service) RenderQR(ctx context.Context, uri string) ([]byte, error) {
	start := time.Now()
	img, err := s.renderer.Render(ctx, uri)
	if obs.PaymentQRRenderLatency != nil {
		obs.PaymentQRRenderLatency.Observe(obs.DurationMillis(time.Since(start)))
	}
	if err != nil {
		obs.CountResult(obs.PaymentQRRenderTotal, "error")
		var encErr *paylink.EncodingError
		if !errors.As(err, &encErr) {
			err = &paylink.EncodingError{URI: uri, Err: err}
		}
		return nil, err
	}
	obs.CountResult(obs.PaymentQRRenderTotal, "ok")
	return img, nil
}

// PaymentLink builds a deep link for req and tries to render its image. A render
// failure is reported in ImageError instead of failing the call.
func (s *Service) PaymentLink(ctx context.Context, req paylink.Request) (PaymentLink, error) {
	if s.encoder == nil {
		return PaymentLink{}, errors.New("billing: payment link encoder not configured")
	}
	uri, err := s.encoder.BuildURI(req)
	if err != nil {
		obs.CountResult(obs.PaymentLinkTotal, "invalid")
		return PaymentLink{}, err
	}
	obs.CountResult(obs.PaymentLinkTotal, "ok")
	link := PaymentLink{URI: uri}
	img, err := s.RenderQR(ctx, uri)
	if err != nil {
		s.logger.Warn().Err(err).Str("reference", req.Reference).Msg("payment qr render failed")
		link.ImageError = err.Error()
		return link, nil
	}
	link.QRDataURI = paylink.DataURI(img)
	return link, nil
}

// build recomputes every derived value from draft. strict also enforces the
// record-level fields that only matter on submit.
func (s *Service) build(id string, draft Draft, now, createdAt time.Time, strict bool) (Bill, error) {
	if err := s.validateDraft(draft, strict); err != nil {
		obs.CountResult(obs.BillTotalsTotal, "invalid")
		return Bill{}, err
	}
	totals, err := draft.Input.Totals()
	if err != nil {
		obs.CountResult(obs.BillTotalsTotal, "invalid")
		return Bill{}, err
	}
	obs.CountResult(obs.BillTotalsTotal, "ok")

	if createdAt.IsZero() {
		createdAt = now
	}
	bill := Bill{
		ID:            id,
		CustomerName:  strings.TrimSpace(draft.CustomerName),
		CustomerPhone: strings.TrimSpace(draft.CustomerPhone),
		Notes:         strings.TrimSpace(draft.Notes),
		DueDate:       draft.DueDate,
		Items:         NormalizeItems(draft.Items, s.newID),
		Breakdown:     draft.Breakdown,
		TaxPercent:    totals.TaxPercent,
		Discount:      DiscountSpec{Amount: draft.Discount.Amount, Kind: draft.Discount.Kind.Normalize()},
		Totals:        totals,
		CreatedAt:     createdAt.UTC(),
		UpdatedAt:     now.UTC(),
	}
	bill.PaymentURI = s.paymentURI(bill)
	return bill, nil
}

func (s *Service) paymentURI(bill Bill) string {
	if s.encoder == nil || bill.Totals.Balance <= money.Zero {
		return ""
	}
	reference := bill.ID
	if reference == "" {
		reference = "DRAFT"
	}
	uri, err := s.encoder.BuildURI(paylink.Request{
		PayerName: bill.CustomerName,
		Amount:    bill.Totals.Balance,
		Reference: reference,
	})
	if err != nil {
		obs.CountResult(obs.PaymentLinkTotal, "invalid")
		s.logger.Warn().Err(err).Str("bill_id", bill.ID).Msg("payment link skipped")
		return ""
	}
	obs.CountResult(obs.PaymentLinkTotal, "ok")
	return uri
}

func (s *Service) validateDraft(draft Draft, strict bool) error {
	verr := &ValidationError{}
	if err := s.validate.Struct(draft); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			if !strict && fe.Tag() == "required" {
				continue
			}
			constraint := fe.Tag()
			if fe.Param() != "" {
				constraint += "=" + fe.Param()
			}
			verr.add(fieldPath(fe.Namespace()), constraint, fmt.Sprintf("failed %s", constraint))
		}
	}
	if err := draft.Input.Validate(); err != nil {
		if inner, ok := AsValidationError(err); ok {
			verr.Fields = append(verr.Fields, inner.Fields...)
		}
	}
	return verr.orNil()
}

// fieldPath strips the root type from a validator namespace such as "Draft.customerName".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.TrimPrefix(ns, "Input.")
}
