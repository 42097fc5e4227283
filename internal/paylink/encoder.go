package paylink

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/noah-isme/backend-billing/internal/money"
)

// Fields names the query parameters of the deep link. Payment apps match them exactly.
type Fields struct {
	Payee    string
	Name     string
	Amount   string
	Note     string
	Currency string
}

var (
	// DefaultFields is the generic pay link parameter set.
	DefaultFields = Fields{Payee: "payee", Name: "name", Amount: "amount", Note: "note"}
	// UPIFields is the parameter set understood by UPI wallet apps.
	UPIFields = Fields{Payee: "pa", Name: "pn", Amount: "am", Note: "tn", Currency: "cu"}
)

// FieldsByName resolves a configured field preset.
func FieldsByName(name string) Fields {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "upi":
		return UPIFields
	default:
		return DefaultFields
	}
}

// Config carries the merchant details that used to be baked into the billing form.
type Config struct {
	Scheme       string
	PayeeHandle  string
	BusinessName string
	Currency     string
	Fields       Fields
}

// Request describes one payment deep link.
type Request struct {
	PayeeHandle string      `json:"payeeHandle"`
	PayerName   string      `json:"payerName"`
	Amount      money.Money `json:"amount"`
	Reference   string      `json:"reference"`
}

// ValidationError reports a request field that cannot produce a usable link.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Encoder builds payment deep links for a configured payee.
type Encoder struct {
	cfg Config
}

// NewEncoder validates cfg and fills defaults.
func NewEncoder(cfg Config) (*Encoder, error) {
	cfg.Scheme = strings.TrimSuffix(strings.TrimSpace(cfg.Scheme), "://")
	if cfg.Scheme == "" {
		cfg.Scheme = "upi"
	}
	if cfg.Fields == (Fields{}) {
		cfg.Fields = DefaultFields
	}
	cfg.PayeeHandle = strings.TrimSpace(cfg.PayeeHandle)
	if cfg.PayeeHandle != "" {
		if err := checkHandle(cfg.PayeeHandle); err != nil {
			return nil, err
		}
	}
	return &Encoder{cfg: cfg}, nil
}

// Config returns the effective encoder configuration.
func (e *Encoder) Config() Config {
	return e.cfg
}

// BuildURI renders the deep link for req. An empty PayeeHandle falls back to the configured one.
func (e *Encoder) BuildURI(req Request) (string, error) {
	handle := strings.TrimSpace(req.PayeeHandle)
	if handle == "" {
		handle = e.cfg.PayeeHandle
	}
	if err := checkHandle(handle); err != nil {
		return "", err
	}
	if req.Amount <= 0 {
		return "", &ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	}
	if req.Amount > money.MaxAmount {
		return "", &ValidationError{Field: "amount", Message: "amount must not exceed " + money.MaxAmount.String()}
	}

	f := e.cfg.Fields
	var b strings.Builder
	b.WriteString(e.cfg.Scheme)
	b.WriteString("://pay?")
	b.WriteString(f.Payee + "=" + handle)
	b.WriteString("&" + f.Name + "=" + escape(strings.TrimSpace(req.PayerName)))
	b.WriteString("&" + f.Amount + "=" + req.Amount.String())
	b.WriteString("&" + f.Note + "=" + escape(strings.TrimSpace(req.Reference)))
	if f.Currency != "" && e.cfg.Currency != "" {
		b.WriteString("&" + f.Currency + "=" + escape(e.cfg.Currency))
	}
	return b.String(), nil
}

// BuildPaymentURI is a convenience wrapper around BuildURI.
func (e *Encoder) BuildPaymentURI(payeeHandle, payerName string, amount money.Money, reference string) (string, error) {
	return e.BuildURI(Request{PayeeHandle: payeeHandle, PayerName: payerName, Amount: amount, Reference: reference})
}

func checkHandle(handle string) error {
	if handle == "" {
		return &ValidationError{Field: "payeeHandle", Message: "payee handle is required"}
	}
	if strings.ContainsAny(handle, " \t\r\n&?#=/%+") {
		return &ValidationError{Field: "payeeHandle", Message: "payee handle contains reserved characters"}
	}
	return nil
}

// escape percent-encodes s for a query value, using %20 for spaces.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
