package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-billing/internal/money"
)

const (
	// MaxTaxPercent is the upper bound accepted for the tax rate.
	MaxTaxPercent = 100
	// MaxQuantity bounds the quantity of a single line item.
	MaxQuantity = 1_000_000
)

var (
	maxPercent    = decimal.NewFromInt(MaxTaxPercent)
	hundred       = decimal.NewFromInt(100)
	maxAmountRule = "lte=" + money.MaxAmount.String()
)

// LineItem is one itemised row of a bill. Amount is derived from Quantity and UnitRate.
type LineItem struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Quantity    int         `json:"quantity"`
	UnitRate    money.Money `json:"unitRate"`
	Amount      money.Money `json:"amount"`
}

// LineAmount returns Quantity × UnitRate.
func (li LineItem) LineAmount() (money.Money, error) {
	return li.UnitRate.Mul(li.Quantity)
}

// ChargeBreakdown holds the fixed set of non-itemised charge categories.
type ChargeBreakdown struct {
	Fabric        money.Money `json:"fabric"`
	Stitching     money.Money `json:"stitching"`
	Accessories   money.Money `json:"accessories"`
	Customization money.Money `json:"customization"`
	OtherCharges  money.Money `json:"otherCharges"`
}

// Total sums every breakdown field.
func (b ChargeBreakdown) Total() (money.Money, error) {
	return money.Sum(b.Fabric, b.Stitching, b.Accessories, b.Customization, b.OtherCharges)
}

func (b ChargeBreakdown) fields() []struct {
	name  string
	value money.Money
} {
	return []struct {
		name  string
		value money.Money
	}{
		{"breakdown.fabric", b.Fabric},
		{"breakdown.stitching", b.Stitching},
		{"breakdown.accessories", b.Accessories},
		{"breakdown.customization", b.Customization},
		{"breakdown.otherCharges", b.OtherCharges},
	}
}

// DiscountKind selects how DiscountSpec.Amount is interpreted.
type DiscountKind string

const (
	DiscountFlat       DiscountKind = "flat"
	DiscountPercentage DiscountKind = "percentage"
)

// Normalize maps aliases and the empty value onto a canonical kind.
func (k DiscountKind) Normalize() DiscountKind {
	switch strings.ToLower(strings.TrimSpace(string(k))) {
	case "", "flat", "fixed", "amount":
		return DiscountFlat
	case "percentage", "percent", "pct":
		return DiscountPercentage
	default:
		return k
	}
}

// DiscountSpec describes a discount either as a literal amount or a percentage of the subtotal.
type DiscountSpec struct {
	Amount decimal.Decimal `json:"amount"`
	Kind   DiscountKind    `json:"kind"`
}

// PaymentStatus classifies how much of the grand total has been collected.
type PaymentStatus string

const (
	StatusUnpaid  PaymentStatus = "unpaid"
	StatusPartial PaymentStatus = "partial"
	StatusPaid    PaymentStatus = "paid"
)

// Totals is the derived summary of a bill. It is recomputed from inputs on every change.
type Totals struct {
	LineItemsTotal money.Money   `json:"lineItemsTotal"`
	BreakdownTotal money.Money   `json:"breakdownTotal"`
	Subtotal       money.Money   `json:"subtotal"`
	TaxPercent     string        `json:"taxPercent"`
	TaxAmount      money.Money   `json:"taxAmount"`
	DiscountAmount money.Money   `json:"discountAmount"`
	GrandTotal     money.Money   `json:"grandTotal"`
	PaidAmount     money.Money   `json:"paidAmount"`
	Balance        money.Money   `json:"balance"`
	Status         PaymentStatus `json:"status"`
	Overpaid       bool          `json:"overpaid"`
}

// Input bundles the values ComputeTotals consumes.
type Input struct {
	Items      []LineItem      `json:"items"`
	Breakdown  ChargeBreakdown `json:"breakdown"`
	TaxPercent decimal.Decimal `json:"taxPercent"`
	Discount   DiscountSpec    `json:"discount"`
	PaidAmount money.Money     `json:"paidAmount"`
}

// Totals computes the bill totals for the input.
func (in Input) Totals() (Totals, error) {
	return ComputeTotals(in.Items, in.Breakdown, in.TaxPercent, in.Discount, in.PaidAmount)
}

// Validate reports every out-of-range field of the input, including totals
// that would exceed money.MaxAmount.
func (in Input) Validate() error {
	verr := &ValidationError{}
	for i, it := range in.Items {
		if it.Quantity < 1 {
			verr.add(fmt.Sprintf("items[%d].quantity", i), "gte=1", "quantity must be a positive integer")
		} else if it.Quantity > MaxQuantity {
			verr.add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("lte=%d", MaxQuantity), fmt.Sprintf("quantity must not exceed %d", MaxQuantity))
		}
		if it.UnitRate < 0 {
			verr.add(fmt.Sprintf("items[%d].unitRate", i), "gte=0", "unit rate must not be negative")
		} else if it.UnitRate > money.MaxAmount {
			verr.add(fmt.Sprintf("items[%d].unitRate", i), maxAmountRule, "unit rate is too large")
		}
	}
	for _, f := range in.Breakdown.fields() {
		if f.value < 0 {
			verr.add(f.name, "gte=0", "charge must not be negative")
		} else if f.value > money.MaxAmount {
			verr.add(f.name, maxAmountRule, "charge is too large")
		}
	}
	if in.TaxPercent.IsNegative() || in.TaxPercent.GreaterThan(maxPercent) {
		verr.add("taxPercent", "range=0..100", "tax percent must be between 0 and 100")
	}
	switch in.Discount.Kind.Normalize() {
	case DiscountFlat, DiscountPercentage:
		// amounts above the bill total are clamped, not rejected
		if in.Discount.Amount.IsNegative() {
			verr.add("discount.amount", "gte=0", "discount must not be negative")
		}
	default:
		verr.add("discount.kind", "oneof=flat percentage", fmt.Sprintf("unknown discount kind %q", in.Discount.Kind))
	}
	if in.PaidAmount < 0 {
		verr.add("paidAmount", "gte=0", "paid amount must not be negative")
	} else if in.PaidAmount > money.MaxAmount {
		verr.add("paidAmount", maxAmountRule, "paid amount is too large")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	_, err := in.aggregate()
	return err
}

type sums struct {
	items     money.Money
	breakdown money.Money
	subtotal  money.Money
	tax       money.Money
	gross     money.Money
}

// aggregate adds up the bill with checked arithmetic. Fields must already be in range.
func (in Input) aggregate() (sums, error) {
	var (
		s   sums
		err error
	)
	for i, it := range in.Items {
		line, lerr := it.LineAmount()
		if lerr != nil {
			return sums{}, tooLarge(fmt.Sprintf("items[%d].amount", i), "line amount")
		}
		if s.items, err = money.Add(s.items, line); err != nil {
			return sums{}, tooLarge("items", "line items total")
		}
	}
	if s.breakdown, err = in.Breakdown.Total(); err != nil {
		return sums{}, tooLarge("breakdown", "charges total")
	}
	if s.subtotal, err = money.Add(s.items, s.breakdown); err != nil {
		return sums{}, tooLarge("subtotal", "subtotal")
	}
	if s.tax, err = s.subtotal.Percent(in.TaxPercent); err != nil {
		return sums{}, tooLarge("taxAmount", "tax amount")
	}
	if s.gross, err = money.Add(s.subtotal, s.tax); err != nil {
		return sums{}, tooLarge("grandTotal", "total including tax")
	}
	return s, nil
}

func tooLarge(field, what string) error {
	verr := &ValidationError{}
	verr.add(field, maxAmountRule, what+" exceeds "+money.MaxAmount.String())
	return verr
}

// ComputeTotals derives subtotal, tax, discount, grand total, balance and status.
// Tax is applied to the subtotal before the discount is taken off.
func ComputeTotals(items []LineItem, breakdown ChargeBreakdown, taxPercent decimal.Decimal, discount DiscountSpec, paid money.Money) (Totals, error) {
	in := Input{Items: items, Breakdown: breakdown, TaxPercent: taxPercent, Discount: discount, PaidAmount: paid}
	if err := in.Validate(); err != nil {
		return Totals{}, err
	}
	s, err := in.aggregate()
	if err != nil {
		return Totals{}, err
	}

	disc := discountAmount(discount, s.subtotal, s.gross)
	grand := money.Max(0, s.gross-disc)
	balance := grand - paid

	return Totals{
		LineItemsTotal: s.items,
		BreakdownTotal: s.breakdown,
		Subtotal:       s.subtotal,
		TaxPercent:     taxPercent.String(),
		TaxAmount:      s.tax,
		DiscountAmount: disc,
		GrandTotal:     grand,
		PaidAmount:     paid,
		Balance:        balance,
		Status:         classify(grand, paid, balance),
		Overpaid:       balance < 0,
	}, nil
}

// discountAmount resolves d against subtotal and clamps it to [0, ceiling] before
// converting to paise, so oversized discounts never leave the money range.
func discountAmount(d DiscountSpec, subtotal, ceiling money.Money) money.Money {
	raw := d.Amount
	if d.Kind.Normalize() == DiscountPercentage {
		raw = subtotal.Decimal().Mul(d.Amount).Div(hundred)
	}
	if raw.IsNegative() {
		return money.Zero
	}
	if raw.GreaterThanOrEqual(ceiling.Decimal()) {
		return ceiling
	}
	amount, err := money.FromDecimal(raw)
	if err != nil {
		return ceiling
	}
	return amount
}

func classify(grand, paid, balance money.Money) PaymentStatus {
	switch {
	case grand == 0:
		// nothing owed on an empty bill
		return StatusPaid
	case balance <= 0:
		return StatusPaid
	case paid == 0:
		return StatusUnpaid
	default:
		return StatusPartial
	}
}

// NormalizeItems returns a copy of items with Amount recomputed and missing ids filled by newID.
// Items are expected to have passed Input.Validate.
func NormalizeItems(items []LineItem, newID func() string) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		it.Description = strings.TrimSpace(it.Description)
		if strings.TrimSpace(it.ID) == "" && newID != nil {
			it.ID = newID()
		}
		if amount, err := it.LineAmount(); err == nil {
			it.Amount = amount
		} else {
			it.Amount = money.Zero
		}
		out[i] = it
	}
	return out
}
