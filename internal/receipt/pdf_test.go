package receipt

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-billing/internal/billing"
	"github.com/noah-isme/backend-billing/internal/money"
	"github.com/noah-isme/backend-billing/internal/paylink"
)

func sampleBill(t *testing.T) billing.Bill {
	t.Helper()
	items := []billing.LineItem{{ID: "1", Description: "Sherwani – embroidered", Quantity: 1, UnitRate: money.FromMajor(4500)}}
	breakdown := billing.ChargeBreakdown{Stitching: money.FromMajor(800), Accessories: money.FromMajor(150)}
	totals, err := billing.ComputeTotals(items, breakdown, decimal.NewFromInt(5), billing.DiscountSpec{Amount: decimal.NewFromInt(250)}, money.FromMajor(1000))
	require.NoError(t, err)
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	return billing.Bill{
		ID:           "BILL-007",
		CustomerName: "Asha Rao",
		Items:        billing.NormalizeItems(items, nil),
		Breakdown:    breakdown,
		TaxPercent:   totals.TaxPercent,
		Totals:       totals,
		Notes:        "Trial on Friday",
		DueDate:      &due,
		UpdatedAt:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRenderWithQR(t *testing.T) {
	bill := sampleBill(t)
	qr, err := paylink.QRRenderer{Size: 128}.Render(context.Background(), "upi://pay?payee=a@b&amount=1.00")
	require.NoError(t, err)

	doc, err := Renderer{Config: Config{BusinessName: "Stitch & Style", GSTIN: "29ABCDE1234F1Z5", Footer: "Thank you"}}.Render(bill, qr)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
}

func TestRenderWithoutQR(t *testing.T) {
	bill := sampleBill(t)
	bill.Totals.Balance = money.FromMajor(-10)
	bill.Totals.Overpaid = true

	doc, err := Renderer{}.Render(bill, nil)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
}

func TestRenderRejectsCorruptImage(t *testing.T) {
	_, err := Renderer{}.Render(sampleBill(t), []byte("not a png"))
	require.Error(t, err)
}
