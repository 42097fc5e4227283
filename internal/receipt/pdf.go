package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/noah-isme/backend-billing/internal/billing"
	"github.com/noah-isme/backend-billing/internal/money"
)

// Config holds the letterhead printed on every receipt.
type Config struct {
	BusinessName string
	Address      string
	Phone        string
	GSTIN        string
	Footer       string
	Location     *time.Location
}

// Renderer prints bills as A4 PDFs.
type Renderer struct {
	Config Config
}

// Render draws bill and, when qrPNG is non-empty, its payment QR code.
func (r Renderer) Render(bill billing.Bill, qrPNG []byte) ([]byte, error) {
	cfg := r.Config
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle("Bill "+bill.ID, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, tr(valueOr(cfg.BusinessName, "Invoice")), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range []string{cfg.Address, cfg.Phone, gstLine(cfg.GSTIN)} {
		if strings.TrimSpace(line) != "" {
			pdf.CellFormat(190, 5, tr(line), "", 1, "C", false, 0, "")
		}
	}
	pdf.Ln(4)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(190, 8, tr("Bill "+bill.ID), "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 7, tr("Customer: "+bill.CustomerName), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Phone: "+bill.CustomerPhone), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Date: "+bill.UpdatedAt.In(loc).Format("02-Jan-2006"), "LB", 0, "L", false, 0, "")
	due := ""
	if bill.DueDate != nil {
		due = bill.DueDate.In(loc).Format("02-Jan-2006")
	}
	pdf.CellFormat(95, 7, "Due: "+due, "RB", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	widths := []float64{10, 90, 20, 35, 35}
	for i, head := range []string{"#", "Description", "Qty", "Rate", "Amount"} {
		pdf.CellFormat(widths[i], 7, head, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for i, it := range bill.Items {
		pdf.CellFormat(widths[0], 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(it.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, it.UnitRate.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, it.Amount.String(), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	rows := []struct {
		label string
		value money.Money
	}{
		{"Fabric", bill.Breakdown.Fabric},
		{"Stitching", bill.Breakdown.Stitching},
		{"Accessories", bill.Breakdown.Accessories},
		{"Customization", bill.Breakdown.Customization},
		{"Other charges", bill.Breakdown.OtherCharges},
	}
	for _, row := range rows {
		if row.value != 0 {
			amountRow(pdf, row.label, row.value, false)
		}
	}
	t := bill.Totals
	amountRow(pdf, "Subtotal", t.Subtotal, true)
	amountRow(pdf, fmt.Sprintf("GST (%s%%)", t.TaxPercent), t.TaxAmount, false)
	if t.DiscountAmount != 0 {
		amountRow(pdf, "Discount", -t.DiscountAmount, false)
	}
	amountRow(pdf, "Grand total", t.GrandTotal, true)
	amountRow(pdf, "Paid", t.PaidAmount, false)
	amountRow(pdf, "Balance", t.Balance, true)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(190, 7, "Status: "+strings.ToUpper(string(t.Status)), "", 1, "R", false, 0, "")
	if t.Overpaid {
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(190, 6, "Overpaid: refund due "+(-t.Balance).String(), "", 1, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	if len(qrPNG) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("payqr", opts, bytes.NewReader(qrPNG))
		y := pdf.GetY() + 4
		pdf.ImageOptions("payqr", 10, y, 40, 40, false, opts, 0, "")
		pdf.SetXY(55, y+15)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(145, 5, tr("Scan to pay the balance of "+t.Balance.String()), "", "L", false)
		pdf.SetY(y + 44)
	}

	if strings.TrimSpace(bill.Notes) != "" {
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(190, 5, tr("Notes: "+bill.Notes), "", "L", false)
	}
	if strings.TrimSpace(cfg.Footer) != "" {
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(190, 6, tr(cfg.Footer), "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", bill.ID, err)
	}
	return buf.Bytes(), nil
}

func amountRow(pdf *gofpdf.Fpdf, label string, value money.Money, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Arial", style, 10)
	pdf.CellFormat(155, 6, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, value.String(), "", 1, "R", false, 0, "")
}

func gstLine(gstin string) string {
	if strings.TrimSpace(gstin) == "" {
		return ""
	}
	return "GSTIN: " + gstin
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
