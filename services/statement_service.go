package services

import (
	"bytes"
	"fmt"

	"github.com/wambuidev/repair_hub/models"
	"github.com/phpdave11/gofpdf"
)

// BuildPayoutStatementPDF renders a settlement statement for a payout
// request: the technician, the claimed bookings, and the total paid out.
func BuildPayoutStatementPDF(request models.PayoutRequest, technician models.User, bookings []models.Booking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payout Statement", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "PAYOUT STATEMENT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Statement No : PS-%s", shortID(request.ID.String())))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Technician   : %s", technician.FullName))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Requested    : %s", request.RequestedAt.Format("2006-01-02 15:04")))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Status       : %s", request.Status))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Paid via     : %s (%s)", request.PaymentMethod, request.AccountDetails))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Settled jobs:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	for _, booking := range bookings {
		completed := "-"
		if booking.CompletedAt != nil {
			completed = booking.CompletedAt.Format("2006-01-02")
		}
		share := int64(0)
		if booking.TechnicianEarnings != nil {
			share = *booking.TechnicianEarnings
		}
		line := fmt.Sprintf("%s  %s  completed %s  amount %d  your share %d",
			booking.Reference, booking.Service.Name, completed, booking.Amount, share)
		pdf.MultiCell(0, 6, line, "", "", false)
		pdf.Ln(1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total paid out: %d %s", request.Amount, bookingsCurrency(bookings)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Amounts reflect the earnings snapshot recorded when each job was completed.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("payout_statement_%s.pdf", shortID(request.ID.String()))
	return buf.Bytes(), filename, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func bookingsCurrency(bookings []models.Booking) string {
	for _, booking := range bookings {
		if booking.Currency != "" {
			return booking.Currency
		}
	}
	return ""
}
