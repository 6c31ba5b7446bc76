package events

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/neweragit/newera-server/internal/storage"
	qrcode "github.com/skip2/go-qrcode"
)

const qrPixels = 256

// RenderedTicket is what the HTTP layer streams back. PNG fallback happens
// when PDF assembly fails but the QR itself rendered.
type RenderedTicket struct {
	Content     []byte
	ContentType string
	Filename    string
}

// RenderTicket produces a one-page landscape ticket PDF containing the
// entry QR. The QR payload pairs event and holder so door scanners can
// check both.
func RenderTicket(ticket storage.Ticket, event storage.Event, user storage.User) (RenderedTicket, error) {
	payload := fmt.Sprintf("%s-%s", ticket.EventID, ticket.UserID)
	png, err := qrcode.Encode(payload, qrcode.Medium, qrPixels)
	if err != nil {
		return RenderedTicket{}, fmt.Errorf("encode ticket qr: %w", err)
	}

	pdfBytes, err := assembleTicketPDF(png, ticket, event, user)
	if err != nil {
		// Serve the bare QR rather than nothing.
		return RenderedTicket{
			Content:     png,
			ContentType: "image/png",
			Filename:    fmt.Sprintf("ticket_%s.png", ticket.Code),
		}, nil
	}

	return RenderedTicket{
		Content:     pdfBytes,
		ContentType: "application/pdf",
		Filename:    fmt.Sprintf("ticket_%s.pdf", ticket.Code),
	}, nil
}

func assembleTicketPDF(qrPNG []byte, ticket storage.Ticket, event storage.Event, user storage.User) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A5", "")
	pdf.SetTitle("New Era Club Ticket", false)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(10, 12)
	pdf.CellFormat(pageW-20, 10, event.Title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetX(10)
	venueLine := fmt.Sprintf("%s, %s", event.Venue, event.StartsAt.UTC().Format("2 January 2006 15:04 UTC"))
	pdf.CellFormat(pageW-20, 7, venueLine, "", 1, "C", false, 0, "")

	qrSide := 60.0
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("ticket-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("ticket-qr", (pageW-qrSide)/2, (pageH-qrSide)/2-2, qrSide, qrSide, false, opts, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(10, pageH-28)
	pdf.CellFormat(pageW-20, 6, user.FullName, "", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "", 9)
	pdf.SetX(10)
	pdf.CellFormat(pageW-20, 5, ticket.Code, "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}
