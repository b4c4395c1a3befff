// Package pass renders the downloadable pass for a consumed invite: a PDF
// carrying the event details, the table assignment and a QR code pointing
// back at the invite's public URL.
package pass

import (
    "bytes"
    "errors"
    "fmt"

    "github.com/jung-kurt/gofpdf"
    qrcode "github.com/skip2/go-qrcode"

    "github.com/eventpass/invite-registry/internal/model"
)

// ErrNotEligible is returned when a pass is requested for an invite that
// is still available.  Only claimed or reserved invites have a pass.
var ErrNotEligible = errors.New("invite has no pass yet")

// qrPixels is the side length of the generated QR image.
const qrPixels = 300

// Renderer builds pass documents.  PublicBaseURL is the externally
// reachable base of this deployment; the QR code encodes
// <PublicBaseURL>/v1/invites/<token> so scanning a printed pass lands on
// the invite's status page.
type Renderer struct {
    PublicBaseURL string
}

// NewRenderer returns a Renderer for the given public base URL.
func NewRenderer(publicBaseURL string) *Renderer {
    return &Renderer{PublicBaseURL: publicBaseURL}
}

// InviteURL returns the public URL encoded into the invite's QR code.
func (r *Renderer) InviteURL(inv *model.Invite) string {
    return fmt.Sprintf("%s/v1/invites/%s", r.PublicBaseURL, inv.Token)
}

// Filename returns the download filename for an invite's pass.
func Filename(inv *model.Invite) string {
    return fmt.Sprintf("event-pass-%d.pdf", inv.TableNumber)
}

// RenderPass produces the PDF pass for a claimed or reserved invite.  An
// available invite yields ErrNotEligible.  Rendering happens strictly
// after state transitions commit, so a failure here never needs a
// rollback; the caller retries through the download route.
func (r *Renderer) RenderPass(inv *model.Invite, ev *model.Event) ([]byte, error) {
    state, err := inv.State()
    if err != nil {
        return nil, err
    }
    if state == model.StateAvailable {
        return nil, ErrNotEligible
    }

    png, err := qrcode.Encode(r.InviteURL(inv), qrcode.Medium, qrPixels)
    if err != nil {
        return nil, fmt.Errorf("encode qr: %w", err)
    }

    name := model.ReservedPlaceholderName
    if inv.InviteeName != nil {
        name = *inv.InviteeName
    }

    pdf := gofpdf.New("P", "mm", "A4", "")
    pdf.SetTitle(fmt.Sprintf("Event Pass - %s", ev.Title), true)
    pdf.AddPage()

    // Header: event title and a small banner line.
    pdf.SetFont("Helvetica", "B", 26)
    pdf.CellFormat(0, 14, ev.Title, "", 1, "C", false, 0, "")
    pdf.SetFont("Helvetica", "", 11)
    pdf.SetTextColor(107, 114, 128)
    pdf.CellFormat(0, 7, "EVENT PASS", "", 1, "C", false, 0, "")
    pdf.Ln(4)
    pdf.SetDrawColor(37, 99, 235)
    pdf.SetLineWidth(0.8)
    pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
    pdf.Ln(8)

    // Left column: attendee block and table number.
    top := pdf.GetY()
    pdf.SetTextColor(107, 114, 128)
    pdf.SetFont("Helvetica", "", 9)
    pdf.SetXY(20, top)
    pdf.CellFormat(80, 5, "GUEST", "", 1, "L", false, 0, "")
    pdf.SetTextColor(31, 41, 55)
    pdf.SetFont("Helvetica", "B", 14)
    pdf.SetX(20)
    pdf.CellFormat(80, 8, name, "", 1, "L", false, 0, "")
    pdf.Ln(4)

    pdf.SetTextColor(59, 130, 246)
    pdf.SetFont("Helvetica", "", 11)
    pdf.SetX(20)
    pdf.CellFormat(80, 6, "TABLE", "", 1, "C", false, 0, "")
    pdf.SetTextColor(30, 64, 175)
    pdf.SetFont("Helvetica", "B", 40)
    pdf.SetX(20)
    pdf.CellFormat(80, 18, fmt.Sprintf("%d", inv.TableNumber), "", 1, "C", false, 0, "")
    if inv.HasPlusOne {
        pdf.SetFont("Helvetica", "B", 11)
        pdf.SetTextColor(59, 130, 246)
        pdf.SetX(20)
        pdf.CellFormat(80, 7, "+1 GUEST", "", 1, "C", false, 0, "")
    }

    // Right column: QR code with caption.
    opts := gofpdf.ImageOptions{ImageType: "PNG"}
    pdf.RegisterImageOptionsReader("invite-qr", opts, bytes.NewReader(png))
    pdf.ImageOptions("invite-qr", 125, top, 55, 55, false, opts, 0, "")
    pdf.SetXY(125, top+57)
    pdf.SetFont("Helvetica", "", 8)
    pdf.SetTextColor(107, 114, 128)
    pdf.CellFormat(55, 5, "SCAN TO VERIFY", "", 1, "C", false, 0, "")

    // Footer: event details.
    pdf.SetY(top + 75)
    pdf.SetFont("Helvetica", "", 9)
    pdf.SetTextColor(107, 114, 128)
    pdf.CellFormat(0, 5, "WHEN", "", 1, "L", false, 0, "")
    pdf.SetFont("Helvetica", "B", 12)
    pdf.SetTextColor(31, 41, 55)
    pdf.CellFormat(0, 7, ev.EventTime.Format("Monday, January 2 2006 at 15:04"), "", 1, "L", false, 0, "")
    pdf.Ln(2)
    pdf.SetFont("Helvetica", "", 9)
    pdf.SetTextColor(107, 114, 128)
    pdf.CellFormat(0, 5, "WHERE", "", 1, "L", false, 0, "")
    pdf.SetFont("Helvetica", "B", 12)
    pdf.SetTextColor(31, 41, 55)
    pdf.MultiCell(0, 7, ev.Address, "", "L", false)

    var buf bytes.Buffer
    if err := pdf.Output(&buf); err != nil {
        return nil, fmt.Errorf("render pdf: %w", err)
    }
    return buf.Bytes(), nil
}
