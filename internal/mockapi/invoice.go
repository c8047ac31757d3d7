package mockapi

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

func invoiceFilename(p *patient, date time.Time) string {
	return fmt.Sprintf("facture_%s_%s_%s.pdf",
		strings.ToLower(p.LastName), strings.ToLower(p.FirstName), date.Format("2006_01_02"))
}

// renderInvoice writes a one page PDF with a single text line.
func renderInvoice(u *user, p *patient, o *office, amount float64, date time.Time) []byte {
	text := fmt.Sprintf("Facture %s - %s %s - %.2f EUR - Dr %s - %s",
		date.Format("02/01/2006"), p.FirstName, p.LastName, amount, u.name(), o.Name)
	text = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
	stream := fmt.Sprintf("BT /F1 12 Tf 50 780 Td (%s) Tj ET", text)

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
