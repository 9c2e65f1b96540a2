package parser

import (
	"bytes"
	"fmt"
	"strings"
)

var pdfStringEscapes = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)

// TextPDF builds a one-page PDF whose text layer holds lines, top to bottom, in
// Helvetica. With no lines the page has no text, like a scanned statement.
func TextPDF(lines ...string) []byte {
	var content bytes.Buffer
	for i, line := range lines {
		fmt.Fprintf(&content, "BT /F1 10 Tf 50 %d Td (%s) Tj ET\n", 750-i*14, pdfStringEscapes.Replace(line))
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var doc bytes.Buffer
	doc.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = doc.Len()
		fmt.Fprintf(&doc, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := doc.Len()
	fmt.Fprintf(&doc, "xref\n0 %d\n", len(objects)+1)
	doc.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&doc, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&doc, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return doc.Bytes()
}
