package sniffer

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

// PrefixSize is how many leading bytes Sniff needs to classify a file.
const PrefixSize = 2048

var (
	zipSignature = []byte{'P', 'K', 0x03, 0x04}
	oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	pdfSignature = []byte("%PDF-")
	utf8BOM      = []byte{0xEF, 0xBB, 0xBF}
)

var qifMarkers = []string{"!type:", "!account", "!option:", "!clear:"}

var extensionFormats = map[string]model.Format{
	".csv":  model.FormatDelimited,
	".tsv":  model.FormatDelimited,
	".txt":  model.FormatDelimited,
	".xlsx": model.FormatSpreadsheet,
	".xlsm": model.FormatSpreadsheet,
	".xls":  model.FormatSpreadsheet,
	".ofx":  model.FormatOFX,
	".qfx":  model.FormatOFX,
	".qif":  model.FormatQIF,
	".pdf":  model.FormatPDF,
}

// Sniff classifies a statement from its leading bytes and optional display name.
// It never fails: unrecognised input falls back to delimited text.
func Sniff(prefix []byte, name string) (model.Format, string) {
	if len(prefix) > PrefixSize {
		prefix = prefix[:PrefixSize]
	}

	switch {
	case bytes.HasPrefix(prefix, zipSignature):
		return model.FormatSpreadsheet, "zip container signature (xlsx)"
	case bytes.HasPrefix(prefix, oleSignature):
		return model.FormatSpreadsheet, "OLE compound document signature (xls)"
	case bytes.HasPrefix(prefix, pdfSignature):
		return model.FormatPDF, "%PDF- signature"
	}

	text := strings.ToLower(string(bytes.TrimPrefix(prefix, utf8BOM)))
	if strings.Contains(text, "ofxheader") || strings.Contains(text, "<ofx") {
		return model.FormatOFX, "OFX header token"
	}

	trimmed := strings.TrimLeft(text, " \t\r\n")
	for _, marker := range qifMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return model.FormatQIF, "QIF type marker " + marker
		}
	}

	if name != "" {
		ext := strings.ToLower(filepath.Ext(name))
		if f, ok := extensionFormats[ext]; ok {
			return f, "file extension " + ext
		}
	}

	return model.FormatDelimited, "default"
}
