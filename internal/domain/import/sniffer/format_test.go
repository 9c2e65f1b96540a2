package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name     string
		prefix   []byte
		filename string
		want     model.Format
	}{
		{"xlsx signature", []byte("PK\x03\x04rest-of-zip"), "statement.csv", model.FormatSpreadsheet},
		{"xls signature", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00}, "", model.FormatSpreadsheet},
		{"pdf signature", []byte("%PDF-1.7\n%..."), "export.txt", model.FormatPDF},
		{"ofx sgml header", []byte("OFXHEADER:100\nDATA:OFXSGML\n"), "", model.FormatOFX},
		{"ofx xml root", []byte("<?xml version=\"1.0\"?>\n<OFX><BANKMSGSRSV1>"), "", model.FormatOFX},
		{"qif type marker", []byte("!Type:Bank\nD01/02/2024\nT-10.00\n^\n"), "", model.FormatQIF},
		{"qif with leading blank lines", []byte("\n\n!Account\nNChecking\n^\n"), "", model.FormatQIF},
		{"csv by extension", []byte("a,b,c\n1,2,3\n"), "Statement.CSV", model.FormatDelimited},
		{"xlsx by extension only", []byte("garbage"), "book.xlsx", model.FormatSpreadsheet},
		{"qfx by extension", []byte("garbage"), "bank.qfx", model.FormatOFX},
		{"unknown defaults to delimited", []byte("hello"), "notes.md", model.FormatDelimited},
		{"empty input", nil, "", model.FormatDelimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Sniff(tt.prefix, tt.filename)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestSniff_SignatureBeatsExtension(t *testing.T) {
	got, _ := Sniff([]byte("%PDF-1.4"), "statement.qif")
	assert.Equal(t, model.FormatPDF, got)
}

func TestSniff_OnlyLooksAtPrefix(t *testing.T) {
	data := make([]byte, PrefixSize+100)
	for i := range data {
		data[i] = 'x'
	}
	copy(data[PrefixSize+10:], "<OFX>")

	got, reason := Sniff(data, "")
	assert.Equal(t, model.FormatDelimited, got)
	assert.Equal(t, "default", reason)
}
