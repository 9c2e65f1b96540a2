package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

var (
	ofxBlockRegexp = regexp.MustCompile(`(?is)<STMTTRN>(.*?)</STMTTRN>`)
	ofxDigits      = regexp.MustCompile(`^\d{8}`)
	ofxTagCache    = make(map[string]*regexp.Regexp)
)

func init() {
	for _, tag := range []string{"DTPOSTED", "DTUSER", "TRNAMT", "NAME", "MEMO", "FITID", "TRNTYPE", "CURDEF", "CURSYM"} {
		// Value runs to the next tag or line end, which covers both SGML and XML bodies.
		ofxTagCache[tag] = regexp.MustCompile(`(?i)<` + tag + `>([^<\r\n]*)`)
	}
}

// OFXExtractor scans OFX/QFX statements for STMTTRN blocks. It is tolerant of the SGML
// dialect (unclosed leaf tags) and does not validate the document structure.
type OFXExtractor struct{}

// Extract implements Extractor.
func (e *OFXExtractor) Extract(ctx context.Context, data []byte) (*model.Extraction, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	text, _ := decodeText(data)
	result := &model.Extraction{Format: model.FormatOFX}

	// Without CURDEF, fall back to the first CURRENCY aggregate's CURSYM.
	for _, tag := range []string{"CURDEF", "CURSYM"} {
		if code := strings.ToUpper(ofxTag(text, tag)); IsCurrencyCode(code) {
			result.Currency = code
			break
		}
	}

	blocks := ofxBlockRegexp.FindAllStringSubmatch(text, -1)
	for i, block := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body := block[1]
		date := ofxTag(body, "DTPOSTED")
		if date == "" {
			date = ofxTag(body, "DTUSER")
		}
		amount := ofxTag(body, "TRNAMT")
		if date == "" || amount == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("transaction %d: missing date or amount, skipped", i+1))
			continue
		}

		desc := ofxTag(body, "NAME")
		if desc == "" {
			desc = ofxTag(body, "MEMO")
		}

		result.Candidates = append(result.Candidates, model.Candidate{
			DateText:    ofxDate(date),
			AmountText:  amount,
			Description: unescapeOFX(desc),
			Kind:        strings.ToUpper(ofxTag(body, "TRNTYPE")),
			FitID:       ofxTag(body, "FITID"),
			Line:        i,
		})
	}

	if len(blocks) == 0 {
		result.Warnings = append(result.Warnings, "no STMTTRN blocks found")
	}

	return result, nil
}

func ofxTag(body, tag string) string {
	re, ok := ofxTagCache[tag]
	if !ok {
		return ""
	}
	m := re.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ofxDate turns YYYYMMDD[HHMMSS[.XXX][TZ]] into YYYY-MM-DD; anything else is passed through
// for the date normalizer to reject.
func ofxDate(raw string) string {
	digits := ofxDigits.FindString(raw)
	if digits == "" {
		return raw
	}
	return digits[0:4] + "-" + digits[4:6] + "-" + digits[6:8]
}

var ofxEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

func unescapeOFX(s string) string {
	return strings.TrimSpace(ofxEntities.Replace(s))
}
