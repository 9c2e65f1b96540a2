package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
	importservice "github.com/FACorreiaa/statement-import/internal/domain/import/service"
	"github.com/FACorreiaa/statement-import/pkg/money"
)

func writeOutcome(w io.Writer, out *importservice.Outcome, dryRun bool) {
	verb := "inserted"
	if dryRun {
		verb = "would insert"
	}

	fmt.Fprintf(w, "format:     %s\n", out.Diagnostics.Format)
	fmt.Fprintf(w, "%-11s %d\n", verb+":", out.Inserted)
	fmt.Fprintf(w, "duplicates: %d\n", out.Duplicates)
	if out.Inserted > 0 {
		fmt.Fprintf(w, "inflow:     %s\n", out.Totals.InflowDisplay())
		fmt.Fprintf(w, "outflow:    %s\n", out.Totals.OutflowDisplay())
		fmt.Fprintf(w, "net:        %s\n", out.Totals.Net().Display())
	}

	writeWarnings(w, out.Warnings)

	if len(out.Suggestions) > 0 {
		fmt.Fprintln(w, "near misses:")
		for _, s := range out.Suggestions {
			fmt.Fprintf(w, "  %q is close to rule %q (category %d, score %d)\n",
				s.Description, s.Pattern, s.CategoryID, s.Score)
		}
	}
}

func writeWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "warnings (%d):\n", len(warnings))
	for _, msg := range warnings {
		fmt.Fprintf(w, "  %s\n", msg)
	}
}

// writeNeedsMapping prints the detected columns, a few sample rows and the suggested
// mapping as JSON ready for --mapping.
func writeNeedsMapping(w io.Writer, diag model.Diagnostics) error {
	fmt.Fprintln(w, "the statement columns could not be mapped automatically")
	if diag.BankProfileKey != "" {
		fmt.Fprintf(w, "bank profile: %s\n", diag.BankProfileKey)
	}

	if len(diag.Columns) > 0 {
		fmt.Fprintln(w, "columns:")
		for i, c := range diag.Columns {
			fmt.Fprintf(w, "  %d: %s\n", i, c)
		}
	}

	if len(diag.SampleRows) > 0 {
		fmt.Fprintln(w, "sample rows:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, row := range diag.SampleRows {
			fmt.Fprintf(tw, "  %s\n", strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	writeWarnings(w, diag.Warnings)

	if diag.SuggestedMapping != nil {
		data, err := json.MarshalIndent(diag.SuggestedMapping, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode suggested mapping: %w", err)
		}
		fmt.Fprintf(w, "suggested mapping:\n%s\n", data)
	}
	return nil
}

func writeTransactions(w io.Writer, txs []model.CategorizedTransaction, currency string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "date\tamount\tcategory\tdescription\t")
	for _, t := range txs {
		code := t.Currency
		if code == "" {
			code = currency
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t\n",
			t.Date.Format("2006-01-02"),
			money.New(t.SignedAmountMinor, code).Display(),
			t.CategoryID,
			t.Description,
		)
	}
	_ = tw.Flush()
}
