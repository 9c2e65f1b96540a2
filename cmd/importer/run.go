package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
	importservice "github.com/FACorreiaa/statement-import/internal/domain/import/service"
	"github.com/FACorreiaa/statement-import/pkg/storage"
)

type runOptions struct {
	user            string
	dryRun          bool
	rulesFile       string
	mappingFile     string
	defaultCategory int64
	currency        string
	showRows        bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Import one statement file",
		Long: `Import one statement file for a user. When the columns of a CSV or spreadsheet
cannot be inferred, the detected columns and a suggested mapping are printed; save the
mapping as JSON, adjust it, and pass it back with --mapping.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("default-category") {
				a.cfg.Import.DefaultCategoryID = opts.defaultCategory
			}
			return runImport(cmd, a, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.user, "user", "", "owner of the imported transactions (uuid)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "run against in-memory stores and print what would be inserted")
	f.StringVar(&opts.rulesFile, "rules", "", "merchant rules file (CSV or YAML) to use instead of the stored rules")
	f.StringVar(&opts.mappingFile, "mapping", "", "column mapping JSON for row-oriented statements")
	f.Int64Var(&opts.defaultCategory, "default-category", 0, "category for transactions no rule matches")
	f.StringVar(&opts.currency, "currency", "", "currency stored when the statement names none")
	f.BoolVar(&opts.showRows, "show-rows", false, "print every inserted transaction")
	return cmd
}

func runImport(cmd *cobra.Command, a *app, opts *runOptions, path string) error {
	userID, err := parseUser(opts.user, opts.dryRun)
	if err != nil {
		return err
	}
	if opts.rulesFile != "" {
		a.cfg.Import.RulesFile = opts.rulesFile
	}
	if opts.currency != "" {
		code := strings.ToUpper(opts.currency)
		if len(code) != 3 {
			return fmt.Errorf("currency must be an ISO 4217 code, got %q", opts.currency)
		}
		a.cfg.Import.Currency = code
	}

	var mapping *model.ColumnMapping
	if opts.mappingFile != "" {
		if mapping, err = readMappingFile(opts.mappingFile); err != nil {
			return err
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open statement: %w", err)
	}
	defer file.Close()

	deps, err := InitDependencies(a.cfg, a.logger, userID, opts.dryRun)
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	name := filepath.Base(path)

	if deps.Archive != nil {
		if err := warnIfArchived(ctx, out, deps.Archive, userID, file); err != nil {
			a.logger.Warn("archive lookup failed", "error", err)
		}
	}

	outcome, importErr := deps.ImportService.Import(ctx, file, name, mapping)

	if err := deps.WriteMetrics(); err != nil {
		a.logger.Warn("metrics not written", "error", err)
	}

	switch {
	case errors.Is(importErr, importservice.ErrNeedsMapping):
		if err := writeNeedsMapping(out, outcome.Diagnostics); err != nil {
			return err
		}
		return importErr
	case importErr != nil:
		if outcome != nil {
			writeWarnings(out, outcome.Warnings)
		}
		return importErr
	}

	writeOutcome(out, outcome, opts.dryRun)
	if opts.showRows && deps.Memory != nil {
		writeTransactions(out, deps.Memory.All(), outcome.Totals.Currency)
	}

	if deps.Archive != nil {
		rec, err := archiveStatement(ctx, deps.Archive, userID, file, name, outcome)
		if err != nil {
			// The batch is already committed.
			a.logger.Warn("statement not archived", "session_id", outcome.SessionID, "error", err)
		} else {
			fmt.Fprintf(out, "archived:   %s\n", rec.ID)
		}
	}
	return nil
}

// warnIfArchived reports earlier imports of byte-identical content, then rewinds file.
func warnIfArchived(ctx context.Context, w io.Writer, archive storage.Archive, userID uuid.UUID, file io.ReadSeeker) error {
	sha, err := storage.HashReader(file)
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return fmt.Errorf("failed to rewind statement: %w", seekErr)
	}
	if err != nil {
		return err
	}

	prior, err := archive.FindByHash(ctx, userID, sha)
	if err != nil {
		return err
	}
	for _, rec := range prior {
		fmt.Fprintf(w, "note: this file was already imported on %s (%s, %d inserted)\n",
			rec.CreatedAt.Format("2006-01-02 15:04"), rec.ID, rec.Inserted)
	}
	return nil
}

func archiveStatement(ctx context.Context, archive storage.Archive, userID uuid.UUID, file io.ReadSeeker, name string, outcome *importservice.Outcome) (*storage.Record, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind statement: %w", err)
	}
	return archive.Store(ctx, userID, storage.Record{
		ID:         outcome.SessionID,
		Name:       name,
		Format:     string(outcome.Diagnostics.Format),
		Inserted:   outcome.Inserted,
		Duplicates: outcome.Duplicates,
	}, file)
}

// parseUser accepts an empty id only for dry runs.
func parseUser(raw string, dryRun bool) (uuid.UUID, error) {
	if raw == "" {
		if dryRun {
			return uuid.Nil, nil
		}
		return uuid.Nil, errors.New("--user is required unless --dry-run is set")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --user %q: %w", raw, err)
	}
	return id, nil
}

func readMappingFile(path string) (*model.ColumnMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var m model.ColumnMapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode mapping file %s: %w", path, err)
	}
	if !m.Valid() {
		return nil, fmt.Errorf("mapping file %s: %w", path, importservice.ErrInvalidMapping)
	}
	return &m, nil
}
