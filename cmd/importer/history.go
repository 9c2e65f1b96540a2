package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-import/pkg/storage"
)

func newHistoryCmd(a *app) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the archived statements of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user, false)
			if err != nil {
				return err
			}
			if a.cfg.Import.ArchiveDir == "" {
				return errors.New("IMPORT_ARCHIVE_DIR is not set")
			}

			archive, err := storage.NewLocalArchive(a.cfg.Import.ArchiveDir)
			if err != nil {
				return err
			}
			records, err := archive.List(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return writeHistory(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "owner of the statements (uuid)")
	return cmd
}

func writeHistory(w io.Writer, records []*storage.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no archived statements")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "imported\tsession\tformat\tinserted\tduplicates\tname")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.ID, r.Format, r.Inserted, r.Duplicates, r.Name)
	}
	return tw.Flush()
}
