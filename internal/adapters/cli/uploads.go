package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newUploadsCommand(services Services, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "Inspect or clear the owner's uploaded documents",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := services.Uploads.ListUploads(cmd.Context(), opts.owner)
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}
			if opts.asJSON {
				return printJSON(cmd, docs)
			}
			if len(docs) == 0 {
				cmd.Println("No uploads.")
				return nil
			}
			for _, d := range docs {
				cmd.Printf("%s\t%s\t%s\n", d.ID, d.Status, d.Filename)
			}
			return nil
		},
	}

	var confirm bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every upload and its indexed chunks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return errors.New("refusing to clear uploads without --yes")
			}
			report, err := services.Uploads.ClearUploads(cmd.Context(), opts.owner)
			if err != nil {
				return fmt.Errorf("clear failed: %w", err)
			}
			if opts.asJSON {
				return printJSON(cmd, report)
			}
			cmd.Printf("deleted %d documents and %d chunks\n", report.DocumentsDeleted, report.VectorsDeleted)
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&confirm, "yes", false, "confirm deletion")

	cmd.AddCommand(listCmd, clearCmd)
	return cmd
}
