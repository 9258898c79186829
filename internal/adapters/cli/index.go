package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

func newIndexCommand(services Services, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [file...]",
		Short: "Upload and index files into a project, Chat Uploads by default",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]domain.UploadFile, 0, len(args))
			for _, path := range args {
				file, err := readFile(path)
				if err != nil {
					return err
				}
				files = append(files, file)
			}

			var report *domain.UploadReport
			var err error
			if opts.project != "" {
				report, err = services.Uploads.UploadToProject(cmd.Context(), opts.owner, opts.project, files)
			} else {
				report, err = services.Uploads.UploadFiles(cmd.Context(), opts.owner, files)
			}
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			if opts.asJSON {
				return printJSON(cmd, report)
			}
			for _, f := range report.Files {
				cmd.Printf("%s\t%s\t%d chunks\n", f.Filename, f.Status, f.ChunksCreated)
			}
			for _, e := range report.Errors {
				cmd.PrintErrln("error:", e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.project, "project", "", "index into this project id")
	return cmd
}

func readFile(path string) (domain.UploadFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.UploadFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return domain.UploadFile{
		Filename: filepath.Base(path),
		MimeType: mimeType,
		Data:     data,
	}, nil
}
