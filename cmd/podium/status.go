package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"podium/internal/config"
	"podium/internal/store"
)

func newStatusCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon configuration and assessment counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.Load(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			stats, err := st.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("read assessment stats: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			printer := message.NewPrinter(language.English)

			fmt.Fprintln(out, maybeColor("Podium", ansiBold, colorize))
			fmt.Fprintf(out, "  Config:          %s\n", path)
			fmt.Fprintf(out, "  Database:        %s\n", cfg.DatabasePath())
			fmt.Fprintf(out, "  API bind:        %s\n", cfg.Paths.APIBind)
			fmt.Fprintf(out, "  Upload dir:      %s\n", cfg.Paths.UploadDir)
			printer.Fprintf(out, "  Max upload size: %d bytes\n", cfg.Upload.MaxFileBytes)
			printer.Fprintf(out, "  Chunk size:      %d bytes\n", cfg.Upload.ChunkSizeBytes)
			fmt.Fprintln(out)

			rows := make([][]string, 0, 4)
			for _, status := range []store.AssessmentStatus{
				store.AssessmentQueued,
				store.AssessmentProcessing,
				store.AssessmentCompleted,
				store.AssessmentFailed,
			} {
				rows = append(rows, []string{string(status), printer.Sprintf("%d", stats[status])})
			}
			fmt.Fprintln(out, renderTable([]string{"Status", "Assessments"}, rows, 2))
			return nil
		},
	}
}
