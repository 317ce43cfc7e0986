package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"podium/internal/config"
	"podium/internal/report"
	"podium/internal/store"
)

func newReportCommand(configFlag *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report <assessment-id>",
		Short: "Show the report for a completed assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			assessment, err := st.GetAssessment(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("assessment %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			switch assessment.Status {
			case store.AssessmentFailed:
				return fmt.Errorf("assessment %s failed: %s", assessment.ID, assessment.ErrorMessage)
			case store.AssessmentCompleted:
			default:
				fmt.Fprintf(out, "Assessment %s is %s (%d%% complete)\n",
					assessment.ID, assessment.Status, assessment.Progress)
				return nil
			}

			if asJSON {
				fmt.Fprintln(out, assessment.ResultJSON)
				return nil
			}

			var doc report.AssessmentReport
			if err := json.Unmarshal([]byte(assessment.ResultJSON), &doc); err != nil {
				return fmt.Errorf("decode stored report: %w", err)
			}
			renderReport(out, &doc, shouldColorize(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw report document")
	return cmd
}

func renderReport(out io.Writer, doc *report.AssessmentReport, colorize bool) {
	fmt.Fprintln(out, maybeColor("Assessment "+doc.AssessmentID, ansiBold, colorize))
	fmt.Fprintf(out, "Overall score: %s\n\n", maybeColor(formatScore(doc.OverallScore), scoreColor(doc.OverallScore), colorize))

	bucketRows := make([][]string, 0, len(doc.Buckets))
	for _, bucket := range doc.Buckets {
		bucketRows = append(bucketRows, []string{bucket.Name, formatScore(bucket.Score)})
	}
	fmt.Fprintln(out, renderTable([]string{"Bucket", "Score"}, bucketRows, 2))

	for _, bucket := range doc.Buckets {
		if len(bucket.Parameters) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s\n", maybeColor(bucket.Name, ansiBold, colorize))
		rows := make([][]string, 0, len(bucket.Parameters))
		for _, param := range bucket.Parameters {
			raw := ""
			if param.Unit != "" {
				raw = fmt.Sprintf("%.1f %s", param.RawValue, param.Unit)
			}
			rows = append(rows, []string{param.Name, formatScore(param.Score), raw})
		}
		fmt.Fprintln(out, renderTable([]string{"Parameter", "Score", "Measured"}, rows, 2))
	}

	if doc.Narrative != "" {
		fmt.Fprintf(out, "\n%s\n%s\n", maybeColor("Coaching notes", ansiBold, colorize), doc.Narrative)
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func scoreColor(v float64) string {
	if v >= 60 {
		return ansiGreen
	}
	return ansiRed
}
