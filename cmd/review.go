package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/wordwise/internal/performance"
	"github.com/abhisek/wordwise/internal/store"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List words due for review, most overdue first",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, lang, err := learner(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		recs, err := e.Scheduler.DueRecords(cmd.Context(), user, lang, limit)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("Nothing due for review.")
			return nil
		}
		printRecords(recs)
		return nil
	},
}

var strugglingCmd = &cobra.Command{
	Use:   "struggling",
	Short: "List words with low accuracy",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, lang, err := learner(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		recs, err := e.Scheduler.StrugglingRecords(cmd.Context(), user, lang, limit)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No struggling words.")
			return nil
		}
		printRecords(recs)
		return nil
	},
}

func printRecords(recs []store.PerformanceRecord) {
	fmt.Printf("%-24s  %5s  %8s  %7s  %8s  %s\n",
		"Word", "Level", "Accuracy", "Reviews", "Mastery", "Next review")
	fmt.Println(strings.Repeat("─", 80))
	for i := range recs {
		r := &recs[i]
		fmt.Printf("%-24s  %5d  %7.0f%%  %7d  %8.1f  %s\n",
			r.Word, r.MasteryLevel, r.Accuracy()*100, r.TotalReviews,
			performance.MasteryScore(r), formatTime(r.NextReviewDate))
	}
	fmt.Printf("\n%d words\n", len(recs))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func init() {
	reviewCmd.Flags().Int("limit", 20, "Maximum words to list (0 for all)")
	strugglingCmd.Flags().Int("limit", 20, "Maximum words to list (0 for all)")
}
