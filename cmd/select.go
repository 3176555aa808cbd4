package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/wordwise/internal/selection"
	"github.com/abhisek/wordwise/internal/vocab"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select the next words to practice",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, lang, err := learner(cmd)
		if err != nil {
			return err
		}
		diffFlag, _ := cmd.Flags().GetString("difficulty")
		difficulty, err := vocab.ParseDifficulty(diffFlag)
		if err != nil {
			return err
		}
		session := sessionFlag(cmd)
		count, _ := cmd.Flags().GetInt("count")
		hints, _ := cmd.Flags().GetStringSlice("hints")
		progress, _ := cmd.Flags().GetFloat64("progress")
		present, _ := cmd.Flags().GetBool("present")
		asJSON, _ := cmd.Flags().GetBool("json")

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		req := selection.Request{
			UserID:          user,
			Language:        lang,
			Difficulty:      difficulty,
			SessionID:       session,
			TargetCount:     count,
			SessionProgress: progress,
			ContextHints:    hints,
		}
		ctx := cmd.Context()
		res := e.Selector.Select(ctx, req, e.SelectionConfig())
		if present {
			if err := e.Selector.MarkPresented(ctx, req, res); err != nil {
				return fmt.Errorf("mark presented: %w", err)
			}
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printSelection(session, res)
		return nil
	},
}

func printSelection(session string, res *selection.Result) {
	fmt.Printf("Session: %s\n\n", session)
	if len(res.SelectedWords) == 0 {
		fmt.Println("No words available.")
		if res.Reason != "" {
			fmt.Println(res.Reason)
		}
		return
	}

	fmt.Printf("%-24s  %-10s  %6s  %5s  %s\n", "Word", "Category", "Score", "Level", "Reasons")
	fmt.Println(strings.Repeat("─", 90))
	for _, c := range res.Candidates {
		fmt.Printf("%-24s  %-10s  %6.1f  %5d  %s\n",
			c.Word, c.Category, c.Score, c.MasteryLevel, strings.Join(c.Reasons, "; "))
	}

	fmt.Printf("\nQuality: %.1f  Diversity: %.1f\n", res.SelectionQuality, res.DiversityScore)
	fmt.Printf("Novelty: %s\n", res.NoveltyDecision.Reason)
	if res.Degraded {
		fmt.Printf("Degraded: %s\n", res.Reason)
	}
}

func init() {
	selectCmd.Flags().String("difficulty", "beginner", "Difficulty tier (beginner..advanced or 1-5)")
	selectCmd.Flags().String("session", "", "Session ID (default: a new session)")
	selectCmd.Flags().Int("count", 10, "Number of words to select")
	selectCmd.Flags().StringSlice("hints", nil, "Context hints for novel words")
	selectCmd.Flags().Float64("progress", 0, "Session progress in [0,1]")
	selectCmd.Flags().Bool("present", false, "Record the selection as shown to the learner")
	selectCmd.Flags().Bool("json", false, "Print the result as JSON")
}
