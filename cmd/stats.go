package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, lang, err := learner(cmd)
		if err != nil {
			return err
		}

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		levels, err := e.Store.StatsRepo().LevelStats(ctx, user, lang)
		if err != nil {
			return err
		}
		if len(levels) == 0 {
			fmt.Printf("No practice recorded for %s (%s).\n", user, lang)
			return nil
		}
		due, err := e.Scheduler.DueRecords(ctx, user, lang, 0)
		if err != nil {
			return err
		}
		struggling, err := e.Scheduler.StrugglingRecords(ctx, user, lang, 0)
		if err != nil {
			return err
		}

		fmt.Printf("%5s  %6s  %8s  %8s\n", "Level", "Words", "Reviews", "Accuracy")
		fmt.Println(strings.Repeat("─", 34))
		var words, reviews, correct int
		for _, l := range levels {
			acc := 0.0
			if l.Reviews > 0 {
				acc = float64(l.Correct) / float64(l.Reviews) * 100
			}
			fmt.Printf("%5d  %6d  %8d  %7.0f%%\n", l.Level, l.Words, l.Reviews, acc)
			words += l.Words
			reviews += l.Reviews
			correct += l.Correct
		}
		fmt.Println(strings.Repeat("─", 34))
		overall := 0.0
		if reviews > 0 {
			overall = float64(correct) / float64(reviews) * 100
		}
		fmt.Printf("%5s  %6d  %8d  %7.0f%%\n\n", "all", words, reviews, overall)
		fmt.Printf("Due now:    %d\n", len(due))
		fmt.Printf("Struggling: %d\n", len(struggling))
		return nil
	},
}
