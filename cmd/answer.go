package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/wordwise/internal/performance"
	"github.com/abhisek/wordwise/internal/spacedrep"
)

var answerCmd = &cobra.Command{
	Use:   "answer <word> <correct|wrong>",
	Short: "Record an answer and reschedule the word",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, lang, err := learner(cmd)
		if err != nil {
			return err
		}
		correct, err := parseOutcome(args[1])
		if err != nil {
			return err
		}
		session := sessionFlag(cmd)

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		tr, err := e.Scheduler.RecordAnswer(ctx, spacedrep.Answer{
			UserID:    user,
			Word:      args[0],
			Language:  lang,
			SessionID: session,
			Correct:   correct,
		})
		if err != nil {
			return err
		}

		rec, err := e.Ledger.Get(ctx, performance.Key(user, args[0], lang))
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("record for %q not found after update", args[0])
		}
		fmt.Printf("%s: level %d, %d/%d correct, next review %s\n",
			rec.Word, rec.MasteryLevel, rec.CorrectReviews, rec.TotalReviews,
			rec.NextReviewDate.Local().Format("2006-01-02 15:04"))
		if tr != nil {
			fmt.Printf("Level %d → %d (%s)\n", tr.From, tr.To, tr.Trigger)
		}
		return nil
	},
}

func parseOutcome(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "correct", "right", "yes", "y", "1", "true":
		return true, nil
	case "wrong", "incorrect", "no", "n", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid outcome %q (want correct or wrong)", s)
}

func init() {
	answerCmd.Flags().String("session", "", "Session the answer belongs to (default: a new session)")
}
