package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/wordwise/internal/vocab"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import vocabulary from an .xlsx, .csv or .yaml file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := vocab.DefaultImportConfig()
		cfg.FilePath = args[0]
		cfg.Language, _ = cmd.Flags().GetString("lang")
		cfg.WordColumn, _ = cmd.Flags().GetString("word-column")
		cfg.DifficultyColumn, _ = cmd.Flags().GetString("difficulty-column")
		cfg.SheetName, _ = cmd.Flags().GetString("sheet")
		cfg.StartRow, _ = cmd.Flags().GetInt("start-row")
		diffFlag, _ := cmd.Flags().GetString("difficulty")
		d, err := vocab.ParseDifficulty(diffFlag)
		if err != nil {
			return err
		}
		cfg.Difficulty = d

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := vocab.ImportFile(cmd.Context(), e.Vocabulary, cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Processed %d words: %d added, %d already present\n",
			res.TotalProcessed, res.Added, res.Skipped)
		for _, msg := range res.Errors {
			fmt.Println("  ", msg)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().String("difficulty", "beginner", "Tier for rows without a difficulty cell")
	importCmd.Flags().String("word-column", "A", "Spreadsheet column holding the word")
	importCmd.Flags().String("difficulty-column", "B", "Spreadsheet column holding the tier (empty to disable)")
	importCmd.Flags().String("sheet", "", "Sheet name (default: first sheet)")
	importCmd.Flags().Int("start-row", 2, "First data row (1-based)")
}
