package vocab

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ImportConfig describes where words live in a spreadsheet.
type ImportConfig struct {
	FilePath         string
	Language         string
	Difficulty       Difficulty // used when the row has no difficulty cell
	WordColumn       string     // column letter, e.g. "A"
	DifficultyColumn string     // empty to always use Difficulty
	SheetName        string     // empty for the first sheet
	StartRow         int        // 1-based; 2 skips a header row
}

// DefaultImportConfig returns the default spreadsheet layout.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		Difficulty:       Beginner,
		WordColumn:       "A",
		DifficultyColumn: "B",
		StartRow:         2,
	}
}

// ImportResult summarizes an import.
type ImportResult struct {
	TotalProcessed int
	Added          int
	Skipped        int
	Errors         []string
}

// ImportFile loads vocabulary from an .xlsx, .csv or .yaml file into sink.
// YAML files carry their own languages and tiers; cfg.Language is ignored.
func ImportFile(ctx context.Context, sink Sink, cfg ImportConfig) (*ImportResult, error) {
	switch strings.ToLower(filepath.Ext(cfg.FilePath)) {
	case ".yaml", ".yml":
		return importFromYAML(ctx, sink, cfg)
	case ".csv":
		if cfg.Language == "" {
			return nil, fmt.Errorf("import %s: language is required", cfg.FilePath)
		}
		return importFromCSV(ctx, sink, cfg)
	default:
		if cfg.Language == "" {
			return nil, fmt.Errorf("import %s: language is required", cfg.FilePath)
		}
		return importFromExcel(ctx, sink, cfg)
	}
}

func importFromExcel(ctx context.Context, sink Sink, cfg ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer f.Close()

	sheet := cfg.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("excel file %s has no sheets", cfg.FilePath)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows: %w", err)
	}
	return importRows(ctx, sink, cfg, rows)
}

func importFromCSV(ctx context.Context, sink Sink, cfg ImportConfig) (*ImportResult, error) {
	file, err := os.Open(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return importRows(ctx, sink, cfg, rows)
}

func importFromYAML(ctx context.Context, sink Sink, cfg ImportConfig) (*ImportResult, error) {
	file, err := os.Open(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open yaml file: %w", err)
	}
	defer file.Close()

	p, err := LoadYAML(file)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	err = p.Each(func(language string, tier Difficulty, words []string) error {
		result.TotalProcessed += len(words)
		added, err := sink.AddWords(ctx, language, tier, words)
		if err != nil {
			return fmt.Errorf("add %s/%s words: %w", language, tier, err)
		}
		result.Added += added
		result.Skipped += len(words) - added
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// importRows groups spreadsheet rows by tier and hands them to sink.
func importRows(ctx context.Context, sink Sink, cfg ImportConfig, rows [][]string) (*ImportResult, error) {
	wordIdx, err := columnIndex(cfg.WordColumn)
	if err != nil {
		return nil, err
	}
	diffIdx := -1
	if cfg.DifficultyColumn != "" {
		if diffIdx, err = columnIndex(cfg.DifficultyColumn); err != nil {
			return nil, err
		}
	}
	startRow := cfg.StartRow
	if startRow < 1 {
		startRow = 1
	}
	defaultTier := cfg.Difficulty
	if !defaultTier.Valid() {
		defaultTier = Beginner
	}

	result := &ImportResult{}
	byTier := make(map[Difficulty][]string)
	for i, row := range rows {
		if i < startRow-1 {
			continue
		}
		result.TotalProcessed++

		if wordIdx >= len(row) || Normalize(row[wordIdx]) == "" {
			result.Skipped++
			continue
		}
		tier := defaultTier
		if diffIdx >= 0 && diffIdx < len(row) && strings.TrimSpace(row[diffIdx]) != "" {
			parsed, err := ParseDifficulty(row[diffIdx])
			if err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
				continue
			}
			tier = parsed
		}
		byTier[tier] = append(byTier[tier], Normalize(row[wordIdx]))
	}

	for tier := MinDifficulty; tier <= MaxDifficulty; tier++ {
		words := byTier[tier]
		if len(words) == 0 {
			continue
		}
		added, err := sink.AddWords(ctx, cfg.Language, tier, words)
		if err != nil {
			return nil, fmt.Errorf("add %s words: %w", tier, err)
		}
		result.Added += added
		result.Skipped += len(words) - added
	}
	return result, nil
}

func columnIndex(col string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(strings.TrimSpace(col)))
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", col, err)
	}
	return n - 1, nil
}
