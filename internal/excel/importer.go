// Package excel imports vocabulary from spreadsheets.
package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/lexicycle/internal/logger"
	"github.com/example/lexicycle/pkg/models"
)

// WordStore saves imported words
type WordStore interface {
	UpsertWord(ctx context.Context, w *models.VocabularyItem) (bool, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath         string // Path to the Excel or CSV file
	TermColumn       string // Column with the term
	DifficultyColumn string // Column with the difficulty tier, optional
	// TranslationColumns maps language codes to columns. When empty the
	// languages are read from the header row.
	TranslationColumns map[string]string
	SheetName          string // Name of the sheet to import, the first sheet when empty
	StartRow           int    // The row to start importing from (1-based index)
	DefaultDifficulty  int    // Difficulty for rows without one
}

// DefaultImportConfig returns the default import configuration:
// term in A, difficulty in B, languages named by the header from C onwards
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		TermColumn:        "A",
		DifficultyColumn:  "B",
		StartRow:          2, // By default, start from the second row (skip header)
		DefaultDifficulty: 3,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// Importer reads spreadsheet rows into the vocabulary pool
type Importer struct {
	store  WordStore
	logger *logger.Logger
}

// NewImporter creates an importer writing to store
func NewImporter(store WordStore, log *logger.Logger) *Importer {
	return &Importer{store: store, logger: log}
}

// ImportWords imports words from an Excel or CSV file
func (im *Importer) ImportWords(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}
	return im.importRows(ctx, rows, config)
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type columns struct {
	term         int
	difficulty   int
	translations map[string]int
}

func resolveColumns(rows [][]string, config ImportConfig) (columns, error) {
	cols := columns{difficulty: -1, translations: make(map[string]int)}

	var err error
	if cols.term, err = columnToIndex(config.TermColumn); err != nil {
		return cols, fmt.Errorf("term column: %w", err)
	}
	if config.DifficultyColumn != "" {
		if cols.difficulty, err = columnToIndex(config.DifficultyColumn); err != nil {
			return cols, fmt.Errorf("difficulty column: %w", err)
		}
	}

	if len(config.TranslationColumns) > 0 {
		for lang, col := range config.TranslationColumns {
			idx, err := columnToIndex(col)
			if err != nil {
				return cols, fmt.Errorf("%s column: %w", lang, err)
			}
			cols.translations[strings.ToLower(lang)] = idx
		}
		return cols, nil
	}

	// Languages come from the header row
	headerRow := config.StartRow - 2
	if headerRow < 0 || headerRow >= len(rows) {
		return cols, errors.New("no translation columns configured and no header row to read them from")
	}
	for i, name := range rows[headerRow] {
		name = strings.ToLower(strings.TrimSpace(name))
		if i == cols.term || i == cols.difficulty || name == "" {
			continue
		}
		cols.translations[name] = i
	}
	if len(cols.translations) == 0 {
		return cols, errors.New("header row names no translation columns")
	}
	return cols, nil
}

func (im *Importer) importRows(ctx context.Context, rows [][]string, config ImportConfig) (*ImportResult, error) {
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	cols, err := resolveColumns(rows, config)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		if isBlank(row) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.TotalProcessed++
		word, err := parseRow(row, cols, config.DefaultDifficulty)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}

		created, err := im.store.UpsertWord(ctx, word)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: failed to save word: %v", i+1, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	im.logger.Info("Vocabulary imported",
		"file", config.FilePath, "processed", result.TotalProcessed,
		"created", result.Created, "updated", result.Updated, "skipped", result.Skipped, "errors", len(result.Errors))
	return result, nil
}

func parseRow(row []string, cols columns, defaultDifficulty int) (*models.VocabularyItem, error) {
	term := cleanWord(cell(row, cols.term))
	if term == "" {
		return nil, errors.New("term cannot be empty")
	}

	translations := make(map[string]string)
	langs := make([]string, 0, len(cols.translations))
	for lang := range cols.translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if t := cleanWord(cell(row, cols.translations[lang])); t != "" {
			translations[lang] = t
		}
	}
	if len(translations) == 0 {
		return nil, fmt.Errorf("no translation for %q", term)
	}

	difficulty := defaultDifficulty
	if cols.difficulty >= 0 {
		difficulty = parseIntOrDefault(cell(row, cols.difficulty), 1, 5, defaultDifficulty)
	}

	return &models.VocabularyItem{Term: term, Translations: translations, Difficulty: difficulty}, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// cleanWord drops trailing notes in parentheses, "go (went, gone)" becomes "go"
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		word = word[:i]
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(word), "\""))
}

// columnToIndex converts an Excel column letter to a 0-based index
func columnToIndex(column string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(column))
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

// parseIntOrDefault parses s and clamps it to [min, max]
func parseIntOrDefault(s string, min, max, defaultVal int) int {
	val, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
