package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pivolan/go_utils"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/pivolan/dataset_profiler/domain/models"
)

// missingTokens перечисляет значения, которые считаются пропусками наряду с пустой ячейкой.
var missingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None"}

func isMissingValue(v string) bool {
	return go_utils.InArray(strings.TrimSpace(v), missingTokens)
}

type LoadOptions struct {
	// Delimiter переопределяет разделитель CSV, при 0 он выбирается по расширению.
	Delimiter rune
}

// LoadTable читает табличный файл (CSV/TSV/XLSX, при необходимости распаковывая
// zip/gz/lz4 во временный каталог) и строит таблицу. Тип каждой колонки
// определяется здесь один раз и дальше не пересматривается.
func LoadTable(path string, opts LoadOptions) (*models.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	dataPath := path
	extracted, err := unpackArchive(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if extracted != "" {
		dataPath = extracted
		defer os.RemoveAll(filepath.Dir(extracted))
	}

	var rows [][]string
	if strings.EqualFold(filepath.Ext(dataPath), ".xlsx") {
		rows, err = readExcelRows(dataPath)
	} else {
		rows, err = readDelimitedRows(dataPath, opts.Delimiter)
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("dataset is empty")}
	}

	table, err := buildTable(rows)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	table.Title = datasetTitle(path)
	table.Source = path
	return table, nil
}

// datasetTitle срезает известные расширения: media.csv.gz -> media.
func datasetTitle(path string) string {
	base := filepath.Base(path)
	known := []string{".zip", ".gz", ".lz4", ".xlsx", ".csv", ".tsv", ".txt"}
	for {
		ext := strings.ToLower(filepath.Ext(base))
		if !go_utils.InArray(ext, known) {
			break
		}
		base = base[:len(base)-len(ext)]
	}
	if base == "" {
		return "dataset"
	}
	return base
}

func readDelimitedRows(path string, delimiter rune) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		// Не-UTF-8 файлы читаем как ISO-8859-1
		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder()))
		if err != nil {
			return nil, err
		}
		data = decoded
	}

	if delimiter == 0 {
		delimiter = ','
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			delimiter = '\t'
		}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func buildTable(rows [][]string) (*models.Table, error) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return nil, fmt.Errorf("dataset has no columns")
	}

	analysis := AnalyzeHeaders(rows[0])
	if analysis == nil {
		return nil, fmt.Errorf("dataset has no columns")
	}
	headers := analysis.Headers
	for i := len(headers); i < width; i++ {
		headers = append(headers, generateColumnName(i))
	}
	headers = ValidateHeaders(headers)

	dataRows := rows
	if !analysis.FirstRowIsData {
		dataRows = rows[1:]
	}
	if len(dataRows) == 0 {
		return nil, fmt.Errorf("dataset has no rows after the header")
	}

	cols := make([]models.Column, width)
	for j := 0; j < width; j++ {
		cols[j] = models.Column{
			Name:    headers[j],
			Raw:     make([]string, len(dataRows)),
			Missing: make([]bool, len(dataRows)),
		}
	}
	for i, row := range dataRows {
		for j := 0; j < width; j++ {
			// Короткие строки добиваются пропусками
			v := ""
			if j < len(row) {
				v = row[j]
			}
			cols[j].Raw[i] = v
			cols[j].Missing[i] = isMissingValue(v)
		}
	}
	for j := range cols {
		cols[j].Kind, cols[j].Numbers = inferKind(cols[j].Raw, cols[j].Missing)
	}

	return &models.Table{Columns: cols}, nil
}

// inferKind относит колонку к числовым, если каждое непустое значение
// парсится как число. Колонка из одних пропусков тоже числовая, её
// статистики сведутся к count 0 и NaN.
func inferKind(raw []string, missing []bool) (models.ColumnKind, []float64) {
	numbers := make([]float64, len(raw))
	for i, v := range raw {
		if missing[i] {
			numbers[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return models.KindCategorical, nil
		}
		numbers[i] = f
	}
	return models.KindNumeric, numbers
}
