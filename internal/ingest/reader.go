// Package ingest parses product feed files (CSV or XLSX) into the in-memory
// table the pipeline consumes.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"catalog-pipeline/internal/models"
)

// ParseCSV reads a CSV feed into a table. Headers are normalized (trimmed,
// lower-cased, template required-markers stripped) and become the table's
// column set; cells are trimmed and unparseable numerics resolve to null,
// never to an error.
func ParseCSV(file io.Reader) (*models.Table, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := normalizeHeaders(headers)

	table := &models.Table{Columns: columns}
	lineNum := 1
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}
		table.Records = append(table.Records, buildRecord(columns, cells, lineNum+1))
		lineNum++
	}
	return table, nil
}

// ParseXLSX reads an Excel feed into a table. The "Products" sheet is
// preferred when present, otherwise the first sheet is used.
func ParseXLSX(file io.Reader) (*models.Table, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}
	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Products") {
			sheetName = name
			break
		}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	columns := normalizeHeaders(rows[0])
	table := &models.Table{Columns: columns}
	for rowIdx, cells := range rows[1:] {
		table.Records = append(table.Records, buildRecord(columns, cells, rowIdx+2))
	}
	return table, nil
}

func normalizeHeaders(headers []string) []string {
	columns := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.ToLower(h))
		columns[i] = strings.TrimSuffix(h, " *")
	}
	return columns
}

// buildRecord maps one feed row onto a typed record. rowNum is the 1-based
// source row for error reporting.
func buildRecord(columns []string, cells []string, rowNum int) *models.Record {
	row := make(map[string]string, len(columns))
	for i, value := range cells {
		if i < len(columns) {
			row[columns[i]] = strings.TrimSpace(value)
		}
	}

	return &models.Record{
		Row:              rowNum,
		Handle:           row["handle"],
		Title:            row["title"],
		BodyHTML:         optionalString(row["body (html)"]),
		Vendor:           optionalString(row["vendor"]),
		Category:         optionalString(row["product category"]),
		Tags:             optionalString(row["tags"]),
		Published:        parseOptionalBool(row["published"]),
		Status:           optionalString(row["status"]),
		Option1Name:      optionalString(row["option1 name"]),
		Option1Value:     optionalString(row["option1 value"]),
		Option2Name:      optionalString(row["option2 name"]),
		Option3Name:      optionalString(row["option3 name"]),
		InventoryTracker: optionalString(row["variant inventory tracker"]),
		VariantPrice:     parseOptionalFloat(row["variant price"]),
		CompareAtPrice:   parseOptionalFloat(row["variant compare at price"]),
		CostPerItem:      parseOptionalFloat(row["cost per item"]),
		SEOTitle:         optionalString(row["seo title"]),
		SEODescription:   optionalString(row["seo description"]),
	}
}

// optionalString returns nil for empty strings, pointer otherwise
func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// parseOptionalFloat parses an optional number; unparseable input resolves
// to null so the pipeline's validity flags absorb it.
func parseOptionalFloat(value string) *float64 {
	if value == "" {
		return nil
	}
	if num, err := strconv.ParseFloat(value, 64); err == nil {
		return &num
	}
	return nil
}

func parseOptionalBool(value string) *bool {
	if value == "" {
		return nil
	}
	b := strings.EqualFold(value, "true")
	return &b
}
