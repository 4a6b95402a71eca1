package label

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ImportResult contains the result of parsing a label job sheet
type ImportResult struct {
	TotalRows  int              `json:"total_rows"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Errors     []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError describes an error for a specific row during import
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// column names accepted in the header row
var importColumns = map[string]string{
	"barcode":       "barcode",
	"barcode_value": "barcode",
	"branch":        "branch",
	"branch_name":   "branch",
	"price":         "price",
	"mrp":           "price",
	"qty":           "quantity",
	"quantity":      "quantity",
	"logo":          "logo",
	"logo_url":      "logo",
}

// ParseJobs reads label jobs from an .xlsx or .csv upload. The first row
// is a header naming the columns barcode, branch, price, quantity and
// optionally logo_url. defaultBranch fills rows without a branch name.
func ParseJobs(r io.Reader, filename, defaultBranch string) ([]Job, *ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err = readXLSX(r)
	case ".csv":
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		rows, err = cr.ReadAll()
	default:
		return nil, nil, fmt.Errorf("invalid file type %q: only .xlsx and .csv files are allowed", filepath.Ext(filename))
	}
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("file has no header row")
	}

	index := make(map[string]int)
	for i, name := range rows[0] {
		if field, ok := importColumns[strings.ToLower(strings.TrimSpace(name))]; ok {
			index[field] = i
		}
	}
	if _, ok := index["barcode"]; !ok {
		return nil, nil, fmt.Errorf("missing barcode column")
	}

	cell := func(row []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	result := &ImportResult{}
	var jobs []Job
	for i, row := range rows[1:] {
		rowNum := i + 2 // row 1 is the header
		if isBlank(row) {
			continue
		}
		result.TotalRows++

		job := Job{
			BarcodeValue: cell(row, "barcode"),
			BranchName:   cell(row, "branch"),
			LogoURL:      cell(row, "logo"),
			Quantity:     1,
		}
		if job.BranchName == "" {
			job.BranchName = defaultBranch
		}

		if job.BarcodeValue == "" {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Field: "barcode", Message: "Barcode is required"})
			continue
		}

		price, err := decimal.NewFromString(strings.ReplaceAll(cell(row, "price"), ",", ""))
		if err != nil || price.IsNegative() {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Field: "price", Message: "Price must be a non-negative number"})
			continue
		}
		job.Price = price

		if raw := cell(row, "quantity"); raw != "" {
			qty, err := strconv.Atoi(raw)
			if err != nil || qty < 1 {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Field: "quantity", Message: "Quantity must be a whole number of at least 1"})
				continue
			}
			if qty > MaxJobQuantity {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Field: "quantity", Message: fmt.Sprintf("Quantity must not exceed %d", MaxJobQuantity)})
				continue
			}
			job.Quantity = qty
		}

		jobs = append(jobs, job)
	}

	result.Successful = len(jobs)
	result.Failed = len(result.Errors)
	return jobs, result, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet: %w", err)
	}
	return rows, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
