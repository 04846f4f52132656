package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var importRequired = []string{"model_number", "category", "mrp"}

// RowIssue explains why an import row was not used. Line is 1-based and counts the header.
type RowIssue struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult summarises a CSV product import.
type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  []RowIssue `json:"skipped"`
}

// ImportProducts creates products from a CSV with the columns
// model_number, category (name), mrp and optionally is_active.
// Valid rows are inserted together; invalid rows are reported and skipped.
func (s *service) ImportProducts(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range importRequired {
		if _, ok := cols[h]; !ok {
			return nil, fmt.Errorf("%w: missing required columns, required: %s",
				ErrInvalidCSV, strings.Join(importRequired, ", "))
		}
	}

	categories, err := s.repo.ListAllCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("import products: %w", err)
	}
	byName := make(map[string]string, len(categories))
	for _, c := range categories {
		byName[strings.ToLower(c.Name)] = c.ID
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	result := &ImportResult{Skipped: []RowIssue{}}
	var products []*Product
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
			}
			result.Skipped = append(result.Skipped, RowIssue{Line: pe.Line, Reason: pe.Err.Error()})
			continue
		}
		line, _ := reader.FieldPos(0)
		if isBlankRecord(rec) {
			continue
		}

		model := field(rec, "model_number")
		if model == "" {
			result.Skipped = append(result.Skipped, RowIssue{Line: line, Reason: "model_number is empty"})
			continue
		}
		categoryID, ok := byName[strings.ToLower(field(rec, "category"))]
		if !ok {
			result.Skipped = append(result.Skipped, RowIssue{Line: line, Reason: fmt.Sprintf("unknown category %q", field(rec, "category"))})
			continue
		}
		mrp, err := strconv.ParseFloat(field(rec, "mrp"), 64)
		if err != nil || mrp < 0 {
			result.Skipped = append(result.Skipped, RowIssue{Line: line, Reason: fmt.Sprintf("invalid mrp %q", field(rec, "mrp"))})
			continue
		}
		active := true
		if v := field(rec, "is_active"); v != "" {
			if active, err = strconv.ParseBool(v); err != nil {
				result.Skipped = append(result.Skipped, RowIssue{Line: line, Reason: fmt.Sprintf("invalid is_active %q", v)})
				continue
			}
		}

		p := &Product{
			ID:          uuid.New().String(),
			ModelNumber: model,
			MRP:         mrp,
			CategoryID:  categoryID,
			IsActive:    active,
		}
		if err := validateProduct(p); err != nil {
			result.Skipped = append(result.Skipped, RowIssue{Line: line, Reason: strings.TrimPrefix(err.Error(), ErrInvalidProduct.Error()+": ")})
			continue
		}
		products = append(products, p)
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("%w: no valid products found in file", ErrInvalidCSV)
	}
	if err := s.repo.CreateProducts(ctx, products); err != nil {
		return nil, err
	}
	result.Imported = len(products)
	s.logger.InfoContext(ctx, "products imported", "imported", result.Imported, "skipped", len(result.Skipped))
	s.invalidateProductSets(ctx)
	return result, nil
}

// ExportProducts writes every product as CSV, newest first.
func (s *service) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.repo.ListAllProducts(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"model_number", "category", "mrp", "is_active", "created_at"}); err != nil {
		return err
	}
	for _, p := range products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		if err := cw.Write([]string{
			p.ModelNumber,
			category,
			strconv.FormatFloat(p.MRP, 'f', 2, 64),
			strconv.FormatBool(p.IsActive),
			p.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
