// Package importer loads catalog entries from a CSV price list.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"voipshop/internal/catalog"
	"voipshop/internal/domain"
)

type CatalogWriter interface {
	Upsert(ctx context.Context, e catalog.Entry) error
	UpsertAlias(ctx context.Context, alias, sku string) error
}

// Result counts what one run wrote.
type Result struct {
	Entries int
	Aliases int
}

// CSVImporter reads a price list with the header
// sku,id,name,category,price,image,isBaseStation,requiresBaseStation,supportsHandsets,aliases
// and upserts entries and their aliases.
type CSVImporter struct {
	reader *csv.Reader
	repo   CatalogWriter
	logger *zap.Logger
}

func NewCSVImporter(r io.Reader, repo CatalogWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImporter{reader: csvr, repo: repo, logger: logger}
}

type csvRow struct {
	line    int
	entry   catalog.Entry
	aliases []string
}

// Run parses every row and writes it. Rows with an empty sku only carry
// extra aliases for the entry above them.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result

	headers, err := i.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"sku", "name", "price"} {
		if _, ok := index[required]; !ok {
			return res, fmt.Errorf("%w: missing column %q", domain.ErrInvalidInput, required)
		}
	}

	var current *csvRow
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}
		line++

		row, err := parseRow(record, index, line)
		if err != nil {
			return res, err
		}
		if row == nil {
			continue
		}

		if row.entry.SKU != "" {
			if current != nil {
				if err := i.save(ctx, current, &res); err != nil {
					return res, err
				}
			}
			current = row
			continue
		}

		if current == nil {
			return res, fmt.Errorf("%w: line %d has aliases but no entry above it", domain.ErrInvalidInput, line)
		}
		current.aliases = append(current.aliases, row.aliases...)
	}

	if current != nil {
		if err := i.save(ctx, current, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow, res *Result) error {
	e := row.entry
	if e.Name == "" {
		return fmt.Errorf("%w: line %d: sku %s has no name", domain.ErrInvalidInput, row.line, e.SKU)
	}
	if e.ID == "" {
		e.ID = strings.ToLower(strings.ReplaceAll(e.SKU, "_", "-"))
	}
	if e.IsBaseStation && e.SupportsHandsets <= 0 {
		e.SupportsHandsets = 8
	}

	if err := i.repo.Upsert(ctx, e); err != nil {
		return fmt.Errorf("upsert entry %q: %w", e.SKU, err)
	}
	res.Entries++

	for _, alias := range row.aliases {
		if err := i.repo.UpsertAlias(ctx, alias, e.SKU); err != nil {
			return fmt.Errorf("upsert alias %q for %q: %w", alias, e.SKU, err)
		}
		res.Aliases++
	}
	i.logger.Debug("imported entry",
		zap.String("sku", e.SKU),
		zap.String("price", e.UnitPriceOnceOff.StringFixed(2)),
		zap.Int("aliases", len(row.aliases)),
	)
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	row := &csvRow{line: line}
	for _, a := range strings.Split(pick(record, index, "aliases"), ";") {
		if a = strings.TrimSpace(a); a != "" {
			row.aliases = append(row.aliases, a)
		}
	}

	sku := pick(record, index, "sku")
	if sku == "" {
		if len(row.aliases) == 0 {
			return nil, nil
		}
		return row, nil
	}

	price, err := decimal.NewFromString(strings.TrimPrefix(strings.ReplaceAll(pick(record, index, "price"), " ", ""), "R"))
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: price for %s: %v", domain.ErrInvalidInput, line, sku, err)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: line %d: negative price for %s", domain.ErrInvalidInput, line, sku)
	}

	handsets := 0
	if v := pick(record, index, "supportsHandsets"); v != "" {
		handsets, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: supportsHandsets for %s: %v", domain.ErrInvalidInput, line, sku, err)
		}
	}

	row.entry = catalog.Entry{
		SKU:                 sku,
		ID:                  pick(record, index, "id"),
		Name:                pick(record, index, "name"),
		Category:            domain.ParseCategory(pick(record, index, "category")),
		UnitPriceOnceOff:    price,
		Image:               pick(record, index, "image"),
		IsBaseStation:       parseBool(pick(record, index, "isBaseStation")),
		RequiresBaseStation: parseBool(pick(record, index, "requiresBaseStation")),
		SupportsHandsets:    handsets,
	}
	return row, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
