package pricing

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"voipshop/internal/domain"
	"voipshop/internal/money"
)

// Snapshot is the persisted form of sel. Items keep selection order and the
// meta carries the extension count.
func Snapshot(sel domain.Selection) domain.SelectionSnapshot {
	items := make([]domain.SnapshotItem, 0, len(sel.Items))
	for _, it := range sel.Items {
		if it.Quantity <= 0 {
			continue
		}
		items = append(items, domain.SnapshotItem{
			ID:               it.ID,
			Name:             it.Name,
			Quantity:         it.Quantity,
			UnitPriceOnceOff: money.Float(it.UnitPriceOnceOff),
			Image:            it.Image,
			IsBaseStation:    it.IsBaseStation,
		})
	}
	return domain.SelectionSnapshot{
		Items: items,
		Meta:  domain.SelectionMeta{ExtensionCount: sel.ExtensionCount()},
	}
}

func (e *Engine) Snapshot() domain.SelectionSnapshot {
	return Snapshot(e.selection)
}

// Restore decodes a persisted selection. It accepts either the full
// {items, meta} document or the bare item array. Malformed input yields an
// empty selection.
func (e *Engine) Restore(data []byte) domain.Selection {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.EmptySelection()
	}

	var snap domain.SelectionSnapshot
	var err error
	if trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &snap.Items)
	} else {
		err = json.Unmarshal(trimmed, &snap)
	}
	if err != nil {
		e.logger.Warn("malformed selection snapshot, starting empty", zap.Error(err))
		return domain.EmptySelection()
	}
	return e.RestoreSnapshot(snap)
}

// RestoreSnapshot rebuilds line items from a decoded snapshot. Saved prices
// win over the catalog; category and base-station metadata come from the
// catalog when the id is known, and known ids are rewritten to the catalog
// card id so legacy spellings collapse onto one line. Zero quantities and
// repeated ids are dropped.
func (e *Engine) RestoreSnapshot(snap domain.SelectionSnapshot) domain.Selection {
	sel := domain.EmptySelection()
	for _, si := range snap.Items {
		if si.ID == "" || si.Quantity <= 0 {
			continue
		}

		line := domain.LineItem{
			ID:               si.ID,
			Name:             si.Name,
			Category:         domain.CategoryOther,
			Quantity:         si.Quantity,
			UnitPriceOnceOff: money.FromFloat(si.UnitPriceOnceOff),
			Image:            si.Image,
			IsBaseStation:    si.IsBaseStation,
		}
		if entry, ok := e.catalog.LookupID(si.ID); ok {
			line.ID = entry.ID
			line.SKU = entry.SKU
			line.Category = entry.Category
			line.RequiresBaseStation = entry.RequiresBaseStation
			line.SupportsHandsets = entry.SupportsHandsets
			line.IsBaseStation = line.IsBaseStation || entry.IsBaseStation
			if line.Name == "" {
				line.Name = entry.Name
			}
			if line.Image == "" {
				line.Image = entry.Image
			}
		} else {
			e.logger.Debug("snapshot line not in catalog", zap.String("item_id", si.ID))
		}
		if _, dup := sel.Find(line.ID); dup {
			e.logger.Warn("duplicate snapshot line dropped", zap.String("item_id", si.ID), zap.String("canonical_id", line.ID))
			continue
		}
		if line.UnitPriceOnceOff.IsNegative() {
			line.UnitPriceOnceOff = decimal.Zero
		}
		sel = sel.With(line)
	}
	return sel
}
