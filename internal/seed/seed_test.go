package seed

import (
	"context"
	"errors"
	"testing"

	"voipshop/internal/catalog"
)

type recordingWriter struct {
	skus    []string
	aliases map[string]string
	failSKU string
}

func (r *recordingWriter) Upsert(_ context.Context, e catalog.Entry) error {
	if e.SKU == r.failSKU {
		return errors.New("write failed")
	}
	r.skus = append(r.skus, e.SKU)
	return nil
}

func (r *recordingWriter) UpsertAlias(_ context.Context, alias, sku string) error {
	if r.aliases == nil {
		r.aliases = map[string]string{}
	}
	r.aliases[alias] = sku
	return nil
}

func TestApply_WritesDefaultCatalog(t *testing.T) {
	cat := catalog.Default()
	w := &recordingWriter{}

	if err := Apply(context.Background(), w, cat); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(w.skus) != len(cat.Entries()) {
		t.Fatalf("expected %d entries, got %d", len(cat.Entries()), len(w.skus))
	}
	if len(w.aliases) != len(cat.Aliases()) {
		t.Fatalf("expected %d aliases, got %d", len(cat.Aliases()), len(w.aliases))
	}
	if w.aliases["cordless-placeholder-1"] != "YEALINK_W59R" {
		t.Fatalf("unexpected alias target %q", w.aliases["cordless-placeholder-1"])
	}

	// A second run writes the same rows again.
	if err := Apply(context.Background(), w, cat); err != nil {
		t.Fatalf("Apply twice: %v", err)
	}
	if len(w.skus) != 2*len(cat.Entries()) {
		t.Fatalf("expected rows rewritten on second run")
	}
}

func TestApply_StopsOnWriteError(t *testing.T) {
	w := &recordingWriter{failSKU: "YEALINK_T31P"}
	err := Apply(context.Background(), w, catalog.Default())
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(w.aliases) != 0 {
		t.Fatalf("aliases must not be written after an entry failure")
	}
}
