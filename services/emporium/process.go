package emporium

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"emporium/lib/storeimage"
	"emporium/lib/trackergg"
)

// ProcessedStore is the snapshot after categorization, ready for
// rendering and publishing.
type ProcessedStore struct {
	UpdateDate string
	UpdateTime string
	Hash       string
	Featured   []trackergg.Bundle
	Operators  []trackergg.Bundle
	Blueprints []trackergg.Bundle
}

// Sections lists the categories in display order for the renderer.
func (p *ProcessedStore) Sections() []storeimage.Section {
	return []storeimage.Section{
		{Title: "Featured", Bundles: p.Featured},
		{Title: "Operators & Identity", Bundles: p.Operators},
		{Title: "Blueprints", Bundles: p.Blueprints},
	}
}

// ProcessStore partitions the raw bundle list into the three store
// categories. Bundles with an unrecognized type key are dropped and
// logged. Under verify, an empty category fails the whole run so a
// partial store is never published.
func ProcessStore(ctx context.Context, store *trackergg.Store, verify bool) (*ProcessedStore, error) {
	processed := &ProcessedStore{Hash: store.Hash}

	for _, bundle := range store.Items {
		switch bundle.Type() {
		case trackergg.BundleFeatured:
			processed.Featured = append(processed.Featured, bundle)
		case trackergg.BundleOperator:
			processed.Operators = append(processed.Operators, bundle)
		case trackergg.BundleBlueprint:
			processed.Blueprints = append(processed.Blueprints, bundle)
		default:
			slog.WarnContext(
				ctx, "unknown bundle type key found",
				"type_key", bundle.TypeKey,
				"bundle", bundle.Name,
			)
		}
	}

	lenF := len(processed.Featured)
	lenO := len(processed.Operators)
	lenB := len(processed.Blueprints)
	if verify && (lenF == 0 || lenO == 0 || lenB == 0) {
		return nil, fmt.Errorf(
			"failed to process the store (featured: %d, operators: %d, blueprints: %d)",
			lenF, lenO, lenB,
		)
	}

	updated, err := time.Parse(time.RFC3339, store.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("failed to parse store update timestamp: %w", err)
	}
	processed.UpdateDate = updated.UTC().Format("Monday, January 2, 2006")
	processed.UpdateTime = updated.UTC().Format("15:04")

	return processed, nil
}
