package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/ramanasai/incubator/internal/db"
	"github.com/ramanasai/incubator/internal/reading"
)

// bacteriumKey is the catalog id of a stored row. Rows written before the id
// was stored are resolved by name; names missing from the catalog are
// carried through as their own id.
func (s *Service) bacteriumKey(row db.BacteriaSelection) string {
	if row.BacteriumID != "" {
		return row.BacteriumID
	}
	if d, ok := s.catalog.LookupName(row.BacteriaName); ok {
		return d.ID
	}
	return row.BacteriaName
}

// storeRemote exposes a batch's stored rows as a list of catalog ids.
type storeRemote struct {
	s *Service
}

func (r storeRemote) Selection(ctx context.Context, batchID string) ([]string, error) {
	rows, err := r.s.store.ListBacteriaSelections(ctx, batchID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, r.s.bacteriumKey(row))
	}
	return ids, nil
}

// SaveSelection makes the stored rows match ids. Rows of bacteria still
// selected are kept with their status and dates. Started and completed
// readings are kept even when deselected.
func (r storeRemote) SaveSelection(ctx context.Context, batchID string, ids []string) error {
	existing, err := r.s.store.ListBacteriaSelections(ctx, batchID)
	if err != nil {
		return err
	}
	kept := make(map[string]db.BacteriaSelection, len(existing))
	for _, row := range existing {
		kept[r.s.bacteriumKey(row)] = row
	}

	rows := make([]db.BacteriaSelection, 0, len(ids))
	for _, id := range ids {
		if row, ok := kept[id]; ok {
			rows = append(rows, row)
			delete(kept, id)
			continue
		}
		def, known := r.s.catalog.DefinitionOrFallback(id)
		row := db.BacteriaSelection{
			BacteriaName: def.Name,
			Delay:        def.DelayDisplay,
			Status:       reading.RecordedPending,
		}
		if known {
			row.BacteriumID = def.ID
		}
		rows = append(rows, row)
	}
	for _, row := range existing {
		if _, dropped := kept[r.s.bacteriumKey(row)]; !dropped {
			continue
		}
		if row.Status == reading.RecordedCompleted || row.Status == reading.RecordedInProgress {
			r.s.log.Info("keeping deselected reading", zap.String("batch", batchID),
				zap.String("bacterium", row.BacteriaName), zap.String("status", string(row.Status)))
			rows = append(rows, row)
		}
	}
	return r.s.store.UpsertBacteriaSelections(ctx, batchID, rows)
}
