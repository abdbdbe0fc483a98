package services

import (
	"context"
	"fmt"

	"github.com/yashrajoria/asset-inventory-backend/models"
	"github.com/yashrajoria/asset-inventory-backend/repository"
)

// BatchInserter writes drafts in one unordered bulk write and turns
// per-document rejections into import errors.
type BatchInserter struct {
	repo repository.AssetRepository
}

func NewBatchInserter(repo repository.AssetRepository) *BatchInserter {
	return &BatchInserter{repo: repo}
}

func (b *BatchInserter) Insert(ctx context.Context, drafts []models.Asset) (int, []models.ImportError, error) {
	if len(drafts) == 0 {
		return 0, nil, nil
	}

	inserted, failures, err := b.repo.InsertMany(ctx, drafts)
	if err != nil {
		return 0, nil, fmt.Errorf("bulk insert assets: %w", err)
	}

	errs := make([]models.ImportError, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, models.ImportError{
			Kind:    models.ImportErrorInsertion,
			Message: insertionMessage(drafts, f),
		})
	}
	return inserted, errs, nil
}

func insertionMessage(drafts []models.Asset, f repository.WriteFailure) string {
	if f.Index < 0 || f.Index >= len(drafts) {
		return fmt.Sprintf("Falha ao inserir bem: %s", f.Message)
	}
	d := drafts[f.Index]
	if f.Duplicate() {
		return fmt.Sprintf("Bem %q com tombo %s já existe", d.Name, d.Tombo)
	}
	return fmt.Sprintf("Falha ao inserir bem %q (tombo %s): %s", d.Name, d.Tombo, f.Message)
}
