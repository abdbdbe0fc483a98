package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yashrajoria/asset-inventory-backend/models"
	"github.com/yashrajoria/asset-inventory-backend/repository"
)

// DuplicateFilter flags records whose tombo is already stored. In strict
// mode it also flags a tombo repeated within the same file.
type DuplicateFilter struct {
	repo     repository.AssetRepository
	strict   bool
	existing map[string]struct{}
	seen     map[string]struct{}
}

func NewDuplicateFilter(repo repository.AssetRepository, strict bool) *DuplicateFilter {
	return &DuplicateFilter{
		repo:     repo,
		strict:   strict,
		existing: map[string]struct{}{},
		seen:     map[string]struct{}{},
	}
}

// Load fetches, in a single query, which of the records' tombos exist.
func (f *DuplicateFilter) Load(ctx context.Context, records []models.ParsedRecord) error {
	tombos := make([]string, 0, len(records))
	unique := make(map[string]struct{}, len(records))
	for _, r := range records {
		t := strings.TrimSpace(r.Tombo)
		if t == "" {
			continue
		}
		if _, ok := unique[t]; ok {
			continue
		}
		unique[t] = struct{}{}
		tombos = append(tombos, t)
	}
	if len(tombos) == 0 {
		return nil
	}

	existing, err := f.repo.FindExistingTombos(ctx, tombos)
	if err != nil {
		return fmt.Errorf("check existing tombos: %w", err)
	}
	f.existing = existing
	return nil
}

// IsDuplicate reports whether tombo is already stored. Blank tombos never are.
func (f *DuplicateFilter) IsDuplicate(tombo string) bool {
	tombo = strings.TrimSpace(tombo)
	if tombo == "" {
		return false
	}
	_, ok := f.existing[tombo]
	return ok
}

// Repeated records tombo as seen and reports whether it had been seen
// before in this file. Always false outside strict mode.
func (f *DuplicateFilter) Repeated(tombo string) bool {
	tombo = strings.TrimSpace(tombo)
	if !f.strict || tombo == "" {
		return false
	}
	if _, ok := f.seen[tombo]; ok {
		return true
	}
	f.seen[tombo] = struct{}{}
	return false
}
