package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/semmidev/pgstash/internal/domain"
)

// List returns remote artifact names, oldest first. Names that do not carry
// a timestamp sort after the rest.
type List struct {
	storage domain.Storage
}

func NewList(storage domain.Storage) *List {
	return &List{storage: storage}
}

func (uc *List) Execute(ctx context.Context) ([]string, error) {
	files, err := uc.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	stamp := func(name string) (time.Time, bool) {
		a, err := domain.ParseArtifact(name)
		return a.CreatedAt, err == nil
	}

	sort.SliceStable(files, func(i, j int) bool {
		ti, oki := stamp(files[i])
		tj, okj := stamp(files[j])
		switch {
		case oki && okj && !ti.Equal(tj):
			return ti.Before(tj)
		case oki != okj:
			return oki
		default:
			return files[i] < files[j]
		}
	})

	return files, nil
}
