package ports

import "github.com/bnema/goalpanel/internal/domain"

// SnapshotCache keeps the last successfully fetched snapshot across wake cycles.
type SnapshotCache interface {
	Save(snapshot domain.Snapshot) error
	Load() (domain.Snapshot, bool)
	HasData() bool
}
