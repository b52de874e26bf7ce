package task

import "firetechnics/site/internal/domain"

const TypeWarmCatalog = "WarmCatalogTask"

// WarmCatalogTask preloads catalog queries into the cache. Purge drops cached
// entries first so the content service is queried again.
type WarmCatalogTask struct {
	Categories []domain.Category `json:"categories,omitempty"` // empty means all
	Purge      bool              `json:"purge"`
	Reason     string            `json:"reason,omitempty"`
}

func (t *WarmCatalogTask) TaskType() string {
	return TypeWarmCatalog
}

func (t *WarmCatalogTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
