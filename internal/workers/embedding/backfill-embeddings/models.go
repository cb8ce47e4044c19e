// internal/workers/embedding/backfill-embeddings/models.go
package backfillembeddings

import "time"

// Output summarises one run.
type Output struct {
	Total           int           `json:"total"`
	AlreadyEmbedded int           `json:"alreadyEmbedded"`
	Pending         int           `json:"pending"`
	Updated         int           `json:"updated"`
	Skipped         int           `json:"skipped"`
	Commits         int           `json:"commits"`
	Duration        time.Duration `json:"duration"`
}
