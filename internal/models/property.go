package models

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// Property is a row of the properties table as read by the backfill job.
// Only the columns that feed the embedding text are loaded.
type Property struct {
	ID        string
	Name      sql.NullString
	City      sql.NullString
	Locality  sql.NullString
	BHK       sql.NullString
	Summary   sql.NullString
	Amenities pq.StringArray
	Embedding *pgvector.Vector
}

// HasEmbedding reports whether the row already carries a vector.
func (p Property) HasEmbedding() bool {
	return p.Embedding != nil
}
