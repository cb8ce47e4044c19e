// internal/workers/embedding/backfill-embeddings/text.go
package backfillembeddings

import (
	"strings"

	"embedding-backfill/internal/models"
)

// BuildText renders the text the encoder sees for a property:
// "name city locality bhk summary amenity, amenity". NULL columns and empty
// amenity lists contribute an empty string; only the ends are trimmed.
func BuildText(p models.Property) string {
	amenities := ""
	if len(p.Amenities) > 0 {
		amenities = strings.Join(p.Amenities, ", ")
	}

	parts := []string{
		p.Name.String,
		p.City.String,
		p.Locality.String,
		p.BHK.String,
		p.Summary.String,
		amenities,
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
