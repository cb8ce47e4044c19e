package backfillembeddings

import (
	"database/sql"
	"testing"

	"embedding-backfill/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func ns(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestBuildText(t *testing.T) {
	tests := []struct {
		name     string
		property models.Property
		expected string
	}{
		{
			name: "all fields",
			property: models.Property{
				ID:        "p-1",
				Name:      ns("Skyline Towers"),
				City:      ns("Pune"),
				Locality:  ns("Baner"),
				BHK:       ns("2BHK"),
				Summary:   ns("Premium apartments near the IT park"),
				Amenities: pq.StringArray{"Gym", "Parking", "Lift"},
			},
			expected: "Skyline Towers Pune Baner 2BHK Premium apartments near the IT park Gym, Parking, Lift",
		},
		{
			name: "null amenities",
			property: models.Property{
				Name:     ns("Green Acres"),
				City:     ns("Mumbai"),
				Locality: ns("Powai"),
				BHK:      ns("3BHK"),
				Summary:  ns("Lake view"),
			},
			expected: "Green Acres Mumbai Powai 3BHK Lake view",
		},
		{
			name: "empty amenities",
			property: models.Property{
				Name:      ns("Green Acres"),
				Summary:   ns("Lake view"),
				Amenities: pq.StringArray{},
			},
			expected: "Green Acres    Lake view",
		},
		{
			name: "only name",
			property: models.Property{
				Name: ns("Solo"),
			},
			expected: "Solo",
		},
		{
			name:     "everything null",
			property: models.Property{ID: "p-empty"},
			expected: "",
		},
		{
			name: "leading fields null",
			property: models.Property{
				Summary:   ns("Sea facing"),
				Amenities: pq.StringArray{"Pool"},
			},
			expected: "Sea facing Pool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildText(tt.property)

			assert.Equal(t, tt.expected, got)
			assert.NotContains(t, got, "None")
			assert.NotContains(t, got, "<nil>")
		})
	}
}
