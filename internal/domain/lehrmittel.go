package domain

import "time"

// Lehrmittel is an official teaching-material reference from an external
// publisher catalog. Materials link to Lehrmittel for filtering only.
type Lehrmittel struct {
	ID         string   `json:"id"`
	Publisher  string   `json:"publisher"`   // e.g. "lmvz"
	ExternalID string   `json:"external_id"` // unique per publisher
	Title      string   `json:"title"`
	Subjects   []string `json:"subjects,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLehrmittel creates a Lehrmittel with timestamps set.
func NewLehrmittel(publisher, externalID, title string) *Lehrmittel {
	now := time.Now().UTC()
	return &Lehrmittel{
		Publisher:  publisher,
		ExternalID: externalID,
		Title:      title,
		Subjects:   []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
