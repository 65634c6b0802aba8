package lmvz

import (
	"lehrmarkt-service/internal/domain"
)

// Response represents the JSON catalog listing from the LMVZ API.
type Response struct {
	Lehrmittel []Entry `json:"lehrmittel"`
	Total      int     `json:"total"`
}

// Entry is a single catalog entry from the LMVZ API.
type Entry struct {
	ID        string   `json:"id"`
	Titel     string   `json:"titel"`
	Faecher   []string `json:"faecher"`
	Zyklen    []string `json:"zyklen"`
	Verlag    string   `json:"verlag"`
	Lieferbar bool     `json:"lieferbar"`
}

// ToDomain converts an Entry to a domain Lehrmittel.
func (e *Entry) ToDomain(publisher string) *domain.Lehrmittel {
	lm := domain.NewLehrmittel(publisher, e.ID, e.Titel)
	lm.Subjects = e.Faecher

	return lm
}
