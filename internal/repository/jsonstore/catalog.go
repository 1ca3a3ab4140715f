package jsonstore

import (
	"fmt"
	"time"

	"github.com/grabgifts/giftgrab/internal/models"
)

// catalogDocument is the persisted catalog file shape:
// {"last_updated": ISO-8601, "products": [...]}.
type catalogDocument struct {
	LastUpdated time.Time        `json:"last_updated"`
	Products    []models.Product `json:"products"`
}

type cooldownDocument struct {
	Entries []models.CooldownEntry `json:"entries"`
}

// LoadProducts returns the stored catalog. A missing file is an empty catalog.
func (s *Store) LoadProducts() ([]models.Product, error) {
	const opn = "jsonstore.LoadProducts"

	var doc catalogDocument
	if err := s.readJSON(productsFile, &doc); err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	products := make([]models.Product, 0, len(doc.Products))
	for _, product := range doc.Products {
		if product.ID == "" {
			s.log.Warn("skipping invalid product payload", "op", opn, "title", product.Title)
			continue
		}
		products = append(products, product)
	}
	return products, nil
}

// SaveProducts atomically rewrites the catalog file and stamps last_updated.
func (s *Store) SaveProducts(products []models.Product, now time.Time) error {
	const opn = "jsonstore.SaveProducts"

	doc := catalogDocument{LastUpdated: now, Products: products}
	if err := s.writeJSON(productsFile, doc); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}

// LoadCooldowns returns the cooldown ledger. A missing file is an empty ledger.
func (s *Store) LoadCooldowns() ([]models.CooldownEntry, error) {
	const opn = "jsonstore.LoadCooldowns"

	var doc cooldownDocument
	if err := s.readJSON(cooldownsFile, &doc); err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	return doc.Entries, nil
}

// SaveCooldowns atomically rewrites the cooldown ledger.
func (s *Store) SaveCooldowns(entries []models.CooldownEntry) error {
	const opn = "jsonstore.SaveCooldowns"

	if err := s.writeJSON(cooldownsFile, cooldownDocument{Entries: entries}); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}
