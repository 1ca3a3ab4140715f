package models

import "time"

// Guide is a generated roundup playbook: a titled, described list of catalog
// products persisted alongside the article store.
type Guide struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Products    []Product `json:"products"`
	CreatedAt   time.Time `json:"created_at"`
}

// Topic is a candidate roundup subject derived from the current inventory.
// Category, brand, and price cap narrow the product pool the topic draws from.
type Topic struct {
	Title    string
	Slug     string
	Category string
	Brand    string
	PriceCap float64 // zero means uncapped
}

// TopicHistoryEntry records when a topic slug was last used so the generator
// can respect the topic cooldown.
type TopicHistoryEntry struct {
	Slug  string    `json:"slug"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}
