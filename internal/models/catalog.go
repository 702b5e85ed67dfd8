// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package models

import "time"

// Item is the catalog view of a book as returned by the Item Catalog collaborator.
type Item struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Authors         []string  `json:"authors"`
	Categories      []string  `json:"categories"`
	Language        string    `json:"language,omitempty"`
	AvgRating       float64   `json:"avg_rating"`
	PublicationDate time.Time `json:"publication_date"`
	CoverURL        string    `json:"cover_url,omitempty"`
}

// ReadingStatus is the state of a book in a user's reading history.
type ReadingStatus string

const (
	ReadingStatusStarted   ReadingStatus = "started"
	ReadingStatusReading   ReadingStatus = "reading"
	ReadingStatusCompleted ReadingStatus = "completed"
	ReadingStatusAbandoned ReadingStatus = "abandoned"
)

// HistoryEntry is one row returned by the Reading History collaborator.
type HistoryEntry struct {
	ItemID    string        `json:"item_id"`
	Status    ReadingStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}
