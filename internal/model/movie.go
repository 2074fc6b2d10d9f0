package model

import "time"

// Movie is a catalog entry.  ID is a stable surrogate key; Title is a
// unique but mutable attribute, so a rename keeps the same ID.
//
// Fields:
//  ID          – movies.id
//  Title       – movies.title (unique)
//  Description – movies.description
//  Trailer     – movies.trailer, stored as a YouTube embed URL
//  Image       – movies.image
//  Rating      – movies.rating, nil when unrated (0–10 otherwise)
//  Labels      – movies.labels, category tags
type Movie struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Trailer     string    `json:"trailer"`
	Image       string    `json:"image"`
	Rating      *float64  `json:"rating"`
	Labels      []string  `json:"labels"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}
