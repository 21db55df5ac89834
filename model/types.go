// Package model defines the core data structures for news-digest.
package model

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingTitle = errors.New("headline title is required")
	ErrMissingLink  = errors.New("headline link is required")
)

// Headline is one feed entry reduced to what the digest shows.
// Link is the deduplication key.
type Headline struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Validate checks if the headline has required fields.
func (h *Headline) Validate() error {
	if strings.TrimSpace(h.Title) == "" {
		return ErrMissingTitle
	}
	if strings.TrimSpace(h.Link) == "" {
		return ErrMissingLink
	}
	return nil
}

// HasSource returns true if the publisher name is known.
func (h *Headline) HasSource() bool {
	return h.Source != ""
}

// Group holds the headlines that survived deduplication for one query.
type Group struct {
	Query     string     `json:"query"`
	Headlines []Headline `json:"headlines"`
}

// IsEmpty returns true if no headline survived for the query.
func (g *Group) IsEmpty() bool {
	return len(g.Headlines) == 0
}

// Digest is the compiled result of one run. It is built once and not
// modified after rendering.
type Digest struct {
	RunID       string    `json:"run_id,omitempty"`
	Subject     string    `json:"subject"`
	GeneratedAt time.Time `json:"generated_at"`
	Groups      []Group   `json:"groups"`
	Total       int       `json:"total"`
}

// IsEmpty returns true if the digest contains no headlines at all.
func (d *Digest) IsEmpty() bool {
	return d.Total == 0
}

// Links returns every headline link in group order.
func (d *Digest) Links() []string {
	var links []string
	for _, g := range d.Groups {
		for _, h := range g.Headlines {
			links = append(links, h.Link)
		}
	}
	return links
}
