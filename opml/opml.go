// Package opml exports the search feeds behind a digest as an OPML document.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// OPML represents the root OPML structure.
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

// Head contains metadata about the OPML document.
type Head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

// Body contains the outline elements (feeds).
type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline represents a feed or category in OPML.
type Outline struct {
	Text     string    `xml:"text,attr,omitempty"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLUrl   string    `xml:"xmlUrl,attr,omitempty"`
	Category string    `xml:"category,attr,omitempty"`
	Outlines []Outline `xml:"outline,omitempty"`
}

// Subscription is one search query and the feed URL that serves it.
type Subscription struct {
	Query string
	URL   string
}

// Generate writes an OPML 2.0 document with one rss outline per
// subscription, grouped under a single category outline named title.
func Generate(w io.Writer, title string, subs []Subscription, created time.Time) error {
	category := Outline{
		Text:     title,
		Title:    title,
		Outlines: []Outline{},
	}

	for _, s := range subs {
		category.Outlines = append(category.Outlines, Outline{
			Type:     "rss",
			Text:     s.Query,
			Title:    s.Query,
			XMLUrl:   s.URL,
			Category: title,
		})
	}

	doc := OPML{
		Version: "2.0",
		Head: Head{
			Title:       title,
			DateCreated: created.Format(time.RFC1123),
		},
		Body: Body{
			Outlines: []Outline{category},
		},
	}

	// Write XML declaration
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode OPML: %w", err)
	}

	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write final newline: %w", err)
	}

	return nil
}
