// Package seo builds the document head metadata: meta tags, Open Graph and
// Twitter cards, and JSON-LD structured data.
package seo

// OpenGraph carries the og:* properties for link previews.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
}

// Twitter carries the twitter:* card properties.
type Twitter struct {
	Card  string
	Site  string
	Image string
}

// Meta is the per-page head metadata.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
	Twitter     Twitter
}
