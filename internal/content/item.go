package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aircast-dev/aircast/internal/broadcast"
)

// Item is one piece of collected content. Items are immutable once a
// collector returns them; the mixer only selects and orders.
type Item struct {
	Category    broadcast.Category `json:"category"`
	Source      string             `json:"source"`
	Title       string             `json:"title"`
	Summary     string             `json:"summary"`
	URL         string             `json:"url,omitempty"`
	Relevance   float64            `json:"relevance"`
	PublishedAt time.Time          `json:"published_at"`
}

// Text joins title and summary for prompting.
func (i Item) Text() string {
	if i.Summary == "" {
		return i.Title
	}
	return i.Title + ". " + i.Summary
}

// Collector produces items from one external source.
type Collector interface {
	Name() string
	Collect(ctx context.Context) ([]Item, error)
}

// CollectionError records a failed source. Collection failures degrade the
// run instead of aborting it; the mixer decides whether what remains is
// enough to broadcast.
type CollectionError struct {
	Source string
	Err    error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collect %s: %v", e.Source, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&lt;", "<",
	"&gt;", ">",
)

// stripTags removes markup from feed descriptions; feeds routinely embed
// HTML that must never reach the synthesizer.
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	plain := entityReplacer.Replace(b.String())
	return strings.Join(strings.Fields(plain), " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
