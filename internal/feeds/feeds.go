// Package feeds reads sermon podcasts published as RSS or Atom.
package feeds

import (
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is one sermon found in a feed
type Item struct {
	GUID        string
	Title       string
	Speaker     string
	Series      string
	Description string
	PublishedAt time.Time
	ImageURL    string
	AudioURL    string
	VideoURL    string
}

// Reader fetches and parses sermon feeds
type Reader struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

// NewReader creates a feed reader
func NewReader() *Reader {
	parser := gofeed.NewParser()
	parser.UserAgent = "Fellowship/1.0 (+sermon import)"
	return &Reader{parser: parser, timeout: 30 * time.Second}
}

// Fetch downloads and parses the feed at url
func (r *Reader) Fetch(ctx context.Context, url string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	feed, err := r.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	return itemsFrom(feed), nil
}

// Parse reads a feed document
func (r *Reader) Parse(body io.Reader) ([]Item, error) {
	feed, err := r.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return itemsFrom(feed), nil
}

func itemsFrom(feed *gofeed.Feed) []Item {
	var feedImage string
	if feed.Image != nil {
		feedImage = feed.Image.URL
	}
	if feedImage == "" && feed.ITunesExt != nil {
		feedImage = feed.ITunesExt.Image
	}
	var feedAuthor string
	if feed.ITunesExt != nil {
		feedAuthor = feed.ITunesExt.Author
	}
	if feedAuthor == "" && len(feed.Authors) > 0 && feed.Authors[0] != nil {
		feedAuthor = feed.Authors[0].Name
	}

	items := make([]Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		if fi == nil {
			continue
		}
		item := Item{
			GUID:        fi.GUID,
			Title:       strings.TrimSpace(fi.Title),
			Series:      strings.TrimSpace(feed.Title),
			Description: plainText(fi.Description),
			Speaker:     feedAuthor,
			ImageURL:    feedImage,
		}
		if item.GUID == "" {
			item.GUID = fi.Link
		}
		if item.Title == "" || item.GUID == "" {
			continue
		}
		if fi.PublishedParsed != nil {
			item.PublishedAt = fi.PublishedParsed.UTC()
		} else if fi.UpdatedParsed != nil {
			item.PublishedAt = fi.UpdatedParsed.UTC()
		}
		if fi.ITunesExt != nil {
			if fi.ITunesExt.Author != "" {
				item.Speaker = fi.ITunesExt.Author
			}
			if fi.ITunesExt.Image != "" {
				item.ImageURL = fi.ITunesExt.Image
			}
			if item.Description == "" {
				item.Description = plainText(fi.ITunesExt.Summary)
			}
		}
		if len(fi.Authors) > 0 && fi.Authors[0] != nil && fi.Authors[0].Name != "" {
			item.Speaker = fi.Authors[0].Name
		}
		if fi.Image != nil && fi.Image.URL != "" {
			item.ImageURL = fi.Image.URL
		}
		for _, enc := range fi.Enclosures {
			if enc == nil {
				continue
			}
			switch {
			case strings.HasPrefix(enc.Type, "audio/") && item.AudioURL == "":
				item.AudioURL = enc.URL
			case strings.HasPrefix(enc.Type, "video/") && item.VideoURL == "":
				item.VideoURL = enc.URL
			}
		}
		if item.VideoURL == "" && isVideoLink(fi.Link) {
			item.VideoURL = fi.Link
		}
		items = append(items, item)
	}
	return items
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// plainText strips markup from feed descriptions
func plainText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

func isVideoLink(link string) bool {
	return strings.Contains(link, "youtube.com/watch") || strings.Contains(link, "youtu.be/")
}
