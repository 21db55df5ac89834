// Package feed provides news search feed fetching and parsing for news-digest.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/rss"
	"github.com/robertmeta/news-digest/model"
)

const searchEndpoint = "https://news.google.com/rss/search"

// Search holds the locale parameters of the news search endpoint.
type Search struct {
	Language string // hl, e.g. "en-US"
	Country  string // gl, e.g. "US"
	Edition  string // ceid, e.g. "US:en"
}

// DefaultSearch is the US English edition.
var DefaultSearch = Search{Language: "en-US", Country: "US", Edition: "US:en"}

// URL builds the search feed URL for query.
func (s Search) URL(query string) string {
	if s.Language == "" {
		s.Language = DefaultSearch.Language
	}
	if s.Country == "" {
		s.Country = DefaultSearch.Country
	}
	if s.Edition == "" {
		s.Edition = DefaultSearch.Edition
	}

	// The edition contains ':' which must stay literal, so the query string
	// is assembled by hand instead of through url.Values.
	return fmt.Sprintf("%s?q=%s&hl=%s&gl=%s&ceid=%s",
		searchEndpoint,
		url.QueryEscape(query),
		url.QueryEscape(s.Language),
		url.QueryEscape(s.Country),
		s.Edition,
	)
}

// Fetcher handles fetching and parsing news search feeds.
type Fetcher struct {
	transport Transport
	search    Search
	header    http.Header
	parser    *gofeed.Parser
	rss       *rss.Parser
	logger    *slog.Logger
}

// NewFetcher creates a new Fetcher. A nil logger uses slog.Default().
func NewFetcher(transport Transport, search Search, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		transport: transport,
		search:    search,
		header:    DefaultHeader(),
		parser:    gofeed.NewParser(),
		rss:       &rss.Parser{},
		logger:    logger,
	}
}

// SearchURL returns the feed URL used for query.
func (f *Fetcher) SearchURL(query string) string {
	return f.search.URL(query)
}

// Fetch returns at most maxItems headlines for query, in feed order.
// Failures are logged and reported as no headlines so one bad query never
// aborts a digest.
func (f *Fetcher) Fetch(ctx context.Context, query string, maxItems int) []model.Headline {
	headlines, err := f.fetch(ctx, query, maxItems)
	if err != nil {
		f.logger.Warn("fetch_failed",
			slog.String("query", query),
			slog.String("err", err.Error()),
		)
		return nil
	}

	f.logger.Info("fetch_ok",
		slog.String("query", query),
		slog.Int("count", len(headlines)),
	)
	return headlines
}

func (f *Fetcher) fetch(ctx context.Context, query string, maxItems int) ([]model.Headline, error) {
	if f.transport == nil {
		return nil, errors.New("no transport configured")
	}

	data, err := f.transport.Get(ctx, f.SearchURL(query), f.header)
	if err != nil {
		return nil, err
	}

	headlines, err := f.parse(data)
	if err != nil {
		return nil, err
	}

	return truncate(headlines, maxItems), nil
}

// Parse parses feed content from a string. Entries without a title or
// link are skipped.
func (f *Fetcher) Parse(content string) ([]model.Headline, error) {
	return f.parse([]byte(content))
}

func (f *Fetcher) parse(data []byte) ([]model.Headline, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("feed content is empty")
	}

	// RSS is parsed natively so the <source> element is not lost in the
	// universal translation.
	if gofeed.DetectFeedType(bytes.NewReader(data)) == gofeed.FeedTypeRSS {
		parsed, err := f.rss.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse feed: %w", err)
		}
		return convertRSS(parsed), nil
	}

	parsed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return convert(parsed), nil
}

// convertRSS converts an RSS document to headlines.
func convertRSS(rf *rss.Feed) []model.Headline {
	var headlines []model.Headline
	for _, item := range rf.Items {
		source := ""
		if item.Source != nil {
			source = strings.TrimSpace(item.Source.Title)
		}
		if source == "" {
			source = publisher(item.DublinCoreExt)
		}

		h := model.Headline{
			Title:     strings.TrimSpace(item.Title),
			Link:      strings.TrimSpace(item.Link),
			Published: strings.TrimSpace(item.PubDate),
			Source:    source,
		}
		if h.Validate() != nil {
			continue
		}
		headlines = append(headlines, h)
	}
	return headlines
}

// convert converts a universal gofeed.Feed (Atom, JSON) to headlines.
func convert(gf *gofeed.Feed) []model.Headline {
	var headlines []model.Headline
	for _, item := range gf.Items {
		published := item.Published
		if published == "" {
			published = item.Updated
		}

		h := model.Headline{
			Title:     strings.TrimSpace(item.Title),
			Link:      strings.TrimSpace(item.Link),
			Published: strings.TrimSpace(published),
			Source:    publisher(dublinCore(item)),
		}
		if h.Validate() != nil {
			continue
		}
		headlines = append(headlines, h)
	}
	return headlines
}

func dublinCore(item *gofeed.Item) *ext.DublinCoreExtension {
	if item.DublinCoreExt != nil {
		return item.DublinCoreExt
	}
	if dc, ok := item.Extensions["dc"]; ok {
		return ext.NewDublinCoreExtension(dc)
	}
	return nil
}

// publisher returns the flat dc:publisher value, if any.
func publisher(dc *ext.DublinCoreExtension) string {
	if dc == nil {
		return ""
	}
	for _, p := range dc.Publisher {
		if p = strings.TrimSpace(p); p != "" {
			return p
		}
	}
	return ""
}

func truncate(headlines []model.Headline, maxItems int) []model.Headline {
	if maxItems <= 0 {
		return nil
	}
	if len(headlines) > maxItems {
		return headlines[:maxItems]
	}
	return headlines
}
