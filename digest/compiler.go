// Package digest compiles deduplicated headline groups from a list of queries.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robertmeta/news-digest/model"
)

// DefaultSubject prefixes the date in the digest subject.
const DefaultSubject = "Daily News Digest"

// DateLayout formats the date shown in the subject.
const DateLayout = "2006-01-02"

// Source returns at most max headlines for a query, in feed order.
// A failed lookup is reported as no headlines.
type Source interface {
	Fetch(ctx context.Context, query string, max int) []model.Headline
}

// Options configures a Compiler.
type Options struct {
	MaxPerQuery int
	Subject     string
	Location    *time.Location
	RunID       string
	Now         func() time.Time
	Logger      *slog.Logger
}

// Compiler builds a Digest by querying a Source once per query.
type Compiler struct {
	source Source
	opts   Options
}

// NewCompiler creates a Compiler. Zero options get defaults: UTC,
// DefaultSubject, time.Now and slog.Default().
func NewCompiler(source Source, opts Options) *Compiler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Compiler{source: source, opts: opts}
}

// Compile fetches every query in order and drops any headline whose link
// was already taken by an earlier query or an earlier entry. Every query
// gets a group, even when nothing survived.
func (c *Compiler) Compile(ctx context.Context, queries []string) *model.Digest {
	generatedAt := c.opts.Now().In(c.opts.Location)

	d := &model.Digest{
		RunID:       c.opts.RunID,
		Subject:     Subject(c.opts.Subject, generatedAt),
		GeneratedAt: generatedAt,
		Groups:      make([]model.Group, 0, len(queries)),
	}

	seen := make(map[string]struct{})
	for _, q := range queries {
		fetched := c.source.Fetch(ctx, q, c.opts.MaxPerQuery)

		survivors := make([]model.Headline, 0, len(fetched))
		for _, h := range fetched {
			if _, dup := seen[h.Link]; dup {
				continue
			}
			seen[h.Link] = struct{}{}
			survivors = append(survivors, h)
		}

		d.Groups = append(d.Groups, model.Group{Query: q, Headlines: survivors})
		d.Total += len(survivors)
	}

	c.opts.Logger.Info("digest_compiled",
		slog.String("subject", d.Subject),
		slog.Int("queries", len(queries)),
		slog.Int("total", d.Total),
	)

	return d
}

// Subject formats the digest subject for the given time.
func Subject(prefix string, t time.Time) string {
	return fmt.Sprintf("%s – %s", prefix, t.Format(DateLayout))
}
