// Package render turns a compiled digest into plain-text and HTML email bodies.
package render

import (
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/robertmeta/news-digest/model"
)

const (
	// NoHeadlines replaces the item list of a query with no survivors.
	NoHeadlines = "(No recent headlines)"

	// EmptyNotice heads a digest in which no query produced anything.
	EmptyNotice = "No new headlines were found for any query in this digest."

	ruleWidth = 50
)

var htmlTemplate = template.Must(template.New("digest").Parse(
	`<h2>{{.Subject}}</h2>
<hr>
{{if .IsEmpty}}<p><em>` + EmptyNotice + `</em></p>
{{end}}{{range .Groups}}<h3>{{.Query}}</h3><ul>
{{range .Headlines}}<li><b>{{.Title}}</b>{{if .Source}} [<a href="{{.Link}}">{{.Source}}</a>]{{end}}<br><a href="{{.Link}}">{{.Link}}</a></li>
{{else}}<li>` + NoHeadlines + `</li>
{{end}}</ul>
{{end}}`))

// Render returns the text and HTML bodies for d. It has no side effects
// and the same digest always renders to the same output.
func Render(d *model.Digest) (text, html string, err error) {
	if d == nil {
		return "", "", errors.New("digest is nil")
	}

	html, err = HTML(d)
	if err != nil {
		return "", "", err
	}
	return Text(d), html, nil
}

// Text renders the plain-text body. Headline text is written verbatim.
func Text(d *model.Digest) string {
	lines := []string{
		d.Subject,
		strings.Repeat("-", ruleWidth),
		"",
	}

	if d.IsEmpty() {
		lines = append(lines, EmptyNotice, "")
	}

	for _, g := range d.Groups {
		lines = append(lines, fmt.Sprintf("=== %s ===", g.Query))

		if g.IsEmpty() {
			lines = append(lines, NoHeadlines, "")
			continue
		}

		for _, h := range g.Headlines {
			src := ""
			if h.HasSource() {
				src = fmt.Sprintf(" [%s]", h.Source)
			}
			lines = append(lines,
				fmt.Sprintf("- %s%s", h.Title, src),
				"  "+h.Link,
				"",
			)
		}
	}

	return strings.Join(lines, "\n")
}

// HTML renders the HTML body. Titles, sources, queries and links are
// escaped for their context.
func HTML(d *model.Digest) (string, error) {
	var b strings.Builder
	if err := htmlTemplate.Execute(&b, d); err != nil {
		return "", fmt.Errorf("failed to render html: %w", err)
	}
	return b.String(), nil
}
