package render

import (
	"strings"
	"testing"
	"time"

	"github.com/robertmeta/news-digest/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDigest() *model.Digest {
	return &model.Digest{
		Subject:     "Daily News Digest – 2026-10-19",
		GeneratedAt: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
		Groups: []model.Group{
			{
				Query: "hemp ban",
				Headlines: []model.Headline{
					{Title: "Senate acts", Link: "https://e.com/1", Source: "Example Times"},
					{Title: "Retailers react", Link: "https://e.com/2"},
				},
			},
			{Query: "farm bill"},
		},
		Total: 2,
	}
}

func TestText(t *testing.T) {
	want := strings.Join([]string{
		"Daily News Digest – 2026-10-19",
		strings.Repeat("-", 50),
		"",
		"=== hemp ban ===",
		"- Senate acts [Example Times]",
		"  https://e.com/1",
		"",
		"- Retailers react",
		"  https://e.com/2",
		"",
		"=== farm bill ===",
		"(No recent headlines)",
		"",
	}, "\n")

	assert.Equal(t, want, Text(sampleDigest()))
}

func TestHTML(t *testing.T) {
	want := "<h2>Daily News Digest – 2026-10-19</h2>\n" +
		"<hr>\n" +
		"<h3>hemp ban</h3><ul>\n" +
		`<li><b>Senate acts</b> [<a href="https://e.com/1">Example Times</a>]<br><a href="https://e.com/1">https://e.com/1</a></li>` + "\n" +
		`<li><b>Retailers react</b><br><a href="https://e.com/2">https://e.com/2</a></li>` + "\n" +
		"</ul>\n" +
		"<h3>farm bill</h3><ul>\n" +
		"<li>(No recent headlines)</li>\n" +
		"</ul>\n"

	got, err := HTML(sampleDigest())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRender_EmptyDigestNotice(t *testing.T) {
	d := &model.Digest{
		Subject: "Daily News Digest – 2026-10-19",
		Groups:  []model.Group{{Query: "A"}, {Query: "B"}},
	}

	text, html, err := Render(d)
	require.NoError(t, err)

	// Notice comes before the first query section
	assert.Less(t, strings.Index(text, EmptyNotice), strings.Index(text, "=== A ==="))
	assert.Equal(t, 2, strings.Count(text, NoHeadlines))

	assert.Less(t, strings.Index(html, EmptyNotice), strings.Index(html, "<h3>A</h3>"))
	assert.Equal(t, 2, strings.Count(html, "<li>"+NoHeadlines+"</li>"))
}

func TestRender_NoNoticeWhenHeadlinesExist(t *testing.T) {
	text, html, err := Render(sampleDigest())
	require.NoError(t, err)
	assert.NotContains(t, text, EmptyNotice)
	assert.NotContains(t, html, EmptyNotice)
}

func TestRender_Idempotent(t *testing.T) {
	d := sampleDigest()

	text1, html1, err := Render(d)
	require.NoError(t, err)
	text2, html2, err := Render(d)
	require.NoError(t, err)

	assert.Equal(t, text1, text2)
	assert.Equal(t, html1, html2)
	assert.Equal(t, sampleDigest(), d, "Rendering must not modify the digest")
}

func TestHTML_EscapesHeadlineText(t *testing.T) {
	d := &model.Digest{
		Subject: "Digest",
		Groups: []model.Group{{
			Query: "<b>q</b>",
			Headlines: []model.Headline{
				{Title: `<script>alert(1)</script> & "x"`, Link: "https://e.com/?a=1&b=2", Source: "A&B <News>"},
				{Title: "bad link", Link: "javascript:alert(1)"},
			},
		}},
		Total: 2,
	}

	html, err := HTML(d)
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;alert(1)&lt;/script&gt; &amp; &#34;x&#34;")
	assert.Contains(t, html, "<h3>&lt;b&gt;q&lt;/b&gt;</h3>")
	assert.Contains(t, html, "A&amp;B &lt;News&gt;")
	assert.Contains(t, html, `href="https://e.com/?a=1&amp;b=2"`)
	assert.NotContains(t, html, `href="javascript:`)

	// Plain text is not escaped
	assert.Contains(t, Text(d), `- <script>alert(1)</script> & "x" [A&B <News>]`)
}

func TestRender_NilDigest(t *testing.T) {
	_, _, err := Render(nil)
	assert.Error(t, err)
}
