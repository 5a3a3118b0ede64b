/**
 * @description
 * Handlers for the SEO surfaces generated from the content store: the RSS
 * 2.0 feed, the sitemap and robots.txt. The XML documents are emitted from
 * literal templates, matching the fixed shape feed readers and crawlers see.
 */
package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/chiwonkim111/vibecoding-backend/internal/content"
)

const (
	siteTitle       = "바이브코딩 블로그"
	siteDescription = "AI 코딩, 바이브코딩, Cursor AI 활용법 등 비개발자를 위한 코딩 정보와 팁을 제공합니다."
)

// SEOHandlers serves feed.xml, sitemap.xml and robots.txt.
type SEOHandlers struct {
	store   *content.Store
	baseURL string
}

// NewSEOHandlers creates SEO handlers for the given site base URL.
func NewSEOHandlers(store *content.Store, baseURL string) *SEOHandlers {
	return &SEOHandlers{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(text string) string {
	return xmlEscaper.Replace(text)
}

// FeedHandler handles GET /feed.xml with an RSS 2.0 document listing every
// post, newest first.
func (h *SEOHandlers) FeedHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListPosts()
	if err != nil {
		log.Printf("level=error component=api op=feed err=%v", err)
		http.Error(w, "feed unavailable", http.StatusInternalServerError)
		return
	}

	var items strings.Builder
	for _, post := range posts {
		postURL := fmt.Sprintf("%s/blog/%s", h.baseURL, post.Slug)
		pubDate := rssDate(post.Date)
		fmt.Fprintf(&items, `
    <item>
      <title>%s</title>
      <link>%s</link>
      <guid isPermaLink="true">%s</guid>
      <description>%s</description>
      <pubDate>%s</pubDate>
      <author>%s</author>
      <category>%s</category>
    </item>`,
			escapeXML(post.Title), postURL, postURL, escapeXML(post.Description),
			pubDate, escapeXML(post.Author), escapeXML(post.Category))
	}

	feed := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>%s</title>
    <link>%s</link>
    <description>%s</description>
    <language>ko-KR</language>
    <lastBuildDate>%s</lastBuildDate>
    <atom:link href="%s/feed.xml" rel="self" type="application/rss+xml"/>%s
  </channel>
</rss>`,
		escapeXML(siteTitle), h.baseURL, escapeXML(siteDescription),
		time.Now().UTC().Format(http.TimeFormat), h.baseURL, items.String())

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600, s-maxage=3600")
	w.Write([]byte(feed))
}

// SitemapHandler handles GET /sitemap.xml: the static pages plus one entry
// per blog post.
func (h *SEOHandlers) SitemapHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListPosts()
	if err != nil {
		log.Printf("level=error component=api op=sitemap err=%v", err)
		http.Error(w, "sitemap unavailable", http.StatusInternalServerError)
		return
	}

	today := time.Now().UTC().Format("2006-01-02")

	var urls strings.Builder
	fmt.Fprintf(&urls, `
  <url>
    <loc>%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>weekly</changefreq>
    <priority>1.0</priority>
  </url>
  <url>
    <loc>%s/blog</loc>
    <lastmod>%s</lastmod>
    <changefreq>daily</changefreq>
    <priority>0.9</priority>
  </url>`, h.baseURL, today, h.baseURL, today)

	for _, post := range posts {
		lastmod := post.Date
		if lastmod == "" {
			lastmod = today
		}
		fmt.Fprintf(&urls, `
  <url>
    <loc>%s/blog/%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>monthly</changefreq>
    <priority>0.7</priority>
  </url>`, h.baseURL, post.Slug, lastmod)
	}

	sitemap := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">%s
</urlset>`, urls.String())

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write([]byte(sitemap))
}

// RobotsHandler handles GET /robots.txt.
func (h *SEOHandlers) RobotsHandler(w http.ResponseWriter, r *http.Request) {
	robots := fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s/sitemap.xml\n", h.baseURL)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(robots))
}

// rssDate converts a front-matter date (ISO "2006-01-02") to RFC1123 for
// the pubDate element. Unparsable dates are passed through as-is.
func rssDate(date string) string {
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.UTC().Format(http.TimeFormat)
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.UTC().Format(http.TimeFormat)
	}
	return date
}
