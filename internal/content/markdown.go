/**
 * @description
 * A best-effort markdown-to-HTML formatter for blog bodies. Rendering is a
 * fixed sequence of textual substitution passes, not a parse tree; nested or
 * overlapping constructs are not guaranteed correct. Supported constructs:
 * headings (h1-h3), bold, italic, inline and fenced code, unordered and
 * ordered list items, block quotes, links, and paragraph wrapping.
 */
package content

import (
	"regexp"
	"strings"
)

var (
	mdH3         = regexp.MustCompile(`(?m)^### (.*)$`)
	mdH2         = regexp.MustCompile(`(?m)^## (.*)$`)
	mdH1         = regexp.MustCompile(`(?m)^# (.*)$`)
	mdBold       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	mdItalic     = regexp.MustCompile(`\*(.*?)\*`)
	mdCodeBlock  = regexp.MustCompile("(?s)```[\\w]*\n(.*?)```")
	mdInlineCode = regexp.MustCompile("`([^`]+)`")
	mdULItem     = regexp.MustCompile(`(?m)^- (.*)$`)
	mdOLItem     = regexp.MustCompile(`(?m)^\d+\. (.*)$`)
	mdQuote      = regexp.MustCompile(`(?m)^> (.*)$`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// RenderMarkdown converts a markdown body to HTML via ordered substitution
// passes. Fenced code runs before inline code so backtick fences are not
// consumed as inline spans.
func RenderMarkdown(markdown string) string {
	html := strings.ReplaceAll(markdown, "\r\n", "\n")

	html = mdCodeBlock.ReplaceAllString(html, `<pre><code>$1</code></pre>`)

	html = mdH3.ReplaceAllString(html, `<h3>$1</h3>`)
	html = mdH2.ReplaceAllString(html, `<h2>$1</h2>`)
	html = mdH1.ReplaceAllString(html, `<h1>$1</h1>`)

	html = mdBold.ReplaceAllString(html, `<strong>$1</strong>`)
	html = mdItalic.ReplaceAllString(html, `<em>$1</em>`)
	html = mdInlineCode.ReplaceAllString(html, `<code>$1</code>`)

	html = mdULItem.ReplaceAllString(html, `<li>$1</li>`)
	html = mdOLItem.ReplaceAllString(html, `<li>$1</li>`)
	html = mdQuote.ReplaceAllString(html, `<blockquote>$1</blockquote>`)
	html = mdLink.ReplaceAllString(html, `<a href="$2" target="_blank" rel="noopener noreferrer">$1</a>`)

	// Paragraph wrapping: blank-line separated chunks that are not already
	// markup get a <p>.
	chunks := strings.Split(html, "\n\n")
	for i, chunk := range chunks {
		trimmed := strings.TrimSpace(chunk)
		if trimmed == "" {
			chunks[i] = ""
			continue
		}
		if strings.HasPrefix(trimmed, "<") {
			chunks[i] = chunk
			continue
		}
		chunks[i] = "<p>" + chunk + "</p>"
	}
	return strings.Join(chunks, "\n")
}
