// Package sanitize neutralizes markup and script injection in user supplied
// text before it is stored or rendered.
//
// There are three HTML trust tiers (HTML, RichText and StripHTML), an escaper
// for literal interpolation (Input), and normalizers for URLs, e-mail
// addresses and usernames. None of the helpers returns an error: dangerous or
// invalid input always maps to a safe value, usually the empty string.
//
// The HTML tiers are allow-lists built on bluemonday. Script and style
// elements are dropped together with their content, event handler
// attributes are never allowed, and URL attributes must parse with an
// http, https or mailto scheme (or be relative).
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	basicElements = []string{
		"b", "i", "em", "strong", "a", "p", "br", "ul", "ol", "li",
		"h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "code", "pre",
	}
	basicAttrs = []string{"href", "title", "target", "rel"}

	richElements = []string{"img", "table", "thead", "tbody", "tr", "th", "td", "hr", "div", "span"}
	richAttrs    = []string{"src", "alt", "width", "height", "class"}
)

var (
	basicPolicy = newPolicy(basicElements, basicAttrs)
	richPolicy  = newPolicy(
		append(append([]string{}, basicElements...), richElements...),
		append(append([]string{}, basicAttrs...), richAttrs...),
	)
	strictPolicy = bluemonday.StrictPolicy()
)

func newPolicy(elements, attrs []string) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(elements...)
	p.AllowAttrs(attrs...).Globally()

	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	return p
}

// HTML keeps emphasis, paragraph, list, heading, link, quote and code
// markup. Used for comments and forum bodies. Quotes in text nodes are
// stored as &#34; and &#39;.
func HTML(input string) string {
	return basicPolicy.Sanitize(input)
}

// RichText adds images, tables, rules and generic containers to the HTML
// allow-list. Used for blog post bodies.
func RichText(input string) string {
	return richPolicy.Sanitize(input)
}

// textEscaper serializes plain text the way a DOM serializes a text node.
var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\u00a0", "&nbsp;",
)

// StripHTML removes every tag and returns the text content. Script and style
// content is dropped. Ampersands and angle brackets in the text come back
// entity-encoded.
func StripHTML(input string) string {
	text := html.UnescapeString(strictPolicy.Sanitize(input))
	return textEscaper.Replace(text)
}

// Replacements are applied left to right in a single pass, so "&" is only
// escaped once per occurrence in the stripped text.
var inputEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// Input strips markup and escapes the result for literal interpolation into
// HTML. Because StripHTML already encodes "&", a raw ampersand ends up as
// "&amp;amp;".
func Input(input string) string {
	return inputEscaper.Replace(StripHTML(input))
}

var (
	blockedSchemes = []string{"javascript:", "data:", "vbscript:", "file:"}
	allowedPrefix  = []string{"/", "./", "../", "http://", "https://"}
)

// URL returns the trimmed url when it is relative or http(s), and "" for any
// other scheme.
func URL(url string) string {
	trimmed := strings.TrimSpace(url)
	lower := strings.ToLower(trimmed)

	for _, scheme := range blockedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}
	for _, prefix := range allowedPrefix {
		if strings.HasPrefix(lower, prefix) {
			return trimmed
		}
	}
	return ""
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email trims and lowercases email, returning "" when it does not look like
// local@domain.tld.
func Email(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(normalized) {
		return ""
	}
	return normalized
}

const MaxUsernameLength = 50

var usernameDisallowed = regexp.MustCompile(`[^a-z0-9_-]`)

// Username lowercases and keeps only [a-z0-9_-], truncated to 50 characters.
func Username(username string) string {
	normalized := strings.ToLower(strings.TrimSpace(username))
	normalized = usernameDisallowed.ReplaceAllString(normalized, "")
	if len(normalized) > MaxUsernameLength {
		normalized = normalized[:MaxUsernameLength]
	}
	return normalized
}
