package richtext

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// ErrEmptyContent is returned when the editor markup carries no essay text.
var ErrEmptyContent = errors.New("essay content cannot be empty")

// ErrMarkupTooDeep indicates the markup nests deeper than the converter accepts.
var ErrMarkupTooDeep = errors.New("markup nesting too deep")

// FallbackMarkdown replaces essay content that could not be converted.
const FallbackMarkdown = "*Error converting content.*"

const maxNestingDepth = 256

// emptyEditorMarkup lists the representations the rich-text editor emits for an empty document.
var emptyEditorMarkup = map[string]struct{}{
	"<p><br></p>":  {},
	"<p><br/></p>": {},
	"<p></p>":      {},
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	blankLines    = regexp.MustCompile(`\n{3,}`)
)

// Content is the normalized form of an essay body.
type Content struct {
	Markdown  string
	WordCount int
	// Degraded reports that conversion failed and Markdown holds FallbackMarkdown.
	Degraded bool
}

// Normalizer converts editor HTML into Markdown.
type Normalizer struct {
	policy *bluemonday.Policy
}

// NewNormalizer builds a normalizer whose sanitising policy keeps only structural markup.
func NewNormalizer() *Normalizer {
	policy := bluemonday.NewPolicy()
	policy.AllowElements(
		"p", "div", "span", "br",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"strong", "b", "em", "i", "u", "s",
		"ul", "ol", "li", "blockquote", "pre", "code", "a",
	)
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowAttrs("data-list").OnElements("li")
	policy.AllowURLSchemes("http", "https", "mailto")

	return &Normalizer{policy: policy}
}

// Normalize converts raw editor markup into Markdown. Empty submissions yield ErrEmptyContent;
// conversion failures degrade to FallbackMarkdown without an error.
func (n *Normalizer) Normalize(raw string) (Content, error) {
	trimmed := strings.TrimSpace(raw)
	if IsEmptyMarkup(trimmed) {
		return Content{}, ErrEmptyContent
	}

	markdown, err := n.ToMarkdown(trimmed)
	if err != nil {
		return Content{
			Markdown:  FallbackMarkdown,
			WordCount: WordCount(FallbackMarkdown),
			Degraded:  true,
		}, nil
	}
	if markdown == "" {
		return Content{}, ErrEmptyContent
	}

	return Content{Markdown: markdown, WordCount: WordCount(markdown)}, nil
}

// ToMarkdown sanitises the markup and renders it as Markdown.
func (n *Normalizer) ToMarkdown(markup string) (string, error) {
	clean := n.policy.Sanitize(markup)
	doc, err := html.Parse(strings.NewReader(clean))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}

	c := &converter{}
	body, err := c.children(doc, 0)
	if err != nil {
		return "", err
	}

	return tidy(body), nil
}

// IsEmptyMarkup reports whether the markup is blank or the editor's empty paragraph.
func IsEmptyMarkup(markup string) bool {
	trimmed := strings.TrimSpace(markup)
	if trimmed == "" {
		return true
	}
	_, ok := emptyEditorMarkup[trimmed]
	return ok
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

type listFrame struct {
	ordered bool
	index   int
}

type converter struct {
	lists []listFrame
	inPre bool
}

func (c *converter) children(n *html.Node, depth int) (string, error) {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		out, err := c.render(child, depth+1)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

func (c *converter) render(n *html.Node, depth int) (string, error) {
	if depth > maxNestingDepth {
		return "", ErrMarkupTooDeep
	}

	switch n.Type {
	case html.TextNode:
		if c.inPre {
			return n.Data, nil
		}
		return whitespaceRun.ReplaceAllString(n.Data, " "), nil
	case html.ElementNode:
	default:
		return c.children(n, depth)
	}

	switch n.Data {
	case "br":
		return "\n", nil
	case "pre":
		c.inPre = true
		inner, err := c.children(n, depth)
		c.inPre = false
		if err != nil {
			return "", err
		}
		return "\n\n```\n" + strings.Trim(inner, "\n") + "\n```\n\n", nil
	case "ul", "ol":
		c.lists = append(c.lists, listFrame{ordered: n.Data == "ol"})
		inner, err := c.children(n, depth)
		c.lists = c.lists[:len(c.lists)-1]
		if err != nil {
			return "", err
		}
		return "\n\n" + inner + "\n\n", nil
	case "li":
		return c.listItem(n, depth)
	}

	inner, err := c.children(n, depth)
	if err != nil {
		return "", err
	}

	switch n.Data {
	case "p", "div":
		return "\n\n" + strings.TrimSpace(inner) + "\n\n", nil
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(n.Data[1:])
		text := strings.TrimSpace(inner)
		if text == "" {
			return "", nil
		}
		return "\n\n" + strings.Repeat("#", level) + " " + text + "\n\n", nil
	case "strong", "b":
		return wrapInline(inner, "**"), nil
	case "em", "i":
		return wrapInline(inner, "*"), nil
	case "s":
		return wrapInline(inner, "~~"), nil
	case "code":
		if c.inPre {
			return inner, nil
		}
		return wrapInline(inner, "`"), nil
	case "blockquote":
		lines := strings.Split(tidy(inner), "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight("> "+line, " ")
		}
		return "\n\n" + strings.Join(lines, "\n") + "\n\n", nil
	case "a":
		text := strings.TrimSpace(inner)
		href := attr(n, "href")
		if text == "" || href == "" || href == text {
			return inner, nil
		}
		return "[" + text + "](" + href + ")", nil
	default:
		return inner, nil
	}
}

func (c *converter) listItem(n *html.Node, depth int) (string, error) {
	marker := "* "
	if len(c.lists) > 0 {
		frame := &c.lists[len(c.lists)-1]
		if frame.ordered && attr(n, "data-list") != "bullet" {
			frame.index++
			marker = strconv.Itoa(frame.index) + ". "
		}
	}

	inner, err := c.children(n, depth)
	if err != nil {
		return "", err
	}

	lines := strings.Split(tidy(inner), "\n")
	indent := strings.Repeat(" ", len(marker))
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return marker + strings.Join(lines, "\n") + "\n", nil
}

// wrapInline surrounds text with an emphasis marker, keeping outer spaces outside the marker.
func wrapInline(text, marker string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}
	prefix := ""
	if strings.HasPrefix(text, " ") {
		prefix = " "
	}
	suffix := ""
	if strings.HasSuffix(text, " ") {
		suffix = " "
	}
	return prefix + marker + trimmed + marker + suffix
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func tidy(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	joined := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.Trim(joined, "\n ")
}
