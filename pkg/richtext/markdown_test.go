package richtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeParagraph(t *testing.T) {
	content, err := NewNormalizer().Normalize("<p>Global warming is a serious issue.</p>")
	require.NoError(t, err)
	require.Equal(t, "Global warming is a serious issue.", content.Markdown)
	require.Equal(t, 6, content.WordCount)
	require.False(t, content.Degraded)
}

func TestNormalizeKeepsHeadingsAndEmphasis(t *testing.T) {
	content, err := NewNormalizer().Normalize("<h1>Title</h1><p>Some <strong>bold</strong> and <em>italic</em> text.</p>")
	require.NoError(t, err)
	require.Equal(t, "# Title\n\nSome **bold** and *italic* text.", content.Markdown)
}

func TestNormalizeLists(t *testing.T) {
	normalizer := NewNormalizer()

	content, err := normalizer.Normalize("<ol><li>First</li><li>Second</li></ol><ul><li>Point</li></ul>")
	require.NoError(t, err)
	require.Equal(t, "1. First\n2. Second\n\n* Point", content.Markdown)

	quill, err := normalizer.Normalize(`<ol><li data-list="bullet">One</li><li data-list="bullet">Two</li></ol>`)
	require.NoError(t, err)
	require.Equal(t, "* One\n* Two", quill.Markdown)
}

func TestNormalizeBlockquoteAndLinks(t *testing.T) {
	content, err := NewNormalizer().Normalize(`<blockquote>Quote here</blockquote><p>See <a href="https://example.com">this</a></p>`)
	require.NoError(t, err)
	require.Equal(t, "> Quote here\n\nSee [this](https://example.com)", content.Markdown)
}

func TestNormalizeStripsScripts(t *testing.T) {
	content, err := NewNormalizer().Normalize(`<p>Hi</p><script>alert(1)</script><p onclick="x()">there</p>`)
	require.NoError(t, err)
	require.Equal(t, "Hi\n\nthere", content.Markdown)
}

func TestNormalizeRejectsEmptyMarkup(t *testing.T) {
	normalizer := NewNormalizer()
	for _, raw := range []string{"", "   ", "<p><br></p>", " <p></p> ", "<p>   </p>"} {
		_, err := normalizer.Normalize(raw)
		require.ErrorIs(t, err, ErrEmptyContent, "input %q", raw)
	}
}

func TestNormalizeFallsBackOnDeepMarkup(t *testing.T) {
	raw := strings.Repeat("<div>", maxNestingDepth+10) + "text" + strings.Repeat("</div>", maxNestingDepth+10)

	content, err := NewNormalizer().Normalize(raw)
	require.NoError(t, err)
	require.True(t, content.Degraded)
	require.Equal(t, FallbackMarkdown, content.Markdown)
	require.Equal(t, 3, content.WordCount)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	normalizer := NewNormalizer()
	raw := "<h2>Intro</h2><p>Line one<br>line two</p><ul><li>a<ul><li>b</li></ul></li></ul>"

	first, err := normalizer.Normalize(raw)
	require.NoError(t, err)
	second, err := normalizer.Normalize(raw)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestWordCount(t *testing.T) {
	require.Equal(t, 0, WordCount(""))
	require.Equal(t, 0, WordCount(" \n\t "))
	require.Equal(t, 3, WordCount("  a  b\n c "))
}

func TestRendererProducesSafeHTML(t *testing.T) {
	out, err := NewRenderer().Render("# Title\n\n**bold**\n\n<script>alert(1)</script>")
	require.NoError(t, err)
	require.Contains(t, out, "<h1>Title</h1>")
	require.Contains(t, out, "<strong>bold</strong>")
	require.NotContains(t, out, "<script")
}
