package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longText(sentence string, n int) string {
	return strings.TrimSpace(strings.Repeat(sentence+" ", n))
}

func TestExtractPrefersSelectorOverLargerBlock(t *testing.T) {
	article := longText("The mitochondria is the powerhouse of the cell.", 4)
	sidebar := longText("Unrelated sidebar chatter that happens to be longer than the article itself.", 8)

	doc := `<html><head><title>Biology Notes</title></head><body>
		<div class="sidebar">` + sidebar + `</div>
		<article>` + article + `</article>
	</body></html>`

	content, err := Extract(strings.NewReader(doc), "https://example.com/bio")
	require.NoError(t, err)

	assert.Contains(t, content.Text, "mitochondria")
	assert.NotContains(t, content.Text, "sidebar chatter")
	assert.Equal(t, "Biology Notes", content.Title)
	assert.Equal(t, "https://example.com/bio", content.URL)
}

func TestExtractSkipsSelectorWithoutSignificantText(t *testing.T) {
	body := longText("Real article text lives in a plain container further down the page.", 6)

	doc := `<html><body>
		<article>too short</article>
		<div class="story">` + body + `</div>
	</body></html>`

	content, err := Extract(strings.NewReader(doc), "")
	require.NoError(t, err)

	assert.Contains(t, content.Text, "Real article text")
	assert.NotContains(t, content.Text, "too short")
}

func TestExtractExcludesAdvertisements(t *testing.T) {
	article := longText("Genuine paragraph content that the reader actually cares about here.", 4)

	doc := `<html><body><article>
		<p>` + article + `</p>
		<div class="ad-banner">Buy now!<span>Limited offer</span></div>
		<div class="promo sponsored">Sponsored content</div>
		<div data-ad="slot-3">Partner message</div>
		<div aria-label="Advertisement">Display ad</div>
	</article></body></html>`

	content, err := Extract(strings.NewReader(doc), "")
	require.NoError(t, err)

	assert.Contains(t, content.Text, "Genuine paragraph content")
	assert.NotContains(t, content.Text, "Buy now")
	assert.NotContains(t, content.Text, "Limited offer")
	assert.NotContains(t, content.Text, "Sponsored content")
	assert.NotContains(t, content.Text, "Partner message")
	assert.NotContains(t, content.Text, "Display ad")
}

func TestExtractExcludesNestedDenylistedSubtrees(t *testing.T) {
	article := longText("Paragraphs worth keeping are interleaved with navigation chrome.", 4)

	doc := `<html><body><article>
		<p>` + article + `</p>
		<nav><ul><li><a href="/">Home</a></li><li><a href="/about">About</a></li></ul></nav>
		<div style="display: none"><p>Hidden draft paragraph</p></div>
		<footer>Copyright notice</footer>
	</article></body></html>`

	content, err := Extract(strings.NewReader(doc), "")
	require.NoError(t, err)

	assert.Contains(t, content.Text, "worth keeping")
	assert.NotContains(t, content.Text, "Home")
	assert.NotContains(t, content.Text, "Hidden draft")
	assert.NotContains(t, content.Text, "Copyright")
}

func TestExtractLargestBlockFallback(t *testing.T) {
	small := longText("A modest comment section with enough text to clear the threshold easily.", 4)
	large := longText("The main story body, clearly the dominant block of prose on this page.", 8)

	doc := `<html><body>
		<div class="comments">` + small + `</div>
		<div class="story-body">` + large + `</div>
	</body></html>`

	content, err := Extract(strings.NewReader(doc), "")
	require.NoError(t, err)

	assert.Contains(t, content.Text, "dominant block")
	assert.NotContains(t, content.Text, "comment section")
}

func TestExtractBodyFallbackOnTrivialDocument(t *testing.T) {
	content, err := Extract(strings.NewReader("<html><body><p>hi there</p></body></html>"), "")
	require.NoError(t, err)

	assert.Equal(t, "hi there", content.Text)
	assert.Equal(t, "", content.Title)
}

func TestExtractNeverFailsOnDegenerateInput(t *testing.T) {
	for _, input := range []string{"", "not html at all", "<div", "<script>alert(1)</script>"} {
		content, err := Extract(strings.NewReader(input), "")
		require.NoError(t, err, "input %q", input)
		require.NotNil(t, content)
	}
}

func TestExtractPreservesParagraphBreaks(t *testing.T) {
	first := longText("First paragraph with plenty of words to qualify as significant text.", 2)
	second := longText("Second paragraph, also long enough to matter for the extraction pass.", 2)

	doc := `<html><body><article><p>` + first + `</p><p>` + second + `</p></article></body></html>`

	content, err := Extract(strings.NewReader(doc), "")
	require.NoError(t, err)

	assert.Contains(t, content.Text, "\n")
	assert.NotContains(t, content.Text, "\n\n\n")
}

func TestExtractIsIdempotent(t *testing.T) {
	article := longText("Repeated extraction of the very same page must be deterministic.", 4)

	doc := `<html><head><title>Stable</title></head><body>
		<article><p>` + article + `</p><div class="ad-banner">Buy now</div></article>
	</body></html>`

	first, err := Extract(strings.NewReader(doc), "https://example.com")
	require.NoError(t, err)
	second, err := Extract(strings.NewReader(doc), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.URL, second.URL)
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	got := cleanText("a\t\t b   c \n  \n \n\n d")
	assert.Equal(t, "a b c\n\nd", got)
}
