package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlightSearchTerms_NoMatchTruncates(t *testing.T) {
	text := strings.Repeat("a", 150)
	got := HighlightSearchTerms(text, "zzz", 100)
	assert.Equal(t, strings.Repeat("a", 100)+"...", got)
}

func TestHighlightSearchTerms_ShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "Biểu phí", HighlightSearchTerms("Biểu phí", "xyz", 100))
	assert.Equal(t, "", HighlightSearchTerms("", "x", 100))
	assert.Equal(t, "abc", HighlightSearchTerms("abc", "", 100))
}

func TestHighlightSearchTerms_WrapsEveryMatchCaseInsensitive(t *testing.T) {
	got := HighlightSearchTerms("Quy định mới về quy định cũ", "QUY", 100)
	assert.Equal(t, `<mark class="search-highlight">Quy</mark> định mới về <mark class="search-highlight">quy</mark> định cũ`, got)
}

func TestHighlightSearchTerms_WindowAroundMatch(t *testing.T) {
	text := strings.Repeat("x", 200) + "needle" + strings.Repeat("y", 200)
	got := HighlightSearchTerms(text, "needle", 100)

	assert.True(t, strings.HasPrefix(got, "..."))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Contains(t, got, `<mark class="search-highlight">needle</mark>`)
	// start = 200 - 50, window = 100 runes
	plain := strings.NewReplacer(`<mark class="search-highlight">`, "", "</mark>", "", "...", "").Replace(got)
	assert.Equal(t, 100, len([]rune(plain)))
	assert.Equal(t, strings.Repeat("x", 50)+"needle"+strings.Repeat("y", 44), plain)
}

func TestHighlightSearchTerms_MatchNearStartHasNoLeadingEllipsis(t *testing.T) {
	text := "Tỷ giá " + strings.Repeat("z", 300)
	got := HighlightSearchTerms(text, "giá", 100)
	assert.True(t, strings.HasPrefix(got, `Tỷ <mark class="search-highlight">giá</mark>`))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestHighlightSearchTerms_EscapesRegexMeta(t *testing.T) {
	got := HighlightSearchTerms("phí (2024)", "(2024)", 100)
	assert.Equal(t, `phí <mark class="search-highlight">(2024)</mark>`, got)
}

func TestHighlightSearchTerms_EscapesMarkupBeforeMarking(t *testing.T) {
	got := HighlightSearchTerms(`Xem <a href="/x">mẫu</a> & tải`, "a", 100)
	assert.Equal(t, `Xem &lt;<mark class="search-highlight">a</mark> href=&#34;/x&#34;&gt;mẫu&lt;/<mark class="search-highlight">a</mark>&gt; &amp; tải`, got)
	assert.NotContains(t, got, "<a")

	assert.Equal(t, "&lt;b&gt;", HighlightSearchTerms("<b>", "zzz", 100))
	assert.Equal(t, "x &lt; y", HighlightSearchTerms("x < y", "", 100))
}

func TestHighlightSearchTerms_SanitizedOutputKeepsMarks(t *testing.T) {
	got := HighlightSearchTerms(`<script>alert("quy")</script> quy`, "quy", 100)
	assert.Equal(t, got, string(SanitizeSnippet(got)))
}
