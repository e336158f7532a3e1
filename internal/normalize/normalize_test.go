package normalize

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriwatch/newscrawler/internal/sources"
)

var testSource = sources.Source{
	Name:     "Google News",
	Endpoint: "https://news.google.com/rss/search?q=%s",
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func newTestNormalizer() *Normalizer {
	return New(0).WithClock(fixedClock)
}

func TestNormalize_RejectsMissingTitle(t *testing.T) {
	_, err := newTestNormalizer().Normalize(&gofeed.Item{Link: "https://example.com/a"}, testSource)
	assert.ErrorIs(t, err, ErrNoTitle)
}

func TestNormalize_RejectsMissingLink(t *testing.T) {
	_, err := newTestNormalizer().Normalize(&gofeed.Item{Title: "Cashew news"}, testSource)
	assert.ErrorIs(t, err, ErrNoLink)
}

func TestNormalize_ParsedDateIsKept(t *testing.T) {
	published := time.Date(2025, 3, 8, 9, 30, 0, 0, time.UTC)
	d, err := newTestNormalizer().Normalize(&gofeed.Item{
		Title:           "Cashew news",
		Link:            "https://example.com/a",
		PublishedParsed: &published,
	}, testSource)
	require.NoError(t, err)
	assert.True(t, d.PublishedValid)
	assert.Equal(t, published, d.Published)
}

func TestNormalize_UnparseableDateSubstitutesNow(t *testing.T) {
	d, err := newTestNormalizer().Normalize(&gofeed.Item{
		Title:     "Cashew news",
		Link:      "https://example.com/a",
		Published: "next thursday-ish",
	}, testSource)
	require.NoError(t, err)
	assert.False(t, d.PublishedValid)
	assert.Equal(t, fixedClock(), d.Published)
}

func TestNormalize_NonstandardDateStillParses(t *testing.T) {
	d, err := newTestNormalizer().Normalize(&gofeed.Item{
		Title:     "Cashew news",
		Link:      "https://example.com/a",
		Published: "2025-03-08 09:30:00",
	}, testSource)
	require.NoError(t, err)
	assert.True(t, d.PublishedValid)
	assert.Equal(t, 8, d.Published.Day())
}

func TestNormalize_DropsItemsPastRecencyWindow(t *testing.T) {
	old := fixedClock().Add(-30 * 24 * time.Hour)
	n := New(7 * 24 * time.Hour).WithClock(fixedClock)
	_, err := n.Normalize(&gofeed.Item{
		Title:           "Cashew news",
		Link:            "https://example.com/a",
		PublishedParsed: &old,
	}, testSource)
	assert.ErrorIs(t, err, ErrTooOld)
}

func TestNormalize_SummaryPrefersContentAndStripsMarkup(t *testing.T) {
	d, err := newTestNormalizer().Normalize(&gofeed.Item{
		Title:       "Cashew news",
		Link:        "https://example.com/a",
		Content:     "<p>Exports of <b>cashew &amp; pepper</b> rose.</p><script>evil()</script>",
		Description: "short desc",
	}, testSource)
	require.NoError(t, err)
	assert.Equal(t, "Exports of cashew & pepper rose.", d.Summary)
}

func TestNormalize_SummaryFallsBackToTitle(t *testing.T) {
	d, err := newTestNormalizer().Normalize(&gofeed.Item{
		Title:       "Cashew news",
		Link:        "https://example.com/a",
		Description: "<p> . </p>",
	}, testSource)
	require.NoError(t, err)
	assert.Equal(t, "Cashew news", d.Summary)
}

func TestNormalize_ImageHintFromEnclosure(t *testing.T) {
	d, err := newTestNormalizer().Normalize(&gofeed.Item{
		Title: "Cashew news",
		Link:  "https://example.com/a",
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://example.com/audio.mp3", Type: "audio/mpeg"},
			{URL: "https://example.com/photo.jpg", Type: "image/jpeg"},
		},
	}, testSource)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/photo.jpg", d.ImageHint)
}

func TestNormalize_ImageHintFromMediaThumbnail(t *testing.T) {
	d, err := newTestNormalizer().Normalize(&gofeed.Item{
		Title: "Cashew news",
		Link:  "https://example.com/a",
		Extensions: ext.Extensions{
			"media": {
				"thumbnail": []ext.Extension{
					{Name: "thumbnail", Attrs: map[string]string{"url": "https://cdn.example.com/thumb.png"}},
				},
			},
		},
	}, testSource)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/thumb.png", d.ImageHint)
}

func TestNormalize_ImageHintFromInlineImgSkipsTrackingPixel(t *testing.T) {
	d, err := newTestNormalizer().Normalize(&gofeed.Item{
		Title:       "Cashew news",
		Link:        "https://example.com/a",
		Description: `<img src="https://t.example.com/pixel.gif"><img src="https://example.com/story.jpg"> story text here`,
	}, testSource)
	require.NoError(t, err)
	// The first inline image is a tracking pixel and must be rejected by the
	// validity filter; with no other candidate the hint stays empty.
	assert.Empty(t, d.ImageHint)
}

func TestNormalize_PublisherFromFontTag(t *testing.T) {
	d, err := newTestNormalizer().Normalize(&gofeed.Item{
		Title:       "Cashew news",
		Link:        "https://example.com/a",
		Description: `Vietnam exports rose&nbsp;&nbsp;<font color="#6f6f6f">VnExpress International</font>`,
	}, testSource)
	require.NoError(t, err)
	assert.Equal(t, "VnExpress International", d.Publisher)
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://example.com/img.jpg", ResolveURL("https://example.com/story", "/img.jpg"))
	assert.Equal(t, "https://other.com/img.jpg", ResolveURL("https://example.com/story", "https://other.com/img.jpg"))
	assert.Equal(t, "", ResolveURL("https://example.com/story", "  "))
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "reuters.com", Domain("https://www.Reuters.com/markets/story"))
	assert.Equal(t, "unknown", Domain("not a url"))
}
