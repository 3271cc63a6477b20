package harvester

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"review-harvester/internal/types"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestNormalize_StarCountUsedVerbatim(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	review := n.Normalize(types.RawRecord{
		Text:      "Great quality, fits perfectly",
		StarCount: intPtr(4),
	})

	require.NotNil(t, review)
	assert.Equal(t, 4.0, review.Rating)
}

func TestNormalize_ScoreRescaled(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	review := n.Normalize(types.RawRecord{
		Text:         "Great quality, fits perfectly",
		ScorePercent: floatPtr(80),
	})
	require.NotNil(t, review)
	assert.Equal(t, 4.0, review.Rating)

	review = n.Normalize(types.RawRecord{
		Text:         "Great quality, fits perfectly",
		ScorePercent: floatPtr(97),
	})
	require.NotNil(t, review)
	assert.Equal(t, 4.85, review.Rating)
}

func TestNormalize_ScoreClamped(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	review := n.Normalize(types.RawRecord{
		Text:         "Great quality, fits perfectly",
		ScorePercent: floatPtr(120),
	})
	require.NotNil(t, review)
	assert.Equal(t, 5.0, review.Rating)

	review = n.Normalize(types.RawRecord{
		Text:         "Great quality, fits perfectly",
		ScorePercent: floatPtr(-10),
	})
	require.NotNil(t, review)
	assert.Equal(t, 0.0, review.Rating)
}

func TestNormalize_MissingRatingDefaultsToFive(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	review := n.Normalize(types.RawRecord{Text: "No rating on this one at all"})

	require.NotNil(t, review)
	assert.Equal(t, 5.0, review.Rating)
}

func TestNormalize_DropsShortText(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	assert.Nil(t, n.Normalize(types.RawRecord{Text: ""}))
	assert.Nil(t, n.Normalize(types.RawRecord{Text: "   \t  "}))
	assert.Nil(t, n.Normalize(types.RawRecord{Text: "ok!"}))
}

func TestNormalize_ReviewerPlaceholder(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	review := n.Normalize(types.RawRecord{Text: "Decent product overall"})

	require.NotNil(t, review)
	assert.Equal(t, "Anonymous", review.ReviewerName)
}

func TestNormalize_PipeDelimitedAuthorDate(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	review := n.Normalize(types.RawRecord{
		Text:          "Decent product overall",
		AuthorAndDate: " Maria K. | 2024-03-11 ",
	})

	require.NotNil(t, review)
	assert.Equal(t, "Maria K.", review.ReviewerName)
	assert.Equal(t, "2024-03-11", review.Date)
}

func TestNormalize_PipeDelimitedMissingDate(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	review := n.Normalize(types.RawRecord{
		Text:          "Decent product overall",
		AuthorAndDate: "Maria K.",
	})

	require.NotNil(t, review)
	assert.Equal(t, "Maria K.", review.ReviewerName)
	assert.Empty(t, review.Date)
}

func TestNormalize_ExplicitAuthorWinsOverPipeString(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	review := n.Normalize(types.RawRecord{
		Text:          "Decent product overall",
		Author:        "Jonas",
		AuthorAndDate: "Someone Else | 2020-01-01",
	})

	require.NotNil(t, review)
	assert.Equal(t, "Jonas", review.ReviewerName)
}

func TestNormalizeImageURL(t *testing.T) {
	cases := map[string]string{
		"//cdn.example/img_.avif":         "https://cdn.example/img",
		"//cdn.example/img_.webp":         "https://cdn.example/img",
		"https://cdn.example/photo.webp":  "https://cdn.example/photo",
		"https://cdn.example/photo_640x":  "https://cdn.example/photo",
		"https://cdn.example/photo_50x50": "https://cdn.example/photo",
		"https://cdn.example/photo.jpg":   "https://cdn.example/photo.jpg",
		"  //cdn.example/spaced_.avif ":   "https://cdn.example/spaced",
	}

	for input, want := range cases {
		assert.Equal(t, want, NormalizeImageURL(input), "input %q", input)
	}
}

func TestNormalize_ImagesKeptInOrder(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	review := n.Normalize(types.RawRecord{
		Text:   "Decent product overall",
		Images: []string{"//cdn.example/a_.avif", "//cdn.example/b_.webp", ""},
	})

	require.NotNil(t, review)
	assert.Equal(t, []string{"https://cdn.example/a", "https://cdn.example/b"}, review.Images)
}

func TestNormalize_IDDerivedFromContentWhenMissing(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	first := n.Normalize(types.RawRecord{Text: "Same review text for both"})
	second := n.Normalize(types.RawRecord{Text: "Same review text for both"})
	other := n.Normalize(types.RawRecord{Text: "A completely different text"})

	require.NotNil(t, first)
	require.NotNil(t, second)
	require.NotNil(t, other)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestNormalize_SourceIDPreserved(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	review := n.Normalize(types.RawRecord{ID: "r-42", Text: "Decent product overall"})

	require.NotNil(t, review)
	assert.Equal(t, "r-42", review.ID)
}

func TestNormalize_NegativeHelpfulCountFloored(t *testing.T) {
	n := NewNormalizer("p1", "https://shop.example/p1")

	review := n.Normalize(types.RawRecord{Text: "Decent product overall", HelpfulCount: -3})

	require.NotNil(t, review)
	assert.Equal(t, 0, review.HelpfulCount)
}

func TestNormalize_ProductFieldsPassedThrough(t *testing.T) {
	n := NewNormalizer("prod-9", "https://shop.example/prod-9")

	review := n.Normalize(types.RawRecord{Text: "Decent product overall"})

	require.NotNil(t, review)
	assert.Equal(t, "prod-9", review.ProductID)
	assert.Equal(t, "https://shop.example/prod-9", review.ProductURL)
}
