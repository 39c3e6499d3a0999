package walker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelector_IsXPath(t *testing.T) {
	t.Parallel()

	assert.True(t, Selector(`//*[text() = 'Embed']`).IsXPath())
	assert.True(t, Selector(`(//button)[1]`).IsXPath())
	assert.False(t, Selector(`iframe[allowfullscreen]`).IsXPath())
	assert.False(t, Selector(`[aria-label="Close"]`).IsXPath())
}

func TestSelectors_WithDefaults(t *testing.T) {
	t.Parallel()

	got := Selectors{PostBody: ".post-body", TimestampAttribute: "data-ts"}.WithDefaults()

	assert.Equal(t, Selector(".post-body"), got.PostBody)
	assert.Equal(t, "data-ts", got.TimestampAttribute)
	assert.Equal(t, DefaultSelectors().PostActions, got.PostActions)
	assert.Equal(t, DefaultSelectors().DismissControl, got.DismissControl)
	assert.Equal(t, "href", got.PermalinkAttribute)
}
