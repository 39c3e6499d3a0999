package feed

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSequence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		want    uint32
		wantErr bool
	}{
		{name: "hash marker", text: "#1234 the body", want: 1234},
		{name: "leading whitespace", text: "  \n#7 body", want: 7},
		{name: "number only", text: "#42", want: 42},
		{name: "non ascii marker", text: "№99 body", want: 99},
		{name: "max uint32", text: "#4294967295 x", want: 4294967295},
		{name: "overflow", text: "#4294967296 x", wantErr: true},
		{name: "digit marker", text: "1234 body", wantErr: true},
		{name: "missing number", text: "# body", wantErr: true},
		{name: "letters after marker", text: "#12a body", wantErr: true},
		{name: "empty", text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSequence(tt.text)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedSequence)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripSequence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "the body has spaces", StripSequence("#12 the body has spaces"))
	assert.Equal(t, "", StripSequence("#12"))
	assert.Equal(t, "body", StripSequence("\t#12 body"))
}

func TestParseUnixSeconds(t *testing.T) {
	t.Parallel()

	at, secs, err := ParseUnixSeconds("1700000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), secs)
	assert.Equal(t, time.Date(2023, time.November, 14, 22, 13, 20, 0, time.UTC), at)

	_, _, err = ParseUnixSeconds("yesterday")
	assert.Error(t, err)
}

func TestResolvePermalink(t *testing.T) {
	t.Parallel()

	root, err := url.Parse("https://facebook.com/")
	require.NoError(t, err)

	tests := []struct {
		name         string
		href         string
		wantLink     string
		wantSourceID string
		wantErr      bool
	}{
		{
			name:         "relative with embed ref",
			href:         "beaverconfessions/posts/1357?ref=embed_post",
			wantLink:     "https://facebook.com/beaverconfessions/posts/1357",
			wantSourceID: "1357",
		},
		{
			name:         "absolute keeps host",
			href:         "https://www.facebook.com/beaverconfessions/posts/99/?ref=embed_post#x",
			wantLink:     "https://www.facebook.com/beaverconfessions/posts/99/",
			wantSourceID: "99",
		},
		{
			name:         "unrelated query survives",
			href:         "/permalink/55?story=1&ref=embed_post",
			wantLink:     "https://facebook.com/permalink/55?story=1",
			wantSourceID: "55",
		},
		{
			name:    "no path",
			href:    "https://facebook.com/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			link, sourceID, err := ResolvePermalink(root, tt.href)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedPermalink)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLink, link)
			assert.Equal(t, tt.wantSourceID, sourceID)
		})
	}
}

func TestResolvePermalink_RelativeWithoutRoot(t *testing.T) {
	t.Parallel()

	_, _, err := ResolvePermalink(nil, "posts/1")
	assert.ErrorIs(t, err, ErrMalformedPermalink)
}
