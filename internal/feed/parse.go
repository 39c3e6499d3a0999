package feed

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrMalformedSequence is returned when a post body does not start with a
	// marker character followed by a post number.
	ErrMalformedSequence = errors.New("malformed sequence token")

	// ErrMalformedPermalink is returned when a permalink cannot be resolved to
	// an absolute URL with a non-empty final path segment.
	ErrMalformedPermalink = errors.New("malformed permalink")
)

// trackingParams are query parameters appended by embed views that do not
// identify the post.
var trackingParams = []string{"ref", "__tn__", "__cft__[0]", "__xts__[0]"}

// ParseSequence extracts the post number from a body such as "#1234 text".
// The token before the first space must be a single non-digit marker followed
// by decimal digits.
func ParseSequence(text string) (uint32, error) {
	token, _, _ := strings.Cut(strings.TrimLeftFunc(text, unicode.IsSpace), " ")
	marker, size := utf8.DecodeRuneInString(token)
	if marker == utf8.RuneError || unicode.IsDigit(marker) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedSequence, token)
	}

	digits := token[size:]
	if digits == "" {
		return 0, fmt.Errorf("%w: %q has no number", ErrMalformedSequence, token)
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrMalformedSequence, token, err)
	}
	return uint32(n), nil
}

// StripSequence returns the body with its leading sequence token removed.
func StripSequence(text string) string {
	_, body, _ := strings.Cut(strings.TrimLeftFunc(text, unicode.IsSpace), " ")
	return body
}

// ParseUnixSeconds converts an epoch-seconds attribute value into both
// timestamp representations kept on an Item.
func ParseUnixSeconds(raw string) (time.Time, int64, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid epoch seconds %q: %w", raw, err)
	}
	return time.Unix(secs, 0).UTC(), secs, nil
}

// ResolvePermalink makes href absolute against root and drops tracking query
// parameters and fragments. It returns the cleaned permalink and its source
// ID, the final non-empty path segment.
func ResolvePermalink(root *url.URL, href string) (string, string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", "", fmt.Errorf("%w: %q: %w", ErrMalformedPermalink, href, err)
	}

	resolved := ref
	if root != nil {
		resolved = root.ResolveReference(ref)
	}
	if !resolved.IsAbs() {
		return "", "", fmt.Errorf("%w: %q is not absolute", ErrMalformedPermalink, href)
	}

	query := resolved.Query()
	for _, param := range trackingParams {
		query.Del(param)
	}
	resolved.RawQuery = query.Encode()
	resolved.Fragment = ""
	resolved.RawFragment = ""

	sourceID := path.Base(strings.TrimRight(resolved.Path, "/"))
	if sourceID == "." || sourceID == "/" || sourceID == "" {
		return "", "", fmt.Errorf("%w: %q has no path segment", ErrMalformedPermalink, href)
	}

	return resolved.String(), sourceID, nil
}
