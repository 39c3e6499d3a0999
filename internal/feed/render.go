package feed

import (
	"fmt"
	"unicode/utf8"
)

const ellipsis = "…"

// RenderMessage formats an item for delivery:
//
//	**#<sequence>** <body>
//	<<permalink>>
//
// When limit is positive the body is shortened so the whole message fits in
// limit characters. The permalink is never cut.
func RenderMessage(item Item, limit int) string {
	body := StripSequence(item.Text)
	msg := fmt.Sprintf("**#%d** %s\n<%s>", item.Sequence, body, item.Permalink)
	if limit <= 0 || utf8.RuneCountInString(msg) <= limit {
		return msg
	}

	overhead := utf8.RuneCountInString(msg) - utf8.RuneCountInString(body)
	keep := limit - overhead - utf8.RuneCountInString(ellipsis)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(body)
	return fmt.Sprintf("**#%d** %s%s\n<%s>", item.Sequence, string(runes[:keep]), ellipsis, item.Permalink)
}
