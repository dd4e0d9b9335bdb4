package shopifywebhook

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var giftMessagePolicy = bluemonday.StrictPolicy()

// SanitizeGiftMessage strips markup from a shopper-supplied gift message and
// truncates it to maxLen runes. Returns nil when nothing printable survives.
func SanitizeGiftMessage(raw string, maxLen int) *string {
	cleaned := giftMessagePolicy.Sanitize(raw)
	// bluemonday entity-escapes its output; messages are stored as plain text.
	cleaned = strings.TrimSpace(html.UnescapeString(cleaned))
	if cleaned == "" {
		return nil
	}
	if maxLen > 0 && utf8.RuneCountInString(cleaned) > maxLen {
		runes := []rune(cleaned)
		cleaned = strings.TrimSpace(string(runes[:maxLen]))
		if cleaned == "" {
			return nil
		}
	}
	return &cleaned
}
