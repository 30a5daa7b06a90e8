package media

import "strings"

// Normalize turns raw message text into the locator handed to the fetcher.
// Surrounding whitespace is trimmed and everything from the first '&' on is
// dropped, which removes playlist and tracking parameters from share links.
func Normalize(text string) string {
	locator, _, _ := strings.Cut(strings.TrimSpace(text), "&")
	return locator
}
