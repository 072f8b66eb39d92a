package render

import (
	"strconv"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML replaces the five markup-significant characters with entities.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// Sales formats a sales figure in millions with its shortest decimal form,
// e.g. 1.2 -> "1.2M" and 3 -> "3M". Values below 1e-6 or at or above 1e21
// stay in plain decimal form where a browser would switch to exponent
// notation ("1e-7M"); real sales figures never reach either range.
func Sales(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64) + "M"
}
