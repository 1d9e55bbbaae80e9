package books

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// searchNormalizer strips combining marks from the search query before it
// reaches ILIKE, which already handles case. Only the query side is
// normalized: "Brontë" as a query matches the stored "Bronte", but
// "Bronte" as a query does not match a stored "Brontë". Folding the
// column side too would need an unaccent expression (and its index) in
// the database, which the schema does not carry.
var searchNormalizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeSearch(s string) string {
	out, _, err := transform.String(searchNormalizer, s)
	if err != nil {
		return s
	}
	return out
}
