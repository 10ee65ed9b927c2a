package record

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/unicode/norm"
)

// SimilarityWeights assigns a weight to each comparable field group. Only
// groups present on both compared records count toward the denominator.
type SimilarityWeights struct {
	Email   float64
	Phone   float64
	Name    float64
	Address float64
	CityZip float64
}

// DefaultWeights returns the stock field-group weights.
func DefaultWeights() SimilarityWeights {
	return SimilarityWeights{Email: 30, Phone: 20, Name: 25, Address: 15, CityZip: 10}
}

// MatchField names a field group that matched between two records.
type MatchField string

const (
	MatchEmail   MatchField = "email"
	MatchPhone   MatchField = "phone"
	MatchName    MatchField = "name"
	MatchAddress MatchField = "address"
	MatchCityZip MatchField = "city_zip"
)

// matchFieldOrder fixes the reporting order of matching fields.
var matchFieldOrder = []MatchField{MatchEmail, MatchPhone, MatchName, MatchAddress, MatchCityZip}

// Similarity computes the normalized weighted similarity of two records in
// [0,1]. It is symmetric and returns 0 when the records share no comparable
// field group.
func Similarity(a, b CanonicalRecord, weights SimilarityWeights) float64 {
	return compareRecords(a, b, weights).similarity
}

type pairScore struct {
	similarity float64
	matched    []MatchField
}

func compareRecords(a, b CanonicalRecord, w SimilarityWeights) pairScore {
	var score, maxScore float64
	var matched []MatchField

	if ea, eb := normalizeEmail(a.Get("email")), normalizeEmail(b.Get("email")); ea != "" && eb != "" {
		maxScore += w.Email
		if ea == eb {
			score += w.Email
			matched = append(matched, MatchEmail)
		}
	}

	if pa, pb := normalizePhone(a.Get("phone")), normalizePhone(b.Get("phone")); pa != "" && pb != "" {
		maxScore += w.Phone
		switch {
		case pa == pb:
			score += w.Phone
			matched = append(matched, MatchPhone)
		case len(pa) >= 10 && len(pb) >= 10 && pa[len(pa)-10:] == pb[len(pb)-10:]:
			score += 0.9 * w.Phone
			matched = append(matched, MatchPhone)
		}
	}

	if na, nb := namePair(a, b); na != "" && nb != "" {
		maxScore += w.Name
		sim := stringSimilarity(na, nb)
		score += sim * w.Name
		if sim > 0.9 {
			matched = append(matched, MatchName)
		}
	}

	if aa, ab := normalizeAddress(a.Get("address")), normalizeAddress(b.Get("address")); aa != "" && ab != "" {
		maxScore += w.Address
		sim := stringSimilarity(aa, ab)
		score += sim * w.Address
		if sim > 0.8 {
			matched = append(matched, MatchAddress)
		}
	}

	if cityZipComparable(a, b) {
		maxScore += w.CityZip
		if cityZipMatch(a, b) {
			score += w.CityZip
			matched = append(matched, MatchCityZip)
		}
	}

	if maxScore == 0 {
		return pairScore{}
	}
	return pairScore{similarity: score / maxScore, matched: matched}
}

// namePair picks the name representation to compare. First and last name
// concatenation wins when both records carry both parts; otherwise the
// display name, then the company name.
func namePair(a, b CanonicalRecord) (string, string) {
	if a.Has("first_name") && a.Has("last_name") && b.Has("first_name") && b.Has("last_name") {
		return normalizeName(a.Get("first_name") + " " + a.Get("last_name")),
			normalizeName(b.Get("first_name") + " " + b.Get("last_name"))
	}
	return normalizeName(fallbackName(a)), normalizeName(fallbackName(b))
}

func fallbackName(r CanonicalRecord) string {
	if r.Has("display_name") {
		return r.Get("display_name")
	}
	return r.Get("company_name")
}

func cityZipComparable(a, b CanonicalRecord) bool {
	return a.Has("city") && b.Has("city") && a.Has("zip") && b.Has("zip")
}

func cityZipMatch(a, b CanonicalRecord) bool {
	za, zb := zipPrefix(a.Get("zip")), zipPrefix(b.Get("zip"))
	return strings.EqualFold(strings.TrimSpace(a.Get("city")), strings.TrimSpace(b.Get("city"))) &&
		za != "" && za == zb
}

// stringSimilarity is 1 - levenshtein/maxLen. Empty inputs contribute
// nothing rather than matching each other.
func stringSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	return 1 - float64(fuzzy.LevenshteinDistance(a, b))/float64(maxLen)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizePhone strips everything but digits and drops the leading US
// country code from 11-digit numbers.
func normalizePhone(phone string) string {
	d := digitsOnly(phone)
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	return d
}

var addressAbbreviations = []struct{ long, short string }{
	{"street", "st"},
	{"avenue", "ave"},
	{"road", "rd"},
	{"drive", "dr"},
	{"boulevard", "blvd"},
	{"apartment", "apt"},
	{"suite", "ste"},
}

func normalizeAddress(address string) string {
	s := strings.ToLower(address)
	for _, ab := range addressAbbreviations {
		s = strings.ReplaceAll(s, ab.long, ab.short)
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeName(name string) string {
	s := stripDiacritics(strings.ToLower(strings.TrimSpace(name)))
	return strings.Join(strings.Fields(s), " ")
}

// stripDiacritics decomposes to NFD and removes combining marks, so that
// accented and unaccented spellings of the same name compare as equal.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func zipPrefix(zip string) string {
	d := digitsOnly(zip)
	if len(d) > 5 {
		d = d[:5]
	}
	return d
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
