package openlibrary

import (
	"regexp"
	"strings"
)

var (
	olidPattern = regexp.MustCompile(`^OL\d+[MWA]$`)
	oclcPattern = regexp.MustCompile(`^(?:oclc:?|ocm|ocn|on)\s*(\d+)$`)
	lccnPattern = regexp.MustCompile(`^lccn:?\s*([a-z]{0,3}\d{2,4}-?\d+)$`)
)

// ParseIdentifier detects a book identifier in q and returns the Books API
// bibkey for it ("ISBN:…", "OCLC:…", "LCCN:…", "OLID:…").
func ParseIdentifier(q string) (string, bool) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", false
	}

	upper := strings.ToUpper(q)
	if olidPattern.MatchString(upper) {
		return "OLID:" + upper, true
	}

	lower := strings.ToLower(q)
	if m := oclcPattern.FindStringSubmatch(lower); m != nil {
		return "OCLC:" + m[1], true
	}
	if m := lccnPattern.FindStringSubmatch(lower); m != nil {
		return "LCCN:" + strings.ReplaceAll(m[1], "-", ""), true
	}

	isbn := strings.TrimPrefix(upper, "ISBN")
	isbn = strings.TrimLeft(isbn, ": ")
	isbn = strings.NewReplacer("-", "", " ", "").Replace(isbn)
	if ValidISBN(isbn) {
		return "ISBN:" + isbn, true
	}
	return "", false
}

// ValidISBN checks the length and check digit of an ISBN-10 or ISBN-13
// without separators.
func ValidISBN(s string) bool {
	switch len(s) {
	case 10:
		sum := 0
		for i := 0; i < 10; i++ {
			c := s[i]
			var v int
			switch {
			case c >= '0' && c <= '9':
				v = int(c - '0')
			case c == 'X' && i == 9:
				v = 10
			default:
				return false
			}
			sum += v * (10 - i)
		}
		return sum%11 == 0
	case 13:
		if !strings.HasPrefix(s, "978") && !strings.HasPrefix(s, "979") {
			return false
		}
		sum := 0
		for i := 0; i < 13; i++ {
			c := s[i]
			if c < '0' || c > '9' {
				return false
			}
			v := int(c - '0')
			if i%2 == 1 {
				v *= 3
			}
			sum += v
		}
		return sum%10 == 0
	default:
		return false
	}
}
