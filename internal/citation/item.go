package citation

import (
	"strconv"
	"strings"
	"time"

	"bibliography/internal/vocabulary"
)

// Name is a CSL name variable.
type Name struct {
	Family  string `json:"family,omitempty"`
	Given   string `json:"given,omitempty"`
	Literal string `json:"literal,omitempty"`
}

// String renders the name as "Given Family" or the literal.
func (n Name) String() string {
	if n.Literal != "" {
		return n.Literal
	}
	return strings.TrimSpace(n.Given + " " + n.Family)
}

// Date is a CSL date variable.
type Date struct {
	DateParts [][]int `json:"date-parts,omitempty"`
	Raw       string  `json:"raw,omitempty"`
}

// DateOf returns a CSL date for t (year, month, day).
func DateOf(t time.Time) *Date {
	return &Date{DateParts: [][]int{{t.Year(), int(t.Month()), t.Day()}}}
}

// YearDate parses a leading four digit year, as found in "1998" or
// "March 12, 1998". Returns nil when none is found.
func YearDate(s string) *Date {
	for i := 0; i+4 <= len(s); i++ {
		chunk := s[i : i+4]
		if !isDigit(chunk[0]) || !isDigit(chunk[1]) || !isDigit(chunk[2]) || !isDigit(chunk[3]) {
			continue
		}
		if (i > 0 && isDigit(s[i-1])) || (i+4 < len(s) && isDigit(s[i+4])) {
			continue
		}
		if y, err := strconv.Atoi(chunk); err == nil && y > 0 {
			return &Date{DateParts: [][]int{{y}}, Raw: s}
		}
	}
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Year returns the first year of the date, 0 if unknown.
func (d *Date) Year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

// Item is the CSL-JSON subset sent to the processor.
type Item struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Title          string `json:"title,omitempty"`
	Author         []Name `json:"author,omitempty"`
	Editor         []Name `json:"editor,omitempty"`
	Issued         *Date  `json:"issued,omitempty"`
	Accessed       *Date  `json:"accessed,omitempty"`
	Publisher      string `json:"publisher,omitempty"`
	PublisherPlace string `json:"publisher-place,omitempty"`
	ContainerTitle string `json:"container-title,omitempty"`
	NumberOfPages  string `json:"number-of-pages,omitempty"`
	ISBN           string `json:"ISBN,omitempty"`
	URL            string `json:"URL,omitempty"`
}

// CSL item types.
const (
	TypeArticle          = "article"
	TypeArticleJournal   = "article-journal"
	TypeArticleMagazine  = "article-magazine"
	TypeArticleNewspaper = "article-newspaper"
	TypeBook             = "book"
	TypeChapter          = "chapter"
	TypeDataset          = "dataset"
	TypeDocument         = "document"
	TypeFigure           = "figure"
	TypeGraphic          = "graphic"
	TypeMotionPicture    = "motion_picture"
	TypePaperConference  = "paper-conference"
	TypePatent           = "patent"
	TypePeriodical       = "periodical"
	TypePersonal         = "personal_communication"
	TypeReport           = "report"
	TypeReview           = "review"
	TypeThesis           = "thesis"
	TypeWebpage          = "webpage"
)

var classTypes = map[string]string{
	vocabulary.ClassArticle:          TypeArticle,
	vocabulary.ClassBook:             TypeBook,
	vocabulary.ClassBookChapter:      TypeChapter,
	vocabulary.ClassChapter:          TypeChapter,
	vocabulary.ClassConferencePaper:  TypePaperConference,
	vocabulary.ClassDataset:          TypeDataset,
	vocabulary.ClassDoctoralThesis:   TypeThesis,
	vocabulary.ClassFilm:             TypeMotionPicture,
	vocabulary.ClassImage:            TypeGraphic,
	vocabulary.ClassJournal:          TypePeriodical,
	vocabulary.ClassJournalArticle:   TypeArticleJournal,
	vocabulary.ClassLetter:           TypePersonal,
	vocabulary.ClassMagazineArticle:  TypeArticleMagazine,
	vocabulary.ClassNewspaper:        TypePeriodical,
	vocabulary.ClassNewspaperArticle: TypeArticleNewspaper,
	vocabulary.ClassPatent:           TypePatent,
	vocabulary.ClassPeriodical:       TypePeriodical,
	vocabulary.ClassPreprint:         TypeArticle,
	vocabulary.ClassReport:           TypeReport,
	vocabulary.ClassReview:           TypeReview,
	vocabulary.ClassThesis:           TypeThesis,
	vocabulary.ClassWebPage:          TypeWebpage,
}

// TypeForClass maps a FaBiO class IRI (or "fabio:LocalName" term) to a CSL
// type. Unknown classes map to "document".
func TypeForClass(class string) string {
	if strings.HasPrefix(class, vocabulary.FaBiOPrefix+":") {
		class = vocabulary.FaBiONamespace + strings.TrimPrefix(class, vocabulary.FaBiOPrefix+":")
	}
	if t, ok := classTypes[class]; ok {
		return t
	}
	return TypeDocument
}
