package vocabulary

// FaBiONamespace is the base IRI of FaBiO, the FRBR-aligned Bibliographic Ontology.
const FaBiONamespace = "http://purl.org/spar/fabio/"

// FaBiOPrefix is the short prefix FaBiO terms are displayed with.
const FaBiOPrefix = "fabio"

// Class IRIs for the FaBiO types most often cited.
const (
	// FRBR endeavours.
	ClassWork          = FaBiONamespace + "Work"
	ClassExpression    = FaBiONamespace + "Expression"
	ClassManifestation = FaBiONamespace + "Manifestation"
	ClassItem          = FaBiONamespace + "Item"

	ClassBook             = FaBiONamespace + "Book"
	ClassBookChapter      = FaBiONamespace + "BookChapter"
	ClassChapter          = FaBiONamespace + "Chapter"
	ClassArticle          = FaBiONamespace + "Article"
	ClassJournal          = FaBiONamespace + "Journal"
	ClassJournalArticle   = FaBiONamespace + "JournalArticle"
	ClassMagazineArticle  = FaBiONamespace + "MagazineArticle"
	ClassNewspaper        = FaBiONamespace + "Newspaper"
	ClassNewspaperArticle = FaBiONamespace + "NewspaperArticle"
	ClassPeriodical       = FaBiONamespace + "Periodical"
	ClassConferencePaper  = FaBiONamespace + "ConferencePaper"
	ClassThesis           = FaBiONamespace + "Thesis"
	ClassDoctoralThesis   = FaBiONamespace + "DoctoralThesis"
	ClassReport           = FaBiONamespace + "ReportDocument"
	ClassReview           = FaBiONamespace + "Review"
	ClassPreprint         = FaBiONamespace + "Preprint"
	ClassDataset          = FaBiONamespace + "Dataset"
	ClassWebPage          = FaBiONamespace + "WebPage"
	ClassFilm             = FaBiONamespace + "Film"
	ClassImage            = FaBiONamespace + "Image"
	ClassLetter           = FaBiONamespace + "Letter"
	ClassPatent           = FaBiONamespace + "Patent"
)

// Data property IRIs used when building citations.
const (
	PropAccessDate      = FaBiONamespace + "hasAccessDate"
	PropPageCount       = FaBiONamespace + "hasPageCount"
	PropPublicationYear = FaBiONamespace + "hasPublicationYear"
	PropShortTitle      = FaBiONamespace + "hasShortTitle"
	PropSubtitle        = FaBiONamespace + "hasSubtitle"
	PropURL             = FaBiONamespace + "hasURL"
	PropPlace           = FaBiONamespace + "hasPlaceOfPublication"
)
