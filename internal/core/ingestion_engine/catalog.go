package ingestion_engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/markdave123-py/EduAI/internal/models"
)

// Languages every catalogued book is offered in.
var Languages = []string{"English", "Hindi", "Urdu"}

var subjectsByClass = map[int][]string{
	1:  {"Mathematics", "English", "Hindi", "Environmental Studies"},
	2:  {"Mathematics", "English", "Hindi", "Environmental Studies"},
	3:  {"Mathematics", "English", "Hindi", "Environmental Studies"},
	4:  {"Mathematics", "English", "Hindi", "Environmental Studies"},
	5:  {"Mathematics", "English", "Hindi", "Environmental Studies"},
	6:  {"Mathematics", "Science", "Social Science", "English", "Hindi", "Sanskrit"},
	7:  {"Mathematics", "Science", "Social Science", "English", "Hindi", "Sanskrit"},
	8:  {"Mathematics", "Science", "Social Science", "English", "Hindi", "Sanskrit"},
	9:  {"Mathematics", "Science", "Social Science", "English", "Hindi", "Sanskrit", "Information Technology"},
	10: {"Mathematics", "Science", "Social Science", "English", "Hindi", "Sanskrit", "Information Technology"},
	11: {"Mathematics", "Physics", "Chemistry", "Biology", "English", "Hindi", "Economics", "Political Science", "History", "Geography", "Sociology", "Psychology"},
	12: {"Mathematics", "Physics", "Chemistry", "Biology", "English", "Hindi", "Economics", "Political Science", "History", "Geography", "Sociology", "Psychology"},
}

var bookTitles = map[string]map[int]string{
	"Mathematics": {
		1: "Math-Magic", 2: "Math-Magic", 3: "Math-Magic", 4: "Math-Magic", 5: "Math-Magic",
		6: "Mathematics", 7: "Mathematics", 8: "Mathematics", 9: "Mathematics", 10: "Mathematics",
		11: "Mathematics - Part I & II", 12: "Mathematics - Part I & II",
	},
	"English": {
		1: "Marigold", 2: "Marigold", 3: "Marigold", 4: "Marigold", 5: "Marigold",
		6:  "Honeysuckle & A Pact with the Sun",
		7:  "Honeycomb & An Alien Hand",
		8:  "Honeydew & It So Happened",
		9:  "Beehive & Moments",
		10: "First Flight & Footprints without Feet",
		11: "Hornbill & Snapshots",
		12: "Flamingo & Vistas",
	},
	"Science": {
		6: "Science", 7: "Science", 8: "Science", 9: "Science",
		10: "Science - Textbook for Class X",
	},
	"Hindi": {
		1: "रिमझिम", 2: "रिमझिम", 3: "रिमझिम", 4: "रिमझिम", 5: "रिमझिम",
		6: "वसंत", 7: "वसंत", 8: "वसंत",
		9: "क्षितिज", 10: "क्षितिज",
		11: "आरोह", 12: "आरोह",
	},
}

// Catalog enumerates the NCERT books known to the platform.
type Catalog struct {
	baseURL string
	now     func() time.Time
}

func NewCatalog(baseURL string) *Catalog {
	return &Catalog{baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// Subjects returns the subjects taught in class, or nil.
func (c *Catalog) Subjects(class int) []string {
	return subjectsByClass[class]
}

// BookTitle returns the published title, falling back to "<Subject> - Class N".
func (c *Catalog) BookTitle(class int, subject string) string {
	if t, ok := bookTitles[subject][class]; ok {
		return t
	}
	return fmt.Sprintf("%s - Class %d", subject, class)
}

// PDFURL follows the {base}/textbook/pdf/{cc}{subject}{la}.pdf naming.
func (c *Catalog) PDFURL(class int, subject, language string) string {
	code := strings.ToLower(strings.Join(strings.Fields(subject), ""))
	lang := strings.ToLower(language)
	if len(lang) > 2 {
		lang = lang[:2]
	}
	return fmt.Sprintf("%s/textbook/pdf/%02d%s%s.pdf", c.baseURL, class, code, lang)
}

// Entries lists every class/subject/language combination in class order.
func (c *Catalog) Entries() []models.NCERTTextbook {
	scrapedAt := c.now().UTC().Format(time.RFC3339)
	var out []models.NCERTTextbook
	for class := models.MinGrade; class <= models.MaxGrade; class++ {
		for _, subject := range subjectsByClass[class] {
			for _, lang := range Languages {
				out = append(out, models.NCERTTextbook{
					Class:     class,
					Subject:   subject,
					BookTitle: c.BookTitle(class, subject),
					Language:  lang,
					PDFURL:    c.PDFURL(class, subject, lang),
					Metadata: map[string]any{
						"scrapedAt": scrapedAt,
						"source":    "ncert.nic.in",
						"verified":  false,
					},
				})
			}
		}
	}
	return out
}
