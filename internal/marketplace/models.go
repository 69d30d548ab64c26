package marketplace

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of the start_date and end_date parameters.
const DateLayout = "2006-01-02"

type SortField string

const (
	SortByDate   SortField = "date_publication"
	SortByTitle  SortField = "titre"
	SortByAuthor SortField = "auteur"
)

// SortFields lists the accepted sort fields in display order.
var SortFields = []SortField{SortByDate, SortByTitle, SortByAuthor}

func (f SortField) Label() string {
	switch f {
	case SortByDate:
		return "publication date"
	case SortByTitle:
		return "title"
	case SortByAuthor:
		return "author"
	default:
		return string(f)
	}
}

func (f SortField) Valid() bool {
	switch f {
	case SortByDate, SortByTitle, SortByAuthor:
		return true
	}
	return false
}

// ParseSortField accepts either the wire value or the English label.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "date_publication", "date", "publication date", "published":
		return SortByDate, nil
	case "titre", "title":
		return SortByTitle, nil
	case "auteur", "author":
		return SortByAuthor, nil
	}
	return "", fmt.Errorf("unknown sort field %q (want date_publication, titre or auteur)", s)
}

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

func (o SortOrder) Label() string {
	if o == Ascending {
		return "oldest first"
	}
	return "newest first"
}

// Flip returns the opposite order.
func (o SortOrder) Flip() SortOrder {
	if o == Ascending {
		return Descending
	}
	return Ascending
}

func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return "", fmt.Errorf("unknown sort order %q (want asc or desc)", s)
}

// Image is one entry of an article's image gallery.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

type Article struct {
	Title       string    `json:"titre"`
	URL         string    `json:"url"`
	Published   Timestamp `json:"date_publication"`
	Author      string    `json:"auteur"`
	Summary     string    `json:"resume"`
	ImageURL    string    `json:"image_principale"`
	Category    string    `json:"categorie"`
	SubCategory string    `json:"sous_categorie"`
	Tags        []string  `json:"tags"`
	Images      []Image   `json:"images"`
	ExtractedAt Timestamp `json:"extracted_at"`
}

// ID identifies an article by its URL; the backend does not expose its own key.
func (a *Article) ID() string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(a.URL)))
}

// Validate reports whether the article carries the fields every view relies on.
func (a *Article) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: article without title (url %q)", ErrInvalidPayload, a.URL)
	}
	if strings.TrimSpace(a.URL) == "" {
		return fmt.Errorf("%w: article %q without url", ErrInvalidPayload, a.Title)
	}
	return nil
}

type ArticlePage struct {
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
	Articles   []Article `json:"articles"`
	// Dropped counts the entries of this page that failed validation.
	Dropped int `json:"-"`
}

// TotalPagesFor returns ceil(total/limit), or 0 when limit is not positive.
func TotalPagesFor(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// normalize checks the envelope and drops articles that fail validation.
// The dropped errors are returned so the caller can log them.
func (p *ArticlePage) normalize() ([]error, error) {
	if p.Total < 0 {
		return nil, fmt.Errorf("%w: negative total %d", ErrInvalidPayload, p.Total)
	}
	if p.Limit < 1 {
		return nil, fmt.Errorf("%w: limit %d", ErrInvalidPayload, p.Limit)
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if want := TotalPagesFor(p.Total, p.Limit); p.TotalPages != want {
		p.TotalPages = want
	}

	var dropped []error
	kept := p.Articles[:0]
	for i := range p.Articles {
		if err := p.Articles[i].Validate(); err != nil {
			dropped = append(dropped, err)
			continue
		}
		p.Articles[i].Summary = PlainText(p.Articles[i].Summary)
		kept = append(kept, p.Articles[i])
	}
	p.Articles = kept
	p.Dropped = len(dropped)
	return dropped, nil
}

// Timestamp decodes the date formats the backend has been seen to emit.
// Unrecognized values keep their text in Raw and leave Time zero.
type Timestamp struct {
	time.Time
	Raw string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized date %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		*t = Timestamp{Raw: s}
		return nil
	}
	parsed.Raw = s
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		if t.Raw != "" {
			return json.Marshal(t.Raw)
		}
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// Health is the payload of GET /health.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}
