package marketplace

import (
	"net/url"
	"strconv"
	"time"
)

// ArticleQuery is the parameter set of GET /articles.
type ArticleQuery struct {
	Category    string
	SubCategory string
	Author      string
	Title       string
	Content     string
	StartDate   time.Time
	EndDate     time.Time
	Page        int
	Limit       int
	SortBy      SortField
	SortOrder   SortOrder
}

// Values encodes the query. Empty strings and zero dates are omitted;
// page and limit are always sent as base-10 strings.
func (q ArticleQuery) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("categorie", q.Category)
	set("sous_categorie", q.SubCategory)
	set("auteur", q.Author)
	set("titre", q.Title)
	set("contenu", q.Content)
	if !q.StartDate.IsZero() {
		v.Set("start_date", q.StartDate.Format(DateLayout))
	}
	if !q.EndDate.IsZero() {
		v.Set("end_date", q.EndDate.Format(DateLayout))
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	set("sort_by", string(q.SortBy))
	set("sort_order", string(q.SortOrder))
	return v
}

// Encode returns the canonical query string; keys are sorted.
func (q ArticleQuery) Encode() string {
	return q.Values().Encode()
}
