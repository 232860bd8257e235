// Package listing turns raw query parameters into post predicates, ordering and paging.
package listing

import (
	"strings"

	"quill/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RawPostFilters holds the filter query parameters as received.
type RawPostFilters struct {
	Search     string
	Tags       string
	IsFeatured string
	Status     string
	AuthorID   string
}

// PostFilters is the normalized filter set. Zero values mean "not filtered".
type PostFilters struct {
	Search     string
	Tags       []string
	IsFeatured *bool
	Status     *models.PostStatus
	AuthorID   string
}

// ParsePostFilters normalizes raw filters. Tags are comma-separated; isFeatured only
// counts when it is exactly "true" or "false"; an unknown status is rejected.
func ParsePostFilters(raw RawPostFilters) (PostFilters, error) {
	f := PostFilters{
		Search:   strings.TrimSpace(raw.Search),
		AuthorID: strings.TrimSpace(raw.AuthorID),
	}

	for _, tag := range strings.Split(raw.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			f.Tags = append(f.Tags, tag)
		}
	}

	switch raw.IsFeatured {
	case "true":
		v := true
		f.IsFeatured = &v
	case "false":
		v := false
		f.IsFeatured = &v
	}

	if f.AuthorID != "" {
		if _, err := uuid.Parse(f.AuthorID); err != nil {
			return PostFilters{}, models.NewValidationError("authorId must be a valid id")
		}
	}

	if raw.Status != "" {
		status, err := models.ParsePostStatus(raw.Status)
		if err != nil {
			return PostFilters{}, models.NewValidationError(err.Error())
		}
		f.Status = &status
	}

	return f, nil
}

// Predicates returns one clause per present filter.
func (f PostFilters) Predicates() []clause.Expression {
	var preds []clause.Expression

	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		preds = append(preds, clause.Expr{
			SQL:  "(posts.title ILIKE ? OR posts.content ILIKE ? OR ? = ANY(posts.tags))",
			Vars: []any{pattern, pattern, f.Search},
		})
	}
	if len(f.Tags) > 0 {
		preds = append(preds, clause.Expr{
			SQL:  "posts.tags @> ?",
			Vars: []any{pq.StringArray(f.Tags)},
		})
	}
	if f.IsFeatured != nil {
		preds = append(preds, clause.Eq{Column: clause.Column{Table: "posts", Name: "is_featured"}, Value: *f.IsFeatured})
	}
	if f.Status != nil {
		preds = append(preds, clause.Eq{Column: clause.Column{Table: "posts", Name: "status"}, Value: string(*f.Status)})
	}
	if f.AuthorID != "" {
		preds = append(preds, clause.Eq{Column: clause.Column{Table: "posts", Name: "author_id"}, Value: f.AuthorID})
	}

	return preds
}

// Scope applies the filters as a conjunction. No filters matches every post.
func (f PostFilters) Scope() func(*gorm.DB) *gorm.DB {
	preds := f.Predicates()
	return func(db *gorm.DB) *gorm.DB {
		if len(preds) == 0 {
			return db
		}
		return db.Where(clause.And(preds...))
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
