package repository

import (
	"context"
	"database/sql"

	"quill/internal/models"
	"quill/internal/observability"

	"gorm.io/gorm"
)

// StatsRepository reads aggregate counters across posts, comments and users.
type StatsRepository interface {
	Snapshot(ctx context.Context) (*models.Stats, error)
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

type postAggregates struct {
	TotalPosts     int64
	PublishedPosts int64
	DraftPosts     int64
	ArchivedPosts  int64
	TotalViews     int64
}

type commentAggregates struct {
	TotalComments    int64
	ApprovedComments int64
	RejectComments   int64
}

type userAggregates struct {
	TotalUsers int64
	AdminCount int64
	UserCount  int64
}

// Snapshot runs every aggregate inside one read-only repeatable-read transaction
// so the figures describe the same instant.
func (r *statsRepository) Snapshot(ctx context.Context) (*models.Stats, error) {
	defer observability.TrackQuery("stats_snapshot")()

	var (
		p postAggregates
		c commentAggregates
		u userAggregates
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(`SELECT
			COUNT(*) AS total_posts,
			COUNT(*) FILTER (WHERE status = ?) AS published_posts,
			COUNT(*) FILTER (WHERE status = ?) AS draft_posts,
			COUNT(*) FILTER (WHERE status = ?) AS archived_posts,
			COALESCE(SUM(views), 0) AS total_views
			FROM posts`,
			models.PostStatusPublished, models.PostStatusDraft, models.PostStatusArchived,
		).Scan(&p).Error; err != nil {
			return err
		}

		if err := tx.Raw(`SELECT
			COUNT(*) AS total_comments,
			COUNT(*) FILTER (WHERE status = ?) AS approved_comments,
			COUNT(*) FILTER (WHERE status = ?) AS reject_comments
			FROM comments`,
			models.CommentStatusApproved, models.CommentStatusReject,
		).Scan(&c).Error; err != nil {
			return err
		}

		return tx.Raw(`SELECT
			COUNT(*) AS total_users,
			COUNT(*) FILTER (WHERE role = ?) AS admin_count,
			COUNT(*) FILTER (WHERE role = ?) AS user_count
			FROM users`,
			models.RoleAdmin, models.RoleUser,
		).Scan(&u).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, models.NewStoreError(err)
	}

	return &models.Stats{
		TotalPosts:       p.TotalPosts,
		PublishedPosts:   p.PublishedPosts,
		DraftPosts:       p.DraftPosts,
		ArchivedPosts:    p.ArchivedPosts,
		TotalViews:       p.TotalViews,
		TotalComments:    c.TotalComments,
		ApprovedComments: c.ApprovedComments,
		RejectComments:   c.RejectComments,
		TotalUsers:       u.TotalUsers,
		AdminCount:       u.AdminCount,
		UserCount:        u.UserCount,
	}, nil
}
