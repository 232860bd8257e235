package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"quill/internal/cache"
	"quill/internal/listing"
	"quill/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	postID    = "0b6f3d1e-5a43-4d8e-9b1c-2f7e6a5d4c3b"
	commentID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	authorID  = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

var postColumns = []string{"id", "title", "content", "tags", "is_featured", "status", "views", "author_id", "created_at", "updated_at", "comments_count"}

func TestPostRepository_GetDetail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "views"=views + $1 WHERE id = $2`)).
		WithArgs(1, postID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count FROM "posts" WHERE posts.id = $1 LIMIT $2`)).
		WithArgs(postID, 1).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(postID, "Hello", "World", "{go,web}", false, "PUBLISHED", 7, authorID, now, now, 3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "comments" WHERE post_id = $1 AND status = $2 ORDER BY created_at ASC`)).
		WithArgs(postID, "APPROVED").
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "author_id", "post_id", "parent_id", "status", "created_at", "updated_at"}).
			AddRow(commentID, "nice", authorID, postID, nil, "APPROVED", now, now))
	mock.ExpectCommit()

	post, comments, err := repo.GetDetail(context.Background(), postID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, int64(7), post.Views)
	assert.Equal(t, int64(3), post.CommentsCount)
	assert.Equal(t, []string{"go", "web"}, []string(post.Tags))
	require.Len(t, comments, 1)
	assert.Nil(t, comments[0].ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetDetail_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "views"=views + $1 WHERE id = $2`)).
		WithArgs(1, postID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, _, err := repo.GetDetail(context.Background(), postID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_List(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	now := time.Now()

	filters, err := listing.ParsePostFilters(listing.RawPostFilters{Status: "DRAFT"})
	require.NoError(t, err)
	page := listing.ResolvePage(listing.RawPage{Page: "2", Limit: "5", SortBy: "views"})

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE "posts"."status" = $1 ORDER BY "posts"."views" DESC LIMIT $2 OFFSET $3`)).
		WithArgs("DRAFT", 5, 5).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(postID, "Draft", "body", "{}", false, "DRAFT", 0, authorID, now, now, 0))

	posts, err := repo.List(context.Background(), filters, page)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, models.PostStatusDraft, posts[0].Status)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "posts" WHERE "posts"."status" = $1`)).
		WithArgs("DRAFT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	count, err := repo.Count(context.Background(), filters)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListPastTheEnd(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "posts" ORDER BY "posts"."created_at" DESC LIMIT $1 OFFSET $2`)).
		WithArgs(10, 90).
		WillReturnRows(sqlmock.NewRows(postColumns))

	posts, err := repo.List(context.Background(), listing.PostFilters{}, listing.ResolvePage(listing.RawPage{Page: "10"}))
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_Create(t *testing.T) {
	tests := []struct {
		name     string
		execErr  error
		wantCode string
	}{
		{"inserted", nil, ""},
		{"post vanished", &pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"}, models.CodeNotFound},
		{"other failure", errors.New("connection reset"), models.CodeStoreFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewCommentRepository(db)

			mock.ExpectBegin()
			exec := mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "comments"`))
			if tt.execErr != nil {
				exec.WillReturnError(tt.execErr)
				mock.ExpectRollback()
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			}

			c := &models.Comment{Content: "hi", AuthorID: authorID, PostID: postID}
			err := repo.Create(context.Background(), c)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, models.CommentStatusPending, c.Status)
				assert.NotEmpty(t, c.ID)
			} else {
				assert.True(t, models.HasCode(err, tt.wantCode), "got %v", err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCommentRepository_FindByIDAndAuthor_NoMatch(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "comments" WHERE id = $1 AND author_id = $2 ORDER BY "comments"."id" LIMIT $3`)).
		WithArgs(commentID, authorID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByIDAndAuthor(context.Background(), commentID, authorID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_ListByAuthor(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "comments" WHERE author_id = $1 ORDER BY created_at DESC`)).
		WithArgs(authorID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "author_id", "post_id", "status", "created_at", "updated_at"}).
			AddRow("c2", "second", authorID, postID, "APPROVED", now, now).
			AddRow("c1", "first", authorID, postID, "PENDING", now.Add(-time.Hour), now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","title" FROM "posts" WHERE id IN ($1)`)).
		WithArgs(postID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(postID, "Hello"))

	comments, err := repo.ListByAuthor(context.Background(), authorID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c2", comments[0].ID)
	require.NotNil(t, comments[1].Post)
	assert.Equal(t, "Hello", comments[1].Post.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository_Snapshot(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStatsRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM posts`).
		WithArgs("PUBLISHED", "DRAFT", "ARCHIVED").
		WillReturnRows(sqlmock.NewRows([]string{"total_posts", "published_posts", "draft_posts", "archived_posts", "total_views"}).
			AddRow(6, 3, 2, 1, 120))
	mock.ExpectQuery(`FROM comments`).
		WithArgs("APPROVED", "REJECT").
		WillReturnRows(sqlmock.NewRows([]string{"total_comments", "approved_comments", "reject_comments"}).
			AddRow(10, 7, 1))
	mock.ExpectQuery(`FROM users`).
		WithArgs("ADMIN", "USER").
		WillReturnRows(sqlmock.NewRows([]string{"total_users", "admin_count", "user_count"}).
			AddRow(4, 1, 3))
	mock.ExpectCommit()

	stats, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.Stats{
		TotalPosts:       6,
		PublishedPosts:   3,
		DraftPosts:       2,
		ArchivedPosts:    1,
		TotalViews:       120,
		TotalComments:    10,
		ApprovedComments: 7,
		RejectComments:   1,
		TotalUsers:       4,
		AdminCount:       1,
		UserCount:        3,
	}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository_Snapshot_FailureRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStatsRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM posts`).WillReturnError(errors.New("statement timeout"))
	mock.ExpectRollback()

	_, err := repo.Snapshot(context.Background())
	assert.True(t, models.HasCode(err, models.CodeStoreFailure))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs(authorID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), authorID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
		mr.Close()
	})
	return mr
}

var commentColumns = []string{"id", "content", "author_id", "post_id", "parent_id", "status", "created_at", "updated_at"}

func expectCommentRow(mock sqlmock.Sqlmock, id, content string, parentID any, now time.Time) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "comments" WHERE id = $1`)).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows(commentColumns).
			AddRow(id, content, authorID, postID, parentID, "APPROVED", now, now))
}

func expectPostSummary(mock sqlmock.Sqlmock, title string) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","title","content" FROM "posts" WHERE id = $1`)).
		WithArgs(postID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content"}).AddRow(postID, title, "body"))
}

func TestCommentRepository_DeleteEvictsReplies(t *testing.T) {
	mr := useMiniredis(t)
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	now := time.Now()
	const replyID = "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"

	expectCommentRow(mock, replyID, "reply", commentID, now)
	expectPostSummary(mock, "Hello")
	reply, err := repo.GetByID(ctx, replyID)
	require.NoError(t, err)
	assert.Equal(t, "reply", reply.Content)
	require.True(t, mr.Exists(cache.CommentKey(replyID)))

	mock.ExpectQuery(regexp.QuoteMeta(`WITH RECURSIVE subtree AS`)).
		WithArgs(commentID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(commentID).AddRow(replyID))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "comments" WHERE id = $1`)).
		WithArgs(commentID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Delete(ctx, commentID))
	assert.False(t, mr.Exists(cache.CommentKey(replyID)))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "comments" WHERE id = $1`)).
		WithArgs(replyID, 1).
		WillReturnRows(sqlmock.NewRows(commentColumns))
	_, err = repo.GetByID(ctx, replyID)
	assert.True(t, models.HasCode(err, models.CodeNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_GetByIDReadsPostTitleFresh(t *testing.T) {
	useMiniredis(t)
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	expectCommentRow(mock, commentID, "hi", nil, time.Now())
	expectPostSummary(mock, "Old title")
	first, err := repo.GetByID(ctx, commentID)
	require.NoError(t, err)
	assert.Equal(t, "Old title", first.Post.Title)

	expectPostSummary(mock, "New title")
	second, err := repo.GetByID(ctx, commentID)
	require.NoError(t, err)
	assert.Equal(t, "hi", second.Content)
	assert.Equal(t, "New title", second.Post.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}
