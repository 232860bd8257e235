package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"quill/internal/listing"
	"quill/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// memStore is an in-memory stand-in for Postgres used by the scenario tests.
type memStore struct {
	mu       sync.Mutex
	clock    time.Time
	users    map[string]*models.User
	posts    map[string]*models.Post
	comments map[string]*models.Comment
}

func newMemStore() *memStore {
	return &memStore{
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    make(map[string]*models.User),
		posts:    make(map[string]*models.Post),
		comments: make(map[string]*models.Comment),
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) addUser(role models.Role, status models.UserStatus) models.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: uuid.NewString(), Name: string(role), Role: role, Status: status, EmailVerified: true}
	m.users[u.ID] = u
	return models.Identity{ID: u.ID, Name: u.Name, Role: u.Role, Status: u.Status}
}

func (m *memStore) postCopy(p *models.Post) *models.Post {
	cp := *p
	cp.Tags = append(pq.StringArray{}, p.Tags...)
	cp.CommentsCount = 0
	for _, c := range m.comments {
		if c.PostID == p.ID {
			cp.CommentsCount++
		}
	}
	return &cp
}

type memUsers struct{ *memStore }

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.NewNotFoundError("User", email)
}

func (r memUsers) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

type memPosts struct{ *memStore }

func (r memPosts) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Tags == nil {
		post.Tags = pq.StringArray{}
	}
	post.CreatedAt = r.tick()
	post.UpdatedAt = post.CreatedAt
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r memPosts) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	return r.postCopy(p), nil
}

func (r memPosts) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.posts[id]
	return ok, nil
}

func matches(p *models.Post, f listing.PostFilters) bool {
	if f.Search != "" {
		s := strings.ToLower(f.Search)
		hit := strings.Contains(strings.ToLower(p.Title), s) || strings.Contains(strings.ToLower(p.Content), s)
		for _, t := range p.Tags {
			hit = hit || t == f.Search
		}
		if !hit {
			return false
		}
	}
	for _, want := range f.Tags {
		found := false
		for _, t := range p.Tags {
			found = found || t == want
		}
		if !found {
			return false
		}
	}
	if f.IsFeatured != nil && p.IsFeatured != *f.IsFeatured {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.AuthorID != "" && p.AuthorID != f.AuthorID {
		return false
	}
	return true
}

func (r memPosts) filtered(f listing.PostFilters) []*models.Post {
	out := make([]*models.Post, 0)
	for _, p := range r.posts {
		if matches(p, f) {
			out = append(out, r.postCopy(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memPosts) List(_ context.Context, f listing.PostFilters, page listing.Page) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.filtered(f)
	if page.SortOrder == "asc" {
		sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	}
	if page.Skip >= len(all) {
		return []*models.Post{}, nil
	}
	end := page.Skip + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[page.Skip:end], nil
}

func (r memPosts) Count(_ context.Context, f listing.PostFilters) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.filtered(f))), nil
}

func (r memPosts) ListByAuthor(_ context.Context, authorID string) ([]*models.Post, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	posts := r.filtered(listing.PostFilters{AuthorID: authorID})
	return posts, int64(len(posts)), nil
}

func (r memPosts) GetDetail(_ context.Context, id string) (*models.Post, []*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil, models.NewNotFoundError("Post", id)
	}
	p.Views++

	comments := make([]*models.Comment, 0)
	for _, c := range r.comments {
		if c.PostID == id && c.Status == models.CommentStatusApproved {
			cp := *c
			comments = append(comments, &cp)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	return r.postCopy(p), comments, nil
}

func (r memPosts) Update(_ context.Context, id string, patch map[string]any) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	for k, v := range patch {
		switch k {
		case "title":
			p.Title = v.(string)
		case "content":
			p.Content = v.(string)
		case "thumbnail":
			s := v.(string)
			p.Thumbnail = &s
		case "tags":
			p.Tags = v.(pq.StringArray)
		case "status":
			p.Status = v.(models.PostStatus)
		case "is_featured":
			p.IsFeatured = v.(bool)
		default:
			panic("unexpected post column " + k)
		}
	}
	p.UpdatedAt = r.tick()
	return r.postCopy(p), nil
}

func (r memPosts) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return models.NewNotFoundError("Post", id)
	}
	delete(r.posts, id)
	for cid, c := range r.comments {
		if c.PostID == id {
			delete(r.comments, cid)
		}
	}
	return nil
}

type memComments struct{ *memStore }

func (r memComments) Create(_ context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[c.PostID]; !ok {
		return models.NewNotFoundError("Post or parent comment", c.PostID)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = models.DefaultCommentStatus
	}
	c.CreatedAt = r.tick()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.comments[c.ID] = &cp
	return nil
}

func (r memComments) GetByID(_ context.Context, id string) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment", id)
	}
	cp := *c
	if p, ok := r.posts[c.PostID]; ok {
		cp.Post = &models.PostSummary{ID: p.ID, Title: p.Title, Content: p.Content}
	}
	return &cp, nil
}

func (r memComments) FindByIDAndAuthor(_ context.Context, id, authorID string) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok || c.AuthorID != authorID {
		return nil, models.NewNotFoundError("Comment", id)
	}
	cp := *c
	return &cp, nil
}

func (r memComments) ListByAuthor(_ context.Context, authorID string) ([]*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Comment, 0)
	for _, c := range r.comments {
		if c.AuthorID == authorID {
			cp := *c
			if p, ok := r.posts[c.PostID]; ok {
				cp.Post = &models.PostSummary{ID: p.ID, Title: p.Title}
			}
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memComments) Update(_ context.Context, id string, patch map[string]any) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment", id)
	}
	for k, v := range patch {
		switch k {
		case "content":
			c.Content = v.(string)
		case "status":
			c.Status = v.(models.CommentStatus)
		default:
			panic("unexpected comment column " + k)
		}
	}
	cp := *c
	return &cp, nil
}

func (r memComments) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return models.NewNotFoundError("Comment", id)
	}
	delete(r.comments, id)
	return nil
}

// approve sets a comment's moderation state directly, as a moderator would.
func (m *memStore) approve(id string, status models.CommentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[id].Status = status
}
