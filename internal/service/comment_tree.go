package service

import (
	"sort"

	"quill/internal/models"
)

// maxReplyDepth is how many reply levels hang under a top-level comment.
const maxReplyDepth = 2

// buildCommentTree arranges a post's approved comments for display: top-level
// comments newest first, replies oldest first, at most maxReplyDepth reply levels.
// Comments whose parent is not in approved (pending, rejected or too deep) are left out.
func buildCommentTree(approved []*models.Comment) []*models.Comment {
	children := make(map[string][]*models.Comment)
	roots := make([]*models.Comment, 0)

	for _, c := range approved {
		c.Replies = nil
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})
	for _, replies := range children {
		sort.SliceStable(replies, func(i, j int) bool {
			return replies[i].CreatedAt.Before(replies[j].CreatedAt)
		})
	}

	var attach func(parent *models.Comment, depth int)
	attach = func(parent *models.Comment, depth int) {
		if depth > maxReplyDepth {
			return
		}
		parent.Replies = children[parent.ID]
		for _, r := range parent.Replies {
			attach(r, depth+1)
		}
	}
	for _, root := range roots {
		attach(root, 1)
	}

	return roots
}
