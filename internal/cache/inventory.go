package cache

import (
	"context"
	"time"
)

const (
	CommentKeyPrefix = "comment:"
	RevokedKeyPrefix = "session:revoked:"
)

const (
	CommentTTL = 5 * time.Minute
)

func CommentKey(commentID string) string {
	return CommentKeyPrefix + commentID
}

func RevokedKey(jti string) string {
	return RevokedKeyPrefix + jti
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateComment(ctx context.Context, commentID string) {
	Invalidate(ctx, CommentKey(commentID))
}
