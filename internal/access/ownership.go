package access

import (
	"quill/internal/models"
	"quill/internal/observability"
)

// Authorize permits a mutation when the caller owns the resource or, where the
// resource allows it, when the caller is an admin.
func Authorize(resource, ownerID, callerID string, adminOverride bool) error {
	if ownerID == callerID || adminOverride {
		return nil
	}
	observability.AccessDenials.WithLabelValues("not_owner").Inc()
	return models.NewForbiddenNotOwnerError(resource)
}
