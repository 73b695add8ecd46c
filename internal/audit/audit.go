package audit

import (
	"context"

	"github.com/hyuniciel/1208-sns-proj/pkg/log"
)

// Audit actions.
const (
	ActionUserCreated    = "user.created"
	ActionPostCreated    = "post.created"
	ActionPostDeleted    = "post.deleted"
	ActionCommentDeleted = "comment.deleted"
	ActionFollow         = "follow.created"
	ActionUnfollow       = "follow.deleted"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID, targetID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldTargetID, targetID).
		Msg(msg)
}
