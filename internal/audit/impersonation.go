package audit

import (
	"context"

	"github.com/karimhaddad/clubcore/internal/impersonation"
)

// ImpersonationStarted records a session opening. The acting operator comes
// from the request context; the target identity and mandatory reason from
// the session itself, so both linkages survive in one entry.
func (s *Service) ImpersonationStarted(ctx context.Context, sess impersonation.Session) {
	target := sess.TargetUserID
	s.Log(ctx, Entry{
		Action:       "impersonation.started",
		ResourceType: "user",
		ResourceID:   &target,
		Details: map[string]any{
			"session_id":   sess.ID,
			"actor_id":     sess.ActorID,
			"target_id":    sess.TargetUserID,
			"target_email": sess.TargetEmail,
			"tenant_id":    sess.TenantID,
			"reason":       sess.Reason,
			"expires_at":   sess.ExpiresAt,
		},
	})
}

func (s *Service) ImpersonationStopped(ctx context.Context, sess impersonation.Session) {
	target := sess.TargetUserID
	s.Log(ctx, Entry{
		Action:       "impersonation.stopped",
		ResourceType: "user",
		ResourceID:   &target,
		Details: map[string]any{
			"session_id": sess.ID,
			"actor_id":   sess.ActorID,
			"target_id":  sess.TargetUserID,
			"tenant_id":  sess.TenantID,
		},
	})
}
