package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/proskill/portal-auth/internal/auth/domain"
	"github.com/proskill/portal-auth/internal/auth/roster"
	"github.com/proskill/portal-auth/pkg/phonex"
	"github.com/proskill/portal-auth/pkg/sanitize"
	"github.com/proskill/portal-auth/pkg/slogx"
)

// ResolverService matches login phone numbers against the external student
// roster. The roster is an optional enrichment source: every failure mode
// (unconfigured, unreachable, query error) degrades to "no match" so login
// never depends on it.
type ResolverService struct {
	Directory roster.Directory // nil when no roster is configured

	// LookupTimeout bounds a single FindMatch call. Zero means 3s.
	LookupTimeout time.Duration
}

const defaultLookupTimeout = 3 * time.Second

// FindMatch returns the roster record for the number, or nil when there is
// no match or the roster cannot answer.
func (s *ResolverService) FindMatch(ctx context.Context, n phonex.Number) *domain.StudentRecord {
	if s == nil || s.Directory == nil {
		return nil
	}

	timeout := s.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rec, err := s.Directory.FindByPhone(ctx, n)
	if err != nil {
		slogx.FromContext(ctx).Warn("roster lookup failed",
			slog.Any("error", err),
		)
		return nil
	}
	return rec
}

// DisplayName extracts a usable display name from a roster record. Returns
// "" when the record is nil or the name sanitizes away to nothing.
func DisplayName(rec *domain.StudentRecord) string {
	if rec == nil {
		return ""
	}
	return sanitize.Name(rec.FullName)
}
