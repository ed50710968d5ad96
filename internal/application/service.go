package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hackdao/governance-service/internal/domain"
	"github.com/hackdao/governance-service/internal/ports"
)

func hashPayload(value interface{}) string {
	blob, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

func (s *Service) requireSubject(actor Actor) error {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.ErrUnauthorized
	}
	return nil
}

// memberName is a display-only lookup; a missing directory record degrades
// to an empty name rather than failing the read.
func (s *Service) memberName(ctx context.Context, memberID string) string {
	profile, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		return ""
	}
	return profile.Name
}

// verifiedContributionCount prefers consumed snapshots and falls back to the
// ledger when no snapshot has been seen for the team yet.
func (s *Service) verifiedContributionCount(ctx context.Context, teamID, memberID string) (int, error) {
	count, err := s.snapshots.CountVerifiedByMember(ctx, teamID, memberID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return count, nil
	}
	contribs, err := s.contributions.ListVerified(ctx, teamID, time.Time{}, s.nowFn())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	for _, c := range contribs {
		if c.MemberID == memberID && c.Verified {
			count++
		}
	}
	return count, nil
}

func (s *Service) appendAudit(ctx context.Context, record ports.AuditRecord) error {
	record.CreatedAt = s.nowFn()
	return s.audit.Append(ctx, record)
}
