package memory

import (
	"context"
	"testing"
	"time"

	"github.com/hackdao/governance-service/internal/domain"
)

func TestSeedSampleData_ReputationsExceedBaseline(t *testing.T) {
	d := NewDirectory()
	d.SeedSampleData(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))

	roster, err := d.GetRoster(context.Background(), "team-demo")
	if err != nil {
		t.Fatalf("GetRoster error: %v", err)
	}
	for _, memberID := range roster.MemberIDs {
		profile, err := d.GetMember(context.Background(), memberID)
		if err != nil {
			t.Fatalf("GetMember(%s) error: %v", memberID, err)
		}
		weight := domain.ComputeVoteWeight(domain.VoteWeightInput{
			Reputation: profile.Reputation,
			Role:       profile.Role,
		})
		// Demo members must carry a visible reputation bonus, not just
		// role bonuses.
		base := domain.ComputeVoteWeight(domain.VoteWeightInput{Role: profile.Role})
		if weight <= base {
			t.Fatalf("%s reputation %.1f adds no weight bonus (%.2f vs base %.2f)", memberID, profile.Reputation, weight, base)
		}
	}
}

func TestSeedSampleData_ContributionsEligible(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	d := NewDirectory()
	d.SeedSampleData(now)

	verified, err := d.ListVerified(context.Background(), "team-demo", now.AddDate(0, 0, -7), now)
	if err != nil {
		t.Fatalf("ListVerified error: %v", err)
	}
	if len(verified) != 2 {
		t.Fatalf("expected 2 eligible demo contributions, got %d", len(verified))
	}
}
