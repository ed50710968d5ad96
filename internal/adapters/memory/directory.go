package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hackdao/governance-service/internal/domain"
	"github.com/hackdao/governance-service/internal/ports"
)

// Directory is a seedable member/team/contribution registry. It backs the
// in-memory deployment mode and test fixtures; production binds the gRPC
// clients instead.
type Directory struct {
	mu            sync.RWMutex
	members       map[string]ports.MemberProfile
	rosters       map[string]ports.TeamRoster
	contributions map[string]domain.Contribution
	milestones    map[string]bool
}

func NewDirectory() *Directory {
	return &Directory{
		members:       make(map[string]ports.MemberProfile),
		rosters:       make(map[string]ports.TeamRoster),
		contributions: make(map[string]domain.Contribution),
		milestones:    make(map[string]bool),
	}
}

func (d *Directory) SeedMember(profile ports.MemberProfile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[profile.MemberID] = profile
}

func (d *Directory) SeedRoster(roster ports.TeamRoster) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rosters[roster.TeamID] = roster
}

func (d *Directory) SeedContribution(contribution domain.Contribution) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contributions[contribution.ContributionID] = contribution
}

func (d *Directory) GetMember(_ context.Context, memberID string) (ports.MemberProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	profile, ok := d.members[memberID]
	if !ok {
		return ports.MemberProfile{}, domain.ErrNotFound
	}
	return profile, nil
}

func (d *Directory) ListTeams(_ context.Context, memberID string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	teams := make([]string, 0)
	for _, roster := range d.rosters {
		for _, id := range roster.MemberIDs {
			if id == memberID {
				teams = append(teams, roster.TeamID)
				break
			}
		}
	}
	return teams, nil
}

func (d *Directory) GetRoster(_ context.Context, teamID string) (ports.TeamRoster, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	roster, ok := d.rosters[teamID]
	if !ok {
		return ports.TeamRoster{}, domain.ErrNotFound
	}
	return roster, nil
}

func (d *Directory) CompleteMilestone(_ context.Context, teamID, milestoneID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.rosters[teamID]; !ok {
		return domain.ErrNotFound
	}
	d.milestones[teamID+":"+milestoneID] = true
	return nil
}

// MilestoneCompleted reports whether CompleteMilestone ran for the pair.
// Test hook only.
func (d *Directory) MilestoneCompleted(teamID, milestoneID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.milestones[teamID+":"+milestoneID]
}

func (d *Directory) ListVerified(_ context.Context, teamID string, periodStart, periodEnd time.Time) ([]domain.Contribution, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	items := make([]domain.Contribution, 0)
	for _, c := range d.contributions {
		if c.TeamID != teamID {
			continue
		}
		if c.EligibleForPeriod(periodStart, periodEnd) {
			items = append(items, c)
		}
	}
	return items, nil
}

func (d *Directory) MarkVerified(_ context.Context, contributionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.contributions[contributionID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Verified = true
	d.contributions[contributionID] = c
	return nil
}

// SeedSampleData loads a small demo team so the in-memory mode answers
// requests out of the box. Gated behind config, never loaded in production.
func (d *Directory) SeedSampleData(now time.Time) {
	d.SeedRoster(ports.TeamRoster{
		TeamID:    "team-demo",
		Name:      "Demo Crew",
		MemberIDs: []string{"alice", "bob", "carol"},
	})
	d.SeedMember(ports.MemberProfile{MemberID: "alice", Name: "Alice", Role: domain.RoleTeamLead, Reputation: 450, PayoutAddress: "payout-alice"})
	d.SeedMember(ports.MemberProfile{MemberID: "bob", Name: "Bob", Role: domain.RoleSenior, Reputation: 320, PayoutAddress: "payout-bob"})
	d.SeedMember(ports.MemberProfile{MemberID: "carol", Name: "Carol", Role: domain.RoleMember, Reputation: 200, PayoutAddress: "payout-carol"})
	d.SeedContribution(domain.Contribution{
		ContributionID: "contrib-demo-1",
		TeamID:         "team-demo",
		MemberID:       "alice",
		Type:           "code",
		Score:          8,
		Verified:       true,
		RecordedAt:     now.Add(-48 * time.Hour),
	})
	d.SeedContribution(domain.Contribution{
		ContributionID: "contrib-demo-2",
		TeamID:         "team-demo",
		MemberID:       "bob",
		Type:           "design",
		Score:          5,
		Verified:       true,
		RecordedAt:     now.Add(-24 * time.Hour),
	})
}
