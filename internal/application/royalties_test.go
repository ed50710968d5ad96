package application

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/hackdao/governance-service/internal/domain"
)

func (f *fixture) seedScore(id, memberID, contribType string, score float64) {
	f.directory.SeedContribution(domain.Contribution{
		ContributionID: id,
		TeamID:         "team-1",
		MemberID:       memberID,
		Type:           contribType,
		Score:          score,
		Verified:       true,
		RecordedAt:     f.now.Add(-time.Hour),
	})
}

func (f *fixture) createPool(t *testing.T, key string, model domain.DistributionModel, total float64) domain.RoyaltyPool {
	t.Helper()
	actor := actorFor("alice")
	actor.IdempotencyKey = key
	pool, err := f.svc.CreateRoyaltyPool(context.Background(), actor, CreatePoolInput{
		Name:        "June royalties",
		TeamID:      "team-1",
		TotalAmount: total,
		Model:       model,
		PeriodStart: f.now.AddDate(0, 0, -14),
		PeriodEnd:   f.now.AddDate(0, 0, 14),
	})
	if err != nil {
		t.Fatalf("CreateRoyaltyPool error: %v", err)
	}
	return pool
}

func poolRow(t *testing.T, pool domain.RoyaltyPool, memberID string) domain.Distribution {
	t.Helper()
	for _, row := range pool.Distributions {
		if row.MemberID == memberID {
			return row
		}
	}
	t.Fatalf("no distribution row for %s in pool %s", memberID, pool.PoolID)
	return domain.Distribution{}
}

func assertPoolConserved(t *testing.T, pool domain.RoyaltyPool) {
	t.Helper()
	var amountSum, pctSum float64
	for _, row := range pool.Distributions {
		amountSum += row.Amount
		pctSum += row.Percentage
	}
	if math.Abs(amountSum-pool.TotalAmount) > 1e-6 {
		t.Fatalf("amounts sum to %.6f, want %.2f", amountSum, pool.TotalAmount)
	}
	if math.Abs(pctSum-100) > 1e-6 {
		t.Fatalf("percentages sum to %.6f, want 100", pctSum)
	}
}

func TestCreateRoyaltyPool_RequiresIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	_, err := f.svc.CreateRoyaltyPool(context.Background(), actorFor("alice"), CreatePoolInput{
		Name:        "June royalties",
		TeamID:      "team-1",
		TotalAmount: 1000,
		Model:       domain.ModelLinear,
		PeriodStart: f.now.AddDate(0, 0, -14),
		PeriodEnd:   f.now.AddDate(0, 0, 14),
	})
	if !errors.Is(err, domain.ErrIdempotencyRequired) {
		t.Fatalf("expected ErrIdempotencyRequired, got %v", err)
	}
}

func TestCreateRoyaltyPool_ReplayReturnsSamePool(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	first := f.createPool(t, "pool-key", domain.ModelLinear, 1000)
	if first.Status != domain.PoolStatusPending || first.Currency != "USD" {
		t.Fatalf("unexpected pool defaults: %+v", first)
	}
	replay := f.createPool(t, "pool-key", domain.ModelLinear, 1000)
	if replay.PoolID != first.PoolID {
		t.Fatalf("replay created a new pool: %s vs %s", replay.PoolID, first.PoolID)
	}
}

func TestCalculateDistribution_Linear(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	f.seedScore("c1", "alice", "code", 30)
	f.seedScore("c2", "bob", "code", 70)
	pool := f.createPool(t, "pool-key", domain.ModelLinear, 1000)

	calculated, err := f.svc.CalculateDistribution(context.Background(), actorFor("alice"), pool.PoolID)
	if err != nil {
		t.Fatalf("CalculateDistribution error: %v", err)
	}
	if calculated.Status != domain.PoolStatusCalculated || calculated.CalculatedAt == nil {
		t.Fatalf("unexpected pool state: %+v", calculated)
	}
	if got := poolRow(t, calculated, "alice").Amount; got != 300 {
		t.Fatalf("alice amount = %v, want 300", got)
	}
	if got := poolRow(t, calculated, "bob").Amount; got != 700 {
		t.Fatalf("bob amount = %v, want 700", got)
	}
	assertPoolConserved(t, calculated)
}

func TestCalculateDistribution_WeightedUsesDirectoryRoles(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	// team_lead code: 100 * 1.5 * 1.2 = 180; member documentation: 100 * 1.0 * 0.9 = 90
	f.seedScore("c1", "alice", "code", 100)
	f.seedScore("c2", "carol", "documentation", 100)
	pool := f.createPool(t, "pool-key", domain.ModelWeighted, 270)

	calculated, err := f.svc.CalculateDistribution(context.Background(), actorFor("alice"), pool.PoolID)
	if err != nil {
		t.Fatalf("CalculateDistribution error: %v", err)
	}
	if got := poolRow(t, calculated, "alice").Amount; got != 180 {
		t.Fatalf("alice amount = %v, want 180", got)
	}
	if got := poolRow(t, calculated, "carol").Amount; got != 90 {
		t.Fatalf("carol amount = %v, want 90", got)
	}
	assertPoolConserved(t, calculated)
}

func TestCalculateDistribution_MilestoneFallsBackToLinear(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	f.seedScore("c1", "alice", "code", 30)
	f.seedScore("c2", "bob", "code", 70)
	milestone := f.createPool(t, "pool-ms", domain.ModelMilestone, 1000)

	calculated, err := f.svc.CalculateDistribution(context.Background(), actorFor("alice"), milestone.PoolID)
	if err != nil {
		t.Fatalf("CalculateDistribution error: %v", err)
	}
	if got := poolRow(t, calculated, "alice").Amount; got != 300 {
		t.Fatalf("alice amount = %v, want 300", got)
	}
	if got := poolRow(t, calculated, "bob").Amount; got != 700 {
		t.Fatalf("bob amount = %v, want 700", got)
	}
}

func TestCalculateDistribution_HybridConserved(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	f.seedScore("c1", "alice", "code", 100)
	f.seedScore("c2", "carol", "documentation", 100)
	pool := f.createPool(t, "pool-key", domain.ModelHybrid, 1000)

	calculated, err := f.svc.CalculateDistribution(context.Background(), actorFor("alice"), pool.PoolID)
	if err != nil {
		t.Fatalf("CalculateDistribution error: %v", err)
	}
	alice := poolRow(t, calculated, "alice")
	carol := poolRow(t, calculated, "carol")
	if alice.Amount <= carol.Amount {
		t.Fatalf("hybrid split should favor weighted scores: alice=%.2f carol=%.2f", alice.Amount, carol.Amount)
	}
	assertPoolConserved(t, calculated)
}

func TestCalculateDistribution_NoEligibleContributions(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	pool := f.createPool(t, "pool-key", domain.ModelLinear, 1000)

	_, err := f.svc.CalculateDistribution(context.Background(), actorFor("alice"), pool.PoolID)
	if !errors.Is(err, domain.ErrNoContributions) {
		t.Fatalf("expected ErrNoContributions, got %v", err)
	}
}

func TestCalculateDistribution_OutsidePeriodExcluded(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	f.seedScore("c1", "alice", "code", 30)
	f.directory.SeedContribution(domain.Contribution{
		ContributionID: "c-old",
		TeamID:         "team-1",
		MemberID:       "bob",
		Type:           "code",
		Score:          70,
		Verified:       true,
		RecordedAt:     f.now.AddDate(0, -2, 0),
	})
	pool := f.createPool(t, "pool-key", domain.ModelLinear, 1000)

	calculated, err := f.svc.CalculateDistribution(context.Background(), actorFor("alice"), pool.PoolID)
	if err != nil {
		t.Fatalf("CalculateDistribution error: %v", err)
	}
	if len(calculated.Distributions) != 1 || calculated.Distributions[0].MemberID != "alice" {
		t.Fatalf("stale contribution leaked into split: %+v", calculated.Distributions)
	}
	if calculated.Distributions[0].Amount != 1000 {
		t.Fatalf("alice amount = %v, want 1000", calculated.Distributions[0].Amount)
	}
}

func TestExecuteDistribution_SkipsRowsWithoutPayoutAddress(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	f.seedScore("c1", "alice", "code", 30)
	f.seedScore("c2", "dave", "code", 70)
	pool := f.createPool(t, "pool-key", domain.ModelLinear, 1000)
	if _, err := f.svc.CalculateDistribution(context.Background(), actorFor("alice"), pool.PoolID); err != nil {
		t.Fatalf("CalculateDistribution error: %v", err)
	}

	distributed, err := f.svc.ExecuteDistribution(context.Background(), actorFor("alice"), pool.PoolID)
	if err != nil {
		t.Fatalf("ExecuteDistribution error: %v", err)
	}
	if distributed.Status != domain.PoolStatusDistributed || distributed.DistributedAt == nil {
		t.Fatalf("unexpected pool state: %+v", distributed)
	}
	if !poolRow(t, distributed, "alice").Settled {
		t.Fatal("alice row should be settled")
	}
	if poolRow(t, distributed, "dave").Settled {
		t.Fatal("dave has no payout address, row must stay unsettled")
	}
}

func TestExecuteDistribution_RequiresCalculatedPool(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	pool := f.createPool(t, "pool-key", domain.ModelLinear, 1000)

	_, err := f.svc.ExecuteDistribution(context.Background(), actorFor("alice"), pool.PoolID)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestExecuteDistribution_RunsOnce(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	f.seedScore("c1", "alice", "code", 30)
	pool := f.createPool(t, "pool-key", domain.ModelLinear, 1000)
	if _, err := f.svc.CalculateDistribution(context.Background(), actorFor("alice"), pool.PoolID); err != nil {
		t.Fatalf("CalculateDistribution error: %v", err)
	}
	if _, err := f.svc.ExecuteDistribution(context.Background(), actorFor("alice"), pool.PoolID); err != nil {
		t.Fatalf("ExecuteDistribution error: %v", err)
	}

	if _, err := f.svc.ExecuteDistribution(context.Background(), actorFor("alice"), pool.PoolID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second execute: expected ErrInvalidState, got %v", err)
	}
	if _, err := f.svc.CalculateDistribution(context.Background(), actorFor("alice"), pool.PoolID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("recalculate after distribution: expected ErrInvalidState, got %v", err)
	}
}

func TestGetDistributionReport_JoinsMemberDetails(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	f.seedScore("c1", "alice", "code", 30)
	f.seedScore("c2", "bob", "code", 70)
	pool := f.createPool(t, "pool-key", domain.ModelLinear, 1000)
	if _, err := f.svc.CalculateDistribution(context.Background(), actorFor("alice"), pool.PoolID); err != nil {
		t.Fatalf("CalculateDistribution error: %v", err)
	}

	report, err := f.svc.GetDistributionReport(context.Background(), actorFor("alice"), pool.PoolID)
	if err != nil {
		t.Fatalf("GetDistributionReport error: %v", err)
	}
	if report.PoolID != pool.PoolID || report.Status != domain.PoolStatusCalculated {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(report.Rows))
	}
	for _, row := range report.Rows {
		if row.MemberName == "" || row.PayoutAddress == "" {
			t.Fatalf("row missing member details: %+v", row)
		}
	}
}

func TestGetMemberTotalRoyalties_SumsAcrossPools(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	f.seedScore("c1", "alice", "code", 30)
	f.seedScore("c2", "bob", "code", 70)

	p1 := f.createPool(t, "pool-1", domain.ModelLinear, 1000)
	p2 := f.createPool(t, "pool-2", domain.ModelLinear, 500)
	for _, id := range []string{p1.PoolID, p2.PoolID} {
		if _, err := f.svc.CalculateDistribution(context.Background(), actorFor("alice"), id); err != nil {
			t.Fatalf("CalculateDistribution error: %v", err)
		}
	}

	totals, err := f.svc.GetMemberTotalRoyalties(context.Background(), actorFor("alice"), "alice")
	if err != nil {
		t.Fatalf("GetMemberTotalRoyalties error: %v", err)
	}
	if totals.TotalAmount != 450 {
		t.Fatalf("total = %v, want 450", totals.TotalAmount)
	}
	if len(totals.Pools) != 2 {
		t.Fatalf("expected rows from 2 pools, got %d", len(totals.Pools))
	}
}

func TestListRoyaltyPools_FiltersByTeam(t *testing.T) {
	f := newFixture(t)
	f.seedTeam()
	f.createPool(t, "pool-1", domain.ModelLinear, 1000)

	out, err := f.svc.ListRoyaltyPools(context.Background(), actorFor("alice"), "team-1", 20, 0)
	if err != nil {
		t.Fatalf("ListRoyaltyPools error: %v", err)
	}
	if len(out.Items) != 1 || out.Pagination.Total != 1 {
		t.Fatalf("unexpected listing: %+v", out)
	}
	out, err = f.svc.ListRoyaltyPools(context.Background(), actorFor("alice"), "team-other", 20, 0)
	if err != nil {
		t.Fatalf("ListRoyaltyPools error: %v", err)
	}
	if len(out.Items) != 0 {
		t.Fatalf("expected no pools for other team, got %d", len(out.Items))
	}
}
