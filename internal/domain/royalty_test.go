package domain

import (
	"math"
	"testing"
	"time"
)

func contribution(id, memberID, contribType string, score float64) Contribution {
	return Contribution{
		ContributionID: id,
		TeamID:         "team-1",
		MemberID:       memberID,
		Type:           contribType,
		Score:          score,
		Verified:       true,
		RecordedAt:     time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
	}
}

func rowFor(t *testing.T, rows []Distribution, memberID string) Distribution {
	t.Helper()
	for _, row := range rows {
		if row.MemberID == memberID {
			return row
		}
	}
	t.Fatalf("no distribution row for %s", memberID)
	return Distribution{}
}

func assertConserved(t *testing.T, rows []Distribution, total float64) {
	t.Helper()
	var amountSum, pctSum float64
	for _, row := range rows {
		amountSum += row.Amount
		pctSum += row.Percentage
	}
	if math.Abs(amountSum-total) > 1e-6 {
		t.Fatalf("amounts sum to %.6f, want %.2f", amountSum, total)
	}
	if math.Abs(pctSum-100) > 1e-6 {
		t.Fatalf("percentages sum to %.6f, want 100", pctSum)
	}
}

func TestSplitLinear_ProportionalToScore(t *testing.T) {
	rows := SplitLinear(1000, []Contribution{
		contribution("c1", "alice", "code", 30),
		contribution("c2", "bob", "code", 70),
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	alice := rowFor(t, rows, "alice")
	bob := rowFor(t, rows, "bob")
	if alice.Amount != 300 || bob.Amount != 700 {
		t.Fatalf("unexpected amounts: alice=%.2f bob=%.2f", alice.Amount, bob.Amount)
	}
	if alice.Percentage != 30 || bob.Percentage != 70 {
		t.Fatalf("unexpected percentages: alice=%.2f bob=%.2f", alice.Percentage, bob.Percentage)
	}
	assertConserved(t, rows, 1000)
}

func TestSplitLinear_AggregatesMultipleContributions(t *testing.T) {
	rows := SplitLinear(100, []Contribution{
		contribution("c1", "alice", "code", 10),
		contribution("c2", "alice", "review", 15),
		contribution("c3", "bob", "code", 25),
	})
	alice := rowFor(t, rows, "alice")
	if alice.Amount != 50 || alice.ContributionCount != 2 {
		t.Fatalf("unexpected alice row: %+v", alice)
	}
	assertConserved(t, rows, 100)
}

func TestSplitWeighted_RoleAndTypeMultipliers(t *testing.T) {
	// team_lead code: 100 * 1.5 * 1.2 = 180; member documentation: 100 * 1.0 * 0.9 = 90
	rows := SplitWeighted(270, []Contribution{
		contribution("c1", "alice", "code", 100),
		contribution("c2", "bob", "documentation", 100),
	}, map[string]string{"alice": RoleTeamLead, "bob": RoleMember})

	alice := rowFor(t, rows, "alice")
	bob := rowFor(t, rows, "bob")
	if alice.WeightedScore != 180 || bob.WeightedScore != 90 {
		t.Fatalf("unexpected weighted scores: alice=%.2f bob=%.2f", alice.WeightedScore, bob.WeightedScore)
	}
	if alice.Amount != 180 || bob.Amount != 90 {
		t.Fatalf("unexpected amounts: alice=%.2f bob=%.2f", alice.Amount, bob.Amount)
	}
	assertConserved(t, rows, 270)
}

func TestSplitModels_SingleMemberTakesAll(t *testing.T) {
	contribs := []Contribution{contribution("c1", "alice", "code", 42)}
	roles := map[string]string{"alice": RoleJunior}

	for name, rows := range map[string][]Distribution{
		"linear":   SplitLinear(500, contribs),
		"weighted": SplitWeighted(500, contribs, roles),
		"hybrid":   SplitHybrid(500, 0.7, contribs, roles),
	} {
		if len(rows) != 1 {
			t.Fatalf("%s: expected 1 row, got %d", name, len(rows))
		}
		if rows[0].Amount != 500 || rows[0].Percentage != 100 {
			t.Fatalf("%s: unexpected row %+v", name, rows[0])
		}
	}
}

func TestSplitLinear_RoundingResidualConserved(t *testing.T) {
	rows := SplitLinear(100, []Contribution{
		contribution("c1", "alice", "code", 1),
		contribution("c2", "bob", "code", 1),
		contribution("c3", "carol", "code", 1),
	})
	assertConserved(t, rows, 100)
}

func TestSplitLinear_ZeroScoresFallBackToEqualShares(t *testing.T) {
	rows := SplitLinear(90, []Contribution{
		contribution("c1", "alice", "code", 0),
		contribution("c2", "bob", "code", 0),
		contribution("c3", "carol", "code", 0),
	})
	for _, row := range rows {
		if row.Amount != 30 {
			t.Fatalf("expected equal shares of 30, got %+v", row)
		}
	}
	assertConserved(t, rows, 90)
}

func TestSplitHybrid_BlendsWeightedAndEqualPortions(t *testing.T) {
	// weighted scores: alice 180, bob 90. Weighted pool 700, equal pool 300.
	// alice: 700*(2/3) + 150 = 616.67; bob: 700*(1/3) + 150 = 383.33
	rows := SplitHybrid(1000, 0.7, []Contribution{
		contribution("c1", "alice", "code", 100),
		contribution("c2", "bob", "documentation", 100),
	}, map[string]string{"alice": RoleTeamLead, "bob": RoleMember})

	alice := rowFor(t, rows, "alice")
	bob := rowFor(t, rows, "bob")
	if math.Abs(alice.Amount-616.67) > 0.011 {
		t.Fatalf("unexpected alice amount %.2f", alice.Amount)
	}
	if math.Abs(bob.Amount-383.33) > 0.011 {
		t.Fatalf("unexpected bob amount %.2f", bob.Amount)
	}
	assertConserved(t, rows, 1000)
}

func TestSplitHybrid_ShareClamped(t *testing.T) {
	contribs := []Contribution{
		contribution("c1", "alice", "code", 10),
		contribution("c2", "bob", "code", 30),
	}
	roles := map[string]string{"alice": RoleMember, "bob": RoleMember}

	// Share above 1 behaves as fully weighted.
	rows := SplitHybrid(100, 1.5, contribs, roles)
	if rowFor(t, rows, "bob").Amount != 75 {
		t.Fatalf("expected fully weighted split, got %+v", rows)
	}
	// Share below 0 behaves as fully equal.
	rows = SplitHybrid(100, -1, contribs, roles)
	if rowFor(t, rows, "alice").Amount != 50 {
		t.Fatalf("expected equal split, got %+v", rows)
	}
}

func TestRoundCurrency(t *testing.T) {
	if got := RoundCurrency(10.006, 2); got != 10.01 {
		t.Fatalf("RoundCurrency(10.006, 2) = %v", got)
	}
	if got := RoundCurrency(3.14159, 2); got != 3.14 {
		t.Fatalf("RoundCurrency(3.14159, 2) = %v", got)
	}
	if got := RoundCurrency(5.4, -1); got != 5 {
		t.Fatalf("RoundCurrency with negative places = %v", got)
	}
}

func TestContributionEligibility_PeriodBoundsInclusive(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	c := contribution("c1", "alice", "code", 10)
	c.RecordedAt = start
	if !c.EligibleForPeriod(start, end) {
		t.Fatal("contribution at period start should be eligible")
	}
	c.RecordedAt = end
	if !c.EligibleForPeriod(start, end) {
		t.Fatal("contribution at period end should be eligible")
	}
	c.RecordedAt = end.Add(time.Second)
	if c.EligibleForPeriod(start, end) {
		t.Fatal("contribution after period end should not be eligible")
	}
	c.RecordedAt = start
	c.Verified = false
	if c.EligibleForPeriod(start, end) {
		t.Fatal("unverified contribution should not be eligible")
	}
}
