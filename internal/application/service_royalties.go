package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hackdao/governance-service/internal/contracts"
	"github.com/hackdao/governance-service/internal/domain"
	"github.com/hackdao/governance-service/internal/ports"
)

const reportCacheKeyPrefix = "governance:report:"

func (s *Service) CreateRoyaltyPool(ctx context.Context, actor Actor, input CreatePoolInput) (domain.RoyaltyPool, error) {
	if err := s.requireSubject(actor); err != nil {
		return domain.RoyaltyPool{}, err
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return domain.RoyaltyPool{}, domain.ErrIdempotencyRequired
	}
	return s.createPoolWithKey(ctx, input, actor.IdempotencyKey)
}

func (s *Service) createPoolWithKey(ctx context.Context, input CreatePoolInput, idempotencyKey string) (domain.RoyaltyPool, error) {
	if input.Currency == "" {
		input.Currency = "USD"
	}
	if err := domain.ValidatePoolInput(input.Name, input.TeamID, input.TotalAmount, input.Model, input.PeriodStart, input.PeriodEnd); err != nil {
		return domain.RoyaltyPool{}, err
	}
	if _, err := s.teams.GetRoster(ctx, input.TeamID); err != nil {
		return domain.RoyaltyPool{}, fmt.Errorf("team roster lookup: %w", err)
	}

	requestHash := hashPayload(input)
	now := s.nowFn()
	existing, err := s.idempotency.Get(ctx, idempotencyKey, now)
	if err != nil {
		return domain.RoyaltyPool{}, err
	}
	if existing != nil {
		if existing.RequestHash != requestHash {
			return domain.RoyaltyPool{}, domain.ErrIdempotencyConflict
		}
		var cached domain.RoyaltyPool
		if err := json.Unmarshal(existing.ResponseBody, &cached); err != nil {
			return domain.RoyaltyPool{}, err
		}
		return cached, nil
	}
	if err := s.idempotency.Reserve(ctx, idempotencyKey, requestHash, now.Add(s.cfg.IdempotencyTTL)); err != nil {
		return domain.RoyaltyPool{}, err
	}

	pool := domain.RoyaltyPool{
		PoolID:      uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		TeamID:      input.TeamID,
		TotalAmount: domain.RoundCurrency(input.TotalAmount, 2),
		Currency:    input.Currency,
		Model:       input.Model,
		Status:      domain.PoolStatusPending,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		CreatedAt:   now,
	}
	if err := s.royalties.Save(ctx, pool); err != nil {
		return domain.RoyaltyPool{}, err
	}
	if err := s.appendAudit(ctx, ports.AuditRecord{
		LogID:    uuid.NewString(),
		EntityID: pool.PoolID,
		Action:   "royalty_pool_created",
		Amount:   pool.TotalAmount,
		Metadata: map[string]string{"team_id": pool.TeamID, "model": string(pool.Model)},
	}); err != nil {
		return domain.RoyaltyPool{}, err
	}
	if err := s.enqueueRoyaltyPoolCreated(ctx, pool); err != nil {
		return domain.RoyaltyPool{}, err
	}
	if err := s.FlushOutbox(ctx); err != nil {
		return domain.RoyaltyPool{}, err
	}

	payload, err := json.Marshal(pool)
	if err != nil {
		return domain.RoyaltyPool{}, err
	}
	if err := s.idempotency.Complete(ctx, idempotencyKey, 201, payload, s.nowFn()); err != nil {
		return domain.RoyaltyPool{}, err
	}
	return pool, nil
}

// CalculateDistribution computes the payout split for a pool from the
// eligible contribution set. Distributions are replaced, never merged, and a
// distributed pool is never recalculated.
func (s *Service) CalculateDistribution(ctx context.Context, actor Actor, poolID string) (domain.RoyaltyPool, error) {
	if err := s.requireSubject(actor); err != nil {
		return domain.RoyaltyPool{}, err
	}
	poolID = strings.TrimSpace(poolID)
	unlock := s.entityLocks.Lock("pool:" + poolID)
	defer unlock()

	pool, err := s.royalties.GetByID(ctx, poolID)
	if err != nil {
		return domain.RoyaltyPool{}, err
	}
	if pool.Status == domain.PoolStatusDistributed {
		return domain.RoyaltyPool{}, domain.ErrInvalidState
	}

	contribs, err := s.eligibleContributions(ctx, pool)
	if err != nil {
		return domain.RoyaltyPool{}, err
	}
	if len(contribs) == 0 {
		return domain.RoyaltyPool{}, domain.ErrNoContributions
	}

	roleOf, err := s.rolesFor(ctx, contribs)
	if err != nil {
		return domain.RoyaltyPool{}, err
	}

	var rows []domain.Distribution
	switch pool.Model {
	case domain.ModelLinear:
		rows = domain.SplitLinear(pool.TotalAmount, contribs)
	case domain.ModelWeighted:
		rows = domain.SplitWeighted(pool.TotalAmount, contribs, roleOf)
	case domain.ModelMilestone:
		// Milestone-to-contribution association is not tracked yet, so the
		// milestone model falls back to the linear split.
		rows = domain.SplitLinear(pool.TotalAmount, contribs)
	case domain.ModelHybrid:
		rows = domain.SplitHybrid(pool.TotalAmount, s.cfg.HybridWeightedShare, contribs, roleOf)
	default:
		return domain.RoyaltyPool{}, domain.ErrInvalidInput
	}

	now := s.nowFn()
	pool.Distributions = rows
	pool.Status = domain.PoolStatusCalculated
	pool.CalculatedAt = &now
	if err := s.royalties.Save(ctx, pool); err != nil {
		return domain.RoyaltyPool{}, err
	}
	s.dropReportCache(ctx, pool.PoolID)

	if err := s.appendAudit(ctx, ports.AuditRecord{
		LogID:    uuid.NewString(),
		EntityID: pool.PoolID,
		Action:   "royalty_calculated",
		Amount:   pool.TotalAmount,
		Metadata: map[string]string{"model": string(pool.Model), "members": fmt.Sprintf("%d", len(rows))},
	}); err != nil {
		return domain.RoyaltyPool{}, err
	}
	if err := s.enqueueRoyaltyCalculated(ctx, pool, now); err != nil {
		return domain.RoyaltyPool{}, err
	}
	if err := s.FlushOutbox(ctx); err != nil {
		return domain.RoyaltyPool{}, err
	}
	return pool, nil
}

// eligibleContributions prefers snapshots consumed from the contribution
// ledger's event stream and falls back to a direct ledger read.
func (s *Service) eligibleContributions(ctx context.Context, pool domain.RoyaltyPool) ([]domain.Contribution, error) {
	snapshots, err := s.snapshots.ListByTeam(ctx, pool.TeamID)
	if err != nil {
		return nil, err
	}
	eligible := filterEligible(snapshots, pool)
	if len(eligible) > 0 {
		return eligible, nil
	}
	ledger, err := s.contributions.ListVerified(ctx, pool.TeamID, pool.PeriodStart, pool.PeriodEnd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("contribution ledger lookup: %w", err)
	}
	return filterEligible(ledger, pool), nil
}

func filterEligible(contribs []domain.Contribution, pool domain.RoyaltyPool) []domain.Contribution {
	out := make([]domain.Contribution, 0, len(contribs))
	for _, c := range contribs {
		if c.TeamID != pool.TeamID {
			continue
		}
		if c.EligibleForPeriod(pool.PeriodStart, pool.PeriodEnd) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Service) rolesFor(ctx context.Context, contribs []domain.Contribution) (map[string]string, error) {
	roleOf := make(map[string]string)
	for _, c := range contribs {
		if _, seen := roleOf[c.MemberID]; seen {
			continue
		}
		profile, err := s.members.GetMember(ctx, c.MemberID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				roleOf[c.MemberID] = domain.RoleMember
				continue
			}
			return nil, fmt.Errorf("member lookup: %w", err)
		}
		roleOf[c.MemberID] = profile.Role
	}
	return roleOf, nil
}

// ExecuteDistribution commits the settlement record. Rows without a payout
// address are skipped with a warning rather than failing the pool; the
// actual fund movement is driven by the caller from the resulting report.
func (s *Service) ExecuteDistribution(ctx context.Context, actor Actor, poolID string) (domain.RoyaltyPool, error) {
	if err := s.requireSubject(actor); err != nil {
		return domain.RoyaltyPool{}, err
	}
	poolID = strings.TrimSpace(poolID)
	unlock := s.entityLocks.Lock("pool:" + poolID)
	defer unlock()

	pool, err := s.royalties.GetByID(ctx, poolID)
	if err != nil {
		return domain.RoyaltyPool{}, err
	}
	if pool.Status != domain.PoolStatusCalculated {
		return domain.RoyaltyPool{}, domain.ErrInvalidState
	}
	if pool.DistributedAt != nil {
		return domain.RoyaltyPool{}, domain.ErrInvalidState
	}

	settled, skipped := 0, 0
	for i := range pool.Distributions {
		row := &pool.Distributions[i]
		profile, err := s.members.GetMember(ctx, row.MemberID)
		if err != nil || strings.TrimSpace(profile.PayoutAddress) == "" {
			slog.Default().WarnContext(ctx, "payout address missing, row skipped",
				"module", "royalties",
				"operation", "execute_distribution",
				"pool_id", pool.PoolID,
				"member_id", row.MemberID,
			)
			skipped++
			continue
		}
		row.Settled = true
		settled++
	}

	now := s.nowFn()
	pool.Status = domain.PoolStatusDistributed
	pool.DistributedAt = &now
	if err := s.royalties.Save(ctx, pool); err != nil {
		return domain.RoyaltyPool{}, err
	}
	s.dropReportCache(ctx, pool.PoolID)

	if err := s.appendAudit(ctx, ports.AuditRecord{
		LogID:    uuid.NewString(),
		EntityID: pool.PoolID,
		Action:   "royalty_distributed",
		Amount:   pool.TotalAmount,
		Metadata: map[string]string{"settled": fmt.Sprintf("%d", settled), "skipped": fmt.Sprintf("%d", skipped)},
	}); err != nil {
		return domain.RoyaltyPool{}, err
	}
	if err := s.enqueueRoyaltyDistributed(ctx, pool, settled, skipped, now); err != nil {
		return domain.RoyaltyPool{}, err
	}
	if err := s.FlushOutbox(ctx); err != nil {
		return domain.RoyaltyPool{}, err
	}
	return pool, nil
}

// GetDistributionReport joins distribution rows with member names and payout
// addresses for display. Read-only; served from cache when possible.
func (s *Service) GetDistributionReport(ctx context.Context, actor Actor, poolID string) (DistributionReport, error) {
	if err := s.requireSubject(actor); err != nil {
		return DistributionReport{}, err
	}
	poolID = strings.TrimSpace(poolID)

	cacheKey := reportCacheKeyPrefix + poolID
	if s.reportCache != nil {
		if cached, err := s.reportCache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var report DistributionReport
			if err := json.Unmarshal(cached, &report); err == nil {
				return report, nil
			}
		}
	}

	pool, err := s.royalties.GetByID(ctx, poolID)
	if err != nil {
		return DistributionReport{}, err
	}
	report := DistributionReport{
		PoolID:        pool.PoolID,
		Name:          pool.Name,
		TeamID:        pool.TeamID,
		Status:        pool.Status,
		TotalAmount:   pool.TotalAmount,
		Currency:      pool.Currency,
		Model:         pool.Model,
		Rows:          make([]ReportRow, 0, len(pool.Distributions)),
		CalculatedAt:  pool.CalculatedAt,
		DistributedAt: pool.DistributedAt,
	}
	for _, row := range pool.Distributions {
		view := ReportRow{
			MemberID:          row.MemberID,
			Amount:            row.Amount,
			Percentage:        row.Percentage,
			ContributionCount: row.ContributionCount,
			ContributionIDs:   row.ContributionIDs,
			Settled:           row.Settled,
		}
		if profile, err := s.members.GetMember(ctx, row.MemberID); err == nil {
			view.MemberName = profile.Name
			view.PayoutAddress = profile.PayoutAddress
		}
		report.Rows = append(report.Rows, view)
	}

	if s.reportCache != nil && pool.Status != domain.PoolStatusPending {
		if payload, err := json.Marshal(report); err == nil {
			_ = s.reportCache.Set(ctx, cacheKey, payload, s.cfg.ReportCacheTTL)
		}
	}
	return report, nil
}

// GetMemberTotalRoyalties scans every pool and sums the member's rows. An
// explicit O(n) contract; pool counts stay small at this scale.
func (s *Service) GetMemberTotalRoyalties(ctx context.Context, actor Actor, memberID string) (MemberRoyalties, error) {
	if err := s.requireSubject(actor); err != nil {
		return MemberRoyalties{}, err
	}
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return MemberRoyalties{}, domain.ErrInvalidInput
	}
	pools, err := s.royalties.ListAll(ctx)
	if err != nil {
		return MemberRoyalties{}, err
	}
	out := MemberRoyalties{MemberID: memberID, Pools: []MemberPoolRoyalty{}}
	for _, pool := range pools {
		for _, row := range pool.Distributions {
			if row.MemberID != memberID {
				continue
			}
			out.TotalAmount += row.Amount
			out.Pools = append(out.Pools, MemberPoolRoyalty{
				PoolID: pool.PoolID,
				Name:   pool.Name,
				Amount: row.Amount,
				Status: pool.Status,
			})
		}
	}
	out.TotalAmount = domain.RoundCurrency(out.TotalAmount, 2)
	return out, nil
}

func (s *Service) ListRoyaltyPools(ctx context.Context, actor Actor, teamID string, limit, offset int) (PoolListOutput, error) {
	if err := s.requireSubject(actor); err != nil {
		return PoolListOutput{}, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.royalties.ListByTeam(ctx, strings.TrimSpace(teamID), limit, offset)
	if err != nil {
		return PoolListOutput{}, err
	}
	return PoolListOutput{
		Items: items,
		Pagination: contracts.Pagination{
			Limit:  limit,
			Offset: offset,
			Total:  total,
		},
	}, nil
}

func (s *Service) dropReportCache(ctx context.Context, poolID string) {
	if s.reportCache == nil {
		return
	}
	_ = s.reportCache.Delete(ctx, reportCacheKeyPrefix+poolID)
}
