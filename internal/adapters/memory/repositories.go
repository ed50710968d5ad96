package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hackdao/governance-service/internal/domain"
	"github.com/hackdao/governance-service/internal/ports"
)

// Repositories is the in-memory store used by tests and by the serverless
// deployment mode, where state resets on every cold start.
type Repositories struct {
	Proposals   *ProposalRepository
	Votes       *VoteRepository
	Royalties   *RoyaltyRepository
	Snapshots   *ContributionSnapshotRepository
	Audit       *AuditLogRepository
	Idempotency *IdempotencyRepository
	EventDedup  *EventDedupRepository
	Outbox      *OutboxRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Proposals:   &ProposalRepository{records: make(map[string]domain.Proposal)},
		Votes:       &VoteRepository{records: make(map[string]domain.Vote)},
		Royalties:   &RoyaltyRepository{records: make(map[string]domain.RoyaltyPool)},
		Snapshots:   &ContributionSnapshotRepository{records: make(map[string]domain.Contribution)},
		Audit:       &AuditLogRepository{records: make([]ports.AuditRecord, 0, 128)},
		Idempotency: &IdempotencyRepository{records: make(map[string]ports.IdempotencyRecord)},
		EventDedup:  &EventDedupRepository{records: make(map[string]dedupRecord)},
		Outbox:      &OutboxRepository{records: make(map[string]ports.OutboxRecord)},
	}
}

type ProposalRepository struct {
	mu      sync.RWMutex
	records map[string]domain.Proposal
}

func (r *ProposalRepository) Save(_ context.Context, proposal domain.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[proposal.ProposalID] = proposal
	return nil
}

func (r *ProposalRepository) GetByID(_ context.Context, proposalID string) (domain.Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	proposal, ok := r.records[proposalID]
	if !ok {
		return domain.Proposal{}, domain.ErrNotFound
	}
	return proposal, nil
}

func (r *ProposalRepository) List(_ context.Context, query ports.ProposalQuery) ([]domain.Proposal, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]domain.Proposal, 0, len(r.records))
	for _, proposal := range r.records {
		if query.TeamID != "" && proposal.TeamID != query.TeamID {
			continue
		}
		if query.Status != "" && proposal.Status != query.Status {
			continue
		}
		items = append(items, proposal)
	}
	slices.SortFunc(items, func(a, b domain.Proposal) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	total := len(items)
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []domain.Proposal{}, total, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]domain.Proposal, end-offset)
	copy(out, items[offset:end])
	return out, total, nil
}

func (r *ProposalRepository) CountByTeams(_ context.Context, teamIDs []string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, proposal := range r.records {
		if slices.Contains(teamIDs, proposal.TeamID) {
			count++
		}
	}
	return count, nil
}

type VoteRepository struct {
	mu      sync.RWMutex
	records map[string]domain.Vote
}

func (r *VoteRepository) Save(_ context.Context, vote domain.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[vote.VoteID] = vote
	return nil
}

func (r *VoteRepository) ListByProposal(_ context.Context, proposalID string) ([]domain.Vote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]domain.Vote, 0)
	for _, vote := range r.records {
		if vote.ProposalID == proposalID {
			items = append(items, vote)
		}
	}
	slices.SortFunc(items, func(a, b domain.Vote) int {
		return a.CastAt.Compare(b.CastAt)
	})
	return items, nil
}

func (r *VoteRepository) ListByVoter(_ context.Context, voterID string) ([]domain.Vote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]domain.Vote, 0)
	for _, vote := range r.records {
		if vote.VoterID == voterID {
			items = append(items, vote)
		}
	}
	slices.SortFunc(items, func(a, b domain.Vote) int {
		return b.CastAt.Compare(a.CastAt)
	})
	return items, nil
}

type RoyaltyRepository struct {
	mu      sync.RWMutex
	records map[string]domain.RoyaltyPool
}

func (r *RoyaltyRepository) Save(_ context.Context, pool domain.RoyaltyPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[pool.PoolID] = pool
	return nil
}

func (r *RoyaltyRepository) GetByID(_ context.Context, poolID string) (domain.RoyaltyPool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pool, ok := r.records[poolID]
	if !ok {
		return domain.RoyaltyPool{}, domain.ErrNotFound
	}
	return pool, nil
}

func (r *RoyaltyRepository) ListByTeam(_ context.Context, teamID string, limit, offset int) ([]domain.RoyaltyPool, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]domain.RoyaltyPool, 0, len(r.records))
	for _, pool := range r.records {
		if teamID != "" && pool.TeamID != teamID {
			continue
		}
		items = append(items, pool)
	}
	slices.SortFunc(items, func(a, b domain.RoyaltyPool) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	total := len(items)
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []domain.RoyaltyPool{}, total, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]domain.RoyaltyPool, end-offset)
	copy(out, items[offset:end])
	return out, total, nil
}

func (r *RoyaltyRepository) ListAll(_ context.Context) ([]domain.RoyaltyPool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]domain.RoyaltyPool, 0, len(r.records))
	for _, pool := range r.records {
		items = append(items, pool)
	}
	slices.SortFunc(items, func(a, b domain.RoyaltyPool) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return items, nil
}

type ContributionSnapshotRepository struct {
	mu      sync.RWMutex
	records map[string]domain.Contribution
}

func (r *ContributionSnapshotRepository) Upsert(_ context.Context, contribution domain.Contribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[contribution.ContributionID] = contribution
	return nil
}

func (r *ContributionSnapshotRepository) Remove(_ context.Context, contributionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, contributionID)
	return nil
}

func (r *ContributionSnapshotRepository) ListByTeam(_ context.Context, teamID string) ([]domain.Contribution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]domain.Contribution, 0)
	for _, c := range r.records {
		if c.TeamID == teamID {
			items = append(items, c)
		}
	}
	slices.SortFunc(items, func(a, b domain.Contribution) int {
		return a.RecordedAt.Compare(b.RecordedAt)
	})
	return items, nil
}

func (r *ContributionSnapshotRepository) CountVerifiedByMember(_ context.Context, teamID, memberID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, c := range r.records {
		if c.TeamID == teamID && c.MemberID == memberID && c.Verified {
			count++
		}
	}
	return count, nil
}

type AuditLogRepository struct {
	mu      sync.Mutex
	records []ports.AuditRecord
}

func (r *AuditLogRepository) Append(_ context.Context, record ports.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

type IdempotencyRepository struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
}

func (r *IdempotencyRepository) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	if now.After(record.ExpiresAt) {
		delete(r.records, key)
		return nil, nil
	}
	out := record
	return &out, nil
}

func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[key]; exists {
		return domain.ErrConflict
	}
	r.records[key] = ports.IdempotencyRecord{Key: key, RequestHash: requestHash, ExpiresAt: expiresAt}
	return nil
}

func (r *IdempotencyRepository) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[key]
	if !ok {
		return domain.ErrNotFound
	}
	record.ResponseCode = responseCode
	record.ResponseBody = responseBody
	r.records[key] = record
	return nil
}

type dedupRecord struct {
	eventType string
	expiresAt time.Time
}

type EventDedupRepository struct {
	mu      sync.Mutex
	records map[string]dedupRecord
}

func (r *EventDedupRepository) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[eventID]
	if !ok {
		return false, nil
	}
	if now.After(record.expiresAt) {
		delete(r.records, eventID)
		return false, nil
	}
	return true, nil
}

func (r *EventDedupRepository) MarkProcessed(_ context.Context, eventID, eventType string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[eventID] = dedupRecord{eventType: eventType, expiresAt: expiresAt}
	return nil
}

type OutboxRepository struct {
	mu      sync.Mutex
	records map[string]ports.OutboxRecord
	order   []string
}

func (r *OutboxRepository) Enqueue(_ context.Context, record ports.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.RecordID]; !exists {
		r.order = append(r.order, record.RecordID)
	}
	r.records[record.RecordID] = record
	return nil
}

func (r *OutboxRepository) ListPending(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.OutboxRecord, 0, limit)
	for _, id := range r.order {
		record := r.records[id]
		if record.SentAt != nil {
			continue
		}
		out = append(out, record)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkSent(_ context.Context, recordID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[recordID]
	if !ok {
		return domain.ErrNotFound
	}
	record.SentAt = &at
	r.records[recordID] = record
	return nil
}
