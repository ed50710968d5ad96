package postgres

import (
	"context"
	"time"

	"github.com/hackdao/governance-service/internal/domain"
	"github.com/hackdao/governance-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repositories struct {
	Proposals   ports.ProposalRepository
	Votes       ports.VoteRepository
	Royalties   ports.RoyaltyRepository
	Snapshots   ports.ContributionSnapshotRepository
	Audit       ports.AuditLogRepository
	Idempotency ports.IdempotencyRepository
	EventDedup  ports.EventDedupRepository
	Outbox      ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Proposals:   &proposalRepository{db: db},
		Votes:       &voteRepository{db: db},
		Royalties:   &royaltyRepository{db: db},
		Snapshots:   &contributionSnapshotRepository{db: db},
		Audit:       &auditLogRepository{db: db},
		Idempotency: &idempotencyRepository{db: db},
		EventDedup:  &eventDedupRepository{db: db},
		Outbox:      &outboxRepository{db: db},
	}
}

type proposalRepository struct {
	db *gorm.DB
}

func (r *proposalRepository) Save(ctx context.Context, proposal domain.Proposal) error {
	row, err := toProposalModel(proposal)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "proposal_id"}}, UpdateAll: true}).
		Create(&row).Error
}

func (r *proposalRepository) GetByID(ctx context.Context, proposalID string) (domain.Proposal, error) {
	var row proposalModel
	if err := r.db.WithContext(ctx).Where("proposal_id = ?", proposalID).Take(&row).Error; err != nil {
		return domain.Proposal{}, translateNotFound(err)
	}
	return toDomainProposal(row)
}

func (r *proposalRepository) List(ctx context.Context, query ports.ProposalQuery) ([]domain.Proposal, int, error) {
	q := r.db.WithContext(ctx).Model(&proposalModel{})
	if query.TeamID != "" {
		q = q.Where("team_id = ?", query.TeamID)
	}
	if query.Status != "" {
		q = q.Where("status = ?", string(query.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []proposalModel
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	items := make([]domain.Proposal, 0, len(rows))
	for _, row := range rows {
		p, err := toDomainProposal(row)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, int(total), nil
}

func (r *proposalRepository) CountByTeams(ctx context.Context, teamIDs []string) (int, error) {
	if len(teamIDs) == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&proposalModel{}).Where("team_id IN ?", teamIDs).Count(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

type voteRepository struct {
	db *gorm.DB
}

func (r *voteRepository) Save(ctx context.Context, vote domain.Vote) error {
	row := toVoteModel(vote)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateVote
		}
		return err
	}
	return nil
}

func (r *voteRepository) ListByProposal(ctx context.Context, proposalID string) ([]domain.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).Where("proposal_id = ?", proposalID).Order("cast_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]domain.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDomainVote(row))
	}
	return items, nil
}

func (r *voteRepository) ListByVoter(ctx context.Context, voterID string) ([]domain.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).Where("voter_id = ?", voterID).Order("cast_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]domain.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDomainVote(row))
	}
	return items, nil
}

type royaltyRepository struct {
	db *gorm.DB
}

func (r *royaltyRepository) Save(ctx context.Context, pool domain.RoyaltyPool) error {
	row, err := toRoyaltyPoolModel(pool)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "pool_id"}}, UpdateAll: true}).
		Create(&row).Error
}

func (r *royaltyRepository) GetByID(ctx context.Context, poolID string) (domain.RoyaltyPool, error) {
	var row royaltyPoolModel
	if err := r.db.WithContext(ctx).Where("pool_id = ?", poolID).Take(&row).Error; err != nil {
		return domain.RoyaltyPool{}, translateNotFound(err)
	}
	return toDomainRoyaltyPool(row)
}

func (r *royaltyRepository) ListByTeam(ctx context.Context, teamID string, limit, offset int) ([]domain.RoyaltyPool, int, error) {
	q := r.db.WithContext(ctx).Model(&royaltyPoolModel{})
	if teamID != "" {
		q = q.Where("team_id = ?", teamID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var rows []royaltyPoolModel
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	items := make([]domain.RoyaltyPool, 0, len(rows))
	for _, row := range rows {
		pool, err := toDomainRoyaltyPool(row)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, pool)
	}
	return items, int(total), nil
}

func (r *royaltyRepository) ListAll(ctx context.Context) ([]domain.RoyaltyPool, error) {
	var rows []royaltyPoolModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]domain.RoyaltyPool, 0, len(rows))
	for _, row := range rows {
		pool, err := toDomainRoyaltyPool(row)
		if err != nil {
			return nil, err
		}
		items = append(items, pool)
	}
	return items, nil
}

type contributionSnapshotRepository struct {
	db *gorm.DB
}

func (r *contributionSnapshotRepository) Upsert(ctx context.Context, contribution domain.Contribution) error {
	row := toContributionModel(contribution)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "contribution_id"}}, UpdateAll: true}).
		Create(&row).Error
}

func (r *contributionSnapshotRepository) Remove(ctx context.Context, contributionID string) error {
	return r.db.WithContext(ctx).Where("contribution_id = ?", contributionID).Delete(&contributionSnapshotModel{}).Error
}

func (r *contributionSnapshotRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.Contribution, error) {
	var rows []contributionSnapshotModel
	if err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Order("recorded_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]domain.Contribution, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDomainContribution(row))
	}
	return items, nil
}

func (r *contributionSnapshotRepository) CountVerifiedByMember(ctx context.Context, teamID, memberID string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&contributionSnapshotModel{}).
		Where("team_id = ? AND member_id = ? AND verified = TRUE", teamID, memberID).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

type auditLogRepository struct {
	db *gorm.DB
}

func (r *auditLogRepository) Append(ctx context.Context, record ports.AuditRecord) error {
	row := auditLogModel{
		LogID:     record.LogID,
		EntityID:  record.EntityID,
		MemberID:  record.MemberID,
		Action:    record.Action,
		Amount:    record.Amount,
		CreatedAt: record.CreatedAt,
	}
	if len(record.Metadata) > 0 {
		raw, err := jsonMarshal(record.Metadata)
		if err != nil {
			return err
		}
		row.Metadata = &raw
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

type idempotencyRepository struct {
	db *gorm.DB
}

func (r *idempotencyRepository) Get(ctx context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ? AND expires_at > ?", key, now).
		Take(&row).Error
	if err != nil {
		if translateNotFound(err) == domain.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	record := ports.IdempotencyRecord{
		Key:          row.IdempotencyKey,
		RequestHash:  row.RequestHash,
		ResponseCode: row.ResponseCode,
		ExpiresAt:    row.ExpiresAt,
	}
	if row.ResponseBody != nil {
		record.ResponseBody = []byte(*row.ResponseBody)
	}
	return &record, nil
}

func (r *idempotencyRepository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	now := time.Now().UTC()
	row := idempotencyModel{
		IdempotencyKey: key,
		RequestHash:    requestHash,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error {
	body := string(responseBody)
	result := r.db.WithContext(ctx).Model(&idempotencyModel{}).
		Where("idempotency_key = ?", key).
		Updates(map[string]interface{}{
			"response_code": responseCode,
			"response_body": &body,
			"updated_at":    at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type eventDedupRepository struct {
	db *gorm.DB
}

func (r *eventDedupRepository) IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&eventDedupModel{}).
		Where("event_id = ? AND expires_at > ?", eventID, now).
		Count(&total).Error
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

func (r *eventDedupRepository) MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error {
	row := eventDedupModel{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&row).Error
}

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, record ports.OutboxRecord) error {
	row, err := toOutboxModel(record)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "record_id"}}, DoNothing: true}).
		Create(&row).Error
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]ports.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		record, mErr := toOutboxRecord(row)
		if mErr != nil {
			return nil, mErr
		}
		items = append(items, record)
	}
	return items, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, recordID string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("record_id = ? AND sent_at IS NULL", recordID).
		Update("sent_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
