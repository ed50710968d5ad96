package domain

const CanonicalEventClassDomain = "domain"

const (
	EventProposalCreated    = "proposal.created"
	EventVoteCast           = "vote.cast"
	EventProposalPassed     = "proposal.passed"
	EventProposalRejected   = "proposal.rejected"
	EventProposalExpired    = "proposal.expired"
	EventProposalExecuted   = "proposal.executed"
	EventRoyaltyPoolCreated = "royalty.pool_created"
	EventRoyaltyCalculated  = "royalty.calculated"
	EventRoyaltyDistributed = "royalty.distributed"

	EventContributionVerified = "contribution.verified"
	EventContributionRevoked  = "contribution.revoked"
)
