package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed       = errors.New("validation failed")
	ErrPasswordTooShort       = errors.New("password must be at least 8 characters")
	ErrDisplayNameRequired    = errors.New("display name is required")
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrMemeTitleRequired      = errors.New("meme title is required")
	ErrUnsupportedImageType   = errors.New("unsupported image content type")

	// Authentication and authorization
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email address is already in use")
	ErrForbiddenOperation  = errors.New("operation not allowed for the current user")
	ErrNotTournamentMember = errors.New("user is not a member of this tournament")
	ErrNotTournamentAdmin  = errors.New("user is not an admin of this tournament")
	ErrOwnerImmutable      = errors.New("the tournament owner cannot be removed")

	// Membership
	ErrInvalidJoinCode = errors.New("join code does not match any tournament")

	// Submissions
	ErrSubmissionsClosed = errors.New("tournament is not accepting submissions")
	ErrMemeLimitReached  = errors.New("submission limit reached for this tournament")
	ErrMemeLocked        = errors.New("meme is part of a seeded bracket and cannot be deleted")

	// Bracket lifecycle
	ErrTournamentNotSeedable = errors.New("tournament cannot be seeded in its current status")
	ErrVotingNotOpen         = errors.New("tournament voting is not open")
	ErrTournamentComplete    = errors.New("tournament is already complete")

	// Voting
	ErrMatchupNotVoting  = errors.New("matchup is not open for voting")
	ErrSelfVoteForbidden = errors.New("cannot vote in a matchup containing your own meme")
	ErrInvalidVoteMeme   = errors.New("meme is not part of this matchup")
	ErrResultsHidden     = errors.New("results are hidden until you cast your vote")
	ErrMatchupTied       = errors.New("matchup is tied and needs a tie-break decision")
	ErrInvalidTieBreak   = errors.New("tie-break winner must be one of the matchup memes")
)
