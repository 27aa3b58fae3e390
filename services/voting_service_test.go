package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/brackets"
	"github.com/meme-madness/meme-madness/models"
	"github.com/meme-madness/meme-madness/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type votingFixture struct {
	service     VotingService
	memberRepo  *fakeMemberRepo
	memeRepo    *fakeMemeRepo
	voteRepo    *fakeVoteRepo
	matchupRepo *fakeMatchupRepo

	tournamentID uuid.UUID
	round        *models.Round
	matchup      *models.Matchup
	memeA        *models.Meme
	memeB        *models.Meme
	admin        uuid.UUID
}

func newVotingFixture(t *testing.T) *votingFixture {
	t.Helper()

	tournamentID := uuid.New()
	admin := uuid.New()

	memeA := &models.Meme{ID: uuid.New(), TournamentID: tournamentID, OwnerID: uuid.New(), Title: "a"}
	memeB := &models.Meme{ID: uuid.New(), TournamentID: tournamentID, OwnerID: uuid.New(), Title: "b"}

	round := &models.Round{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		RoundNumber:  1,
		Status:       models.RoundVoting,
	}
	memeBID := memeB.ID
	matchup := &models.Matchup{
		ID:      uuid.New(),
		RoundID: round.ID,
		MemeAID: memeA.ID,
		MemeBID: &memeBID,
		Status:  models.MatchupVoting,
	}

	f := &votingFixture{
		memberRepo:   newFakeMemberRepo(),
		memeRepo:     newFakeMemeRepo(memeA, memeB),
		voteRepo:     newFakeVoteRepo(),
		matchupRepo:  newFakeMatchupRepo(matchup),
		tournamentID: tournamentID,
		round:        round,
		matchup:      matchup,
		memeA:        memeA,
		memeB:        memeB,
		admin:        admin,
	}
	f.memberRepo.addAdmin(tournamentID, admin, models.RoleOwner)
	f.memberRepo.addMember(tournamentID, memeA.OwnerID)
	f.memberRepo.addMember(tournamentID, memeB.OwnerID)

	f.service = NewVotingService(
		newStubDB(t),
		f.matchupRepo,
		newFakeRoundRepo(round),
		f.voteRepo,
		f.memeRepo,
		f.memberRepo,
		brackets.NewHub(testLogger()),
		testLogger(),
	)
	return f
}

func (f *votingFixture) newVoter() uuid.UUID {
	voter := uuid.New()
	f.memberRepo.addMember(f.tournamentID, voter)
	return voter
}

func TestCastVote(t *testing.T) {
	f := newVotingFixture(t)
	voter := f.newVoter()

	vote, err := f.service.CastVote(context.Background(), f.matchup.ID, voter, f.memeA.ID)
	require.NoError(t, err)
	assert.Equal(t, f.matchup.ID, vote.MatchupID)
	assert.Equal(t, f.memeA.ID, vote.MemeID)
}

func TestCastVoteRejectsDuplicates(t *testing.T) {
	f := newVotingFixture(t)
	voter := f.newVoter()

	_, err := f.service.CastVote(context.Background(), f.matchup.ID, voter, f.memeA.ID)
	require.NoError(t, err)

	_, err = f.service.CastVote(context.Background(), f.matchup.ID, voter, f.memeB.ID)
	assert.ErrorIs(t, err, repositories.ErrDuplicateVote)
}

func TestCastVoteRejectsNonMembers(t *testing.T) {
	f := newVotingFixture(t)

	_, err := f.service.CastVote(context.Background(), f.matchup.ID, uuid.New(), f.memeA.ID)
	assert.ErrorIs(t, err, ErrNotTournamentMember)
}

func TestCastVoteRejectsOwners(t *testing.T) {
	f := newVotingFixture(t)

	// Neither submitter may vote in their own matchup, whichever side they
	// would pick.
	_, err := f.service.CastVote(context.Background(), f.matchup.ID, f.memeA.OwnerID, f.memeB.ID)
	assert.ErrorIs(t, err, ErrSelfVoteForbidden)

	_, err = f.service.CastVote(context.Background(), f.matchup.ID, f.memeB.OwnerID, f.memeB.ID)
	assert.ErrorIs(t, err, ErrSelfVoteForbidden)
}

func TestCastVoteRejectsForeignMeme(t *testing.T) {
	f := newVotingFixture(t)
	voter := f.newVoter()

	_, err := f.service.CastVote(context.Background(), f.matchup.ID, voter, uuid.New())
	assert.ErrorIs(t, err, ErrInvalidVoteMeme)
}

func TestCastVoteRejectsClosedMatchup(t *testing.T) {
	f := newVotingFixture(t)
	voter := f.newVoter()
	f.matchup.Status = models.MatchupComplete

	_, err := f.service.CastVote(context.Background(), f.matchup.ID, voter, f.memeA.ID)
	assert.ErrorIs(t, err, ErrMatchupNotVoting)
}

func TestResultsHiddenUntilVoteCast(t *testing.T) {
	f := newVotingFixture(t)
	voter := f.newVoter()

	_, err := f.service.Results(context.Background(), f.matchup.ID, voter)
	assert.ErrorIs(t, err, ErrResultsHidden)

	_, err = f.service.CastVote(context.Background(), f.matchup.ID, voter, f.memeA.ID)
	require.NoError(t, err)

	results, err := f.service.Results(context.Background(), f.matchup.ID, voter)
	require.NoError(t, err)
	assert.Equal(t, 1, results.VotesA)
	assert.Equal(t, 0, results.VotesB)
	assert.Equal(t, 1, results.Total)
}

func TestResultsVisibleToCompetitorOwners(t *testing.T) {
	f := newVotingFixture(t)
	_, err := f.service.CastVote(context.Background(), f.matchup.ID, f.newVoter(), f.memeB.ID)
	require.NoError(t, err)

	// Submitters can never vote, so the gate does not apply to them.
	results, err := f.service.Results(context.Background(), f.matchup.ID, f.memeA.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, 1, results.VotesB)
}

func TestResultsPublicOnceComplete(t *testing.T) {
	f := newVotingFixture(t)
	voter := f.newVoter()
	winner := f.memeA.ID
	f.matchup.Status = models.MatchupComplete
	f.matchup.WinnerID = &winner

	results, err := f.service.Results(context.Background(), f.matchup.ID, voter)
	require.NoError(t, err)
	require.NotNil(t, results.WinnerID)
	assert.Equal(t, winner, *results.WinnerID)
}

func TestCloseMatchupByMajority(t *testing.T) {
	f := newVotingFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.service.CastVote(context.Background(), f.matchup.ID, f.newVoter(), f.memeB.ID)
		require.NoError(t, err)
	}
	_, err := f.service.CastVote(context.Background(), f.matchup.ID, f.newVoter(), f.memeA.ID)
	require.NoError(t, err)

	matchup, err := f.service.CloseMatchup(context.Background(), f.matchup.ID, f.admin)
	require.NoError(t, err)
	require.NotNil(t, matchup.WinnerID)
	assert.Equal(t, f.memeB.ID, *matchup.WinnerID)
	assert.Equal(t, models.MatchupComplete, matchup.Status)
}

func TestCloseMatchupReportsTie(t *testing.T) {
	f := newVotingFixture(t)

	// A zero-vote matchup is a tie too.
	_, err := f.service.CloseMatchup(context.Background(), f.matchup.ID, f.admin)
	assert.ErrorIs(t, err, ErrMatchupTied)

	_, err = f.service.CastVote(context.Background(), f.matchup.ID, f.newVoter(), f.memeA.ID)
	require.NoError(t, err)
	_, err = f.service.CastVote(context.Background(), f.matchup.ID, f.newVoter(), f.memeB.ID)
	require.NoError(t, err)

	_, err = f.service.CloseMatchup(context.Background(), f.matchup.ID, f.admin)
	assert.ErrorIs(t, err, ErrMatchupTied)
}

func TestCloseMatchupRequiresAdmin(t *testing.T) {
	f := newVotingFixture(t)

	_, err := f.service.CloseMatchup(context.Background(), f.matchup.ID, f.newVoter())
	assert.ErrorIs(t, err, ErrNotTournamentAdmin)
}

func TestBreakTie(t *testing.T) {
	f := newVotingFixture(t)

	matchup, err := f.service.BreakTie(context.Background(), f.matchup.ID, f.admin, f.memeB.ID)
	require.NoError(t, err)
	require.NotNil(t, matchup.WinnerID)
	assert.Equal(t, f.memeB.ID, *matchup.WinnerID)
	assert.Equal(t, models.MatchupComplete, matchup.Status)
}

func TestBreakTieRejectsForeignWinner(t *testing.T) {
	f := newVotingFixture(t)

	_, err := f.service.BreakTie(context.Background(), f.matchup.ID, f.admin, uuid.New())
	assert.ErrorIs(t, err, ErrInvalidTieBreak)
}

func TestCloseAllMatchupsSkipsTies(t *testing.T) {
	f := newVotingFixture(t)

	memeC := &models.Meme{ID: uuid.New(), TournamentID: f.tournamentID, OwnerID: uuid.New(), Title: "c"}
	memeD := &models.Meme{ID: uuid.New(), TournamentID: f.tournamentID, OwnerID: uuid.New(), Title: "d"}
	f.memeRepo.memes[memeC.ID] = memeC
	f.memeRepo.memes[memeD.ID] = memeD

	memeDID := memeD.ID
	tied := &models.Matchup{
		ID:       uuid.New(),
		RoundID:  f.round.ID,
		MemeAID:  memeC.ID,
		MemeBID:  &memeDID,
		Status:   models.MatchupVoting,
		Position: 1,
	}
	f.matchupRepo.matchups[tied.ID] = tied

	_, err := f.service.CastVote(context.Background(), f.matchup.ID, f.newVoter(), f.memeA.ID)
	require.NoError(t, err)

	result, err := f.service.CloseAllMatchups(context.Background(), f.tournamentID, f.admin)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{f.matchup.ID}, result.Closed)
	assert.Equal(t, []uuid.UUID{tied.ID}, result.Tied)
	assert.Equal(t, models.MatchupComplete, f.matchup.Status)
	assert.Equal(t, models.MatchupVoting, tied.Status)
}
