package services

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/brackets"
	"github.com/meme-madness/meme-madness/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bracketFixture struct {
	service        BracketService
	tournamentRepo *fakeTournamentRepo
	memberRepo     *fakeMemberRepo
	memeRepo       *fakeMemeRepo
	roundRepo      *fakeRoundRepo
	matchupRepo    *fakeMatchupRepo

	tournament *models.Tournament
	admin      uuid.UUID
}

func newBracketFixture(t *testing.T, status models.TournamentStatus) *bracketFixture {
	t.Helper()

	admin := uuid.New()
	tournament := &models.Tournament{
		ID:        uuid.New(),
		Name:      "office madness",
		Status:    status,
		JoinCode:  "ABCD2345",
		CreatedBy: admin,
	}

	f := &bracketFixture{
		tournamentRepo: newFakeTournamentRepo(tournament),
		memberRepo:     newFakeMemberRepo(),
		memeRepo:       newFakeMemeRepo(),
		roundRepo:      newFakeRoundRepo(),
		matchupRepo:    newFakeMatchupRepo(),
		tournament:     tournament,
		admin:          admin,
	}
	f.memberRepo.addAdmin(tournament.ID, admin, models.RoleOwner)

	f.service = NewBracketService(
		newStubDB(t),
		f.tournamentRepo,
		f.memberRepo,
		f.memeRepo,
		f.roundRepo,
		f.matchupRepo,
		brackets.NewHub(testLogger()),
		func() *rand.Rand { return rand.New(rand.NewSource(1)) },
		testLogger(),
	)
	return f
}

func (f *bracketFixture) addMemes(n int) []*models.Meme {
	memes := make([]*models.Meme, n)
	for i := range memes {
		memes[i] = &models.Meme{
			ID:           uuid.New(),
			TournamentID: f.tournament.ID,
			OwnerID:      uuid.New(),
			Title:        "meme",
		}
		f.memeRepo.memes[memes[i].ID] = memes[i]
	}
	return memes
}

func TestSeedBracket(t *testing.T) {
	f := newBracketFixture(t, models.TournamentSubmissionOpen)
	f.addMemes(5)

	result, err := f.service.Seed(context.Background(), f.tournament.ID, f.admin)
	require.NoError(t, err)

	assert.Equal(t, brackets.Summary{BracketSize: 8, NumByes: 3, TotalRounds: 3}, result.Summary)

	require.NotNil(t, f.tournament.TotalRounds)
	assert.Equal(t, 3, *f.tournament.TotalRounds)
	assert.Equal(t, models.TournamentVotingOpen, f.tournament.Status)

	require.NotNil(t, result.Round)
	assert.Equal(t, 1, result.Round.RoundNumber)
	assert.Equal(t, models.RoundVoting, result.Round.Status)

	matchups, err := f.matchupRepo.ListByRound(context.Background(), result.Round.ID)
	require.NoError(t, err)
	require.Len(t, matchups, 4)

	byes := 0
	for _, m := range matchups {
		if m.IsBye() {
			byes++
			assert.Equal(t, models.MatchupComplete, m.Status)
		}
	}
	assert.Equal(t, 3, byes)
}

func TestSeedBracketRequiresAdmin(t *testing.T) {
	f := newBracketFixture(t, models.TournamentSubmissionOpen)
	f.addMemes(5)

	_, err := f.service.Seed(context.Background(), f.tournament.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotTournamentAdmin)
}

func TestSeedBracketRejectsWrongStatus(t *testing.T) {
	f := newBracketFixture(t, models.TournamentVotingOpen)
	f.addMemes(5)

	_, err := f.service.Seed(context.Background(), f.tournament.ID, f.admin)
	assert.ErrorIs(t, err, ErrTournamentNotSeedable)
}

func TestSeedBracketRejectsSmallField(t *testing.T) {
	f := newBracketFixture(t, models.TournamentSubmissionOpen)
	f.addMemes(3)

	_, err := f.service.Seed(context.Background(), f.tournament.ID, f.admin)
	assert.ErrorIs(t, err, brackets.ErrInsufficientEntrants)
}

// seedManually installs a voting round with explicit matchups, bypassing the
// engine, so advancement can be tested against a known layout.
func (f *bracketFixture) seedManually(totalRounds, roundNumber int, matchups ...*models.Matchup) *models.Round {
	f.tournament.Status = models.TournamentVotingOpen
	f.tournament.TotalRounds = &totalRounds

	round := &models.Round{
		ID:           uuid.New(),
		TournamentID: f.tournament.ID,
		RoundNumber:  roundNumber,
		Status:       models.RoundVoting,
	}
	f.roundRepo.rounds[round.ID] = round
	for _, m := range matchups {
		m.RoundID = round.ID
		f.matchupRepo.matchups[m.ID] = m
	}
	return round
}

func completeMatchup(position int, memeA, memeB, winner uuid.UUID) *models.Matchup {
	return &models.Matchup{
		ID:       uuid.New(),
		MemeAID:  memeA,
		MemeBID:  &memeB,
		WinnerID: &winner,
		Status:   models.MatchupComplete,
		Position: position,
	}
}

func votingMatchup(position int, memeA, memeB uuid.UUID) *models.Matchup {
	return &models.Matchup{
		ID:       uuid.New(),
		MemeAID:  memeA,
		MemeBID:  &memeB,
		Status:   models.MatchupVoting,
		Position: position,
	}
}

func TestAdvanceReportsIncompleteRound(t *testing.T) {
	f := newBracketFixture(t, models.TournamentVotingOpen)
	memes := f.addMemes(4)

	f.seedManually(2, 1,
		completeMatchup(0, memes[0].ID, memes[1].ID, memes[0].ID),
		votingMatchup(1, memes[2].ID, memes[3].ID),
	)

	_, err := f.service.Advance(context.Background(), f.tournament.ID, f.admin)
	require.Error(t, err)

	var incomplete *brackets.RoundIncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 1, incomplete.RoundNumber)
	assert.Equal(t, 1, incomplete.Remaining)
}

func TestAdvanceCreatesNextRoundAndLinksLineage(t *testing.T) {
	f := newBracketFixture(t, models.TournamentVotingOpen)
	memes := f.addMemes(4)

	m0 := completeMatchup(0, memes[0].ID, memes[1].ID, memes[0].ID)
	m1 := completeMatchup(1, memes[2].ID, memes[3].ID, memes[3].ID)
	round1 := f.seedManually(2, 1, m0, m1)

	result, err := f.service.Advance(context.Background(), f.tournament.ID, f.admin)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CompletedRound)
	assert.Nil(t, result.Champion)
	require.NotNil(t, result.NextRound)
	assert.Equal(t, 2, result.NextRound.RoundNumber)
	assert.Equal(t, models.RoundVoting, result.NextRound.Status)

	// Winners meet in position order.
	nextMatchups, err := f.matchupRepo.ListByRound(context.Background(), result.NextRound.ID)
	require.NoError(t, err)
	require.Len(t, nextMatchups, 1)
	final := nextMatchups[0]
	assert.Equal(t, memes[0].ID, final.MemeAID)
	require.NotNil(t, final.MemeBID)
	assert.Equal(t, memes[3].ID, *final.MemeBID)
	assert.Equal(t, models.MatchupVoting, final.Status)

	// Both source matchups point at the final.
	require.NotNil(t, m0.NextMatchupID)
	require.NotNil(t, m1.NextMatchupID)
	assert.Equal(t, final.ID, *m0.NextMatchupID)
	assert.Equal(t, final.ID, *m1.NextMatchupID)

	assert.Equal(t, models.RoundComplete, round1.Status)
}

func TestAdvanceFinalRoundCrownsChampion(t *testing.T) {
	f := newBracketFixture(t, models.TournamentVotingOpen)
	memes := f.addMemes(2)

	final := completeMatchup(0, memes[0].ID, memes[1].ID, memes[1].ID)
	finalRound := f.seedManually(2, 2, final)

	result, err := f.service.Advance(context.Background(), f.tournament.ID, f.admin)
	require.NoError(t, err)

	assert.Equal(t, 2, result.CompletedRound)
	assert.Nil(t, result.NextRound)
	require.NotNil(t, result.Champion)
	assert.Equal(t, memes[1].ID, result.Champion.ID)

	assert.Equal(t, models.TournamentComplete, f.tournament.Status)
	assert.Equal(t, models.RoundComplete, finalRound.Status)
}

func TestAdvanceRejectsRoundWithoutWinners(t *testing.T) {
	f := newBracketFixture(t, models.TournamentVotingOpen)

	// A final round that somehow holds no matchups has no champion to crown.
	f.seedManually(2, 2)

	_, err := f.service.Advance(context.Background(), f.tournament.ID, f.admin)
	assert.ErrorIs(t, err, brackets.ErrInsufficientWinners)
}

func TestAdvanceRejectsSingleWinnerBeforeFinal(t *testing.T) {
	f := newBracketFixture(t, models.TournamentVotingOpen)
	memes := f.addMemes(2)

	// One winner cannot seed another voting round; only the final may have a
	// single matchup.
	f.seedManually(3, 1,
		completeMatchup(0, memes[0].ID, memes[1].ID, memes[0].ID),
	)

	_, err := f.service.Advance(context.Background(), f.tournament.ID, f.admin)
	assert.ErrorIs(t, err, brackets.ErrInsufficientWinners)
}

func TestAdvanceRejectsCompleteTournament(t *testing.T) {
	f := newBracketFixture(t, models.TournamentComplete)

	_, err := f.service.Advance(context.Background(), f.tournament.ID, f.admin)
	assert.ErrorIs(t, err, ErrTournamentComplete)
}

// A full run from seeding to champion: every round is force-closed in favor
// of meme A and advanced until the tournament completes.
func TestSeedAndAdvanceFullTournament(t *testing.T) {
	f := newBracketFixture(t, models.TournamentSubmissionOpen)
	f.addMemes(8)

	seeded, err := f.service.Seed(context.Background(), f.tournament.ID, f.admin)
	require.NoError(t, err)
	require.Equal(t, 3, seeded.Summary.TotalRounds)

	for roundNum := 1; roundNum <= 3; roundNum++ {
		current, err := f.roundRepo.GetCurrent(context.Background(), f.tournament.ID)
		require.NoError(t, err)
		require.Equal(t, roundNum, current.RoundNumber)

		matchups, err := f.matchupRepo.ListByRound(context.Background(), current.ID)
		require.NoError(t, err)
		for _, m := range matchups {
			if m.Status != models.MatchupComplete {
				winner := m.MemeAID
				m.WinnerID = &winner
				m.Status = models.MatchupComplete
			}
		}

		result, err := f.service.Advance(context.Background(), f.tournament.ID, f.admin)
		require.NoError(t, err)

		if roundNum < 3 {
			require.NotNil(t, result.NextRound)
			assert.Len(t, result.NextRound.Matchups, 8/(1<<(roundNum+1)))
		} else {
			require.NotNil(t, result.Champion)
			assert.Equal(t, models.TournamentComplete, f.tournament.Status)
		}
	}
}
