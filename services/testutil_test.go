package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/models"
	"github.com/meme-madness/meme-madness/repositories"
)

// The services open transactions on *sql.DB but every statement goes through
// the repository fakes, so a no-op driver is all the tests need: Begin,
// Commit, and Rollback succeed and nothing else is ever called.

type stubConnector struct{}

func (stubConnector) Connect(context.Context) (driver.Conn, error) { return &stubConn{}, nil }
func (stubConnector) Driver() driver.Driver                        { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return &stubConn{}, nil }

type stubConn struct{}

func (*stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (*stubConn) Close() error                        { return nil }
func (*stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func newStubDB(t *testing.T) *sql.DB {
	t.Helper()
	db := sql.OpenDB(stubConnector{})
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- repository fakes ---

type fakeTournamentRepo struct {
	tournaments map[uuid.UUID]*models.Tournament
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	repo := &fakeTournamentRepo{tournaments: make(map[uuid.UUID]*models.Tournament)}
	for _, tr := range tournaments {
		repo.tournaments[tr.ID] = tr
	}
	return repo
}

func (f *fakeTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, tournament *models.Tournament) error {
	f.tournaments[tournament.ID] = tournament
	return nil
}

func (f *fakeTournamentRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return tournament, nil
}

func (f *fakeTournamentRepo) GetByJoinCode(_ context.Context, joinCode string) (*models.Tournament, error) {
	for _, tournament := range f.tournaments {
		if tournament.JoinCode == joinCode {
			return tournament, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (f *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID, status models.TournamentStatus) error {
	tournament, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.Status = status
	return nil
}

func (f *fakeTournamentRepo) UpdateSeedInfo(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID, totalRounds int, status models.TournamentStatus) error {
	tournament, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.TotalRounds = &totalRounds
	tournament.Status = status
	return nil
}

func (f *fakeTournamentRepo) UpdateJoinCode(_ context.Context, id uuid.UUID, joinCode string) error {
	tournament, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.JoinCode = joinCode
	return nil
}

type fakeMemberRepo struct {
	members map[uuid.UUID]map[uuid.UUID]*models.TournamentMember
	admins  map[uuid.UUID]map[uuid.UUID]*models.TournamentAdmin
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{
		members: make(map[uuid.UUID]map[uuid.UUID]*models.TournamentMember),
		admins:  make(map[uuid.UUID]map[uuid.UUID]*models.TournamentAdmin),
	}
}

func (f *fakeMemberRepo) addAdmin(tournamentID, userID uuid.UUID, role models.AdminRole) {
	if f.admins[tournamentID] == nil {
		f.admins[tournamentID] = make(map[uuid.UUID]*models.TournamentAdmin)
	}
	f.admins[tournamentID][userID] = &models.TournamentAdmin{
		ID: uuid.New(), TournamentID: tournamentID, UserID: userID, Role: role,
	}
}

func (f *fakeMemberRepo) addMember(tournamentID, userID uuid.UUID) {
	if f.members[tournamentID] == nil {
		f.members[tournamentID] = make(map[uuid.UUID]*models.TournamentMember)
	}
	f.members[tournamentID][userID] = &models.TournamentMember{
		ID: uuid.New(), TournamentID: tournamentID, UserID: userID,
	}
}

func (f *fakeMemberRepo) AddMember(_ context.Context, member *models.TournamentMember) error {
	if f.members[member.TournamentID] != nil {
		if _, ok := f.members[member.TournamentID][member.UserID]; ok {
			return repositories.ErrMemberAlreadyExists
		}
	}
	f.addMember(member.TournamentID, member.UserID)
	return nil
}

func (f *fakeMemberRepo) IsMember(_ context.Context, tournamentID, userID uuid.UUID) (bool, error) {
	_, ok := f.members[tournamentID][userID]
	return ok, nil
}

func (f *fakeMemberRepo) ListMembers(_ context.Context, tournamentID uuid.UUID) ([]*models.TournamentMember, error) {
	members := make([]*models.TournamentMember, 0, len(f.members[tournamentID]))
	for _, m := range f.members[tournamentID] {
		members = append(members, m)
	}
	return members, nil
}

func (f *fakeMemberRepo) RemoveMember(_ context.Context, tournamentID, userID uuid.UUID) error {
	if _, ok := f.members[tournamentID][userID]; !ok {
		return repositories.ErrMemberNotFound
	}
	delete(f.members[tournamentID], userID)
	return nil
}

func (f *fakeMemberRepo) AddAdmin(_ context.Context, _ repositories.SQLExecutor, admin *models.TournamentAdmin) error {
	if f.admins[admin.TournamentID] != nil {
		if _, ok := f.admins[admin.TournamentID][admin.UserID]; ok {
			return repositories.ErrAdminAlreadyAssigned
		}
	}
	if f.admins[admin.TournamentID] == nil {
		f.admins[admin.TournamentID] = make(map[uuid.UUID]*models.TournamentAdmin)
	}
	f.admins[admin.TournamentID][admin.UserID] = admin
	return nil
}

func (f *fakeMemberRepo) GetAdminRole(_ context.Context, tournamentID, userID uuid.UUID) (models.AdminRole, error) {
	admin, ok := f.admins[tournamentID][userID]
	if !ok {
		return "", repositories.ErrAdminNotFound
	}
	return admin.Role, nil
}

func (f *fakeMemberRepo) ListAdmins(_ context.Context, tournamentID uuid.UUID) ([]*models.TournamentAdmin, error) {
	admins := make([]*models.TournamentAdmin, 0, len(f.admins[tournamentID]))
	for _, a := range f.admins[tournamentID] {
		admins = append(admins, a)
	}
	return admins, nil
}

func (f *fakeMemberRepo) RemoveAdmin(_ context.Context, tournamentID, userID uuid.UUID) error {
	if _, ok := f.admins[tournamentID][userID]; !ok {
		return repositories.ErrAdminNotFound
	}
	delete(f.admins[tournamentID], userID)
	return nil
}

type fakeMemeRepo struct {
	memes map[uuid.UUID]*models.Meme
}

func newFakeMemeRepo(memes ...*models.Meme) *fakeMemeRepo {
	repo := &fakeMemeRepo{memes: make(map[uuid.UUID]*models.Meme)}
	for _, m := range memes {
		repo.memes[m.ID] = m
	}
	return repo
}

func (f *fakeMemeRepo) Create(_ context.Context, meme *models.Meme) error {
	f.memes[meme.ID] = meme
	return nil
}

func (f *fakeMemeRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Meme, error) {
	meme, ok := f.memes[id]
	if !ok {
		return nil, repositories.ErrMemeNotFound
	}
	return meme, nil
}

func (f *fakeMemeRepo) ListByTournament(_ context.Context, tournamentID uuid.UUID) ([]*models.Meme, error) {
	var memes []*models.Meme
	for _, m := range f.memes {
		if m.TournamentID == tournamentID {
			memes = append(memes, m)
		}
	}
	return memes, nil
}

func (f *fakeMemeRepo) ListByOwner(_ context.Context, tournamentID, ownerID uuid.UUID) ([]*models.Meme, error) {
	var memes []*models.Meme
	for _, m := range f.memes {
		if m.TournamentID == tournamentID && m.OwnerID == ownerID {
			memes = append(memes, m)
		}
	}
	return memes, nil
}

func (f *fakeMemeRepo) CountByOwner(ctx context.Context, tournamentID, ownerID uuid.UUID) (int, error) {
	memes, _ := f.ListByOwner(ctx, tournamentID, ownerID)
	return len(memes), nil
}

func (f *fakeMemeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.memes[id]; !ok {
		return repositories.ErrMemeNotFound
	}
	delete(f.memes, id)
	return nil
}

type fakeRoundRepo struct {
	rounds map[uuid.UUID]*models.Round
}

func newFakeRoundRepo(rounds ...*models.Round) *fakeRoundRepo {
	repo := &fakeRoundRepo{rounds: make(map[uuid.UUID]*models.Round)}
	for _, r := range rounds {
		repo.rounds[r.ID] = r
	}
	return repo
}

func (f *fakeRoundRepo) Create(_ context.Context, _ repositories.SQLExecutor, round *models.Round) error {
	f.rounds[round.ID] = round
	return nil
}

func (f *fakeRoundRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Round, error) {
	round, ok := f.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	return round, nil
}

func (f *fakeRoundRepo) GetCurrent(_ context.Context, tournamentID uuid.UUID) (*models.Round, error) {
	var current *models.Round
	for _, round := range f.rounds {
		if round.TournamentID != tournamentID {
			continue
		}
		if current == nil || round.RoundNumber > current.RoundNumber {
			current = round
		}
	}
	if current == nil {
		return nil, repositories.ErrRoundNotFound
	}
	return current, nil
}

func (f *fakeRoundRepo) ListByTournament(_ context.Context, tournamentID uuid.UUID) ([]*models.Round, error) {
	var rounds []*models.Round
	for _, round := range f.rounds {
		if round.TournamentID == tournamentID {
			rounds = append(rounds, round)
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].RoundNumber < rounds[j].RoundNumber })
	return rounds, nil
}

func (f *fakeRoundRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID, status models.RoundStatus) error {
	round, ok := f.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	round.Status = status
	return nil
}

type fakeMatchupRepo struct {
	matchups map[uuid.UUID]*models.Matchup
}

func newFakeMatchupRepo(matchups ...*models.Matchup) *fakeMatchupRepo {
	repo := &fakeMatchupRepo{matchups: make(map[uuid.UUID]*models.Matchup)}
	for _, m := range matchups {
		repo.matchups[m.ID] = m
	}
	return repo
}

func (f *fakeMatchupRepo) CreateBulk(_ context.Context, _ repositories.SQLExecutor, matchups []*models.Matchup) error {
	for _, m := range matchups {
		f.matchups[m.ID] = m
	}
	return nil
}

func (f *fakeMatchupRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Matchup, error) {
	matchup, ok := f.matchups[id]
	if !ok {
		return nil, repositories.ErrMatchupNotFound
	}
	return matchup, nil
}

func (f *fakeMatchupRepo) ListByRound(_ context.Context, roundID uuid.UUID) ([]*models.Matchup, error) {
	var matchups []*models.Matchup
	for _, m := range f.matchups {
		if m.RoundID == roundID {
			matchups = append(matchups, m)
		}
	}
	sort.Slice(matchups, func(i, j int) bool { return matchups[i].Position < matchups[j].Position })
	return matchups, nil
}

func (f *fakeMatchupRepo) UpdateWinner(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID, winnerID uuid.UUID, status models.MatchupStatus) error {
	matchup, ok := f.matchups[id]
	if !ok {
		return repositories.ErrMatchupNotFound
	}
	matchup.WinnerID = &winnerID
	matchup.Status = status
	return nil
}

func (f *fakeMatchupRepo) UpdateNextMatchup(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID, nextMatchupID uuid.UUID) error {
	matchup, ok := f.matchups[id]
	if !ok {
		return repositories.ErrMatchupNotFound
	}
	matchup.NextMatchupID = &nextMatchupID
	return nil
}

type fakeVoteRepo struct {
	votes []*models.Vote
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{}
}

func (f *fakeVoteRepo) Create(_ context.Context, vote *models.Vote) error {
	for _, v := range f.votes {
		if v.MatchupID == vote.MatchupID && v.VoterID == vote.VoterID {
			return repositories.ErrDuplicateVote
		}
	}
	f.votes = append(f.votes, vote)
	return nil
}

func (f *fakeVoteRepo) GetByMatchupAndVoter(_ context.Context, matchupID, voterID uuid.UUID) (*models.Vote, error) {
	for _, v := range f.votes {
		if v.MatchupID == matchupID && v.VoterID == voterID {
			return v, nil
		}
	}
	return nil, repositories.ErrVoteNotFound
}

func (f *fakeVoteRepo) ListByMatchup(_ context.Context, matchupID uuid.UUID) ([]*models.Vote, error) {
	var votes []*models.Vote
	for _, v := range f.votes {
		if v.MatchupID == matchupID {
			votes = append(votes, v)
		}
	}
	return votes, nil
}
