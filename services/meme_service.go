package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/models"
	"github.com/meme-madness/meme-madness/repositories"
	"github.com/meme-madness/meme-madness/storage"
)

// MaxMemesPerMember caps submissions per member per tournament.
const MaxMemesPerMember = 2

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

type MemeService interface {
	Upload(ctx context.Context, tournamentID, ownerID uuid.UUID, input UploadMemeInput) (*models.Meme, error)
	ListByTournament(ctx context.Context, tournamentID, userID uuid.UUID) ([]*models.Meme, error)
	ListMine(ctx context.Context, tournamentID, ownerID uuid.UUID) ([]*models.Meme, error)
	Delete(ctx context.Context, memeID, actorID uuid.UUID) error
}

type UploadMemeInput struct {
	Title       string
	ContentType string
	Reader      io.Reader
}

type memeService struct {
	tournamentRepo repositories.TournamentRepository
	memberRepo     repositories.MemberRepository
	memeRepo       repositories.MemeRepository
	roundRepo      repositories.RoundRepository
	matchupRepo    repositories.MatchupRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewMemeService(
	tournamentRepo repositories.TournamentRepository,
	memberRepo repositories.MemberRepository,
	memeRepo repositories.MemeRepository,
	roundRepo repositories.RoundRepository,
	matchupRepo repositories.MatchupRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) MemeService {
	return &memeService{
		tournamentRepo: tournamentRepo,
		memberRepo:     memberRepo,
		memeRepo:       memeRepo,
		roundRepo:      roundRepo,
		matchupRepo:    matchupRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *memeService) Upload(ctx context.Context, tournamentID, ownerID uuid.UUID, input UploadMemeInput) (*models.Meme, error) {
	if err := requireMember(ctx, s.memberRepo, tournamentID, ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrMemeTitleRequired
	}
	ext, ok := imageExtensions[input.ContentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImageType, input.ContentType)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tournament.Status != models.TournamentSubmissionOpen {
		return nil, ErrSubmissionsClosed
	}

	count, err := s.memeRepo.CountByOwner(ctx, tournamentID, ownerID)
	if err != nil {
		return nil, err
	}
	if count >= MaxMemesPerMember {
		return nil, fmt.Errorf("%w (max %d)", ErrMemeLimitReached, MaxMemesPerMember)
	}

	memeID := uuid.New()
	key := fmt.Sprintf("%s/%s/%s.%s", tournamentID, ownerID, memeID, ext)

	uploaded, err := s.uploader.Upload(ctx, key, input.ContentType, input.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload meme image: %w", err)
	}

	meme := &models.Meme{
		ID:           memeID,
		TournamentID: tournamentID,
		OwnerID:      ownerID,
		Title:        strings.TrimSpace(input.Title),
		ImageKey:     uploaded.Key,
		ImageURL:     uploaded.Location,
	}
	if err := s.memeRepo.Create(ctx, meme); err != nil {
		// The object is already in the bucket; reap it so a failed insert
		// does not leak storage.
		if delErr := s.uploader.Delete(ctx, uploaded.Key); delErr != nil {
			s.logger.Warn("failed to clean up orphaned meme image",
				slog.String("key", uploaded.Key),
				slog.String("error", delErr.Error()))
		}
		return nil, err
	}

	meme.BracketStatus = models.MemeNotInBracket
	return meme, nil
}

func (s *memeService) ListByTournament(ctx context.Context, tournamentID, userID uuid.UUID) ([]*models.Meme, error) {
	if err := requireMember(ctx, s.memberRepo, tournamentID, userID); err != nil {
		return nil, err
	}
	memes, err := s.memeRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := s.deriveBracketStatuses(ctx, tournamentID, memes); err != nil {
		return nil, err
	}
	return memes, nil
}

func (s *memeService) ListMine(ctx context.Context, tournamentID, ownerID uuid.UUID) ([]*models.Meme, error) {
	if err := requireMember(ctx, s.memberRepo, tournamentID, ownerID); err != nil {
		return nil, err
	}
	memes, err := s.memeRepo.ListByOwner(ctx, tournamentID, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.deriveBracketStatuses(ctx, tournamentID, memes); err != nil {
		return nil, err
	}
	return memes, nil
}

// Delete removes a meme before the bracket is seeded. The owner or any
// tournament admin may do it; after seeding the bracket references the meme
// and it becomes immutable.
func (s *memeService) Delete(ctx context.Context, memeID, actorID uuid.UUID) error {
	meme, err := s.memeRepo.GetByID(ctx, memeID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemeNotFound) {
			return ErrNotFound
		}
		return err
	}

	if meme.OwnerID != actorID {
		if _, err := requireAdmin(ctx, s.memberRepo, meme.TournamentID, actorID); err != nil {
			return ErrForbiddenOperation
		}
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, meme.TournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.TournamentSubmissionOpen {
		return ErrMemeLocked
	}

	if err := s.memeRepo.Delete(ctx, memeID); err != nil {
		return err
	}
	if err := s.uploader.Delete(ctx, meme.ImageKey); err != nil {
		s.logger.Warn("failed to delete meme image from storage",
			slog.String("key", meme.ImageKey),
			slog.String("error", err.Error()))
	}
	return nil
}

// deriveBracketStatuses computes each meme's bracket standing from the
// matchups instead of persisting it, so it can never drift from the bracket
// itself. Rounds are walked in order; a meme's latest appearance wins.
func (s *memeService) deriveBracketStatuses(ctx context.Context, tournamentID uuid.UUID, memes []*models.Meme) error {
	if len(memes) == 0 {
		return nil
	}
	for _, meme := range memes {
		meme.BracketStatus = models.MemeNotInBracket
	}

	rounds, err := s.roundRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if len(rounds) == 0 {
		return nil
	}

	statuses := make(map[uuid.UUID]models.MemeBracketStatus)
	for _, round := range rounds {
		matchups, err := s.matchupRepo.ListByRound(ctx, round.ID)
		if err != nil {
			return err
		}
		for _, m := range matchups {
			applyMatchupStatus(statuses, m, m.MemeAID)
			if m.MemeBID != nil {
				applyMatchupStatus(statuses, m, *m.MemeBID)
			}
		}
	}

	for _, meme := range memes {
		if st, ok := statuses[meme.ID]; ok {
			meme.BracketStatus = st
		}
	}
	return nil
}

func applyMatchupStatus(statuses map[uuid.UUID]models.MemeBracketStatus, m *models.Matchup, memeID uuid.UUID) {
	if m.Status != models.MatchupComplete {
		statuses[memeID] = models.MemeActive
		return
	}
	if m.WinnerID != nil && *m.WinnerID == memeID {
		if m.IsBye() {
			statuses[memeID] = models.MemeByeAdvanced
		} else {
			statuses[memeID] = models.MemeAdvanced
		}
		return
	}
	statuses[memeID] = models.MemeEliminated
}
