package brackets

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/meme-madness/meme-madness/models"
)

// MinEntrants is the smallest field a bracket can be seeded from. Below four
// entrants the "bracket" degenerates into a single matchup plus byes, which
// is not worth running a tournament for.
const MinEntrants = 4

var (
	ErrInsufficientEntrants = errors.New("not enough memes submitted to seed a bracket")
	ErrInsufficientWinners  = errors.New("not enough winners to generate the next round")
)

// RoundIncompleteError is returned when advancement is attempted while
// matchups in the current round are still unresolved. Remaining tells the
// admin how many ties or open votes are left.
type RoundIncompleteError struct {
	RoundNumber int
	Remaining   int
}

func (e *RoundIncompleteError) Error() string {
	return fmt.Sprintf("%d matchups still incomplete in round %d", e.Remaining, e.RoundNumber)
}

// Entrant is the engine's view of a submitted meme: an opaque id plus the
// submitter. The engine never reads anything else.
type Entrant struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
}

// PlannedMatchup is a matchup the engine has decided on but not yet
// persisted. RoundID is attached by the caller when the round row exists.
// MemeBID == nil marks a bye, created already complete with the winner set.
type PlannedMatchup struct {
	ID       uuid.UUID
	MemeAID  uuid.UUID
	MemeBID  *uuid.UUID
	WinnerID *uuid.UUID
	Status   models.MatchupStatus
	Position int
}

type Summary struct {
	BracketSize int `json:"bracket_size"`
	NumByes     int `json:"num_byes"`
	TotalRounds int `json:"total_rounds"`
}

// NextPowerOfTwo returns the smallest power of two >= n, with n <= 1
// yielding 1. This is the round-1 capacity of the bracket.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// PlanRoundOne assigns entrants to round-1 matchups.
//
// Entrants sharing an owner are kept apart as long as possible: whole
// owner-pairs land in a single half of the bracket, so the two can only ever
// meet in the final. Within a half, a same-owner pair prefers spending a bye
// on one of its members, and a greedy repair pass breaks up remaining
// same-owner adjacencies in the compete pool. The repair is best-effort: an
// adjacency with no swap candidate is left in place.
//
// rng drives the shuffles; callers inject a seeded source for determinism.
func PlanRoundOne(entrants []Entrant, rng *rand.Rand) ([]PlannedMatchup, Summary, error) {
	n := len(entrants)
	if n < MinEntrants {
		return nil, Summary{}, fmt.Errorf("%w (minimum %d, found %d)", ErrInsufficientEntrants, MinEntrants, n)
	}

	bracketSize := NextPowerOfTwo(n)
	summary := Summary{
		BracketSize: bracketSize,
		NumByes:     bracketSize - n,
		TotalRounds: int(math.Log2(float64(bracketSize))),
	}

	pairs, singles := partitionByOwner(entrants)
	rng.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })
	rng.Shuffle(len(singles), func(i, j int) { singles[i], singles[j] = singles[j], singles[i] })

	halfCapacity := bracketSize / 2
	var halfA, halfB []Entrant

	// Whole pairs go to one half. Candidates are halves with room; the
	// less-full one wins, so the halves stay balanced and each half keeps
	// enough entrants to absorb its share of the byes.
	for _, pair := range pairs {
		aFits := len(halfA)+2 <= halfCapacity
		bFits := len(halfB)+2 <= halfCapacity
		switch {
		case aFits && (!bFits || len(halfA) <= len(halfB)):
			halfA = append(halfA, pair[0], pair[1])
		case bFits:
			halfB = append(halfB, pair[0], pair[1])
		case len(halfA) <= len(halfB):
			halfA = append(halfA, pair[0], pair[1])
		default:
			halfB = append(halfB, pair[0], pair[1])
		}
	}

	for _, single := range singles {
		aFits := len(halfA) < halfCapacity
		bFits := len(halfB) < halfCapacity
		switch {
		case aFits && (!bFits || len(halfA) <= len(halfB)):
			halfA = append(halfA, single)
		case bFits:
			halfB = append(halfB, single)
		case len(halfA) <= len(halfB):
			halfA = append(halfA, single)
		default:
			halfB = append(halfB, single)
		}
	}

	matchupsA, nextPos := planHalf(halfA, halfCapacity, 0, rng)
	matchupsB, _ := planHalf(halfB, halfCapacity, nextPos, rng)

	return append(matchupsA, matchupsB...), summary, nil
}

// partitionByOwner splits entrants into owner-pairs (owners with exactly two
// submissions) and singles. Owners with more than two submissions get no
// special handling; all of their entrants go into the singles pool.
func partitionByOwner(entrants []Entrant) (pairs [][2]Entrant, singles []Entrant) {
	byOwner := make(map[uuid.UUID][]Entrant)
	for _, e := range entrants {
		byOwner[e.OwnerID] = append(byOwner[e.OwnerID], e)
	}
	for _, owned := range byOwner {
		if len(owned) == 2 {
			pairs = append(pairs, [2]Entrant{owned[0], owned[1]})
		} else {
			singles = append(singles, owned...)
		}
	}
	return pairs, singles
}

// planHalf builds the matchups for one half of the bracket: byes first, then
// competing pairs, with positions continuing from startPos. The half's bye
// budget is its unused capacity; same-owner pairs that landed together in
// this half consume it first so they cannot meet in round 1 either.
func planHalf(half []Entrant, capacity, startPos int, rng *rand.Rand) ([]PlannedMatchup, int) {
	byeBudget := capacity - len(half)

	byOwner := make(map[uuid.UUID][]Entrant)
	for _, e := range half {
		byOwner[e.OwnerID] = append(byOwner[e.OwnerID], e)
	}

	var byeEntrants, competePool []Entrant
	for _, owned := range byOwner {
		if len(owned) == 2 && byeBudget > 0 {
			byeEntrants = append(byeEntrants, owned[0])
			competePool = append(competePool, owned[1])
			byeBudget--
		} else {
			competePool = append(competePool, owned...)
		}
	}

	rng.Shuffle(len(competePool), func(i, j int) {
		competePool[i], competePool[j] = competePool[j], competePool[i]
	})

	for byeBudget > 0 && len(competePool) > 0 {
		byeEntrants = append(byeEntrants, competePool[0])
		competePool = competePool[1:]
		byeBudget--
	}

	separateAdjacentOwners(competePool)

	matchups := make([]PlannedMatchup, 0, capacity/2)
	pos := startPos

	for _, e := range byeEntrants {
		winner := e.ID
		matchups = append(matchups, PlannedMatchup{
			ID:       uuid.New(),
			MemeAID:  e.ID,
			WinnerID: &winner,
			Status:   models.MatchupComplete,
			Position: pos,
		})
		pos++
	}

	for i := 0; i+1 < len(competePool); i += 2 {
		memeB := competePool[i+1].ID
		matchups = append(matchups, PlannedMatchup{
			ID:       uuid.New(),
			MemeAID:  competePool[i].ID,
			MemeBID:  &memeB,
			Status:   models.MatchupVoting,
			Position: pos,
		})
		pos++
	}

	return matchups, pos
}

// separateAdjacentOwners runs a single linear repair pass over the compete
// pool: whenever two adjacent entrants share an owner, the second is swapped
// with the nearest later entrant owned by someone else. If no candidate
// exists the adjacency stays.
func separateAdjacentOwners(entrants []Entrant) {
	for i := 0; i < len(entrants)-1; i++ {
		if entrants[i].OwnerID != entrants[i+1].OwnerID {
			continue
		}
		for j := i + 2; j < len(entrants); j++ {
			if entrants[j].OwnerID != entrants[i].OwnerID {
				entrants[i+1], entrants[j] = entrants[j], entrants[i+1]
				break
			}
		}
	}
}

// PairWinners pairs an ordered winner list into next-round matchups:
// consecutive winners meet, and an odd trailing winner gets a bye that is
// already complete. Position is the pair index.
func PairWinners(winners []uuid.UUID) []PlannedMatchup {
	matchups := make([]PlannedMatchup, 0, (len(winners)+1)/2)
	for i := 0; i < len(winners); i += 2 {
		if i+1 < len(winners) {
			memeB := winners[i+1]
			matchups = append(matchups, PlannedMatchup{
				ID:       uuid.New(),
				MemeAID:  winners[i],
				MemeBID:  &memeB,
				Status:   models.MatchupVoting,
				Position: i / 2,
			})
		} else {
			winner := winners[i]
			matchups = append(matchups, PlannedMatchup{
				ID:       uuid.New(),
				MemeAID:  winners[i],
				WinnerID: &winner,
				Status:   models.MatchupComplete,
				Position: i / 2,
			})
		}
	}
	return matchups
}
