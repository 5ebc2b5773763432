package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/queue"
	"github.com/iliyamo/campus-portal/internal/repository"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// LedgerService records point changes and answers balance queries.
type LedgerService struct {
	clock
	users  UserStore
	ledger LedgerStore
	pub    Publisher
}

func NewLedgerService(users UserStore, ledger LedgerStore, pub Publisher) *LedgerService {
	return &LedgerService{clock: newClock(), users: users, ledger: ledger, pub: pub}
}

// PointsInput describes one ledger entry.
type PointsInput struct {
	Delta       int64
	Category    model.Category
	Activity    string
	Description string
}

// PointsResult is the recorded entry and the balance after it.
type PointsResult struct {
	Activity model.Activity `json:"activity"`
	Balance  int64          `json:"balance"`
}

// UpdatePoints appends one activity to the user's history.  A zero delta
// and an unknown category are rejected; an entry that would make the
// balance negative fails with repository.ErrInsufficientPoints.
func (s *LedgerService) UpdatePoints(ctx context.Context, userID string, in PointsInput) (PointsResult, error) {
	return s.record(ctx, "", userID, in)
}

// Award lets staff grant or deduct points for any user.
func (s *LedgerService) Award(ctx context.Context, actorID, userID string, in PointsInput) (PointsResult, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if errors.Is(err, repository.ErrNotFound) {
		return PointsResult{}, repository.ErrForbidden
	}
	if err != nil {
		return PointsResult{}, err
	}
	if !actor.Role.IsStaff() {
		return PointsResult{}, repository.ErrForbidden
	}
	return s.record(ctx, actorID, userID, in)
}

// Redeem spends cost points from the user's own balance on a store item.
func (s *LedgerService) Redeem(ctx context.Context, userID string, cost int64, item, description string) (PointsResult, error) {
	item = strings.TrimSpace(item)
	if cost <= 0 || item == "" {
		return PointsResult{}, fmt.Errorf("%w: redemption needs a positive cost and an item", ErrInvalidInput)
	}
	return s.record(ctx, "", userID, PointsInput{
		Delta:       -cost,
		Category:    model.CategoryStore,
		Activity:    "Redeemed " + item,
		Description: description,
	})
}

func (s *LedgerService) record(ctx context.Context, actorID, userID string, in PointsInput) (PointsResult, error) {
	in.Activity = strings.TrimSpace(in.Activity)
	switch {
	case in.Delta == 0:
		return PointsResult{}, fmt.Errorf("%w: delta must not be zero", ErrInvalidInput)
	case !in.Category.Valid():
		return PointsResult{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	case in.Activity == "":
		return PointsResult{}, fmt.Errorf("%w: activity is required", ErrInvalidInput)
	}
	a := model.Activity{
		ID:          uuid.NewString(),
		UserID:      userID,
		Activity:    in.Activity,
		Description: strings.TrimSpace(in.Description),
		Delta:       in.Delta,
		Category:    in.Category,
		CreatedAt:   s.now(),
	}
	balance, err := s.ledger.Apply(ctx, a)
	if err != nil {
		return PointsResult{}, err
	}
	log.Info().Str("user_id", userID).Int64("delta", a.Delta).Int64("balance", balance).Str("category", string(a.Category)).Msg("points recorded")
	emit(ctx, s.pub, queue.NewEvent(queue.PointsRecorded, userID, queue.PointsRecordedData{
		ActivityID: a.ID,
		Delta:      a.Delta,
		Category:   string(a.Category),
		Activity:   a.Activity,
		Balance:    balance,
		ActorID:    actorID,
	}))
	return PointsResult{Activity: a, Balance: balance}, nil
}

// History returns the user's activities, oldest first.
func (s *LedgerService) History(ctx context.Context, userID string) ([]model.Activity, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, userID)
}

// Balance returns the derived balance of a user.
func (s *LedgerService) Balance(ctx context.Context, userID string) (int64, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return 0, err
	}
	return s.ledger.Balance(ctx, userID)
}

// Leaderboard returns the top students.  limit is clamped to [1, 100] and
// defaults to 10.
func (s *LedgerService) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	switch {
	case limit <= 0:
		limit = defaultLeaderboardSize
	case limit > maxLeaderboardSize:
		limit = maxLeaderboardSize
	}
	return s.ledger.Leaderboard(ctx, limit)
}
