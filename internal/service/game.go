package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru"

	"github.com/murder-mystery/internal/config"
	"github.com/murder-mystery/internal/domain"
	"github.com/murder-mystery/internal/sanitize"
	"github.com/murder-mystery/internal/scoring"
)

// GameService provides the business logic of the party
type GameService struct {
	store     Store
	rounds    RoundCache
	standings Standings
	notifier  Notifier
	config    *config.GameConfig
	logger    *slog.Logger

	// answerKeys caches the immutable key set of each game id
	answerKeys *lru.Cache
	excluded   map[string]bool
	hidden     map[string]bool
}

// Option configures optional collaborators of GameService
type Option func(*GameService)

// WithRoundCache serves the round from a shared cache
func WithRoundCache(cache RoundCache) Option {
	return func(s *GameService) { s.rounds = cache }
}

// WithStandings keeps a realtime scoreboard up to date
func WithStandings(standings Standings) Option {
	return func(s *GameService) { s.standings = standings }
}

// WithNotifier pushes round and standings changes to clients
func WithNotifier(notifier Notifier) Option {
	return func(s *GameService) { s.notifier = notifier }
}

// NewGameService creates a new game service
func NewGameService(store Store, cfg *config.GameConfig, logger *slog.Logger, opts ...Option) (*GameService, error) {
	size := cfg.AnswerKeyCacheSize
	if size <= 0 {
		size = 64
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating answer key cache: %w", err)
	}

	s := &GameService{
		store:      store,
		config:     cfg,
		logger:     logger,
		answerKeys: cache,
		excluded:   toSet(cfg.ExcludedCharacterIDs),
		hidden:     toSet(cfg.HiddenRecipientIDs),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetNotifier attaches a notifier after construction
func (s *GameService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// Ping checks the store
func (s *GameService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Authenticate resolves the principal forwarded by the identity proxy
func (s *GameService) Authenticate(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

// CurrentRound returns the round gate, preferring the shared cache
func (s *GameService) CurrentRound(ctx context.Context) (*domain.RoundState, error) {
	if s.rounds != nil {
		state, err := s.rounds.GetRound(ctx)
		if err == nil && state != nil {
			return state, nil
		}
		if err != nil && !errors.Is(err, domain.ErrRoundStateNotFound) {
			s.logger.Warn("round cache read failed", "error", err)
		}
	}

	state, err := s.store.GetRound(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading round: %w", err)
	}

	if s.rounds != nil {
		if err := s.rounds.SetRound(ctx, *state); err != nil {
			s.logger.Warn("round cache fill failed", "error", err)
		}
	}
	return state, nil
}

// SetRound moves the round gate. Moving backwards is allowed and hides
// content again.
func (s *GameService) SetRound(ctx context.Context, admin *domain.User, round int) (*domain.RoundState, error) {
	if !admin.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if round < 0 || round > s.config.MaxRound {
		return nil, fmt.Errorf("%w: must be between 0 and %d", domain.ErrInvalidRound, s.config.MaxRound)
	}

	state, err := s.store.SetRound(ctx, round, admin.Username)
	if err != nil {
		return nil, fmt.Errorf("storing round: %w", err)
	}

	s.logger.Info("round changed", "round", state.Round, "version", state.Version, "by", admin.Username)

	if s.rounds != nil {
		if err := s.rounds.SetRound(ctx, *state); err != nil {
			s.logger.Warn("round cache update failed", "error", err)
		}
		// Subscribers of the channel, this instance included, fan out to websockets
		err := s.rounds.PublishRound(ctx, *state)
		if err == nil {
			return state, nil
		}
		s.logger.Warn("round publish failed", "error", err)
	}
	if s.notifier != nil {
		s.notifier.BroadcastRound(*state)
	}
	return state, nil
}

// CharacterSheet is the player's own character view
type CharacterSheet struct {
	ID                     string             `json:"id"`
	FirstName              string             `json:"first_name"`
	LastName               string             `json:"last_name"`
	Job                    string             `json:"job"`
	RelationshipToDeceased string             `json:"relationship_to_deceased"`
	Bio                    string             `json:"bio"`
	Cash                   int64              `json:"cash"`
	SecretScore            int64              `json:"secret_score"`
	QRScore                int64              `json:"qr_score"`
	Objectives             []domain.Objective `json:"objectives"`
}

// MyCharacter returns the viewer's character sheet with sanitized objectives
func (s *GameService) MyCharacter(ctx context.Context, user *domain.User) (*CharacterSheet, error) {
	c, err := s.viewerCharacter(ctx, user)
	if err != nil {
		return nil, err
	}

	objectives := make([]domain.Objective, 0, len(c.Objectives))
	for _, o := range c.Objectives {
		objectives = append(objectives, domain.Objective{ID: o.ID, Body: sanitize.HTML(o.Body)})
	}

	return &CharacterSheet{
		ID:                     c.ID,
		FirstName:              c.FirstName,
		LastName:               c.LastName,
		Job:                    c.Job,
		RelationshipToDeceased: c.RelationshipToDeceased,
		Bio:                    c.Bio,
		Cash:                   c.Cash,
		SecretScore:            c.TotalScore(domain.GameSecrets),
		QRScore:                c.TotalScore(domain.GameQR),
		Objectives:             objectives,
	}, nil
}

func (s *GameService) viewerCharacter(ctx context.Context, user *domain.User) (*domain.Character, error) {
	if user.CharacterID == "" {
		return nil, domain.ErrCharacterNotFound
	}
	c, err := s.store.GetCharacter(ctx, user.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("loading character: %w", err)
	}
	return c, nil
}

// answerKeysFor returns the keys of a game, cached after the first load
func (s *GameService) answerKeysFor(ctx context.Context, gameID int) ([]domain.AnswerKey, error) {
	if cached, ok := s.answerKeys.Get(gameID); ok {
		return cached.([]domain.AnswerKey), nil
	}
	keys, err := s.store.ListAnswerKeys(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading answer keys: %w", err)
	}
	s.answerKeys.Add(gameID, keys)
	return keys, nil
}

func (s *GameService) slots() scoring.Slots {
	return scoring.Slots{
		Secrets:       s.config.SecretSlots,
		Rumors:        s.config.RumorSlots,
		Words:         s.config.QRWordSlots,
		SentenceWords: s.config.SentenceWords,
	}
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
