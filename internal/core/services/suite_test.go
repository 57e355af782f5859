package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/vncsmyrnk/civicstake/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
	"github.com/vncsmyrnk/civicstake/internal/core/services"
	"github.com/vncsmyrnk/civicstake/internal/platform/metrics"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// engineSuite wires every service over a fresh in-memory store with a
// controllable clock.
type engineSuite struct {
	suite.Suite
	ctx   context.Context
	clock *clock
	cfg   services.Config
	store *memory.Store
	core  *services.Core

	users       ports.UserService
	ledger      ports.LedgerService
	bounties    ports.BountyService
	questions   ports.QuestionService
	votes       ports.VoteService
	moderation  ports.ModerationService
	sweeper     ports.SweepService
	leaderboard ports.LeaderboardService
}

func (s *engineSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = newClock()
	s.cfg = services.DefaultConfig()
	s.build()
}

// build recreates the store and every service. Tests call it again after
// tweaking s.cfg or to pass extra options.
func (s *engineSuite) build(opts ...services.Option) {
	s.store = memory.NewStore()
	opts = append([]services.Option{
		services.WithClock(s.clock.Now),
		services.WithMetrics(metrics.New(prometheus.NewRegistry())),
	}, opts...)
	s.core = services.NewCore(s.store, s.cfg, opts...)

	s.users = services.NewUserService(s.core)
	s.ledger = services.NewLedgerService(s.core)
	s.bounties = services.NewBountyService(s.core)
	s.questions = services.NewQuestionService(s.core)
	s.votes = services.NewVoteService(s.core)
	s.moderation = services.NewModerationService(s.core)
	s.sweeper = services.NewSweepService(s.core)
	s.leaderboard = services.NewLeaderboardService(s.core)
}

func (s *engineSuite) register(role domain.Role, name string) uuid.UUID {
	user, err := s.users.Register(s.ctx, ports.RegisterInput{
		UserID:      uuid.New(),
		DisplayName: name,
		Role:        role,
	})
	s.Require().NoError(err)
	return user.ID
}

func (s *engineSuite) citizen(balance int64) uuid.UUID {
	id := s.register(domain.RoleCitizen, "citizen")
	if balance > 0 {
		_, err := s.ledger.Purchase(s.ctx, id, balance)
		s.Require().NoError(err)
	}
	return id
}

func (s *engineSuite) politician(name string) uuid.UUID {
	return s.register(domain.RolePolitician, name)
}

func (s *engineSuite) ask(asker, politician uuid.UUID, initialStake int64) uuid.UUID {
	q, err := s.questions.Create(s.ctx, ports.CreateQuestionInput{
		AskerID:      asker,
		PoliticianID: politician,
		Title:        "Where is the budget for the new bridge?",
		Body:         "The bridge was promised two years ago.",
		InitialStake: initialStake,
	})
	s.Require().NoError(err)
	return q.ID
}

func (s *engineSuite) stake(question, citizen uuid.UUID, amount int64) {
	_, err := s.bounties.Stake(s.ctx, ports.StakeInput{QuestionID: question, CitizenID: citizen, Amount: amount})
	s.Require().NoError(err)
}

func (s *engineSuite) answer(question, politician uuid.UUID) uuid.UUID {
	a, err := s.questions.SubmitAnswer(s.ctx, ports.SubmitAnswerInput{
		QuestionID:   question,
		PoliticianID: politician,
		Content:      "The budget is line 42 of the 2026 plan.",
	})
	s.Require().NoError(err)
	s.core.WaitForScoring()
	return a.ID
}

func (s *engineSuite) vote(answer, voter uuid.UUID, helpful bool) *domain.Answer {
	a, err := s.votes.Vote(s.ctx, ports.VoteInput{AnswerID: answer, VoterID: voter, IsHelpful: helpful})
	s.Require().NoError(err)
	return a
}

func (s *engineSuite) wallet(id uuid.UUID) *domain.Wallet {
	w, err := s.ledger.Wallet(s.ctx, id)
	s.Require().NoError(err)
	return w
}

func (s *engineSuite) rating(id uuid.UUID) ports.LeaderboardEntry {
	detail, err := s.leaderboard.Politician(s.ctx, id)
	s.Require().NoError(err)
	return detail.LeaderboardEntry
}

// conserved checks that no points were created or destroyed across users.
func (s *engineSuite) conserved(users ...uuid.UUID) {
	var held, purchased int64
	for _, id := range users {
		w := s.wallet(id)
		s.GreaterOrEqual(w.Available, int64(0))
		s.GreaterOrEqual(w.Staked, int64(0))
		held += w.Available + w.Staked + w.EarnedOrReleased
		purchased += w.Purchased
	}
	s.Equal(purchased, held, "points were created or destroyed")
}
