package services_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

type EngineSuite struct {
	engineSuite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) TestAnsweredQuestionReleasesBountyAndUpdatesRating() {
	s.cfg.Rating.Sigma0 = 8.3
	s.build()

	p := s.politician("P")
	c := s.citizen(100)
	v1, v2 := s.citizen(50), s.citizen(50)

	q := s.ask(c, p, 40)
	s.stake(q, v1, 5)
	s.stake(q, v2, 5)
	s.Equal(int64(60), s.wallet(c).Available)
	s.Equal(int64(40), s.wallet(c).Staked)

	s.clock.Advance(time.Hour)
	a := s.answer(q, p)
	s.vote(a, c, true)
	s.vote(a, v1, true)
	tally := s.vote(a, v2, false)
	s.InDelta(0.667, tally.Satisfaction(), 0.001)

	s.clock.Advance(s.cfg.VotingWindow)
	report, err := s.sweeper.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(ports.SweepReport{Released: 1}, report)

	s.Equal(int64(50), s.wallet(p).EarnedOrReleased)
	s.Equal(int64(0), s.wallet(c).Staked)
	s.Equal(int64(60), s.wallet(c).Available)

	detail, err := s.leaderboard.Politician(s.ctx, p)
	s.Require().NoError(err)
	s.Greater(detail.Mu, 25.0)
	s.Less(detail.Sigma, 8.3)
	s.Equal(1, detail.QuestionsAnswered)
	s.Equal(int64(50), detail.TotalCharityReleased)
	s.Equal(int64(0), detail.OpenBountyTotal)
	s.Require().Len(detail.History, 1)
	s.InDelta(2.0/3.0, detail.History[0].Satisfaction, 1e-9)

	wantMu, wantSigma := s.cfg.Rating.Update(25, 8.3, 2.0/3.0)
	s.Equal(wantMu, detail.Mu)
	s.Equal(wantSigma, detail.Sigma)

	s.conserved(p, c, v1, v2)
}

func (s *EngineSuite) TestExpiredQuestionRefundsEachContributorExactly() {
	p := s.politician("P")
	a, b := s.citizen(100), s.citizen(100)
	before := s.rating(p)

	q := s.ask(a, p, 30)
	s.stake(q, b, 70)

	s.clock.Advance(s.cfg.QuestionTTL + time.Second)
	settlement, err := s.questions.Finalize(s.ctx, q)
	s.Require().NoError(err)
	s.Equal(domain.OutcomeRefunded, settlement.Outcome)
	s.Equal(int64(100), settlement.Total)
	s.Nil(settlement.PayoutID)

	s.Equal(int64(100), s.wallet(a).Available)
	s.Equal(int64(100), s.wallet(b).Available)
	s.Equal(int64(0), s.wallet(a).Staked)
	s.Equal(int64(0), s.wallet(b).Staked)
	s.Equal(int64(0), s.wallet(p).EarnedOrReleased)

	after := s.rating(p)
	s.Equal(before.Mu, after.Mu)
	s.Equal(before.Sigma, after.Sigma)
	s.Equal(0, after.QuestionsAnswered)

	summary, err := s.questions.Get(s.ctx, q)
	s.Require().NoError(err)
	s.Equal(domain.StatusExpired, summary.Status)
	s.NotNil(summary.FinalizedAt)

	s.conserved(p, a, b)
}

func (s *EngineSuite) TestFinalizeTwiceIsRejectedWithoutSideEffects() {
	p := s.politician("P")
	c := s.citizen(100)
	q := s.ask(c, p, 40)

	s.clock.Advance(s.cfg.QuestionTTL + time.Second)
	_, err := s.questions.Finalize(s.ctx, q)
	s.Require().NoError(err)
	first := s.wallet(c)

	_, err = s.questions.Finalize(s.ctx, q)
	s.ErrorIs(err, domain.ErrAlreadyFinalized)
	s.Equal(first, s.wallet(c))

	report, err := s.sweeper.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(ports.SweepReport{}, report)
}

func (s *EngineSuite) TestFinalizeBeforeDueIsInvalid() {
	p := s.politician("P")
	c := s.citizen(100)
	q := s.ask(c, p, 10)

	_, err := s.questions.Finalize(s.ctx, q)
	s.ErrorIs(err, domain.ErrInvalidTransition)

	a := s.answer(q, p)
	_, err = s.questions.Finalize(s.ctx, q)
	s.ErrorIs(err, domain.ErrInvalidTransition)

	_, err = s.votes.Votes(s.ctx, a, uuid.Nil)
	s.NoError(err)
}

func (s *EngineSuite) TestStakeValidation() {
	p := s.politician("P")
	c := s.citizen(50)
	q := s.ask(c, p, 0)

	_, err := s.bounties.Stake(s.ctx, ports.StakeInput{QuestionID: q, CitizenID: c, Amount: 0})
	s.ErrorIs(err, domain.ErrInvalidAmount)

	_, err = s.bounties.Stake(s.ctx, ports.StakeInput{QuestionID: q, CitizenID: c, Amount: -5})
	s.ErrorIs(err, domain.ErrInvalidAmount)

	_, err = s.bounties.Stake(s.ctx, ports.StakeInput{QuestionID: q, CitizenID: c, Amount: 51})
	s.ErrorIs(err, domain.ErrInsufficientFunds)

	_, err = s.bounties.Stake(s.ctx, ports.StakeInput{QuestionID: q, CitizenID: p, Amount: 1})
	s.ErrorIs(err, domain.ErrForbidden)

	_, err = s.bounties.Stake(s.ctx, ports.StakeInput{QuestionID: uuid.New(), CitizenID: c, Amount: 1})
	s.ErrorIs(err, domain.ErrQuestionNotFound)

	s.Equal(int64(50), s.wallet(c).Available)
	s.Equal(int64(0), s.wallet(c).Staked)
}

func (s *EngineSuite) TestStakeRejectedOnceQuestionLeftOpen() {
	p := s.politician("P")
	c := s.citizen(100)

	answered := s.ask(c, p, 10)
	s.answer(answered, p)
	_, err := s.bounties.Stake(s.ctx, ports.StakeInput{QuestionID: answered, CitizenID: c, Amount: 10})
	s.ErrorIs(err, domain.ErrQuestionNotOpen)

	overdue := s.ask(c, p, 10)
	s.clock.Advance(s.cfg.QuestionTTL + time.Second)
	_, err = s.bounties.Stake(s.ctx, ports.StakeInput{QuestionID: overdue, CitizenID: c, Amount: 10})
	s.ErrorIs(err, domain.ErrQuestionNotOpen)

	_, err = s.sweeper.Sweep(s.ctx)
	s.Require().NoError(err)
	_, err = s.bounties.Stake(s.ctx, ports.StakeInput{QuestionID: overdue, CitizenID: c, Amount: 10})
	s.ErrorIs(err, domain.ErrQuestionNotOpen)
}

func (s *EngineSuite) TestPurchaseBounds() {
	c := s.citizen(0)
	for _, amount := range []int64{0, -1, s.cfg.PurchaseCap + 1} {
		_, err := s.ledger.Purchase(s.ctx, c, amount)
		s.ErrorIs(err, domain.ErrInvalidAmount, "amount %d", amount)
	}

	w, err := s.ledger.Purchase(s.ctx, c, s.cfg.PurchaseCap)
	s.Require().NoError(err)
	s.Equal(s.cfg.PurchaseCap, w.Available)

	_, err = s.ledger.Purchase(s.ctx, uuid.New(), 10)
	s.ErrorIs(err, domain.ErrUserNotFound)
}

func (s *EngineSuite) TestCreateQuestionValidation() {
	p := s.politician("P")
	c := s.citizen(10)

	_, err := s.questions.Create(s.ctx, ports.CreateQuestionInput{AskerID: c, PoliticianID: p, Title: " ", Body: "b"})
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.questions.Create(s.ctx, ports.CreateQuestionInput{AskerID: c, PoliticianID: c, Title: "t", Body: "b"})
	s.ErrorIs(err, domain.ErrUnknownPolitician)

	_, err = s.questions.Create(s.ctx, ports.CreateQuestionInput{AskerID: c, PoliticianID: uuid.New(), Title: "t", Body: "b"})
	s.ErrorIs(err, domain.ErrUnknownPolitician)

	_, err = s.questions.Create(s.ctx, ports.CreateQuestionInput{AskerID: p, PoliticianID: p, Title: "t", Body: "b"})
	s.ErrorIs(err, domain.ErrForbidden)

	_, err = s.questions.Create(s.ctx, ports.CreateQuestionInput{AskerID: c, PoliticianID: p, Title: "t", Body: "b", InitialStake: 11})
	s.ErrorIs(err, domain.ErrInsufficientFunds)

	past := s.clock.Now().Add(-time.Minute)
	_, err = s.questions.Create(s.ctx, ports.CreateQuestionInput{AskerID: c, PoliticianID: p, Title: "t", Body: "b", Deadline: &past})
	s.ErrorIs(err, domain.ErrValidation)

	list, err := s.questions.List(s.ctx, ports.ListQuestionsInput{})
	s.Require().NoError(err)
	s.Empty(list, "failed creations must not leave questions behind")
	s.Equal(int64(10), s.wallet(c).Available)
}

func (s *EngineSuite) TestSubmitAnswerTransitions() {
	p, other := s.politician("P"), s.politician("Other")
	c := s.citizen(100)
	q := s.ask(c, p, 10)

	_, err := s.questions.SubmitAnswer(s.ctx, ports.SubmitAnswerInput{QuestionID: q, PoliticianID: other, Content: "x"})
	s.ErrorIs(err, domain.ErrForbidden)

	_, err = s.questions.SubmitAnswer(s.ctx, ports.SubmitAnswerInput{QuestionID: q, PoliticianID: p, Content: "  "})
	s.ErrorIs(err, domain.ErrValidation)

	s.answer(q, p)
	_, err = s.questions.SubmitAnswer(s.ctx, ports.SubmitAnswerInput{QuestionID: q, PoliticianID: p, Content: "again"})
	s.ErrorIs(err, domain.ErrAlreadyAnswered)

	flagged := s.ask(c, p, 10)
	_, err = s.moderation.Flag(s.ctx, flagged)
	s.Require().NoError(err)
	_, err = s.questions.SubmitAnswer(s.ctx, ports.SubmitAnswerInput{QuestionID: flagged, PoliticianID: p, Content: "late"})
	s.ErrorIs(err, domain.ErrInvalidTransition)

	overdue := s.ask(c, p, 10)
	s.clock.Advance(s.cfg.QuestionTTL + time.Second)
	_, err = s.questions.SubmitAnswer(s.ctx, ports.SubmitAnswerInput{QuestionID: overdue, PoliticianID: p, Content: "late"})
	s.ErrorIs(err, domain.ErrInvalidTransition)
}

func (s *EngineSuite) TestVotingWindowEndsAtDeadline() {
	p := s.politician("P")
	c := s.citizen(100)
	deadline := s.clock.Now().Add(24 * time.Hour)
	q, err := s.questions.Create(s.ctx, ports.CreateQuestionInput{
		AskerID: c, PoliticianID: p, Title: "t", Body: "b", InitialStake: 10, Deadline: &deadline,
	})
	s.Require().NoError(err)

	s.answer(q.ID, p)
	summary, err := s.questions.Get(s.ctx, q.ID)
	s.Require().NoError(err)
	s.Require().NotNil(summary.VotingClosesAt)
	s.Equal(deadline, *summary.VotingClosesAt)
}

func (s *EngineSuite) TestVoteIdempotence() {
	p := s.politician("P")
	v := s.citizen(10)
	q := s.ask(v, p, 10)
	a := s.answer(q, p)

	tally := s.vote(a, v, true)
	s.Equal(int64(1), tally.HelpfulCount)

	tally = s.vote(a, v, true)
	s.Equal(int64(1), tally.HelpfulCount)
	s.Equal(int64(0), tally.EvasiveCount)

	tally = s.vote(a, v, false)
	s.Equal(int64(0), tally.HelpfulCount)
	s.Equal(int64(1), tally.EvasiveCount)

	votes, err := s.votes.Votes(s.ctx, a, v)
	s.Require().NoError(err)
	s.Require().NotNil(votes.UserVote)
	s.False(*votes.UserVote)
	s.True(votes.CanVote)
	s.Equal(int64(1), votes.TotalVotes)
}

func (s *EngineSuite) TestVoteEligibility() {
	p := s.politician("P")
	staker, bystander := s.citizen(10), s.citizen(10)
	q := s.ask(staker, p, 10)
	a := s.answer(q, p)

	_, err := s.votes.Vote(s.ctx, ports.VoteInput{AnswerID: a, VoterID: bystander, IsHelpful: true})
	s.ErrorIs(err, domain.ErrNotEligible)

	votes, err := s.votes.Votes(s.ctx, a, bystander)
	s.Require().NoError(err)
	s.False(votes.CanVote)
	s.Nil(votes.UserVote)

	_, err = s.votes.Vote(s.ctx, ports.VoteInput{AnswerID: uuid.New(), VoterID: staker, IsHelpful: true})
	s.ErrorIs(err, domain.ErrAnswerNotFound)

	s.clock.Advance(s.cfg.VotingWindow)
	_, err = s.votes.Vote(s.ctx, ports.VoteInput{AnswerID: a, VoterID: staker, IsHelpful: true})
	s.ErrorIs(err, domain.ErrVotingClosed)

	_, err = s.sweeper.Sweep(s.ctx)
	s.Require().NoError(err)
	_, err = s.votes.Vote(s.ctx, ports.VoteInput{AnswerID: a, VoterID: staker, IsHelpful: true})
	s.ErrorIs(err, domain.ErrVotingClosed)
}

func (s *EngineSuite) TestAnswerWithoutVotesUsesNeutralSatisfaction() {
	p := s.politician("P")
	c := s.citizen(10)
	q := s.ask(c, p, 10)
	s.answer(q, p)

	s.clock.Advance(s.cfg.VotingWindow)
	settlement, err := s.questions.Finalize(s.ctx, q)
	s.Require().NoError(err)
	s.Equal(domain.OutcomeReleased, settlement.Outcome)
	s.NotNil(settlement.PayoutID)

	detail, err := s.leaderboard.Politician(s.ctx, p)
	s.Require().NoError(err)
	s.Require().Len(detail.History, 1)
	s.Equal(0.5, detail.History[0].Satisfaction)
	s.Equal(1, detail.QuestionsAnswered)
}

func (s *EngineSuite) TestQuorumFinalizesEarly() {
	s.cfg.VoteQuorum = 2
	s.build()

	p := s.politician("P")
	v1, v2 := s.citizen(10), s.citizen(10)
	q := s.ask(v1, p, 10)
	s.stake(q, v2, 10)
	a := s.answer(q, p)

	s.vote(a, v1, true)
	summary, err := s.questions.Get(s.ctx, q)
	s.Require().NoError(err)
	s.Nil(summary.FinalizedAt)

	s.vote(a, v2, true)
	summary, err = s.questions.Get(s.ctx, q)
	s.Require().NoError(err)
	s.NotNil(summary.FinalizedAt)
	s.Equal(int64(20), s.wallet(p).EarnedOrReleased)
	s.Equal(1, s.rating(p).QuestionsAnswered)
}

func (s *EngineSuite) TestModeration() {
	p := s.politician("P")
	a, b := s.citizen(100), s.citizen(100)
	q := s.ask(a, p, 30)
	s.stake(q, b, 70)

	_, err := s.moderation.RefundFlagged(s.ctx, q)
	s.ErrorIs(err, domain.ErrInvalidTransition)

	flagged, err := s.moderation.Flag(s.ctx, q)
	s.Require().NoError(err)
	s.Equal(domain.StatusFlagged, flagged.Status)

	s.clock.Advance(s.cfg.QuestionTTL + time.Second)
	report, err := s.sweeper.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(ports.SweepReport{}, report, "flagged questions never transition automatically")

	settlement, err := s.moderation.RefundFlagged(s.ctx, q)
	s.Require().NoError(err)
	s.Equal(domain.OutcomeRefunded, settlement.Outcome)
	s.Equal(int64(100), s.wallet(a).Available)
	s.Equal(int64(100), s.wallet(b).Available)

	_, err = s.moderation.RefundFlagged(s.ctx, q)
	s.ErrorIs(err, domain.ErrAlreadyFinalized)
	_, err = s.moderation.Flag(s.ctx, q)
	s.ErrorIs(err, domain.ErrAlreadyFinalized)
	s.Equal(0, s.rating(p).QuestionsAnswered)
}

func (s *EngineSuite) TestFlagAfterFinalizeIsRejected() {
	p := s.politician("P")
	c := s.citizen(10)
	q := s.ask(c, p, 10)
	s.answer(q, p)
	s.clock.Advance(s.cfg.VotingWindow)
	_, err := s.questions.Finalize(s.ctx, q)
	s.Require().NoError(err)

	_, err = s.moderation.Flag(s.ctx, q)
	s.ErrorIs(err, domain.ErrAlreadyFinalized)
}

func (s *EngineSuite) TestLeaderboardOrdering() {
	first := s.politician("First")
	s.clock.Advance(time.Minute)
	second := s.politician("Second")
	s.clock.Advance(time.Minute)
	third := s.politician("Third")

	c := s.citizen(100)
	q := s.ask(c, third, 10)
	a := s.answer(q, third)
	s.vote(a, c, true)
	s.clock.Advance(s.cfg.VotingWindow)
	_, err := s.questions.Finalize(s.ctx, q)
	s.Require().NoError(err)

	board, err := s.leaderboard.Leaderboard(s.ctx, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(board, 3)

	// third answered well, so its sigma shrank below the untouched prior.
	s.Equal(third, board[0].PoliticianID)
	s.Equal(first, board[1].PoliticianID)
	s.Equal(second, board[2].PoliticianID)
	for i, e := range board {
		s.Equal(i+1, e.Rank)
	}

	page, err := s.leaderboard.Leaderboard(s.ctx, 1, 1)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(first, page[0].PoliticianID)
	s.Equal(2, page[0].Rank)

	stats, err := s.leaderboard.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.QuestionsAsked)
	s.Equal(1, stats.QuestionsAnswered)
	s.Equal(1.0, stats.ResponseRate)
	s.Equal(int64(10), stats.ReleasedToCharity)
	s.Equal(3, stats.PoliticiansRanked)
}

func (s *EngineSuite) TestQuestionListing() {
	p, other := s.politician("P"), s.politician("Other")
	c := s.citizen(1000)

	small := s.ask(c, p, 10)
	s.clock.Advance(time.Minute)
	big := s.ask(c, p, 100)
	s.clock.Advance(time.Minute)
	elsewhere := s.ask(c, other, 50)
	s.answer(elsewhere, other)

	byBounty, err := s.questions.List(s.ctx, ports.ListQuestionsInput{SortBy: "bounty"})
	s.Require().NoError(err)
	s.Require().Len(byBounty, 3)
	s.Equal([]uuid.UUID{big, elsewhere, small}, []uuid.UUID{byBounty[0].ID, byBounty[1].ID, byBounty[2].ID})

	recent, err := s.questions.List(s.ctx, ports.ListQuestionsInput{PoliticianID: p.String()})
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal(big, recent[0].ID)
	s.Equal(int64(100), recent[0].TotalBounty)
	s.Equal(1, recent[0].StakerCount)

	answered, err := s.questions.List(s.ctx, ports.ListQuestionsInput{Status: "answered"})
	s.Require().NoError(err)
	s.Require().Len(answered, 1)
	s.True(answered[0].HasAnswer)

	limited, err := s.questions.List(s.ctx, ports.ListQuestionsInput{Limit: 1, Offset: 1, SortBy: "bounty"})
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Equal(elsewhere, limited[0].ID)

	_, err = s.questions.List(s.ctx, ports.ListQuestionsInput{SortBy: "popularity"})
	s.ErrorIs(err, domain.ErrValidation)
	_, err = s.questions.List(s.ctx, ports.ListQuestionsInput{Status: "closed"})
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *EngineSuite) TestBountyDetails() {
	p := s.politician("P")
	a, b, c := s.citizen(100), s.citizen(100), s.citizen(100)
	q := s.ask(a, p, 10)
	s.stake(q, b, 40)
	s.stake(q, c, 10)
	s.stake(q, a, 5)

	details, err := s.bounties.Details(s.ctx, q)
	s.Require().NoError(err)
	s.Equal(int64(65), details.TotalBounty)
	s.Equal(3, details.StakerCount)
	s.Equal([]domain.StakerTotal{
		{CitizenID: b, Amount: 40},
		{CitizenID: a, Amount: 15},
		{CitizenID: c, Amount: 10},
	}, details.TopStakers)
	s.False(details.Finalized)
}

func (s *EngineSuite) TestRegistration() {
	id := uuid.New()
	_, err := s.users.Register(s.ctx, ports.RegisterInput{UserID: id, DisplayName: "Ana", Role: domain.RoleCitizen})
	s.Require().NoError(err)

	_, err = s.users.Register(s.ctx, ports.RegisterInput{UserID: id, DisplayName: "Ana", Role: domain.RoleCitizen})
	s.ErrorIs(err, domain.ErrAlreadyRegistered)

	_, err = s.users.Register(s.ctx, ports.RegisterInput{UserID: uuid.New(), DisplayName: "Mod", Role: domain.RoleModerator})
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.leaderboard.Politician(s.ctx, id)
	s.ErrorIs(err, domain.ErrUnknownPolitician)

	p := s.politician("P")
	entry := s.rating(p)
	s.Equal(s.cfg.Rating.Mu0, entry.Mu)
	s.Equal(s.cfg.Rating.Sigma0, entry.Sigma)
	s.Equal(0.0, entry.ConservativeScore)
}
