package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	handler "github.com/vncsmyrnk/civicstake/internal/adapters/handler/http"
	"github.com/vncsmyrnk/civicstake/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/services"
	"github.com/vncsmyrnk/civicstake/internal/platform/logger"
	"github.com/vncsmyrnk/civicstake/internal/platform/metrics"
)

type RouterSuite struct {
	suite.Suite
	server   *httptest.Server
	verifier *handler.TokenVerifier
	now      time.Time
	cfg      services.Config
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.cfg = services.DefaultConfig()
	reg := prometheus.NewRegistry()
	core := services.NewCore(memory.NewStore(), s.cfg,
		services.WithClock(func() time.Time { return s.now }),
		services.WithMetrics(metrics.New(reg)),
	)

	s.verifier = handler.NewTokenVerifier("test-secret")
	h := handler.NewHandler(handler.Services{
		Users:       services.NewUserService(core),
		Ledger:      services.NewLedgerService(core),
		Bounties:    services.NewBountyService(core),
		Questions:   services.NewQuestionService(core),
		Votes:       services.NewVoteService(core),
		Leaderboard: services.NewLeaderboardService(core),
		Moderation:  services.NewModerationService(core),
	}, s.verifier, reg, logger.Discard())
	s.server = httptest.NewServer(h)
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

type caller struct {
	id    uuid.UUID
	token string
}

func (s *RouterSuite) token(id uuid.UUID, role domain.Role) string {
	token, err := s.verifier.Issue(id, role, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
	})
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path, token string, body any) (*http.Response, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (s *RouterSuite) register(role domain.Role, name string, balance int64) caller {
	c := caller{id: uuid.New()}
	c.token = s.token(c.id, role)
	resp, _ := s.do(http.MethodPost, "/api/users", c.token, map[string]any{"display_name": name})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	if balance > 0 {
		resp, _ = s.do(http.MethodPost, "/api/bounties/purchase", c.token, map[string]any{"amount": balance})
		s.Require().Equal(http.StatusOK, resp.StatusCode)
	}
	return c
}

func (s *RouterSuite) TestAnonymousMutationsAreRejected() {
	resp, body := s.do(http.MethodPost, "/api/questions", "", map[string]any{"title": "x"})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("unauthorized", body["code"])

	resp, _ = s.do(http.MethodGet, "/api/questions", "not-a-token", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	other := handler.NewTokenVerifier("another-secret")
	forged, err := other.Issue(uuid.New(), domain.RoleCitizen, jwt.RegisteredClaims{})
	s.Require().NoError(err)
	resp, _ = s.do(http.MethodGet, "/api/users/me", forged, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *RouterSuite) TestQuestionLifecycle() {
	p := s.register(domain.RolePolitician, "Mayor", 0)
	c := s.register(domain.RoleCitizen, "Ada", 100)

	resp, q := s.do(http.MethodPost, "/api/questions", c.token, map[string]any{
		"title":                "Where is the bridge budget?",
		"body":                 "Promised two years ago.",
		"target_politician_id": p.id,
		"initial_stake":        30,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	qid := q["id"].(string)

	resp, stake := s.do(http.MethodPost, "/api/bounties/questions/"+qid+"/stake", c.token, map[string]any{"amount": 20})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(50.0, stake["total_bounty"])

	resp, body := s.do(http.MethodPost, "/api/bounties/questions/"+qid+"/stake", c.token, map[string]any{"amount": 0})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("invalid_amount", body["code"])

	resp, body = s.do(http.MethodPost, "/api/bounties/questions/"+qid+"/stake", c.token, map[string]any{"amount": 1000})
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	s.Equal("insufficient_funds", body["code"])

	resp, body = s.do(http.MethodPost, "/api/answers/questions/"+qid, c.token, map[string]any{"content": "not mine"})
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Equal("forbidden", body["code"])

	resp, answer := s.do(http.MethodPost, "/api/answers/questions/"+qid, p.token, map[string]any{"content": "Line 42."})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	aid := answer["answer_id"].(string)

	resp, body = s.do(http.MethodPost, "/api/answers/questions/"+qid, p.token, map[string]any{"content": "again"})
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("already_answered", body["code"])

	resp, body = s.do(http.MethodPost, "/api/answers/"+aid+"/vote", c.token, map[string]any{"is_helpful": true})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(1.0, body["helpful_votes"])

	resp, body = s.do(http.MethodPost, "/api/answers/"+aid+"/vote", p.token, map[string]any{"is_helpful": true})
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Equal("not_eligible", body["code"])

	resp, votes := s.do(http.MethodGet, "/api/answers/"+aid+"/votes", c.token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, votes["user_vote"])
	s.Equal(true, votes["can_vote"])

	resp, body = s.do(http.MethodPost, "/api/questions/"+qid+"/finalize", c.token, nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("invalid_transition", body["code"])

	s.now = s.now.Add(s.cfg.VotingWindow)
	resp, settlement := s.do(http.MethodPost, "/api/questions/"+qid+"/finalize", c.token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(string(domain.OutcomeReleased), settlement["outcome"])
	s.Equal(50.0, settlement["total"])

	resp, wallet := s.do(http.MethodGet, "/api/bounties/wallet", p.token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(50.0, wallet["earned_or_released_points"])

	resp, wallet = s.do(http.MethodGet, "/api/bounties/wallet?user_id="+c.id.String(), "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp, wallet = s.do(http.MethodGet, "/api/bounties/wallet?user_id="+c.id.String(), p.token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(50.0, wallet["available_points"])
	s.Equal(0.0, wallet["staked_points"])

	resp, detail := s.do(http.MethodGet, "/api/leaderboard/"+p.id.String(), "", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(1.0, detail["questions_answered"])
	s.Equal(1.0, detail["rank"])
	s.Equal(50.0, detail["total_charity_released"])
}

func (s *RouterSuite) TestLeaderboardAndListing() {
	p1 := s.register(domain.RolePolitician, "First", 0)
	s.register(domain.RolePolitician, "Second", 0)
	c := s.register(domain.RoleCitizen, "Ada", 100)

	for i := range 3 {
		resp, _ := s.do(http.MethodPost, "/api/questions", c.token, map[string]any{
			"title":                fmt.Sprintf("Question %d", i),
			"body":                 "Body",
			"target_politician_id": p1.id,
			"initial_stake":        10 * (i + 1),
		})
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/questions?sort_by=bounty&limit=2", nil)
	s.Require().NoError(err)
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var rows []map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&rows))
	s.Require().Len(rows, 2)
	s.Equal(30.0, rows[0]["total_bounty"])
	s.Equal(20.0, rows[1]["total_bounty"])

	resp2, body := s.do(http.MethodGet, "/api/questions?sort_by=popular", "", nil)
	s.Equal(http.StatusBadRequest, resp2.StatusCode)
	s.Equal("validation", body["code"])

	resp2, stats := s.do(http.MethodGet, "/api/leaderboard/stats/dashboard", "", nil)
	s.Require().Equal(http.StatusOK, resp2.StatusCode)
	s.Equal(3.0, stats["questions_asked"])
	s.Equal(2.0, stats["politicians_ranked"])

	resp2, _ = s.do(http.MethodGet, "/api/leaderboard/"+uuid.NewString(), "", nil)
	s.Equal(http.StatusNotFound, resp2.StatusCode)
}

func (s *RouterSuite) TestModerationRequiresModeratorRole() {
	p := s.register(domain.RolePolitician, "Mayor", 0)
	c := s.register(domain.RoleCitizen, "Ada", 100)
	_, q := s.do(http.MethodPost, "/api/questions", c.token, map[string]any{
		"title":                "Flag me",
		"body":                 "Body",
		"target_politician_id": p.id,
		"initial_stake":        40,
	})
	qid := q["id"].(string)

	resp, body := s.do(http.MethodPost, "/api/moderation/questions/"+qid+"/flag", c.token, nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Equal("forbidden", body["code"])

	mod := s.token(uuid.New(), domain.RoleModerator)
	resp, flagged := s.do(http.MethodPost, "/api/moderation/questions/"+qid+"/flag", mod, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(string(domain.StatusFlagged), flagged["status"])

	resp, settlement := s.do(http.MethodPost, "/api/moderation/questions/"+qid+"/refund", mod, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(string(domain.OutcomeRefunded), settlement["outcome"])

	resp, wallet := s.do(http.MethodGet, "/api/bounties/wallet", c.token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(100.0, wallet["available_points"])
}

func (s *RouterSuite) TestOperationalEndpoints() {
	resp, err := s.server.Client().Get(s.server.URL + "/healthz")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	s.register(domain.RoleCitizen, "Ada", 25)
	resp, err = s.server.Client().Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	s.Require().NoError(err)
	s.Contains(buf.String(), "civicstake_points_purchased_total 25")
}
