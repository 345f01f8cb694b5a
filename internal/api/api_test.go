package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mi-raf/comment-moderation/internal/api"
	"github.com/mi-raf/comment-moderation/internal/auth"
	"github.com/mi-raf/comment-moderation/internal/database"
	"github.com/mi-raf/comment-moderation/internal/models"
	"github.com/mi-raf/comment-moderation/internal/moderation"
	"github.com/mi-raf/comment-moderation/internal/oracle"
	"github.com/mi-raf/comment-moderation/internal/scheduler"
	"github.com/mi-raf/comment-moderation/internal/service"
	"github.com/mi-raf/comment-moderation/internal/stats"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type APITestSuite struct {
	suite.Suite
	ctx     context.Context
	handler http.Handler
	sched   *scheduler.Scheduler
	close   func()
	token   string
}

func (s *APITestSuite) SetupTest() {
	s.ctx = context.Background()
	store := database.NewInMemoryStore()
	o := oracle.NewKeywordOracle([]string{"bitch", "ass", "idiot"})
	gate := moderation.NewGate(o, &moderation.Config{Timeout: time.Second})
	s.sched, s.close = scheduler.New(s.ctx, store, o, &scheduler.Config{Timeout: time.Second})
	au := auth.NewService(database.NewInMemoryUserRepository(), &auth.Config{
		Secret:     []byte("test-secret"),
		TokenTTL:   time.Minute,
		BcryptCost: bcrypt.MinCost,
	})
	res := api.NewResolver(
		service.NewPostService(store),
		service.NewCommentService(store, store, gate, s.sched),
		stats.NewAggregator(store),
		au,
	)
	s.handler = api.NewApi(s.ctx, &api.Config{Listen: ":0"}, res).Handler()
	s.token = s.login("test")
}

func (s *APITestSuite) TearDownTest() {
	s.close()
}

func (s *APITestSuite) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *APITestSuite) decode(rec *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *APITestSuite) login(username string) string {
	rec := s.do(http.MethodPost, "/register", map[string]string{
		"email": username + "@gmail.com", "username": username, "password": "12345",
	}, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/login", map[string]string{"username": username, "password": "12345"}, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	s.decode(rec, &tok)
	s.Require().NotEmpty(tok.AccessToken)
	s.Equal("bearer", tok.TokenType)
	return tok.AccessToken
}

func (s *APITestSuite) createPost(body map[string]interface{}) models.Post {
	rec := s.do(http.MethodPost, "/posts", body, s.token)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var p models.Post
	s.decode(rec, &p)
	return p
}

func (s *APITestSuite) TestHealthcheck() {
	rec := s.do(http.MethodGet, "/healthcheck", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("OK", rec.Body.String())
}

func (s *APITestSuite) TestMetrics() {
	rec := s.do(http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *APITestSuite) TestRegisterTwice() {
	rec := s.do(http.MethodPost, "/register", map[string]string{
		"email": "test@gmail.com", "username": "test", "password": "12345",
	}, "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestRegisterInvalidEmail() {
	rec := s.do(http.MethodPost, "/register", map[string]string{
		"email": "not-an-email", "username": "other", "password": "12345",
	}, "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestLoginWrongPassword() {
	rec := s.do(http.MethodPost, "/login", map[string]string{"username": "test", "password": "nope"}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APITestSuite) TestCreatePostRequiresToken() {
	rec := s.do(http.MethodPost, "/posts", map[string]string{"title": "Test", "content": "Some data text"}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = s.do(http.MethodPost, "/posts", map[string]string{"title": "Test", "content": "Some data text"}, "garbage")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APITestSuite) TestCreatePostNegativeDelay() {
	rec := s.do(http.MethodPost, "/posts", map[string]interface{}{
		"title": "Test", "content": "text", "auto_reply_enabled": true, "auto_reply_delay": -1,
	}, s.token)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestCreatePostDelayTooLong() {
	rec := s.do(http.MethodPost, "/posts", map[string]interface{}{
		"title": "Test", "content": "text", "auto_reply_enabled": true, "auto_reply_delay": 1e12,
	}, s.token)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestFlow() {
	// post
	p := s.createPost(map[string]interface{}{"title": "Test", "content": "Some data text"})
	s.Equal(int64(1), p.Id)
	s.Equal("test", p.Owner)

	rec := s.do(http.MethodGet, "/posts/", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	var posts []models.Post
	s.decode(rec, &posts)
	s.Len(posts, 1)

	rec = s.do(http.MethodGet, "/posts/1", nil, "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPut, "/posts/1", map[string]string{"title": "Updated"}, s.token)
	s.Equal(http.StatusOK, rec.Code)
	var updated models.Post
	s.decode(rec, &updated)
	s.Equal("Updated", updated.Title)
	s.Equal("Some data text", updated.Content)

	// comments
	rec = s.do(http.MethodPost, "/posts/1/comments", map[string]string{"content": "Some text here"}, s.token)
	s.Equal(http.StatusCreated, rec.Code)
	var good models.Comment
	s.decode(rec, &good)
	s.Equal(models.StatusActive, good.Status)

	rec = s.do(http.MethodPost, "/posts/1/comments", map[string]string{"content": "You're son of a bitch"}, s.token)
	s.Equal(http.StatusCreated, rec.Code)
	var bad models.Comment
	s.decode(rec, &bad)
	s.Equal(models.StatusBlocked, bad.Status)
	s.Equal(int64(2), bad.Id)

	rec = s.do(http.MethodGet, "/posts/1/comments", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	var comments []models.Comment
	s.decode(rec, &comments)
	s.Len(comments, 2)

	rec = s.do(http.MethodPut, "/posts/1/comments/1", map[string]string{"content": "You're an ass"}, s.token)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Contains(rec.Body.String(), "inappropriate language")

	today := time.Now().UTC().Format("2006-01-02")
	rec = s.do(http.MethodGet, fmt.Sprintf("/api/comments-daily-breakdown?date_from=%s&date_to=%s", today, today), nil, "")
	s.Equal(http.StatusOK, rec.Code)
	var breakdown []models.DailyBreakdown
	s.decode(rec, &breakdown)
	s.Equal([]models.DailyBreakdown{{Date: today, CreatedCount: 1, BlockedCount: 1}}, breakdown)

	rec = s.do(http.MethodDelete, "/posts/1/comments/1", nil, s.token)
	s.Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodDelete, "/posts/1/comments/2", nil, s.token)
	s.Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodDelete, "/posts/1", nil, s.token)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/posts/1", nil, "")
	s.Equal(http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodGet, "/posts/1/comments", nil, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APITestSuite) TestOwnership() {
	s.createPost(map[string]interface{}{"title": "Mine", "content": "hands off"})
	rec := s.do(http.MethodPost, "/posts/1/comments", map[string]string{"content": "hello there"}, s.token)
	s.Require().Equal(http.StatusCreated, rec.Code)

	other := s.login("mallory")

	rec = s.do(http.MethodPut, "/posts/1", map[string]string{"title": "pwned"}, other)
	s.Equal(http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodDelete, "/posts/1", nil, other)
	s.Equal(http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodPut, "/posts/1/comments/1", map[string]string{"content": "hi"}, other)
	s.Equal(http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodDelete, "/posts/1/comments/1", nil, other)
	s.Equal(http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodDelete, "/posts/1/comments/9", nil, s.token)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APITestSuite) TestCommentOnMissingPost() {
	rec := s.do(http.MethodPost, "/posts/42/comments", map[string]string{"content": "hello"}, s.token)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/posts/abc", nil, "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestAutoReply() {
	s.createPost(map[string]interface{}{
		"title": "Test", "content": "Do you know what is compiler?",
		"auto_reply_enabled": true, "auto_reply_delay": 0,
	})
	rec := s.do(http.MethodPost, "/posts/1/comments", map[string]string{"content": "Honestly, I don't know"}, s.token)
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.sched.Wait()

	rec = s.do(http.MethodGet, "/api/posts/comments", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	var all map[string][]models.Comment
	s.decode(rec, &all)
	s.Len(all["1"], 2)
	s.Equal(models.AutoReplyBot, all["1"][1].Owner)
}

func (s *APITestSuite) TestOrphanedCommentsStayListed() {
	s.createPost(map[string]interface{}{"title": "Test", "content": "text"})
	rec := s.do(http.MethodPost, "/posts/1/comments", map[string]string{"content": "hello there"}, s.token)
	s.Require().Equal(http.StatusCreated, rec.Code)
	rec = s.do(http.MethodDelete, "/posts/1", nil, s.token)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/posts/comments", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	var all map[string][]models.Comment
	s.decode(rec, &all)
	s.Len(all["1"], 1)
}

func (s *APITestSuite) TestDailyBreakdownInvalidRange() {
	rec := s.do(http.MethodGet, "/api/comments-daily-breakdown?date_from=2025-10-29&date_to=2023-10-23", nil, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodGet, "/api/comments-daily-breakdown?date_from=29.10.2025&date_to=2023-10-23", nil, "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
