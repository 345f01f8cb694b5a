package moderation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mi-raf/comment-moderation/internal/models"
	"github.com/mi-raf/comment-moderation/internal/moderation"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type GateTestSuite struct {
	suite.Suite
	ctx context.Context
	o   *MockOracle
	g   *moderation.Gate
}

func (s *GateTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.o = new(MockOracle)
	s.g = moderation.NewGate(s.o, &moderation.Config{Timeout: 50 * time.Millisecond})
}

func (s *GateTestSuite) TestParseVerdict() {
	cases := map[string]models.Status{
		"Active":               models.StatusActive,
		"'Active'":             models.StatusActive,
		"Verdict: Active.":     models.StatusActive,
		"Blocked":              models.StatusBlocked,
		"active":               models.StatusBlocked,
		"ACTIVE":               models.StatusBlocked,
		"Inactive":             models.StatusBlocked,
		"NotActive":            models.StatusBlocked,
		"":                     models.StatusBlocked,
		"I cannot answer that": models.StatusBlocked,
	}
	for raw, expected := range cases {
		s.Equal(expected, moderation.ParseVerdict(raw), raw)
	}
}

func (s *GateTestSuite) TestEvaluateActive() {
	// given
	s.o.On("Classify", mock.Anything, "hello there").Return("Active", nil)

	// when
	status := s.g.Evaluate(s.ctx, "hello there")

	// then
	s.Equal(models.StatusActive, status)
	s.o.AssertExpectations(s.T())
}

func (s *GateTestSuite) TestEvaluateBlocked() {
	// given
	s.o.On("Classify", mock.Anything, "you idiot").Return("Blocked", nil)

	// when
	status := s.g.Evaluate(s.ctx, "you idiot")

	// then
	s.Equal(models.StatusBlocked, status)
}

func (s *GateTestSuite) TestEvaluateFailsClosed() {
	// given
	s.o.On("Classify", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	// when
	status := s.g.Evaluate(s.ctx, "hello there")

	// then
	s.Equal(models.StatusBlocked, status)
}

func (s *GateTestSuite) TestEvaluateTimeoutFailsClosed() {
	// given
	s.o.On("Classify", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return("Active", context.DeadlineExceeded)

	// when
	start := time.Now()
	status := s.g.Evaluate(s.ctx, "slow")

	// then
	s.Equal(models.StatusBlocked, status)
	s.Less(time.Since(start), 2*time.Second)
}

func TestGateTestSuite(t *testing.T) {
	suite.Run(t, new(GateTestSuite))
}

// Mocks

type MockOracle struct {
	mock.Mock
}

func (o *MockOracle) Classify(ctx context.Context, text string) (string, error) {
	args := o.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (o *MockOracle) Generate(ctx context.Context, postContent, commentContent string) (string, error) {
	args := o.Called(ctx, postContent, commentContent)
	return args.String(0), args.Error(1)
}
