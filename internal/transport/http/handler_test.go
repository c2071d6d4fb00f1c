package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vendorflow/internal/domain"
	"vendorflow/internal/jwttoken"
	"vendorflow/internal/platform/logger"
	"vendorflow/internal/sla"
	"vendorflow/internal/workflow"
	dErrors "vendorflow/pkg/domainerrors"
)

// stubWorkflow returns canned results and records the last call.
type stubWorkflow struct {
	result      workflow.TransitionResult
	review      workflow.PerformanceReview
	err         error
	lastActorID string
	lastReason  string
}

func (s *stubWorkflow) Submit(_ context.Context, vendorID, actorID string) (workflow.TransitionResult, error) {
	s.lastActorID = actorID
	return s.result, s.err
}

func (s *stubWorkflow) StartReview(_ context.Context, vendorID, reviewerID, notes string) (workflow.TransitionResult, error) {
	s.lastActorID = reviewerID
	return s.result, s.err
}

func (s *stubWorkflow) Approve(_ context.Context, vendorID, approverID, notes string) (workflow.TransitionResult, error) {
	s.lastActorID = approverID
	return s.result, s.err
}

func (s *stubWorkflow) Reject(_ context.Context, vendorID, reason, actorID string) (workflow.TransitionResult, error) {
	s.lastActorID = actorID
	s.lastReason = reason
	return s.result, s.err
}

func (s *stubWorkflow) RequestClarification(_ context.Context, vendorID, requestText, actorID string) (workflow.TransitionResult, error) {
	s.lastReason = requestText
	return s.result, s.err
}

func (s *stubWorkflow) Suspend(_ context.Context, vendorID, reason, actorID string, durationDays *int) (workflow.TransitionResult, error) {
	s.lastReason = reason
	return s.result, s.err
}

func (s *stubWorkflow) RecomputePerformance(context.Context, string) (workflow.PerformanceReview, error) {
	return s.review, s.err
}

type stubMonitor struct {
	report sla.Report
	err    error
}

func (s *stubMonitor) Report(context.Context) (sla.Report, error) {
	return s.report, s.err
}

type stubSweeper struct {
	escalated int
	err       error
}

func (s *stubSweeper) SweepOnce(context.Context) (int, error) {
	return s.escalated, s.err
}

type HandlerSuite struct {
	suite.Suite
	wf      *stubWorkflow
	monitor *stubMonitor
	sweeper *stubSweeper
	router  http.Handler
	token   string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.wf = &stubWorkflow{
		result: workflow.TransitionResult{
			VendorID: "v-1",
			Success:  true,
			From:     domain.StatusDraft,
			To:       domain.StatusSubmitted,
		},
	}
	s.monitor = &stubMonitor{report: sla.Report{ComplianceRate: 100}}
	s.sweeper = &stubSweeper{escalated: 2}

	log := logger.New()
	jwtService := jwttoken.NewJWTService("test-signing-key", "vendorflow-test")
	handler := NewHandler(s.wf, s.monitor, s.sweeper, log)
	s.router = NewRouter(handler, jwtService, log)

	var err error
	s.token, err = jwtService.GenerateAccessToken("reviewer-7", "reviewer", time.Hour)
	s.Require().NoError(err)
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestAuthRequired() {
	req := httptest.NewRequest(http.MethodPost, "/vendors/v-1/submit", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestSubmit() {
	rec := s.do(http.MethodPost, "/vendors/v-1/submit", "")
	s.Equal(http.StatusOK, rec.Code)

	var result workflow.TransitionResult
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	s.True(result.Success)
	s.Equal(domain.StatusSubmitted, result.To)

	// Actor identity comes from the token, never the payload.
	s.Equal("reviewer-7", s.wf.lastActorID)
}

func (s *HandlerSuite) TestReject() {
	rec := s.do(http.MethodPost, "/vendors/v-1/reject", `{"reason":"incomplete docs"}`)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("incomplete docs", s.wf.lastReason)
}

func (s *HandlerSuite) TestErrorMapping() {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid transition", dErrors.New(dErrors.CodeInvalidTransition, "cannot approve a draft"), http.StatusUnprocessableEntity},
		{"conflict", dErrors.New(dErrors.CodeConflict, "already suspended"), http.StatusConflict},
		{"not found", dErrors.New(dErrors.CodeNotFound, "vendor x not found"), http.StatusNotFound},
		{"precondition", dErrors.New(dErrors.CodePreconditionFailed, "profile incomplete"), http.StatusPreconditionFailed},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.wf.err = tc.err
			rec := s.do(http.MethodPost, "/vendors/v-1/approve", "")
			s.Equal(tc.want, rec.Code)

			var payload map[string]string
			s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &payload))
			s.NotEmpty(payload["error"])
			s.NotEmpty(payload["message"])
		})
	}
}

func (s *HandlerSuite) TestMalformedBody() {
	rec := s.do(http.MethodPost, "/vendors/v-1/reject", "{not json")
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *HandlerSuite) TestSLAReport() {
	rec := s.do(http.MethodGet, "/sla/report", "")
	s.Equal(http.StatusOK, rec.Code)

	var report sla.Report
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &report))
	s.Equal(float64(100), report.ComplianceRate)
}

func (s *HandlerSuite) TestSweep() {
	rec := s.do(http.MethodPost, "/sla/sweep", "")
	s.Equal(http.StatusOK, rec.Code)

	var payload map[string]int
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &payload))
	s.Equal(2, payload["escalated"])
}

func (s *HandlerSuite) TestHealthzIsOpen() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
}
