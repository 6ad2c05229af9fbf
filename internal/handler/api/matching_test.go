//go:build unit

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fleet-match/internal/domain/booking"
	"fleet-match/internal/gateway"
	"fleet-match/internal/handler/api"
	"fleet-match/internal/infra/memstore"
	"fleet-match/internal/pkg/clock"
	"fleet-match/internal/usecase/commands"
	"fleet-match/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// MatchingFlowTestSuite drives the handlers end to end over the in-memory
// store: requester posts a request, providers compete, requester accepts.
type MatchingFlowTestSuite struct {
	suite.Suite
	router *gin.Engine
	store  *memstore.Store
	clk    *clock.MockClock

	actorID uuid.UUID
}

func TestMatchingFlowSuite(t *testing.T) {
	suite.Run(t, new(MatchingFlowTestSuite))
}

func (s *MatchingFlowTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.store = memstore.New()
	s.clk = clock.NewMockClock(baseTime)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := gateway.NewLogNotifier(logger)
	ledger := gateway.NewLogLedger(logger)

	requestCommands := commands.NewRequestCommands(s.store, s.clk)
	offerCommands := commands.NewOfferCommands(s.store, notifier, s.clk, logger)
	matchingCommands := commands.NewMatchingCommands(s.store, booking.NewFactory(s.clk), notifier, ledger, s.clk, logger)
	bookingCommands := commands.NewBookingCommands(s.store, s.clk)

	requestQueries := queries.NewRequestQueries(s.store)
	offerQueries := queries.NewOfferQueries(s.store)
	bookingQueries := queries.NewBookingQueries(s.store)

	requestHandler := api.NewRequestHandler(requestCommands, requestQueries)
	offerHandler := api.NewOfferHandler(offerCommands, offerQueries)
	matchingHandler := api.NewMatchingHandler(matchingCommands, offerQueries)
	bookingHandler := api.NewBookingHandler(bookingCommands, bookingQueries)

	// Stand-in auth: the suite chooses the acting identity per call.
	authMiddleware := func(c *gin.Context) {
		c.Set("actor_id", s.actorID)
		c.Set("actor_role", "tenant")
		c.Next()
	}

	grp := s.router.Group("/api", authMiddleware)
	grp.POST("/requests", requestHandler.CreateRequest)
	grp.GET("/requests/:id", requestHandler.GetRequest)
	grp.POST("/requests/:id/close", requestHandler.CloseRequest)
	grp.POST("/requests/:id/offers", offerHandler.SubmitOffer)
	grp.GET("/requests/:id/offers", offerHandler.GetRequestOffers)
	grp.POST("/requests/:id/accept", matchingHandler.AcceptOffer)
	grp.POST("/offers/:id/reject", matchingHandler.RejectOffer)
	grp.POST("/offers/:id/withdraw", offerHandler.WithdrawOffer)
	grp.GET("/bookings/:id", bookingHandler.GetBooking)
	grp.POST("/bookings/:id/start", bookingHandler.StartBooking)
}

func (s *MatchingFlowTestSuite) do(as uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	s.actorID = as

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *MatchingFlowTestSuite) createRequest(requesterID uuid.UUID) string {
	rec := s.do(requesterID, http.MethodPost, "/api/requests", gin.H{
		"flow_kind": "rental",
		"terms":     gin.H{"vehicle_class": "van"},
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	var resp struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func (s *MatchingFlowTestSuite) submitOffer(providerID uuid.UUID, requestID string, ttlSeconds int64) string {
	rec := s.do(providerID, http.MethodPost, "/api/requests/"+requestID+"/offers", gin.H{
		"terms":       gin.H{"price": 300},
		"ttl_seconds": ttlSeconds,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	var resp struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func (s *MatchingFlowTestSuite) TestFullMatchingFlow() {
	requesterID := uuid.New()
	providerA := uuid.New()
	providerB := uuid.New()

	requestID := s.createRequest(requesterID)
	offerA := s.submitOffer(providerA, requestID, 3600)
	s.submitOffer(providerB, requestID, 3600)

	rec := s.do(requesterID, http.MethodGet, "/api/requests/"+requestID+"/offers", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var offers []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &offers))
	s.Require().Len(offers, 2)
	s.Equal(offerA, offers[0].ID)

	rec = s.do(requesterID, http.MethodPost, "/api/requests/"+requestID+"/accept", gin.H{"offer_id": offerA})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var bookingResp struct {
		ID      string `json:"id"`
		OfferID string `json:"offerId"`
		Status  string `json:"status"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &bookingResp))
	s.Equal(offerA, bookingResp.OfferID)
	s.Equal("CONFIRMED", bookingResp.Status)

	rec = s.do(requesterID, http.MethodGet, "/api/requests/"+requestID, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"MATCHED"`)

	rec = s.do(providerA, http.MethodPost, "/api/bookings/"+bookingResp.ID+"/start", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"IN_PROGRESS"`)
}

func (s *MatchingFlowTestSuite) TestAcceptConflictMapsTo409() {
	requesterID := uuid.New()
	requestID := s.createRequest(requesterID)
	offerA := s.submitOffer(uuid.New(), requestID, 3600)
	offerB := s.submitOffer(uuid.New(), requestID, 3600)

	rec := s.do(requesterID, http.MethodPost, "/api/requests/"+requestID+"/accept", gin.H{"offer_id": offerA})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(requesterID, http.MethodPost, "/api/requests/"+requestID+"/accept", gin.H{"offer_id": offerB})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *MatchingFlowTestSuite) TestExpiredOfferMapsTo410() {
	requesterID := uuid.New()
	requestID := s.createRequest(requesterID)
	offerID := s.submitOffer(uuid.New(), requestID, 60)

	s.clk.Add(2 * time.Minute)

	rec := s.do(requesterID, http.MethodPost, "/api/requests/"+requestID+"/accept", gin.H{"offer_id": offerID})
	s.Equal(http.StatusGone, rec.Code)
}

func (s *MatchingFlowTestSuite) TestForeignAcceptMapsTo403() {
	requestID := s.createRequest(uuid.New())
	offerID := s.submitOffer(uuid.New(), requestID, 3600)

	rec := s.do(uuid.New(), http.MethodPost, "/api/requests/"+requestID+"/accept", gin.H{"offer_id": offerID})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *MatchingFlowTestSuite) TestUnknownRequestMapsTo404() {
	rec := s.do(uuid.New(), http.MethodGet, "/api/requests/"+uuid.NewString(), nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *MatchingFlowTestSuite) TestDuplicateOfferMapsTo409() {
	providerID := uuid.New()
	requestID := s.createRequest(uuid.New())
	s.submitOffer(providerID, requestID, 3600)

	rec := s.do(providerID, http.MethodPost, "/api/requests/"+requestID+"/offers", gin.H{
		"terms":       gin.H{"price": 200},
		"ttl_seconds": 3600,
	})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *MatchingFlowTestSuite) TestInvalidBodyMapsTo400() {
	rec := s.do(uuid.New(), http.MethodPost, "/api/requests", gin.H{
		"flow_kind": "rental",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
}
