package api

import (
	"net/http"

	reqdto "fleet-match/internal/handler/dto/request"
	resdto "fleet-match/internal/handler/dto/response"
	"fleet-match/internal/handler/middleware"
	"fleet-match/internal/usecase/commands"
	"fleet-match/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type MatchingHandler struct {
	matchingCommands commands.MatchingCommands
	offerQueries     queries.OfferQueries
}

func NewMatchingHandler(matchingCommands commands.MatchingCommands, offerQueries queries.OfferQueries) *MatchingHandler {
	return &MatchingHandler{
		matchingCommands: matchingCommands,
		offerQueries:     offerQueries,
	}
}

func (h *MatchingHandler) AcceptOffer(c *gin.Context) {
	requesterID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req reqdto.AcceptOfferRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	view, err := h.matchingCommands.Accept(c.Request.Context(), requestID, req.OfferID, requesterID)
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromBookingView(view))
}

func (h *MatchingHandler) RejectOffer(c *gin.Context) {
	requesterID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	offerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req reqdto.RejectOfferRequest
	if c.Request.ContentLength > 0 {
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
			return
		}
	}

	// The critical section is keyed by request, so resolve the offer's parent
	// before entering it.
	existing, err := h.offerQueries.GetByID(c.Request.Context(), offerID)
	if err != nil {
		respondQueryError(c, err)
		return
	}

	view, err := h.matchingCommands.Reject(c.Request.Context(), existing.RequestID, offerID, requesterID, req.Reason)
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromOfferView(view))
}
