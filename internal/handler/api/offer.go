package api

import (
	"net/http"
	"time"

	reqdto "fleet-match/internal/handler/dto/request"
	resdto "fleet-match/internal/handler/dto/response"
	"fleet-match/internal/handler/middleware"
	"fleet-match/internal/usecase/commands"
	"fleet-match/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type OfferHandler struct {
	offerCommands commands.OfferCommands
	offerQueries  queries.OfferQueries
}

func NewOfferHandler(offerCommands commands.OfferCommands, offerQueries queries.OfferQueries) *OfferHandler {
	return &OfferHandler{
		offerCommands: offerCommands,
		offerQueries:  offerQueries,
	}
}

func (h *OfferHandler) SubmitOffer(c *gin.Context) {
	providerID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req reqdto.SubmitOfferRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	view, err := h.offerCommands.Submit(c.Request.Context(), commands.SubmitOfferParams{
		RequestID:  requestID,
		ProviderID: providerID,
		Terms:      req.Terms,
		TTL:        time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromOfferView(view))
}

func (h *OfferHandler) GetRequestOffers(c *gin.Context) {
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	views, err := h.offerQueries.ListForRequest(c.Request.Context(), requestID)
	if err != nil {
		respondQueryError(c, err)
		return
	}

	response := make([]*resdto.OfferResponse, len(views))
	for i, v := range views {
		response[i] = resdto.FromOfferView(v)
	}

	c.JSON(http.StatusOK, response)
}

func (h *OfferHandler) WithdrawOffer(c *gin.Context) {
	providerID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	offerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.offerCommands.Withdraw(c.Request.Context(), offerID, providerID)
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromOfferView(view))
}
