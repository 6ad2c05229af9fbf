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

type RequestHandler struct {
	requestCommands commands.RequestCommands
	requestQueries  queries.RequestQueries
}

func NewRequestHandler(requestCommands commands.RequestCommands, requestQueries queries.RequestQueries) *RequestHandler {
	return &RequestHandler{
		requestCommands: requestCommands,
		requestQueries:  requestQueries,
	}
}

func (h *RequestHandler) CreateRequest(c *gin.Context) {
	requesterID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.CreateRequestRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	var closesAt *time.Time
	if req.ClosesAt != nil {
		t := req.ClosesAt.UTC()
		closesAt = &t
	}

	view, err := h.requestCommands.Create(c.Request.Context(), commands.CreateRequestParams{
		RequesterID: requesterID,
		FlowKind:    req.FlowKind,
		Terms:       req.Terms,
		ClosesAt:    closesAt,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromRequestView(view))
}

func (h *RequestHandler) GetRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.requestQueries.GetByID(c.Request.Context(), id)
	if err != nil {
		respondQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromRequestView(view))
}

func (h *RequestHandler) GetMyRequests(c *gin.Context) {
	requesterID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views, err := h.requestQueries.ListByRequester(c.Request.Context(), requesterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]*resdto.RequestResponse, len(views))
	for i, v := range views {
		response[i] = resdto.FromRequestView(v)
	}

	c.JSON(http.StatusOK, response)
}

func (h *RequestHandler) CloseRequest(c *gin.Context) {
	requesterID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// Body is optional: a bare close defaults to the CLOSED terminal state.
	var req reqdto.CloseRequestRequest
	if c.Request.ContentLength > 0 {
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
			return
		}
	}

	view, err := h.requestCommands.Close(c.Request.Context(), id, requesterID, req.Cancel, req.Reason)
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromRequestView(view))
}
