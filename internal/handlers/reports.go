package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly/internal/models"
	"github.com/gatherly/gatherly/internal/services"
	"github.com/gatherly/gatherly/pkg/response"
)

// ReportHandler exposes the chat moderation intake queue.
type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type createReportRequest struct {
	Reason      string `json:"reason" validate:"required,oneof=SPAM HARASSMENT HATE_SPEECH OTHER"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

type reviewReportRequest struct {
	Verdict string `json:"verdict" validate:"required,oneof=REVIEWING RESOLVED DISMISSED"`
}

// POST /api/chat-messages/:id/reports
func (h *ReportHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	messageID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req createReportRequest
	if !bindAndValidate(c, &req) {
		return
	}

	report, err := h.reports.Report(requestContext(c), messageID, userID, models.ReportReason(req.Reason), strings.TrimSpace(req.Description))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"report": report})
}

// POST /api/reports/:id/review
func (h *ReportHandler) Review(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req reviewReportRequest
	if !bindAndValidate(c, &req) {
		return
	}

	report, err := h.reports.Review(requestContext(c), strings.TrimSpace(c.Param("id")), userID, models.ReportStatus(req.Verdict))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": report})
}

// GET /api/reports
func (h *ReportHandler) ListPending(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reports, err := h.reports.ListPending(requestContext(c), userID, parseIntQuery(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reports": reports})
}
