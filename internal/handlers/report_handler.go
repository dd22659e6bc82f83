package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockfolio/internal/authz"
	"stockfolio/internal/services"
)

// ReportHandler handles profit/loss report requests.
type ReportHandler struct {
	reportService services.ReportServicer
	auditService  services.AuditServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer, auditService services.AuditServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService, auditService: auditService}
}

// GetProfitLossReport builds the profit/loss report for a user's holdings.
// The target owner is explicit in the path, so ownership is checked before
// anything is loaded: only the owner may view their report.
// @Summary     Get profit/loss report
// @Description Compute profit/loss per holding against live market prices
// @Tags        stocks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       email path string true "Owner email"
// @Success     200 {array} services.ProfitLossLine "Report lines, one per holding"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "No holdings recorded"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stocks/report/{email} [get]
func (h *ReportHandler) GetProfitLossReport(c *gin.Context) {
	targetOwner := c.Param("email")

	identity := getIdentity(c)
	if err := authz.Authorize(identity, targetOwner); err != nil {
		respondWithError(c, err)
		return
	}

	lines, err := h.reportService.BuildReport(c.Request.Context(), targetOwner)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(identity.Email, "VIEW_REPORT", "report", targetOwner, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"report": lines})
}
