package handlers

import (
	"net/http"

	"grid-constraints/internal/api/models"
	"grid-constraints/internal/checks"
	"grid-constraints/internal/data"
	"grid-constraints/internal/report"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CheckHandler handles constraint check requests
type CheckHandler struct {
	files *Files
	store *data.ReportStore
	log   *zap.Logger
}

// NewCheckHandler creates a new check handler
func NewCheckHandler(files *Files, store *data.ReportStore, log *zap.Logger) *CheckHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckHandler{files: files, store: store, log: log}
}

// checker builds a checker from the request's snapshot and configuration.
// On failure the error response is already written.
func (h *CheckHandler) checker(c *gin.Context, src models.SnapshotSource) (*checks.Checker, string, bool) {
	snap, name, err := h.files.loadSnapshot(src)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_SNAPSHOT", err.Error(), nil)
		return nil, "", false
	}
	cfg, err := h.files.loadConfig(src.ConfigPath)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error(), nil)
		return nil, "", false
	}
	return checks.New(&snap.Topology, &snap.Results, snap.Cases, cfg, h.log), name, true
}

// RunChecks handles POST /api/v1/checks
func (h *CheckHandler) RunChecks(c *gin.Context) {
	var req models.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	chk, name, ok := h.checker(c, req.SnapshotSource)
	if !ok {
		return
	}
	res, err := chk.Run(c.Request.Context(), req.Options)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	stored := h.store.Put(name, res)
	c.JSON(http.StatusOK, toCheckResponse(stored, req.IncludeRows))
}

// GetReport handles GET /api/v1/checks/:id
func (h *CheckHandler) GetReport(c *gin.Context) {
	id := c.Param("id")
	stored, ok := h.store.Get(id)
	if !ok {
		respondError(c, http.StatusNotFound, "REPORT_NOT_FOUND", "Check report not found or expired", map[string]interface{}{
			"id": id,
		})
		return
	}
	c.JSON(http.StatusOK, toCheckResponse(stored, c.Query("include_rows") == "true"))
}

// RelativeLoad handles POST /api/v1/relative-load
func (h *CheckHandler) RelativeLoad(c *gin.Context) {
	var req models.RelativeLoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	chk, _, ok := h.checker(c, req.SnapshotSource)
	if !ok {
		return
	}
	loading, err := chk.ComponentsRelativeLoad()
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.RelativeLoadResponse{
		Components: loading.Cols(),
		TimeSteps:  loading.Rows(),
		Loading:    loading,
	})
}

func toCheckResponse(s *data.StoredReport, includeRows bool) models.CheckResponse {
	resp := models.CheckResponse{
		ID:         s.ID,
		Snapshot:   s.Snapshot,
		CreatedAt:  s.CreatedAt,
		Clean:      s.Result.Clean(),
		Counts:     s.Result.Counts(),
		DurationMS: s.Result.Duration.Milliseconds(),
		Result:     s.Result,
	}
	if includeRows {
		for _, r := range report.Rows(s.Result) {
			resp.Rows = append(resp.Rows, models.ViolationRow{
				Category:  r.Category,
				Grid:      r.Grid,
				Element:   r.Element,
				Value:     r.Value,
				TimeIndex: r.TimeIndex,
			})
		}
	}
	return resp
}
