package handlers

import (
	"net/http"

	"grid-constraints/internal/api/models"
	"grid-constraints/internal/data"
	"grid-constraints/internal/powermodels"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExportHandler handles optimization export requests
type ExportHandler struct {
	files *Files
	bands powermodels.BandProvider
	log   *zap.Logger
}

// NewExportHandler creates a new export handler. bands is used when a
// request names no bands file; it may be nil.
func NewExportHandler(files *Files, bands powermodels.BandProvider, log *zap.Logger) *ExportHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExportHandler{files: files, bands: bands, log: log}
}

// Export handles POST /api/v1/export
func (h *ExportHandler) Export(c *gin.Context) {
	var req models.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	n, err := h.files.loadNetwork(req.NetworkPath, req.Network)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_NETWORK", err.Error(), nil)
		return
	}
	cfg, err := h.files.loadConfig(req.ConfigPath)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error(), nil)
		return
	}

	bands := h.bands
	if req.FlexBandsPath != "" {
		path, err := h.files.resolve(req.FlexBandsPath)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
		bands = data.FileBands{Path: path}
	}

	exp := powermodels.NewExporter(cfg.PowerModels, bands, h.log)
	pm, err := exp.Export(c.Request.Context(), n, req.FlexibleCPs, req.FlexibleHPs)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, pm)
}
