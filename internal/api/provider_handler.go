package api

import (
	"net/http"

	"LogoSync/internal/rotation"

	"github.com/gin-gonic/gin"
)

// RotationSource current provider rotation state
type RotationSource interface {
	Snapshot() rotation.Snapshot
}

type ProviderHandler struct {
	rotation RotationSource
}

func NewProviderHandler(rotation RotationSource) *ProviderHandler {
	return &ProviderHandler{rotation: rotation}
}

// Rotation GET /api/providers/rotation
func (h *ProviderHandler) Rotation(c *gin.Context) {
	c.JSON(http.StatusOK, h.rotation.Snapshot())
}
