package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// GetStatus reports purchase counts per state and the last ingestion time.
func (h *Handler) GetStatus(c *gin.Context) {
	sum, err := h.store.Summary(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to summarise ledger")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load status"})
		return
	}
	c.JSON(http.StatusOK, sum)
}
