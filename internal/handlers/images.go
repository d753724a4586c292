package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"photoboard/api/internal/catalog"
)

type approveRequest struct {
	ID       string         `json:"id" binding:"required"`
	URL      string         `json:"url" binding:"required"`
	Metadata map[string]any `json:"metadata"`
}

type approvedImage struct {
	ID         string         `json:"id"`
	URL        string         `json:"url"`
	Metadata   map[string]any `json:"metadata"`
	Status     string         `json:"status"`
	ApprovedAt *time.Time     `json:"approvedAt,omitempty"`
}

func (h HandlerSet) ApproveImage(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields: id, url"})
		return
	}

	record, err := h.reviews.Approve(c.Request.Context(), req.ID, req.URL, req.Metadata)
	if err != nil {
		h.log.Error().Err(err).Str("external_id", req.ID).Msg("approve failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"image": approvedImage{
			ID:         record.ExternalID,
			URL:        record.URL,
			Metadata:   record.Metadata,
			Status:     string(record.Status),
			ApprovedAt: record.ApprovedAt,
		},
	})
}

func (h HandlerSet) RejectImage(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: id"})
		return
	}

	if err := h.reviews.Reject(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Str("external_id", id).Msg("reject failed")
		c.JSON(http.StatusInternalServerError, upstreamErrorBody(err, "failed to reject image"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) ListUnreviewed(c *gin.Context) {
	images, err := h.reviews.ListPending(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list unreviewed failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch images"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (h HandlerSet) ListApproved(c *gin.Context) {
	images, err := h.reviews.ListApproved(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list approved failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch approved images"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (h HandlerSet) SyncImages(c *gin.Context) {
	summary, err := h.reviews.Sync(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("sync failed")
		c.JSON(http.StatusInternalServerError, upstreamErrorBody(err, "failed to sync images"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": summary.Message(),
	})
}

// upstreamErrorBody keeps the catalog's detail message visible to the
// dashboard alert while hiding store internals.
func upstreamErrorBody(err error, fallback string) gin.H {
	var upstream *catalog.UpstreamError
	switch {
	case errors.Is(err, catalog.ErrMissingCredentials):
		return gin.H{"error": fallback, "details": catalog.ErrMissingCredentials.Error()}
	case errors.As(err, &upstream):
		return gin.H{"error": fallback, "details": upstream.Error()}
	default:
		return gin.H{"error": fallback}
	}
}
