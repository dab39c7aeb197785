package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PostScan runs one scan of the journal directory.
func (h *Handler) PostScan(c *gin.Context) {
	sum, err := h.ingester.ScanOnce(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("manual scan failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// PostLogs ingests uploaded journal files. Only .log files are accepted; each
// is saved under its own name so re-uploads are recognised as processed. Later
// parts repeating an earlier base name are rejected.
func (h *Handler) PostLogs(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form with log_files is required"})
		return
	}

	// Each upload gets its own directory; names inside it are the client's base names.
	dir := filepath.Join(h.uploadDir, "upload-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("failed to create upload directory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("failed to remove upload directory")
		}
	}()

	var paths, rejected []string
	seen := make(map[string]bool)
	for _, fh := range form.File["log_files"] {
		name := filepath.Base(fh.Filename)
		if !strings.HasSuffix(name, ".log") {
			rejected = append(rejected, fh.Filename)
			continue
		}
		// The processed marker is keyed by base name, so a second part with
		// the same name would overwrite the first on disk.
		if seen[name] {
			log.Warn().Str("file", fh.Filename).Msg("duplicate journal name in upload; rejecting")
			rejected = append(rejected, fh.Filename)
			continue
		}
		seen[name] = true
		path := filepath.Join(dir, name)
		if err := c.SaveUploadedFile(fh, path); err != nil {
			log.Error().Err(err).Str("file", name).Msg("failed to save uploaded journal")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
			return
		}
		paths = append(paths, path)
	}

	if len(paths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no .log files uploaded", "rejected": rejected})
		return
	}

	sum, err := h.ingester.ProcessFiles(c.Request.Context(), paths)
	if err != nil {
		log.Error().Err(err).Msg("failed to process uploaded journals")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": sum, "rejected": rejected})
}
