package dashboard

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/induction/internal/auth"
	"github.com/zulandar/induction/internal/importer"
	"github.com/zulandar/induction/internal/report"
	"github.com/zulandar/induction/internal/storage"
)

// certificateUploadDir is the storage prefix for certificates sent for extraction.
const certificateUploadDir = "temp"

func (s *server) handleImport(c *gin.Context) {
	sess, _ := auth.Current(c)
	n, err := importer.Commit(s.db, sess.ID)
	if errors.Is(err, importer.ErrNothingStaged) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data to import"})
		return
	}
	if err != nil {
		log.Printf("dashboard: import for %s: %v", sess.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        fmt.Sprintf("Successfully imported %d records", n),
		"imported_count": n,
	})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	reply, err := s.chat.Respond(c.Request.Context(), req.Message)
	if err != nil {
		log.Printf("dashboard: chat: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Assistant unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"response":  reply,
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *server) handleExtractCertificate(c *gin.Context) {
	fh, err := c.FormFile("certificate")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	ctx := c.Request.Context()
	key := storage.UploadKey(certificateUploadDir, fh.Filename)

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload"})
		return
	}
	err = s.store.Save(ctx, key, f, fh.Size)
	f.Close()
	if err != nil {
		log.Printf("dashboard: save certificate %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store file"})
		return
	}

	f, err = fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload"})
		return
	}
	defer f.Close()
	ex, err := s.extract.Extract(ctx, fh.Filename, f)
	if err != nil {
		log.Printf("dashboard: extract %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Extraction failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"extracted_data":   ex.Data,
		"file_path":        key,
		"confidence_score": ex.Confidence,
	})
}

func (s *server) handleReport(c *gin.Context) {
	data, err := report.Generate(s.db)
	if errors.Is(err, report.ErrNoData) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No train data to report"})
		return
	}
	if err != nil {
		log.Printf("dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(s.now())))
	c.Data(http.StatusOK, "text/csv", data)
}
