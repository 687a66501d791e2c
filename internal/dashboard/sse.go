package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/induction/internal/models"
)

// trainEvent holds data for a train SSE event.
type trainEvent struct {
	ID          uint   `json:"id"`
	TrainNumber string `json:"train_number"`
	Status      string `json:"status"`
	Rank        int    `json:"rank"`
	UpdatedAt   string `json:"updated_at"`
}

// sseCursor marks how far a stream has read. Several trains can share one
// updated_at, so the ids already sent at that instant are kept too.
type sseCursor struct {
	at   time.Time
	sent map[uint]bool
}

// advance records t as sent.
func (cur *sseCursor) advance(t models.Train) {
	if t.UpdatedAt.After(cur.at) {
		cur.at = t.UpdatedAt
		cur.sent = map[uint]bool{}
	}
	cur.sent[t.ID] = true
}

// openCursor positions a cursor at the newest train so that existing rows
// are not replayed.
func (s *server) openCursor() (*sseCursor, error) {
	cur := &sseCursor{sent: map[uint]bool{}}
	var latest models.Train
	if err := s.db.Order("updated_at DESC").Limit(1).Find(&latest).Error; err != nil {
		return cur, fmt.Errorf("latest train: %w", err)
	}
	if latest.ID == 0 {
		return cur, nil
	}
	var ids []uint
	if err := s.db.Model(&models.Train{}).Where("updated_at = ?", latest.UpdatedAt).Pluck("id", &ids).Error; err != nil {
		return cur, fmt.Errorf("trains at %s: %w", latest.UpdatedAt, err)
	}
	cur.at = latest.UpdatedAt
	for _, id := range ids {
		cur.sent[id] = true
	}
	return cur, nil
}

// pollChanges returns trains updated since the cursor, oldest first, and
// moves the cursor past them. A train committed late with the cursor's own
// timestamp is still returned once.
func (s *server) pollChanges(cur *sseCursor) ([]models.Train, error) {
	var rows []models.Train
	if err := s.db.Where("updated_at >= ?", cur.at).
		Order("updated_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	var changed []models.Train
	for _, t := range rows {
		if t.UpdatedAt.Equal(cur.at) && cur.sent[t.ID] {
			continue
		}
		cur.advance(t)
		changed = append(changed, t)
	}
	return changed, nil
}

// handleSSE streams train changes by polling with an sseCursor.
func (s *server) handleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// Send connected event.
	writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
	c.Writer.Flush()

	// Only changes after the stream opened are reported.
	cursor, err := s.openCursor()
	if err != nil {
		log.Printf("dashboard: sse open: %v", err)
	}

	ctx := c.Request.Context()
	ticker := time.NewTicker(s.pollInterval)
	heartbeat := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": s.now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-ticker.C:
			changed, err := s.pollChanges(cursor)
			if err != nil {
				log.Printf("dashboard: sse poll: %v", err)
				continue
			}
			if len(changed) == 0 {
				continue
			}

			for _, t := range changed {
				writeSSE(c.Writer, "train", trainEvent{
					ID:          t.ID,
					TrainNumber: t.TrainNumber,
					Status:      t.Status,
					Rank:        t.Rank,
					UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
				})
			}
			c.Writer.Flush()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
