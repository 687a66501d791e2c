package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/induction/internal/alert"
	"github.com/zulandar/induction/internal/auth"
	"github.com/zulandar/induction/internal/fleet"
	"github.com/zulandar/induction/internal/importer"
	"github.com/zulandar/induction/internal/models"
	"github.com/zulandar/induction/internal/permission"
	"github.com/zulandar/induction/internal/train"
)

// alertTimeout bounds how long an edit waits on chat delivery.
const alertTimeout = 10 * time.Second

// render writes layout.html with page-specific data merged over the common
// header fields.
func (s *server) render(c *gin.Context, code int, page string, data gin.H) {
	h := gin.H{"page": page, "flash": takeFlash(c)}
	if sess, ok := auth.Current(c); ok {
		h["session"] = sess
		h["roleLabel"] = permission.Label(sess.Role)
	}
	for k, v := range data {
		h[k] = v
	}
	c.HTML(code, "layout.html", h)
}

func (s *server) handleLoginForm(c *gin.Context) {
	s.render(c, http.StatusOK, "login", nil)
}

func (s *server) handleLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		s.render(c, http.StatusOK, "login", gin.H{
			"error":    "Please enter both username and password",
			"username": username,
		})
		return
	}

	id, err := s.provider.Verify(c.Request.Context(), username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.render(c, http.StatusOK, "login", gin.H{
			"error":    "Invalid username or password",
			"username": username,
		})
		return
	}
	if err != nil {
		log.Printf("dashboard: login %s: %v", username, err)
		s.render(c, http.StatusInternalServerError, "login", gin.H{"error": "Login is unavailable, try again later"})
		return
	}

	if n, err := s.sessions.Purge(); err != nil {
		log.Printf("dashboard: %v", err)
	} else if n > 0 {
		log.Printf("dashboard: purged %d expired sessions", n)
	}
	sess := s.codec.NewSession(id)
	if err := s.sessions.Save(sess); err != nil {
		log.Printf("dashboard: login %s: %v", username, err)
		s.render(c, http.StatusInternalServerError, "login", gin.H{"error": "Login is unavailable, try again later"})
		return
	}
	if err := s.codec.SetCookie(c.Writer, sess); err != nil {
		log.Printf("dashboard: set session cookie: %v", err)
		s.render(c, http.StatusInternalServerError, "login", gin.H{"error": "Login is unavailable, try again later"})
		return
	}
	setFlash(c, flashSuccess, "Welcome! Logged in as "+permission.Label(sess.Role))
	c.Redirect(http.StatusFound, "/ranklist")
}

func (s *server) handleLogout(c *gin.Context) {
	if sess, err := s.codec.FromRequest(c.Request); err == nil {
		if err := s.sessions.Revoke(sess.ID); err != nil {
			log.Printf("dashboard: logout %s: %v", sess.Username, err)
		}
		if err := importer.Clear(s.db, sess.ID); err != nil {
			log.Printf("dashboard: logout %s: %v", sess.Username, err)
		}
	}
	auth.ClearCookie(c.Writer)
	setFlash(c, flashSuccess, "You have been logged out successfully")
	c.Redirect(http.StatusFound, "/login")
}

func (s *server) handleRanklist(c *gin.Context) {
	result, err := Ranklist(s.db, fleet.Options{
		Search: c.Query("search"),
		Sort:   c.DefaultQuery("sort", fleet.SortRank),
	})
	if err != nil {
		log.Printf("dashboard: ranklist: %v", err)
		s.render(c, http.StatusInternalServerError, "error", gin.H{"error": "Could not load the fleet"})
		return
	}
	s.render(c, http.StatusOK, "ranklist", gin.H{"ranklist": result})
}

// trainID parses the :id path parameter.
func trainID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *server) trainNotFound(c *gin.Context) {
	setFlash(c, flashError, "Train not found")
	c.Redirect(http.StatusFound, "/ranklist")
}

func (s *server) handleTrainDetail(c *gin.Context) {
	id, ok := trainID(c)
	if !ok {
		s.trainNotFound(c)
		return
	}
	sess, _ := auth.Current(c)

	detail, err := GetTrainDetail(s.db, id, sess.Role, s.now())
	if errors.Is(err, train.ErrNotFound) {
		s.trainNotFound(c)
		return
	}
	if err != nil {
		log.Printf("dashboard: train %d: %v", id, err)
		s.render(c, http.StatusInternalServerError, "error", gin.H{"error": "Could not load the train"})
		return
	}
	s.render(c, http.StatusOK, "train", gin.H{"detail": detail})
}

func (s *server) handleTrainEdit(c *gin.Context) {
	id, ok := trainID(c)
	if !ok {
		s.trainNotFound(c)
		return
	}
	sess, _ := auth.Current(c)
	field := c.PostForm("field_name")
	value := c.PostForm("field_value")
	back := fmt.Sprintf("/train/%d", id)

	res, err := train.EditField(s.db, sess.Role, id, field, value)
	switch {
	case err == nil:
		setFlash(c, flashSuccess, fmt.Sprintf("Updated %s successfully", field))
		if res.StatusChanged() && res.Train.Status == models.TrainStatusCannotSchedule {
			s.notifyStatusChange(c.Request.Context(), res, sess)
		}
	case errors.Is(err, train.ErrPermissionDenied):
		setFlash(c, flashError, "You do not have permission to edit this field")
	case errors.Is(err, train.ErrUnknownField):
		setFlash(c, flashError, "Invalid field")
	case errors.Is(err, train.ErrNotFound):
		s.trainNotFound(c)
		return
	case errors.Is(err, train.ErrInvalidValue):
		setFlash(c, flashError, fmt.Sprintf("Invalid value for %s", field))
	case errors.Is(err, train.ErrDuplicateTrainNumber):
		setFlash(c, flashError, "That train number is already in use")
	default:
		log.Printf("dashboard: edit train %d %s: %v", id, field, err)
		setFlash(c, flashError, "Could not update the train")
	}
	c.Redirect(http.StatusFound, back)
}

// notifyStatusChange posts a status alert. Delivery failures are logged by
// the dispatcher and never reach the user.
func (s *server) notifyStatusChange(ctx context.Context, res *train.EditResult, sess auth.Session) {
	if !s.alerts.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	defer cancel()
	s.alerts.Dispatch(ctx, alert.TrainStatusChange(res.Train, res.OldStatus, sess.Username, sess.Role))
}

func (s *server) handleUploadForm(c *gin.Context) {
	sess, _ := auth.Current(c)
	staged, err := importer.Staged(s.db, sess.ID)
	if err != nil {
		log.Printf("dashboard: staged rows: %v", err)
	}
	s.render(c, http.StatusOK, "upload", gin.H{"staged": staged})
}

func (s *server) handleUpload(c *gin.Context) {
	sess, _ := auth.Current(c)

	fh, err := c.FormFile("file")
	if err != nil {
		s.render(c, http.StatusBadRequest, "upload", gin.H{"error": "Please choose a file to upload"})
		return
	}
	if !importer.SupportedFile(fh.Filename) {
		s.render(c, http.StatusBadRequest, "upload", gin.H{"error": "Please upload a CSV or Excel file"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.render(c, http.StatusBadRequest, "upload", gin.H{"error": "Error reading file: " + err.Error()})
		return
	}
	defer f.Close()

	sheet, err := importer.ParseFile(fh.Filename, f)
	if err != nil {
		s.render(c, http.StatusBadRequest, "upload", gin.H{"error": "Error reading file: " + err.Error()})
		return
	}
	if err := importer.Stage(s.db, sess.ID, fh.Filename, sheet); err != nil {
		log.Printf("dashboard: stage %s: %v", fh.Filename, err)
		s.render(c, http.StatusInternalServerError, "upload", gin.H{"error": "Could not stage the upload"})
		return
	}

	s.render(c, http.StatusOK, "upload", gin.H{
		"fileName":  fh.Filename,
		"columns":   sheet.Columns,
		"preview":   sheet.Preview(),
		"totalRows": sheet.Len(),
		"staged":    int64(sheet.Len()),
	})
}
