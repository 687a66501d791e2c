package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/induction/internal/alert"
	"github.com/zulandar/induction/internal/auth"
	dbpkg "github.com/zulandar/induction/internal/db"
	"github.com/zulandar/induction/internal/models"
	"github.com/zulandar/induction/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	got []alert.Alert
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Notify(_ context.Context, a alert.Alert) error {
	r.got = append(r.got, a)
	return nil
}

type testEnv struct {
	srv      *server
	router   *gin.Engine
	db       *gorm.DB
	store    *storage.LocalStore
	notifier *recordingNotifier
}

// testDB opens a single-connection in-memory database so handlers and
// test goroutines share one schema.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := dbpkg.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testDB(t)
	store := storage.NewLocalStore(t.TempDir())
	notifier := &recordingNotifier{}
	srv, err := newServer(StartOpts{
		DB:     db,
		Codec:  auth.NewCodec("test-secret", time.Hour),
		Store:  store,
		Alerts: alert.NewDispatcher(notifier),
	})
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	srv.now = func() time.Time { return fixedNow }
	router, err := newRouter(srv)
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}
	return &testEnv{srv: srv, router: router, db: db, store: store, notifier: notifier}
}

func date(s string) *time.Time {
	d, _ := time.Parse(time.DateOnly, s)
	return &d
}

// seedFleet inserts three trains and returns them keyed by number.
func (e *testEnv) seedFleet(t *testing.T) map[string]*models.Train {
	t.Helper()
	trains := []*models.Train{
		{TrainNumber: "KM-001", TrainName: "Aluva Express", Status: "ok", Rank: 1, CurrentMileage: 45320, LastServiceDate: date("2024-01-15"), CleaningStatus: "Clean"},
		{TrainNumber: "KM-002", TrainName: "Kochi Central", Status: "minor_maintenance", Rank: 2, CurrentMileage: 52100, LastServiceDate: date("2024-01-10"), CleaningStatus: "Needs cleaning"},
		{TrainNumber: "KM-003", TrainName: "Ernakulam Junction", Status: "ok", Rank: 3, CurrentMileage: 38900, LastServiceDate: date("2024-01-20"), CleaningStatus: "Clean"},
	}
	out := make(map[string]*models.Train)
	for _, tr := range trains {
		if err := e.db.Create(tr).Error; err != nil {
			t.Fatalf("seed %s: %v", tr.TrainNumber, err)
		}
		out[tr.TrainNumber] = tr
	}
	return out
}

func (e *testEnv) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(t *testing.T, path, field, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := w.CreateFormFile(field, fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(content))
	}
	w.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// flashOf returns the flash message set by a response, if any.
func flashOf(rec *httptest.ResponseRecorder) string {
	c := cookieNamed(rec, flashCookie)
	if c == nil {
		return ""
	}
	v, _ := url.QueryUnescape(c.Value)
	return v
}

// login signs in through the form and returns the session cookie.
func (e *testEnv) login(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rec := e.do(postForm("/login", url.Values{"username": {username}, "password": {"pw"}}), nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("login %s: code %d", username, rec.Code)
	}
	c := cookieNamed(rec, auth.CookieName)
	if c == nil {
		t.Fatalf("login %s: no session cookie", username)
	}
	return c
}

func (e *testEnv) sessionOf(t *testing.T, c *http.Cookie) auth.Session {
	t.Helper()
	s, err := e.srv.codec.Decode(c.Value)
	if err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return s
}

func TestNewServer_Validation(t *testing.T) {
	db := testDB(t)
	codec := auth.NewCodec("x", time.Hour)
	store := storage.NewLocalStore(t.TempDir())

	tests := []struct {
		name string
		opts StartOpts
		want string
	}{
		{"nil db", StartOpts{Codec: codec, Store: store}, "db is required"},
		{"nil codec", StartOpts{DB: db, Store: store}, "session codec is required"},
		{"nil store", StartOpts{DB: db, Codec: codec}, "file store is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newServer(tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}

	if err := Start(context.Background(), StartOpts{}); err == nil {
		t.Error("Start with zero opts should fail")
	}
}

func TestEmbeddedFiles(t *testing.T) {
	for _, name := range []string{"assets/style.css", "assets/app.js"} {
		data, err := assetsFS.ReadFile(name)
		if err != nil || len(data) == 0 {
			t.Errorf("%s not embedded: %v", name, err)
		}
	}
	data, err := templatesFS.ReadFile("templates/layout.html")
	if err != nil {
		t.Fatalf("layout.html not embedded: %v", err)
	}
	if !strings.Contains(string(data), "Induction") {
		t.Error("layout.html does not contain 'Induction'")
	}
}

func TestPublicRoutes(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		path     string
		wantCode int
		wantLoc  string
	}{
		{"/", http.StatusFound, "/login"},
		{"/login", http.StatusOK, ""},
		{"/health", http.StatusOK, ""},
		{"/static/style.css", http.StatusOK, ""},
		{"/nonexistent", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := e.do(httptest.NewRequest(http.MethodGet, tt.path, nil), nil)
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantLoc != "" && rec.Header().Get("Location") != tt.wantLoc {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), tt.wantLoc)
			}
		})
	}
}

func TestProtectedRoutes_RequireSession(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/ranklist", "/train/1", "/upload"} {
		rec := e.do(httptest.NewRequest(http.MethodGet, path, nil), nil)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
			t.Errorf("GET %s: code %d location %q, want redirect to /login", path, rec.Code, rec.Header().Get("Location"))
		}
	}

	apiCalls := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/report", nil),
		httptest.NewRequest(http.MethodGet, "/api/events", nil),
		httptest.NewRequest(http.MethodPost, "/api/import", nil),
		httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`)),
		httptest.NewRequest(http.MethodPost, "/api/extract_certificate", nil),
	}
	for _, req := range apiCalls {
		rec := e.do(req, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: code %d, want 401", req.Method, req.URL.Path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"error"`) {
			t.Errorf("%s %s: body %q, want JSON error", req.Method, req.URL.Path, rec.Body.String())
		}
	}

	forged := &http.Cookie{Name: auth.CookieName, Value: "forged.token.value"}
	if rec := e.do(httptest.NewRequest(http.MethodGet, "/ranklist", nil), forged); rec.Code != http.StatusFound {
		t.Errorf("forged cookie: code %d, want redirect", rec.Code)
	}
}

func TestLogin_AssignsRole(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		username string
		role     string
	}{
		{"operator_john", "train_operator"},
		{"officer1", "metro_officer"},
		{"cleaner_raj", "cleaner"},
		{"maintenance_bob", "maintenance_worker"},
		{"staff1_amy", "staff1"},
		{"staff2_joe", "staff2"},
		{"admin", "admin"},
		{"random_user", "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			rec := e.do(postForm("/login", url.Values{"username": {tt.username}, "password": {"x"}}), nil)
			if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/ranklist" {
				t.Fatalf("code %d location %q", rec.Code, rec.Header().Get("Location"))
			}
			sess := e.sessionOf(t, cookieNamed(rec, auth.CookieName))
			if sess.Role != tt.role || sess.Username != tt.username {
				t.Errorf("session = %+v, want role %s", sess, tt.role)
			}
			if !strings.Contains(flashOf(rec), "Welcome! Logged in as") {
				t.Errorf("flash = %q", flashOf(rec))
			}
		})
	}
}

func TestLogin_MissingCredentials(t *testing.T) {
	e := newTestEnv(t)
	for _, form := range []url.Values{
		{"username": {"admin"}},
		{"password": {"pw"}},
		{},
	} {
		rec := e.do(postForm("/login", form), nil)
		if rec.Code != http.StatusOK {
			t.Errorf("form %v: code %d, want 200 re-render", form, rec.Code)
		}
		if cookieNamed(rec, auth.CookieName) != nil {
			t.Errorf("form %v: session cookie set", form)
		}
		if !strings.Contains(rec.Body.String(), "Please enter both username and password") {
			t.Errorf("form %v: missing error message", form)
		}
	}
}

func TestRanklist_SearchAndSort(t *testing.T) {
	e := newTestEnv(t)
	e.seedFleet(t)
	cookie := e.login(t, "admin")

	rec := e.do(httptest.NewRequest(http.MethodGet, "/ranklist?search=ALUVA", nil), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "KM-001") || strings.Contains(body, "KM-002") {
		t.Error("search should keep only KM-001")
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/ranklist?sort=mileage", nil), cookie)
	body = rec.Body.String()
	i2, i1, i3 := strings.Index(body, "KM-002"), strings.Index(body, "KM-001"), strings.Index(body, "KM-003")
	if !(i2 < i1 && i1 < i3) {
		t.Errorf("mileage order positions KM-002=%d KM-001=%d KM-003=%d", i2, i1, i3)
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/ranklist?sort=date", nil), cookie)
	body = rec.Body.String()
	if !(strings.Index(body, "KM-003") < strings.Index(body, "KM-001")) {
		t.Error("date sort should put KM-003 (2024-01-20) first")
	}

	rec = e.do(httptest.NewRequest(http.MethodGet, "/ranklist?sort=bogus&search=zzz", nil), cookie)
	if !strings.Contains(rec.Body.String(), "No trains match.") {
		t.Error("empty result should render the no-match row")
	}
}

func TestTrainDetail(t *testing.T) {
	e := newTestEnv(t)
	fleet := e.seedFleet(t)
	km1 := fleet["KM-001"]
	e.db.Create(&models.Certificate{TrainID: km1.ID, Name: "Fire Safety", ExpiryDate: date("2025-01-01")})
	e.db.Create(&models.JobCard{TrainID: km1.ID, Title: "Brake Inspection", Status: "pending", Priority: "high"})

	cookie := e.login(t, "officer1")
	rec := e.do(httptest.NewRequest(http.MethodGet, "/train/1", nil), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Aluva Express", "Fire Safety", "expired", "Brake Inspection", "Metro Officer", "status_notes, inspection_notes, status"} {
		if !strings.Contains(body, want) {
			t.Errorf("detail page missing %q", want)
		}
	}

	for _, path := range []string{"/train/999", "/train/abc"} {
		rec = e.do(httptest.NewRequest(http.MethodGet, path, nil), cookie)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/ranklist" {
			t.Errorf("GET %s: code %d location %q", path, rec.Code, rec.Header().Get("Location"))
		}
		if !strings.Contains(flashOf(rec), "Train not found") {
			t.Errorf("GET %s: flash %q", path, flashOf(rec))
		}
	}
}

func TestTrainEdit(t *testing.T) {
	e := newTestEnv(t)
	fleet := e.seedFleet(t)
	km1 := fleet["KM-001"]

	tests := []struct {
		name      string
		username  string
		field     string
		value     string
		wantFlash string
		check     func(tr models.Train) bool
	}{
		{"operator mileage", "operator_john", "current_mileage", "50000", "Updated current_mileage successfully",
			func(tr models.Train) bool { return tr.CurrentMileage == 50000 }},
		{"staff1 status denied", "staff1_amy", "status", "cannot_schedule", "You do not have permission to edit this field",
			func(tr models.Train) bool { return tr.Status == "ok" }},
		{"operator unknown field", "operator_john", "operational_notes", "smooth", "Invalid field",
			func(tr models.Train) bool { return true }},
		{"admin bad mileage", "admin", "current_mileage", "far", "Invalid value for current_mileage",
			func(tr models.Train) bool { return tr.CurrentMileage == 50000 }},
		{"cleaner cleaning", "cleaner_raj", "cleaning_status", "Deep clean done", "Updated cleaning_status successfully",
			func(tr models.Train) bool { return tr.CleaningStatus == "Deep clean done" }},
		{"admin alias bay", "admin", "current_stabling_bay", "Bay-C2", "Updated current_stabling_bay successfully",
			func(tr models.Train) bool { return tr.StablingBay == "Bay-C2" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookie := e.login(t, tt.username)
			rec := e.do(postForm("/train/1", url.Values{"field_name": {tt.field}, "field_value": {tt.value}}), cookie)
			if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/train/1" {
				t.Fatalf("code %d location %q", rec.Code, rec.Header().Get("Location"))
			}
			if got := flashOf(rec); !strings.Contains(got, tt.wantFlash) {
				t.Errorf("flash = %q, want %q", got, tt.wantFlash)
			}
			var tr models.Train
			e.db.First(&tr, km1.ID)
			if !tt.check(tr) {
				t.Errorf("train after edit = %+v", tr)
			}
		})
	}
	if len(e.notifier.got) != 0 {
		t.Errorf("no alert expected, got %d", len(e.notifier.got))
	}
}

func TestTrainEdit_CannotScheduleAlerts(t *testing.T) {
	e := newTestEnv(t)
	e.seedFleet(t)
	cookie := e.login(t, "officer1")

	rec := e.do(postForm("/train/2", url.Values{"field_name": {"status"}, "field_value": {"cannot_schedule"}}), cookie)
	if rec.Code != http.StatusFound {
		t.Fatalf("code = %d", rec.Code)
	}
	if len(e.notifier.got) != 1 {
		t.Fatalf("alerts = %d, want 1", len(e.notifier.got))
	}
	if !strings.Contains(e.notifier.got[0].Title, "KM-002") {
		t.Errorf("alert title = %q", e.notifier.got[0].Title)
	}

	// Setting the same status again is not a change.
	e.do(postForm("/train/2", url.Values{"field_name": {"status"}, "field_value": {"cannot_schedule"}}), cookie)
	if len(e.notifier.got) != 1 {
		t.Errorf("alerts = %d after no-op edit, want 1", len(e.notifier.got))
	}
}

const uploadCSV = "train_number,train_name\nKM-010,A\nKM-011,B\nKM-012,C\n"

func TestUploadAndImport(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "admin")

	rec := e.do(multipartRequest(t, "/upload", "file", "fleet.csv", uploadCSV), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload code = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"fleet.csv", "train_number", "KM-012", "3 rows"} {
		if !strings.Contains(body, want) {
			t.Errorf("upload page missing %q", want)
		}
	}

	rec = e.do(httptest.NewRequest(http.MethodPost, "/api/import", nil), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("import code = %d", rec.Code)
	}
	var resp struct {
		Success       bool   `json:"success"`
		Message       string `json:"message"`
		ImportedCount int    `json:"imported_count"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Success || resp.ImportedCount != 3 || resp.Message != "Successfully imported 3 records" {
		t.Errorf("import response = %+v", resp)
	}

	rec = e.do(httptest.NewRequest(http.MethodPost, "/api/import", nil), cookie)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "No data to import") {
		t.Errorf("second import: code %d body %s", rec.Code, rec.Body.String())
	}
}

func TestUpload_Rejects(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "admin")

	rec := e.do(multipartRequest(t, "/upload", "file", "notes.txt", "hello"), cookie)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Please upload a CSV or Excel file") {
		t.Errorf("txt upload: code %d", rec.Code)
	}
	rec = e.do(multipartRequest(t, "/upload", "", "", ""), cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file: code %d", rec.Code)
	}
}

func TestLogout_ClearsSessionAndStagedRows(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "admin")
	e.do(multipartRequest(t, "/upload", "file", "fleet.csv", uploadCSV), cookie)

	rec := e.do(postForm("/logout", nil), cookie)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("code %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	if c := cookieNamed(rec, auth.CookieName); c == nil || c.MaxAge >= 0 {
		t.Errorf("session cookie not cleared: %+v", c)
	}

	var n int64
	e.db.Model(&models.StagedRow{}).Count(&n)
	if n != 0 {
		t.Errorf("staged rows after logout = %d, want 0", n)
	}
	e.db.Model(&models.LoginSession{}).Count(&n)
	if n != 0 {
		t.Errorf("login sessions after logout = %d, want 0", n)
	}
}

func TestLogout_RejectsReplayedCookie(t *testing.T) {
	e := newTestEnv(t)
	fleet := e.seedFleet(t)
	cookie := e.login(t, "admin")

	if rec := e.do(httptest.NewRequest(http.MethodGet, "/ranklist", nil), cookie); rec.Code != http.StatusOK {
		t.Fatalf("ranklist before logout: code %d", rec.Code)
	}
	e.do(postForm("/logout", nil), cookie)

	rec := e.do(httptest.NewRequest(http.MethodGet, "/ranklist", nil), cookie)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Errorf("ranklist after logout: code %d location %q, want redirect to /login", rec.Code, rec.Header().Get("Location"))
	}
	if rec := e.do(httptest.NewRequest(http.MethodGet, "/api/report", nil), cookie); rec.Code != http.StatusUnauthorized {
		t.Errorf("report after logout: code %d, want 401", rec.Code)
	}

	rec = e.do(postForm("/train/1", url.Values{"field_name": {"current_mileage"}, "field_value": {"99999"}}), cookie)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Errorf("edit after logout: code %d location %q, want redirect to /login", rec.Code, rec.Header().Get("Location"))
	}
	var tr models.Train
	e.db.First(&tr, fleet["KM-001"].ID)
	if tr.CurrentMileage == 99999 {
		t.Error("edit with logged-out cookie changed the train")
	}

	fresh := e.login(t, "admin")
	if rec := e.do(httptest.NewRequest(http.MethodGet, "/ranklist", nil), fresh); rec.Code != http.StatusOK {
		t.Errorf("ranklist after new login: code %d", rec.Code)
	}
}

func TestChat(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "admin")

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"Hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := e.do(req, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["success"] != true || !strings.HasPrefix(resp["response"].(string), "Hello!") {
		t.Errorf("response = %v", resp)
	}
	if resp["timestamp"] != fixedNow.Format(time.RFC3339) {
		t.Errorf("timestamp = %v", resp["timestamp"])
	}

	for _, body := range []string{"{not json", ""} {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if rec := e.do(req, cookie); rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: code %d, want 400", body, rec.Code)
		}
	}
}

func TestExtractCertificate(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "admin")

	rec := e.do(multipartRequest(t, "/api/extract_certificate", "", "", ""), cookie)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "No file uploaded") {
		t.Errorf("no file: code %d body %s", rec.Code, rec.Body.String())
	}

	rec = e.do(multipartRequest(t, "/api/extract_certificate", "certificate", "safety.pdf", "%PDF-1.4"), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var resp struct {
		Success         bool           `json:"success"`
		ExtractedData   map[string]any `json:"extracted_data"`
		FilePath        string         `json:"file_path"`
		ConfidenceScore float64        `json:"confidence_score"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Success || resp.ConfidenceScore != 0.95 {
		t.Errorf("response = %+v", resp)
	}
	if resp.ExtractedData["certificate_type"] != "Safety Compliance Certificate" {
		t.Errorf("extracted_data = %v", resp.ExtractedData)
	}
	if !strings.HasPrefix(resp.FilePath, "temp/") || !strings.HasSuffix(resp.FilePath, "safety.pdf") {
		t.Errorf("file_path = %q", resp.FilePath)
	}
	rc, err := e.store.Open(context.Background(), resp.FilePath)
	if err != nil {
		t.Fatalf("stored file: %v", err)
	}
	rc.Close()
}

func TestReport(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "admin")

	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/report", nil), cookie)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "No train data to report") {
		t.Errorf("empty report: code %d body %s", rec.Code, rec.Body.String())
	}

	e.seedFleet(t)
	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/report", nil), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="metro_trains_report_20250310.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if lines[0] != "rank,train_number,train_name,status,current_mileage,cleaning_status,stabling_bay,status_notes" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 4 || !strings.HasPrefix(lines[1], "1,KM-001,") {
		t.Errorf("rows = %q", lines)
	}
}

func TestSSE_StreamsTrainChanges(t *testing.T) {
	e := newTestEnv(t)
	fleet := e.seedFleet(t)
	e.srv.pollInterval = 20 * time.Millisecond
	e.srv.heartbeat = time.Hour
	cookie := e.login(t, "admin")

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	req.AddCookie(cookie)

	go func() {
		time.Sleep(100 * time.Millisecond)
		e.db.Model(fleet["KM-003"]).Update("status", "cannot_schedule")
	}()

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	body := rec.Body.String()
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q", ct)
	}
	if !strings.Contains(body, "event: connected") {
		t.Error("missing connected event")
	}
	if !strings.Contains(body, "event: train") || !strings.Contains(body, `"train_number":"KM-003"`) {
		t.Errorf("missing train event in %q", body)
	}
	if strings.Contains(body, `"train_number":"KM-001"`) {
		t.Error("unchanged trains should not be streamed")
	}
}

func TestPollChanges_SharedTimestamp(t *testing.T) {
	e := newTestEnv(t)
	fleet := e.seedFleet(t)
	at := time.Now().Add(time.Hour).Truncate(time.Second).UTC()
	stamp := func(number string, when time.Time) {
		t.Helper()
		if err := e.db.Model(fleet[number]).UpdateColumn("updated_at", when).Error; err != nil {
			t.Fatalf("stamp %s: %v", number, err)
		}
	}
	numbers := func(trains []models.Train) []string {
		var out []string
		for _, tr := range trains {
			out = append(out, tr.TrainNumber)
		}
		return out
	}

	stamp("KM-001", at)
	stamp("KM-002", at)
	stamp("KM-003", at.Add(-time.Minute))

	cur, err := e.srv.openCursor()
	if err != nil {
		t.Fatalf("openCursor: %v", err)
	}
	steps := []struct {
		name  string
		apply func()
		want  []string
	}{
		{"nothing new", func() {}, nil},
		{"late commit at cursor time", func() { stamp("KM-003", at) }, []string{"KM-003"}},
		{"not repeated", func() {}, nil},
		{"later update", func() { stamp("KM-001", at.Add(time.Second)) }, []string{"KM-001"}},
		{"late commit at new time", func() { stamp("KM-002", at.Add(time.Second)) }, []string{"KM-002"}},
		{"quiet again", func() {}, nil},
	}
	for _, st := range steps {
		st.apply()
		got, err := e.srv.pollChanges(cur)
		if err != nil {
			t.Fatalf("%s: pollChanges: %v", st.name, err)
		}
		if g := numbers(got); strings.Join(g, ",") != strings.Join(st.want, ",") {
			t.Errorf("%s: got %v, want %v", st.name, g, st.want)
		}
	}
}

func TestTimeAgo(t *testing.T) {
	now := fixedNow
	tests := []struct {
		name string
		when time.Time
		want string
	}{
		{"zero", time.Time{}, "—"},
		{"seconds", now.Add(-30 * time.Second), "30s ago"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3*time.Hour - 15*time.Minute), "3h 15m ago"},
		{"days", now.Add(-50 * time.Hour), "2d 2h ago"},
		{"future", now.Add(time.Minute), "0s ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeAgo(tt.when, now); got != tt.want {
				t.Errorf("TimeAgo = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFieldLabel(t *testing.T) {
	if got := fieldLabel("current_mileage"); got != "Current Mileage" {
		t.Errorf("fieldLabel = %q", got)
	}
	if got := formatDate(nil); got != "—" {
		t.Errorf("formatDate(nil) = %q", got)
	}
}
