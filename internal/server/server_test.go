package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"mess-backend/internal/audit"
	"mess-backend/internal/auth"
	"mess-backend/internal/booking"
	"mess-backend/internal/menu"
	"mess-backend/internal/models"
	"mess-backend/internal/report"
	"mess-backend/internal/testutil"
	"mess-backend/internal/window"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const testSecret = "test-secret-that-is-at-least-32-bytes"

var ist = time.FixedZone("IST", 5*3600+1800)

type harness struct {
	t       *testing.T
	app     *fiber.App
	db      *gorm.DB
	admin   models.User
	student models.User
	other   models.User

	mu  sync.Mutex
	now time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	policy := window.New(ist)
	log := zerolog.Nop()
	catalog := menu.NewCatalog(db, log)

	h := &harness{
		t:       t,
		db:      db,
		admin:   testutil.CreateUser(t, db, "Warden", "warden@example.com", models.RoleAdmin),
		student: testutil.CreateUser(t, db, "Sohan", "sohan@example.com", models.RoleStudent),
		other:   testutil.CreateUser(t, db, "Rohan", "rohan@example.com", models.RoleStudent),
		now:     time.Date(2024, 6, 9, 12, 0, 0, 0, ist),
	}
	h.app = New(Deps{
		DB:          db,
		Catalog:     catalog,
		Ledger:      booking.NewLedger(db, catalog, policy, log),
		Reports:     report.NewEngine(sqlx.NewDb(sqlDB, "sqlite3"), policy, log),
		Audit:       audit.NewRecorder(db, log),
		Log:         log,
		JWTSecret:   testSecret,
		TokenTTL:    time.Hour,
		CORSOrigins: []string{"*"},
		Now:         h.clock,
	})
	return h
}

func (h *harness) clock() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *harness) setNow(t time.Time) {
	h.mu.Lock()
	h.now = t
	h.mu.Unlock()
}

func (h *harness) token(u models.User) string {
	h.t.Helper()
	tok, err := auth.GenerateToken(testSecret, time.Hour, &u, time.Now())
	if err != nil {
		h.t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

// do sends a request and decodes a JSON body into out when out is non-nil.
func (h *harness) do(method, path, token string, body any, out any) int {
	h.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.app.Test(req, -1)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			h.t.Fatalf("%s %s: decode body: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp, err := h.app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "running") {
		t.Errorf("GET / = %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	var ok struct {
		Token string `json:"token"`
		User  struct {
			ID   uint   `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	status := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "Sohan@Example.com", "password": "secret"}, &ok)
	if status != http.StatusOK || ok.Token == "" || ok.User.ID != h.student.ID || ok.User.Role != "student" {
		t.Fatalf("login = %d %+v", status, ok)
	}

	var me map[string]any
	if status := h.do(http.MethodGet, "/api/auth/me", ok.Token, nil, &me); status != http.StatusOK || me["email"] != "sohan@example.com" {
		t.Errorf("me = %d %v", status, me)
	}

	var fail map[string]any
	if status := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "sohan@example.com", "password": "wrong"}, &fail); status != http.StatusUnauthorized {
		t.Errorf("bad password = %d %v", status, fail)
	}
}

func TestAuthGates(t *testing.T) {
	h := newHarness(t)
	student := h.token(h.student)
	admin := h.token(h.admin)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/student/menu?date=2024-06-10", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/student/menu?date=2024-06-10", "nope", http.StatusUnauthorized},
		{"student reads menu", http.MethodGet, "/api/student/menu?date=2024-06-10", student, http.StatusOK},
		{"admin reads student menu", http.MethodGet, "/api/student/menu?date=2024-06-10", admin, http.StatusOK},
		{"admin cannot list bookings", http.MethodGet, "/api/student/myBookings", admin, http.StatusForbidden},
		{"student cannot read reports", http.MethodGet, "/api/admin/todaySummary", student, http.StatusForbidden},
		{"student cannot read audit", http.MethodGet, "/api/admin/auditLogs", student, http.StatusForbidden},
		{"admin reads reports", http.MethodGet, "/api/admin/todaySummary", admin, http.StatusOK},
	}
	for _, tt := range tests {
		if got := h.do(tt.method, tt.path, tt.token, nil, nil); got != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMenuEndpoints(t *testing.T) {
	h := newHarness(t)
	admin := h.token(h.admin)
	student := h.token(h.student)

	var created struct {
		Message string `json:"message"`
		Item    struct {
			ID            uint   `json:"id"`
			Name          string `json:"name"`
			DateAvailable string `json:"date_available"`
		} `json:"item"`
	}
	body := map[string]any{"name": "Rice Meal", "price": 50, "date_available": "2024-06-10"}
	if status := h.do(http.MethodPost, "/api/admin/addItem", admin, body, &created); status != http.StatusCreated {
		t.Fatalf("addItem = %d", status)
	}
	if created.Item.ID == 0 || created.Item.DateAvailable != "2024-06-10" {
		t.Errorf("created = %+v", created)
	}

	var msg map[string]any
	if status := h.do(http.MethodPost, "/api/admin/addItem", admin, body, &msg); status != http.StatusConflict {
		t.Errorf("duplicate addItem = %d %v", status, msg)
	}

	bad := []map[string]any{
		{"name": "Dal", "date_available": "2024-06-10"},
		{"name": "Dal", "price": -1, "date_available": "2024-06-10"},
		{"name": "Dal", "price": 10, "date_available": "10-06-2024"},
	}
	for _, b := range bad {
		if status := h.do(http.MethodPost, "/api/admin/addItem", admin, b, nil); status != http.StatusBadRequest {
			t.Errorf("addItem(%v) = %d, want 400", b, status)
		}
	}

	var items []map[string]any
	if status := h.do(http.MethodGet, "/api/student/menu?date=2024-06-10", student, nil, &items); status != http.StatusOK || len(items) != 1 {
		t.Errorf("menu = %d %v", status, items)
	}
	if status := h.do(http.MethodGet, "/api/student/menu", student, nil, nil); status != http.StatusBadRequest {
		t.Errorf("menu without date = %d, want 400", status)
	}

	var logs []map[string]any
	if status := h.do(http.MethodGet, "/api/admin/auditLogs?entity_type=menu_item", admin, nil, &logs); status != http.StatusOK || len(logs) != 1 {
		t.Errorf("auditLogs = %d %v", status, logs)
	}
}

func TestBookingFlow(t *testing.T) {
	h := newHarness(t)
	student := h.token(h.student)
	other := h.token(h.other)
	date := models.NewDate(2024, 6, 10)
	rice := testutil.CreateMenuItem(t, h.db, "Rice Meal", 50, date)
	dal := testutil.CreateMenuItem(t, h.db, "Dal Roti", 40, date)
	later := testutil.CreateMenuItem(t, h.db, "Biryani", 80, date.AddDays(1))

	var booked struct {
		Reservation struct {
			ID             uint   `json:"id"`
			FoodItem       string `json:"food_item"`
			BookingForDate string `json:"booking_for_date"`
			CancelDeadline string `json:"cancel_deadline"`
			Cancelable     bool   `json:"cancelable"`
		} `json:"reservation"`
	}
	status := h.do(http.MethodPost, "/api/student/book", student, map[string]any{"date": "2024-06-10", "itemId": rice.ID}, &booked)
	if status != http.StatusCreated {
		t.Fatalf("book = %d", status)
	}
	r := booked.Reservation
	if r.FoodItem != "Rice Meal" || r.BookingForDate != "2024-06-10" || r.CancelDeadline != "2024-06-10T10:30:00+05:30" || !r.Cancelable {
		t.Errorf("reservation = %+v", r)
	}

	if status := h.do(http.MethodPost, "/api/student/book", student, map[string]any{"date": "2024-06-10", "itemId": dal.ID}, nil); status != http.StatusConflict {
		t.Errorf("second book = %d, want 409", status)
	}
	if status := h.do(http.MethodPost, "/api/student/book", other, map[string]any{"date": "2024-06-10", "itemId": later.ID}, nil); status != http.StatusNotFound {
		t.Errorf("book item of another day = %d, want 404", status)
	}
	if status := h.do(http.MethodPost, "/api/student/book", other, map[string]any{"date": "2024-06-10"}, nil); status != http.StatusBadRequest {
		t.Errorf("book without item = %d, want 400", status)
	}

	var closed map[string]any
	status = h.do(http.MethodPost, "/api/student/book", other, map[string]any{"date": "2024-06-11", "itemId": later.ID}, &closed)
	if status != http.StatusForbidden {
		t.Errorf("book before window = %d, want 403", status)
	}
	if closed["opens_at"] != "2024-06-10T11:00:00+05:30" || closed["closes_at"] != "2024-06-11T10:30:00+05:30" {
		t.Errorf("window body = %v", closed)
	}

	var mine []map[string]any
	if status := h.do(http.MethodGet, "/api/student/myBookings", student, nil, &mine); status != http.StatusOK || len(mine) != 1 {
		t.Errorf("myBookings = %d %v", status, mine)
	}

	cancelPath := "/api/student/cancel/" + strconv.FormatUint(uint64(r.ID), 10)
	if status := h.do(http.MethodPost, cancelPath, other, nil, nil); status != http.StatusNotFound {
		t.Errorf("foreign cancel = %d, want 404", status)
	}

	h.setNow(time.Date(2024, 6, 10, 10, 30, 1, 0, ist))
	if status := h.do(http.MethodPost, cancelPath, student, nil, &closed); status != http.StatusForbidden {
		t.Errorf("late cancel = %d, want 403", status)
	}
	if status := h.do(http.MethodGet, "/api/student/myBookings", student, nil, &mine); status != http.StatusOK || len(mine) != 0 {
		t.Errorf("myBookings after cutoff = %d %v", status, mine)
	}

	var history []map[string]any
	if status := h.do(http.MethodGet, "/api/student/history", student, nil, &history); status != http.StatusOK || len(history) != 1 {
		t.Fatalf("history = %d %v", status, history)
	}
	if history[0]["cancelable"] != false {
		t.Errorf("history cancelable = %v, want false", history[0]["cancelable"])
	}

	h.setNow(time.Date(2024, 6, 10, 10, 0, 0, 0, ist))
	if status := h.do(http.MethodPost, cancelPath, student, nil, nil); status != http.StatusOK {
		t.Errorf("cancel = %d, want 200", status)
	}
	if status := h.do(http.MethodPost, cancelPath, student, nil, nil); status != http.StatusNotFound {
		t.Errorf("second cancel = %d, want 404", status)
	}
	if status := h.do(http.MethodPost, "/api/student/cancel/abc", student, nil, nil); status != http.StatusBadRequest {
		t.Errorf("cancel bad id = %d, want 400", status)
	}
}

func TestReportEndpoints(t *testing.T) {
	h := newHarness(t)
	admin := h.token(h.admin)
	date := models.NewDate(2024, 6, 10)
	rice := testutil.CreateMenuItem(t, h.db, "Rice Meal", 50, date)
	testutil.CreateReservation(t, h.db, h.student.ID, rice.ID, date, time.Date(2024, 6, 9, 12, 0, 0, 0, ist))
	testutil.CreateReservation(t, h.db, h.other.ID, rice.ID, date, time.Date(2024, 6, 9, 13, 0, 0, 0, ist))
	h.setNow(time.Date(2024, 6, 10, 8, 0, 0, 0, ist))

	var summary []struct {
		FoodItem    string `json:"food_item"`
		TotalOrders int    `json:"total_orders"`
	}
	if status := h.do(http.MethodGet, "/api/admin/todaySummary", admin, nil, &summary); status != http.StatusOK {
		t.Fatalf("todaySummary = %d", status)
	}
	if len(summary) != 1 || summary[0].FoodItem != "Rice Meal" || summary[0].TotalOrders != 2 {
		t.Errorf("todaySummary = %+v", summary)
	}

	var details []map[string]any
	if status := h.do(http.MethodGet, "/api/admin/todayDetails?date=2024-06-10", admin, nil, &details); status != http.StatusOK || len(details) != 2 {
		t.Errorf("todayDetails = %d %v", status, details)
	}
	if status := h.do(http.MethodGet, "/api/admin/todayDetails?date=June", admin, nil, nil); status != http.StatusBadRequest {
		t.Errorf("todayDetails bad date = %d, want 400", status)
	}

	var sales []map[string]any
	if status := h.do(http.MethodGet, "/api/admin/salesHistory?month=6&year=2024", admin, nil, &sales); status != http.StatusOK || len(sales) != 1 {
		t.Errorf("salesHistory = %d %v", status, sales)
	}
	if status := h.do(http.MethodGet, "/api/admin/salesHistory?month=13", admin, nil, nil); status != http.StatusBadRequest {
		t.Errorf("salesHistory month 13 = %d, want 400", status)
	}
}
