package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wedbook/models"
	"wedbook/services/availability"
	"wedbook/services/booking"
	"wedbook/services/events"
	"wedbook/services/recordstore"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type stubStore struct {
	bookings []models.Booking
	max      int
	readErr  error
	created  *models.CreatedBooking
	writeErr error
	posts    int
}

func (s *stubStore) VendorBookings(context.Context, string, string) (*models.VendorBookings, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return &models.VendorBookings{Bookings: s.bookings, MaxBookingsPerDay: s.max}, nil
}

func (s *stubStore) OffDays(context.Context, string) ([]models.OffDay, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return nil, nil
}

func (s *stubStore) CreateBooking(context.Context, *models.BookingRequest) (*models.CreatedBooking, error) {
	s.posts++
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	return s.created, nil
}

type testServer struct {
	router   *gin.Engine
	store    *stubStore
	bus      *events.LocalBus
	bookings *BookingHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store := &stubStore{max: 1, created: &models.CreatedBooking{ID: "b1", Status: "pending"}}
	svc := availability.NewService(store, availability.NewMemoryCache(0), 1, logger)
	bus := events.NewLocalBus(logger)
	workflow := booking.NewSubmissionWorkflow(svc, store, bus, nil, nil,
		booking.Config{SubmitTimeout: time.Second, ProceedOnInconclusive: true}, logger)

	avail := &AvailabilityHandler{Svc: svc, Logger: logger}
	sub := &BookingHandler{Workflow: workflow, Sessions: booking.NewMemorySessionStore(time.Minute), Logger: logger}
	hooks := &HooksHandler{Invalidator: svc, Bus: bus, Logger: logger}
	stream := &EventsHandler{Bus: bus, Logger: logger, Heartbeat: 10 * time.Millisecond}

	r := gin.New()
	r.GET("/api/vendors/:vendorId/availability", avail.CheckAvailability)
	r.GET("/api/vendors/:vendorId/calendar", avail.Calendar)
	r.POST("/api/bookings/submissions", sub.CreateSubmission)
	r.GET("/api/bookings/submissions/:sessionId", sub.GetSubmission)
	r.POST("/api/bookings/submissions/:sessionId/confirm", sub.ConfirmSubmission)
	r.POST("/api/bookings/submissions/:sessionId/cancel", sub.CancelSubmission)
	r.POST("/api/bookings/submissions/:sessionId/reset", sub.ResetSubmission)
	r.POST("/api/bookings/submissions/:sessionId/retry", sub.RetrySubmission)
	r.POST("/api/hooks/bookings/cancelled", hooks.BookingCancelled)
	r.GET("/api/events", stream.Stream)
	r.GET("/health", (&HealthHandler{StartedAt: time.Now()}).Health)

	return &testServer{router: r, store: store, bus: bus, bookings: sub}
}

// brokenSaves fails every Save once failing is set; reads and locks still work.
type brokenSaves struct {
	booking.SessionStore
	failing bool
}

func (b *brokenSaves) Save(ctx context.Context, s *booking.Session) error {
	if b.failing {
		return errors.New("session store unavailable")
	}
	return b.SessionStore.Save(ctx, s)
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) booking.Session {
	t.Helper()
	var s booking.Session
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode session: %v (body %s)", err, w.Body.String())
	}
	return s
}

func form(date string) models.BookingForm {
	return models.BookingForm{
		VendorID:     "v1",
		VendorName:   "Golden Hour Photo",
		ServiceID:    "s1",
		ServiceName:  "Photography",
		EventDate:    date,
		ContactPhone: "5550102030",
	}
}

func TestAvailabilityEndpoints(t *testing.T) {
	ts := newTestServer(t)

	t.Run("check", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/vendors/v1/availability?date=2099-06-14", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var res models.AvailabilityResult
		json.Unmarshal(w.Body.Bytes(), &res)
		if !res.IsAvailable {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/vendors/v1/availability?date=tomorrow", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d", w.Code)
		}
	})

	t.Run("calendar", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/vendors/v1/calendar?month=2099-02", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var body struct {
			Month string        `json:"month"`
			Days  []calendarDay `json:"days"`
		}
		json.Unmarshal(w.Body.Bytes(), &body)
		if body.Month != "2099-02" || len(body.Days) != 28 {
			t.Fatalf("month = %s days = %d", body.Month, len(body.Days))
		}
		if body.Days[0].Date != "2099-02-01" || body.Days[27].Date != "2099-02-28" {
			t.Error("days are not in calendar order")
		}
	})

	t.Run("store unreachable", func(t *testing.T) {
		ts := newTestServer(t)
		ts.store.readErr = &recordstore.TransportError{Op: "vendor bookings", Err: context.DeadlineExceeded}
		w := ts.do(t, http.MethodGet, "/api/vendors/v1/availability?date=2099-06-14", nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d", w.Code)
		}
	})
}

func TestSubmissionFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/bookings/submissions", form("2099-06-14"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	s := decodeSession(t, w)
	if s.State != booking.StateAwaitingUserConfirmation || s.Summary == nil {
		t.Fatalf("session = %+v", s)
	}

	w = ts.do(t, http.MethodGet, "/api/bookings/submissions/"+s.ID, nil)
	if w.Code != http.StatusOK || decodeSession(t, w).State != booking.StateAwaitingUserConfirmation {
		t.Fatalf("get status = %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/bookings/submissions/"+s.ID+"/confirm", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, body = %s", w.Code, w.Body.String())
	}
	done := decodeSession(t, w)
	if done.State != booking.StateSuccess || done.Outcome.BookingID != "b1" {
		t.Errorf("outcome = %+v", done.Outcome)
	}

	w = ts.do(t, http.MethodPost, "/api/bookings/submissions/"+s.ID+"/confirm", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("second confirm status = %d", w.Code)
	}
	if ts.store.posts != 1 {
		t.Errorf("store saw %d posts, want 1", ts.store.posts)
	}

	// the booked date is now full
	w = ts.do(t, http.MethodPost, "/api/bookings/submissions/"+s.ID+"/reset", nil)
	if w.Code != http.StatusOK {
		t.Errorf("reset status = %d", w.Code)
	}
	ts.store.bookings = []models.Booking{{ID: "b1", EventDate: "2099-06-14", Status: "pending"}}
	w = ts.do(t, http.MethodPost, "/api/bookings/submissions", form("2099-06-14"))
	if w.Code != http.StatusConflict {
		t.Errorf("conflicting create status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestSubmissionSaveFailure(t *testing.T) {
	t.Run("after the store was reached the outcome is still returned", func(t *testing.T) {
		ts := newTestServer(t)
		sessions := &brokenSaves{SessionStore: ts.bookings.Sessions}
		ts.bookings.Sessions = sessions

		s := decodeSession(t, ts.do(t, http.MethodPost, "/api/bookings/submissions", form("2099-06-14")))
		sessions.failing = true

		w := ts.do(t, http.MethodPost, "/api/bookings/submissions/"+s.ID+"/confirm", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("confirm status = %d, body = %s", w.Code, w.Body.String())
		}
		done := decodeSession(t, w)
		if done.State != booking.StateSuccess || done.Outcome == nil || done.Outcome.BookingID != "b1" {
			t.Errorf("session = %+v", done)
		}
		if len(done.Warnings) == 0 || !strings.Contains(done.Warnings[len(done.Warnings)-1], "do not submit it again") {
			t.Errorf("warnings = %v, want a save warning", done.Warnings)
		}
		if ts.store.posts != 1 {
			t.Errorf("store saw %d posts, want 1", ts.store.posts)
		}
	})

	t.Run("before the store was reached it is a server error", func(t *testing.T) {
		ts := newTestServer(t)
		sessions := &brokenSaves{SessionStore: ts.bookings.Sessions}
		ts.bookings.Sessions = sessions

		s := decodeSession(t, ts.do(t, http.MethodPost, "/api/bookings/submissions", form("2099-06-14")))
		sessions.failing = true

		w := ts.do(t, http.MethodPost, "/api/bookings/submissions/"+s.ID+"/cancel", nil)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("cancel status = %d, want 500", w.Code)
		}
		if ts.store.posts != 0 {
			t.Errorf("store saw %d posts, want 0", ts.store.posts)
		}
	})
}

func TestSubmissionErrors(t *testing.T) {
	ts := newTestServer(t)

	t.Run("validation", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/bookings/submissions", form("2000-01-01"))
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d", w.Code)
		}
		if _, ok := decodeSession(t, w).FieldErrors["eventDate"]; !ok {
			t.Error("missing eventDate field error")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/bookings/submissions", strings.NewReader("{"))
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d", w.Code)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/bookings/submissions/nope/confirm", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d", w.Code)
		}
	})

	t.Run("server error then retry", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/bookings/submissions", form("2099-07-01"))
		s := decodeSession(t, w)

		ts.store.writeErr = &recordstore.StatusError{Op: "create booking", Status: 500}
		w = ts.do(t, http.MethodPost, "/api/bookings/submissions/"+s.ID+"/confirm", nil)
		if w.Code != http.StatusBadGateway {
			t.Fatalf("confirm status = %d", w.Code)
		}

		ts.store.writeErr = nil
		w = ts.do(t, http.MethodPost, "/api/bookings/submissions/"+s.ID+"/retry", nil)
		if w.Code != http.StatusOK || decodeSession(t, w).State != booking.StateAwaitingUserConfirmation {
			t.Errorf("retry status = %d, body = %s", w.Code, w.Body.String())
		}
	})

	t.Run("cancel", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/bookings/submissions", form("2099-08-01"))
		s := decodeSession(t, w)
		w = ts.do(t, http.MethodPost, "/api/bookings/submissions/"+s.ID+"/cancel", nil)
		if w.Code != http.StatusOK || decodeSession(t, w).State != booking.StateIdle {
			t.Errorf("cancel status = %d", w.Code)
		}
	})
}

func TestBookingCancelledHook(t *testing.T) {
	ts := newTestServer(t)
	ts.store.bookings = []models.Booking{{ID: "b1", EventDate: "2099-06-14", Status: "confirmed"}}

	w := ts.do(t, http.MethodGet, "/api/vendors/v1/availability?date=2099-06-14", nil)
	var before models.AvailabilityResult
	json.Unmarshal(w.Body.Bytes(), &before)
	if before.IsAvailable {
		t.Fatal("date should start full")
	}

	var got []models.BookingCancelledPayload
	ts.bus.Subscribe(events.BookingCancelled, func(_ context.Context, _ events.Name, payload any) {
		got = append(got, payload.(models.BookingCancelledPayload))
	})
	ts.store.bookings[0].Status = "cancelled"

	w = ts.do(t, http.MethodPost, "/api/hooks/bookings/cancelled",
		models.BookingCancelledPayload{ID: "b1", VendorID: "v1", EventDate: "2099-06-14"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("hook status = %d", w.Code)
	}
	if len(got) != 1 {
		t.Errorf("published %d cancellations", len(got))
	}

	w = ts.do(t, http.MethodGet, "/api/vendors/v1/availability?date=2099-06-14", nil)
	var after models.AvailabilityResult
	json.Unmarshal(w.Body.Bytes(), &after)
	if !after.IsAvailable {
		t.Errorf("date should be free after cancellation: %+v", after)
	}

	w = ts.do(t, http.MethodPost, "/api/hooks/bookings/cancelled", models.BookingCancelledPayload{ID: "b1", EventDate: "2099-06-14"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing vendor status = %d", w.Code)
	}
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/events?vendorId=v1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if line := lines.Text(); strings.HasPrefix(line, "event:") {
				return strings.TrimPrefix(line, "event:")
			}
		}
		return ""
	}

	// a heartbeat means the handler has subscribed
	if got := next(); got != "ping" {
		t.Fatalf("first event = %q, want ping", got)
	}
	ts.bus.Publish(ctx, events.BookingCancelled, models.BookingCancelledPayload{ID: "x", VendorID: "other", EventDate: "2099-06-14"})
	ts.bus.Publish(ctx, events.BookingCreated, models.BookingCreatedPayload{ID: "b1", VendorID: "v1", EventDate: "2099-06-14"})

	for {
		got := next()
		if got == "ping" {
			continue
		}
		if got != string(events.BookingCreated) {
			t.Errorf("event = %q, want only the v1 bookingCreated", got)
		}
		break
	}
}
