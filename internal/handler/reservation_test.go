package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ceniit/resource-booking/internal/model"
	"github.com/ceniit/resource-booking/internal/queue"
	"github.com/ceniit/resource-booking/internal/scheduler"
)

type fakeResources struct {
	byID map[uint64]*model.Resource
}

func (f *fakeResources) FindByID(_ context.Context, id uint64) (*model.Resource, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return r, nil
}

type fakeStore struct {
	reservations []model.Reservation
	nextID       uint64
}

func (f *fakeStore) FindOverlapping(_ context.Context, resourceID uint64, date, _, _ string) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.reservations {
		if r.ResourceID == resourceID && r.Date == date &&
			r.Status != model.StatusCancelled && r.Status != model.StatusRejected {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, res *model.Reservation) error {
	f.nextID++
	res.ID = f.nextID
	f.reservations = append(f.reservations, *res)
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id uint64) (*model.Reservation, error) {
	for i := range f.reservations {
		if f.reservations[i].ID == id {
			r := f.reservations[i]
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) ListAll(_ context.Context) ([]model.Reservation, error) {
	return append([]model.Reservation(nil), f.reservations...), nil
}

func (f *fakeStore) ListByOwner(_ context.Context, ownerID uint64) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.reservations {
		if r.UserID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uint64, status string) (*model.Reservation, error) {
	for i := range f.reservations {
		if f.reservations[i].ID == id {
			f.reservations[i].Status = status
			r := f.reservations[i]
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakePublisher struct {
	events []queue.ReservationEvent
}

func (f *fakePublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func newTestHandler() (*ReservationHandler, *fakeStore, *fakePublisher) {
	resources := &fakeResources{byID: map[uint64]*model.Resource{
		1: {ID: 1, Name: "Lab A", Type: model.ResourceRoom, Status: model.ResourceAvailable},
		2: {ID: 2, Name: "Old Printer", Type: model.ResourceEquipment, Status: model.ResourceMaintenance},
	}}
	store := &fakeStore{}
	pub := &fakePublisher{}
	return NewReservationHandler(scheduler.New(resources, store), pub), store, pub
}

// doJSON runs a handler against a synthetic request with the identity
// middleware's context values already set.
func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, userID uint64, role string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", role)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestCreateReservation(t *testing.T) {
	h, store, pub := newTestHandler()

	body := `{"resource_id":1,"date":"2026-09-10","start_time":"09:00","end_time":"10:30","purpose":"team sync"}`
	rec := doJSON(t, h.Create, http.MethodPost, "/v1/reservations", body, 7, "user")

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if len(store.reservations) != 1 {
		t.Fatalf("stored %d reservations, want 1", len(store.reservations))
	}
	got := store.reservations[0]
	if got.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.UserID != 7 {
		t.Errorf("user id = %d, want 7", got.UserID)
	}
	if len(pub.events) != 1 || pub.events[0].Action != queue.ActionCreated {
		t.Errorf("published events = %+v, want one created event", pub.events)
	}
}

func TestCreateReservationValidation(t *testing.T) {
	h, _, _ := newTestHandler()

	cases := []struct {
		name string
		body string
	}{
		{"missing resource", `{"date":"2026-09-10","start_time":"09:00","end_time":"10:00","purpose":"x"}`},
		{"bad date", `{"resource_id":1,"date":"10/09/2026","start_time":"09:00","end_time":"10:00","purpose":"x"}`},
		{"bad start time", `{"resource_id":1,"date":"2026-09-10","start_time":"9am","end_time":"10:00","purpose":"x"}`},
		{"empty purpose", `{"resource_id":1,"date":"2026-09-10","start_time":"09:00","end_time":"10:00","purpose":"  "}`},
		{"inverted window", `{"resource_id":1,"date":"2026-09-10","start_time":"11:00","end_time":"10:00","purpose":"x"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h.Create, http.MethodPost, "/v1/reservations", tc.body, 7, "user")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateReservationErrorMapping(t *testing.T) {
	h, store, pub := newTestHandler()
	store.reservations = []model.Reservation{
		{ID: 1, ResourceID: 1, UserID: 3, Date: "2026-09-10", StartTime: "09:00", EndTime: "10:00", Status: model.StatusConfirmed},
	}

	cases := []struct {
		name string
		body string
		want int
	}{
		{"unknown resource", `{"resource_id":99,"date":"2026-09-10","start_time":"09:00","end_time":"10:00","purpose":"x"}`, http.StatusNotFound},
		{"resource in maintenance", `{"resource_id":2,"date":"2026-09-10","start_time":"09:00","end_time":"10:00","purpose":"x"}`, http.StatusBadRequest},
		{"overlap", `{"resource_id":1,"date":"2026-09-10","start_time":"09:30","end_time":"11:00","purpose":"x"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h.Create, http.MethodPost, "/v1/reservations", tc.body, 7, "user")
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
	// Back-to-back is not an overlap.
	rec := doJSON(t, h.Create, http.MethodPost, "/v1/reservations",
		`{"resource_id":1,"date":"2026-09-10","start_time":"10:00","end_time":"11:00","purpose":"x"}`, 7, "user")
	if rec.Code != http.StatusCreated {
		t.Errorf("back-to-back create status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if len(pub.events) != 1 {
		t.Errorf("published %d events, want 1 (failures must not publish)", len(pub.events))
	}
}

func TestUpdateReservationStatus(t *testing.T) {
	h, store, pub := newTestHandler()
	store.reservations = []model.Reservation{
		{ID: 1, ResourceID: 1, UserID: 7, Date: "2026-09-10", StartTime: "09:00", EndTime: "10:00", Status: model.StatusPending},
	}
	store.nextID = 1

	cases := []struct {
		name       string
		userID     uint64
		role       string
		id         string
		body       string
		want       int
		wantStatus string
	}{
		{"admin confirms", 1, "admin", "1", `{"status":"confirmed"}`, http.StatusOK, model.StatusConfirmed},
		{"owner cancels", 7, "user", "1", `{"status":"cancelled"}`, http.StatusOK, model.StatusCancelled},
		{"owner cannot confirm", 7, "user", "1", `{"status":"confirmed"}`, http.StatusForbidden, ""},
		{"stranger cannot cancel", 9, "user", "1", `{"status":"cancelled"}`, http.StatusForbidden, ""},
		{"unknown reservation", 1, "admin", "42", `{"status":"confirmed"}`, http.StatusNotFound, ""},
		{"bad status value", 1, "admin", "1", `{"status":"done"}`, http.StatusBadRequest, ""},
		{"bad id", 1, "admin", "abc", `{"status":"confirmed"}`, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store.reservations[0].Status = model.StatusPending
			rec := doJSON(t, h.UpdateStatus, http.MethodPut, "/v1/reservations/"+tc.id, tc.body, tc.userID, tc.role, "id", tc.id)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
			if tc.wantStatus != "" && store.reservations[0].Status != tc.wantStatus {
				t.Errorf("stored status = %q, want %q", store.reservations[0].Status, tc.wantStatus)
			}
		})
	}

	var changed int
	for _, ev := range pub.events {
		if ev.Action == queue.ActionStatusChanged {
			changed++
		}
	}
	if changed != 2 {
		t.Errorf("published %d status_changed events, want 2", changed)
	}
}

func TestListReservationsScoping(t *testing.T) {
	h, store, _ := newTestHandler()
	store.reservations = []model.Reservation{
		{ID: 1, ResourceID: 1, UserID: 7, Date: "2026-09-10", StartTime: "09:00", EndTime: "10:00", Status: model.StatusPending},
		{ID: 2, ResourceID: 1, UserID: 9, Date: "2026-09-11", StartTime: "09:00", EndTime: "10:00", Status: model.StatusConfirmed},
	}

	type listResp struct {
		Count int `json:"count"`
		Items []struct {
			ID uint64 `json:"id"`
		} `json:"items"`
	}

	rec := doJSON(t, h.List, http.MethodGet, "/v1/reservations", "", 1, "admin")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list status = %d: %s", rec.Code, rec.Body.String())
	}
	var admin listResp
	if err := json.Unmarshal(rec.Body.Bytes(), &admin); err != nil {
		t.Fatalf("decode admin list: %v", err)
	}
	if admin.Count != 2 {
		t.Errorf("admin sees %d reservations, want 2", admin.Count)
	}

	rec = doJSON(t, h.List, http.MethodGet, "/v1/reservations", "", 7, "user")
	var own listResp
	if err := json.Unmarshal(rec.Body.Bytes(), &own); err != nil {
		t.Fatalf("decode user list: %v", err)
	}
	if own.Count != 1 || own.Items[0].ID != 1 {
		t.Errorf("user list = %+v, want only reservation 1", own)
	}
}

func TestNilPublisherIsSafe(t *testing.T) {
	resources := &fakeResources{byID: map[uint64]*model.Resource{
		1: {ID: 1, Name: "Lab A", Type: model.ResourceRoom, Status: model.ResourceAvailable},
	}}
	h := NewReservationHandler(scheduler.New(resources, &fakeStore{}), nil)

	rec := doJSON(t, h.Create, http.MethodPost, "/v1/reservations",
		`{"resource_id":1,"date":"2026-09-10","start_time":"09:00","end_time":"10:00","purpose":"x"}`, 7, "user")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}
