package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/ceniit/resource-booking/internal/model"
)

// fakeResources serves resources from a map and reports sql.ErrNoRows
// for anything else, matching the store contract.
type fakeResources struct {
	byID map[uint64]model.Resource
}

func (f *fakeResources) FindByID(_ context.Context, id uint64) (*model.Resource, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := r
	return &cp, nil
}

// fakeStore is an in-memory ReservationStore. FindOverlapping returns
// every active row for the resource and date (a superset of the
// conflicts), so the scheduler's own predicate is what decides.
type fakeStore struct {
	nextID    uint64
	rows      []model.Reservation
	createErr error
}

func (f *fakeStore) FindOverlapping(_ context.Context, resourceID uint64, date, _, _ string) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.rows {
		if r.ResourceID != resourceID || r.Date != date {
			continue
		}
		if r.Status == model.StatusCancelled || r.Status == model.StatusRejected {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, res *model.Reservation) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	res.ID = f.nextID
	res.CreatedAt = time.Now().UTC()
	f.rows = append(f.rows, *res)
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id uint64) (*model.Reservation, error) {
	for _, r := range f.rows {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) ListAll(_ context.Context) ([]model.Reservation, error) {
	out := append([]model.Reservation(nil), f.rows...)
	sortReservations(out)
	return out, nil
}

func (f *fakeStore) ListByOwner(_ context.Context, ownerID uint64) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.rows {
		if r.UserID == ownerID {
			out = append(out, r)
		}
	}
	sortReservations(out)
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uint64, status string) (*model.Reservation, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Status = status
			cp := f.rows[i]
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func sortReservations(rows []model.Reservation) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date > rows[j].Date
		}
		return rows[i].StartTime > rows[j].StartTime
	})
}

func newTestScheduler(resources map[uint64]model.Resource, rows []model.Reservation) (*Scheduler, *fakeStore) {
	store := &fakeStore{rows: rows}
	for _, r := range rows {
		if r.ID > store.nextID {
			store.nextID = r.ID
		}
	}
	return New(&fakeResources{byID: resources}, store), store
}

func availableRoom(id uint64) map[uint64]model.Resource {
	return map[uint64]model.Resource{
		id: {ID: id, Name: "Lab A", Type: model.ResourceRoom, Status: model.ResourceAvailable},
	}
}

func createReq(resourceID uint64, date, start, end string, owner uint64) CreateRequest {
	return CreateRequest{
		ResourceID: resourceID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Purpose:    "team meeting",
		OwnerID:    owner,
	}
}

func TestCreateResourceNotFound(t *testing.T) {
	s, _ := newTestScheduler(map[uint64]model.Resource{}, nil)
	_, err := s.Create(context.Background(), createReq(42, "2025-03-01", "09:00", "10:00", 7))
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestCreateResourceUnavailable(t *testing.T) {
	for _, status := range []string{model.ResourceOccupied, model.ResourceMaintenance} {
		t.Run(status, func(t *testing.T) {
			resources := map[uint64]model.Resource{
				1: {ID: 1, Name: "Projector", Type: model.ResourceEquipment, Status: status},
			}
			s, _ := newTestScheduler(resources, nil)
			// The gate is the status flag alone; the day is completely empty.
			_, err := s.Create(context.Background(), createReq(1, "2025-03-01", "09:00", "10:00", 7))
			if !errors.Is(err, ErrResourceUnavailable) {
				t.Fatalf("expected ErrResourceUnavailable, got %v", err)
			}
		})
	}
}

func TestCreateInvalidTimeRange(t *testing.T) {
	s, _ := newTestScheduler(availableRoom(1), nil)
	for _, tc := range [][2]string{{"10:00", "09:00"}, {"09:00", "09:00"}, {"late", "10:00"}} {
		_, err := s.Create(context.Background(), createReq(1, "2025-03-01", tc[0], tc[1], 7))
		if !errors.Is(err, ErrInvalidTimeRange) {
			t.Errorf("window %s-%s: expected ErrInvalidTimeRange, got %v", tc[0], tc[1], err)
		}
	}
}

func TestCreateOverlapConflict(t *testing.T) {
	for _, blocking := range []string{model.StatusPending, model.StatusConfirmed} {
		t.Run(blocking, func(t *testing.T) {
			s, _ := newTestScheduler(availableRoom(1), []model.Reservation{
				{ID: 1, ResourceID: 1, UserID: 3, Date: "2025-03-01", StartTime: "09:00", EndTime: "10:00", Status: blocking},
			})
			_, err := s.Create(context.Background(), createReq(1, "2025-03-01", "09:30", "10:30", 7))
			if !errors.Is(err, ErrOverlapConflict) {
				t.Fatalf("expected ErrOverlapConflict, got %v", err)
			}
		})
	}
}

func TestCreateIgnoresInactiveReservations(t *testing.T) {
	for _, inactive := range []string{model.StatusCancelled, model.StatusRejected} {
		t.Run(inactive, func(t *testing.T) {
			s, _ := newTestScheduler(availableRoom(1), []model.Reservation{
				{ID: 1, ResourceID: 1, UserID: 3, Date: "2025-03-01", StartTime: "09:00", EndTime: "10:00", Status: inactive},
			})
			res, err := s.Create(context.Background(), createReq(1, "2025-03-01", "09:00", "10:00", 7))
			if err != nil {
				t.Fatalf("expected create to succeed over %s reservation, got %v", inactive, err)
			}
			if res.ID == 0 {
				t.Fatal("created reservation has no ID")
			}
		})
	}
}

func TestCreateAllowsOtherResourceAndDate(t *testing.T) {
	resources := availableRoom(1)
	resources[2] = model.Resource{ID: 2, Name: "Lab B", Type: model.ResourceRoom, Status: model.ResourceAvailable}
	existing := []model.Reservation{
		{ID: 1, ResourceID: 1, UserID: 3, Date: "2025-03-01", StartTime: "09:00", EndTime: "10:00", Status: model.StatusConfirmed},
	}

	s, _ := newTestScheduler(resources, existing)
	if _, err := s.Create(context.Background(), createReq(2, "2025-03-01", "09:00", "10:00", 7)); err != nil {
		t.Fatalf("same window on another resource should succeed: %v", err)
	}
	if _, err := s.Create(context.Background(), createReq(1, "2025-03-02", "09:00", "10:00", 7)); err != nil {
		t.Fatalf("same window on another date should succeed: %v", err)
	}
}

func TestCreateForcesPendingStatus(t *testing.T) {
	s, store := newTestScheduler(availableRoom(1), nil)
	res, err := s.Create(context.Background(), createReq(1, "2025-03-01", "09:00", "10:00", 7))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Status != model.StatusPending {
		t.Fatalf("returned status = %q, want %q", res.Status, model.StatusPending)
	}
	stored, err := store.FindByID(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("find stored reservation: %v", err)
	}
	if stored.Status != model.StatusPending {
		t.Fatalf("stored status = %q, want %q", stored.Status, model.StatusPending)
	}
}

func TestCreateSurfacesStoreRaceConflict(t *testing.T) {
	s, store := newTestScheduler(availableRoom(1), nil)
	store.createErr = ErrOverlapConflict
	_, err := s.Create(context.Background(), createReq(1, "2025-03-01", "09:00", "10:00", 7))
	if !errors.Is(err, ErrOverlapConflict) {
		t.Fatalf("expected ErrOverlapConflict from store, got %v", err)
	}
}

// TestBookingScenario walks the reference sequence: an existing
// pending booking blocks an overlapping request, allows a back-to-back
// one, and frees its slot once cancelled.
func TestBookingScenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(availableRoom(1), nil)

	a, err := s.Create(ctx, createReq(1, "2025-03-01", "09:00", "10:00", 3))
	if err != nil {
		t.Fatalf("reservation A: %v", err)
	}

	if _, err := s.Create(ctx, createReq(1, "2025-03-01", "09:30", "10:30", 7)); !errors.Is(err, ErrOverlapConflict) {
		t.Fatalf("request B: expected ErrOverlapConflict, got %v", err)
	}

	if _, err := s.Create(ctx, createReq(1, "2025-03-01", "10:00", "11:00", 7)); err != nil {
		t.Fatalf("request C (adjacent): %v", err)
	}

	if _, err := s.UpdateStatus(ctx, a.ID, model.StatusCancelled, Actor{ID: 3, Role: model.RoleUser}); err != nil {
		t.Fatalf("cancel A: %v", err)
	}

	if _, err := s.Create(ctx, createReq(1, "2025-03-01", "09:30", "10:30", 7)); err != nil {
		t.Fatalf("request D after cancellation: %v", err)
	}
}

func TestUpdateStatusAuthorization(t *testing.T) {
	owner := Actor{ID: 3, Role: model.RoleUser}
	stranger := Actor{ID: 9, Role: model.RoleUser}
	admin := Actor{ID: 1, Role: model.RoleAdmin}

	cases := []struct {
		name    string
		actor   Actor
		target  string
		wantErr error
	}{
		{name: "owner cancels own", actor: owner, target: model.StatusCancelled},
		{name: "owner confirms own", actor: owner, target: model.StatusConfirmed, wantErr: ErrForbidden},
		{name: "owner rejects own", actor: owner, target: model.StatusRejected, wantErr: ErrForbidden},
		{name: "stranger cancels", actor: stranger, target: model.StatusCancelled, wantErr: ErrForbidden},
		{name: "admin confirms", actor: admin, target: model.StatusConfirmed},
		{name: "admin rejects", actor: admin, target: model.StatusRejected},
		{name: "admin cancels", actor: admin, target: model.StatusCancelled},
		{name: "unknown status", actor: admin, target: "approved", wantErr: ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestScheduler(availableRoom(1), []model.Reservation{
				{ID: 1, ResourceID: 1, UserID: owner.ID, Date: "2025-03-01", StartTime: "09:00", EndTime: "10:00", Status: model.StatusPending},
			})
			res, err := s.UpdateStatus(context.Background(), 1, tc.target, tc.actor)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if res.Status != tc.target {
				t.Fatalf("status = %q, want %q", res.Status, tc.target)
			}
		})
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	s, _ := newTestScheduler(availableRoom(1), nil)
	_, err := s.UpdateStatus(context.Background(), 99, model.StatusConfirmed, Actor{ID: 1, Role: model.RoleAdmin})
	if !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound, got %v", err)
	}
}

// Admins may move a reservation out of a terminal state; the overwrite
// is unconditional and no overlap re-check runs.
func TestUpdateStatusAdminReactivatesTerminal(t *testing.T) {
	s, _ := newTestScheduler(availableRoom(1), []model.Reservation{
		{ID: 1, ResourceID: 1, UserID: 3, Date: "2025-03-01", StartTime: "09:00", EndTime: "10:00", Status: model.StatusCancelled},
		{ID: 2, ResourceID: 1, UserID: 7, Date: "2025-03-01", StartTime: "09:00", EndTime: "10:00", Status: model.StatusConfirmed},
	})
	res, err := s.UpdateStatus(context.Background(), 1, model.StatusConfirmed, Actor{ID: 1, Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if res.Status != model.StatusConfirmed {
		t.Fatalf("status = %q, want %q", res.Status, model.StatusConfirmed)
	}
}

func TestListScopingAndOrder(t *testing.T) {
	rows := []model.Reservation{
		{ID: 1, ResourceID: 1, UserID: 3, Date: "2025-03-01", StartTime: "09:00", EndTime: "10:00", Status: model.StatusPending},
		{ID: 2, ResourceID: 1, UserID: 7, Date: "2025-03-02", StartTime: "11:00", EndTime: "12:00", Status: model.StatusConfirmed},
		{ID: 3, ResourceID: 2, UserID: 3, Date: "2025-03-02", StartTime: "14:00", EndTime: "15:00", Status: model.StatusPending},
	}
	s, _ := newTestScheduler(availableRoom(1), rows)

	all, err := s.List(context.Background(), Actor{ID: 1, Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if got, want := idsOf(all), []uint64{3, 2, 1}; !equalIDs(got, want) {
		t.Fatalf("admin list order = %v, want %v", got, want)
	}

	own, err := s.List(context.Background(), Actor{ID: 3, Role: model.RoleUser})
	if err != nil {
		t.Fatalf("user list: %v", err)
	}
	if got, want := idsOf(own), []uint64{3, 1}; !equalIDs(got, want) {
		t.Fatalf("user list = %v, want %v", got, want)
	}
	for _, r := range own {
		if r.UserID != 3 {
			t.Fatalf("user list leaked reservation %d owned by %d", r.ID, r.UserID)
		}
	}
}

func idsOf(rows []model.Reservation) []uint64 {
	out := make([]uint64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
