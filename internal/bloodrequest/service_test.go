package bloodrequest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/lifecycle"
	"blood_donation_dashboard/internal/requeststore"
	"blood_donation_dashboard/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	mu      sync.Mutex
	records map[string]domain.BloodRequest
	order   []string
	calls   int32
	queries []url.Values
}

func newFakeAPI(records ...domain.BloodRequest) *fakeAPI {
	f := &fakeAPI{records: map[string]domain.BloodRequest{}}
	for _, r := range records {
		f.records[r.ID] = r
		f.order = append(f.order, r.ID)
	}
	return f
}

func convert(v, out any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeAPI) Get(_ context.Context, path string, query url.Values, out any) error {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if path == collectionPath {
		f.queries = append(f.queries, query)
		list := []domain.BloodRequest{}
		for _, id := range f.order {
			r := f.records[id]
			if email := query.Get("email"); email != "" && r.RequesterEmail != email {
				continue
			}
			list = append(list, r)
		}
		return convert(list, out)
	}
	rec, ok := f.records[strings.TrimPrefix(path, collectionPath+"/")]
	if !ok {
		return common.NewRemoteError(http.StatusNotFound, "")
	}
	return convert(rec, out)
}

func (f *fakeAPI) Post(_ context.Context, _ string, body, out any) error {
	atomic.AddInt32(&f.calls, 1)
	var rec domain.BloodRequest
	if err := convert(body, &rec); err != nil {
		return err
	}
	f.mu.Lock()
	rec.ID = fmt.Sprintf("req-%d", len(f.order)+1)
	f.records[rec.ID] = rec
	f.order = append(f.order, rec.ID)
	f.mu.Unlock()
	return convert(map[string]string{"insertedId": rec.ID}, out)
}

func (f *fakeAPI) Patch(_ context.Context, path string, _ url.Values, body, _ any) error {
	atomic.AddInt32(&f.calls, 1)
	id := strings.TrimPrefix(path, collectionPath+"/")
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return common.NewRemoteError(http.StatusNotFound, "")
	}
	if err := convert(body, &rec); err != nil {
		return err
	}
	f.records[id] = rec
	return nil
}

func (f *fakeAPI) Delete(_ context.Context, path string, _ any) error {
	atomic.AddInt32(&f.calls, 1)
	id := strings.TrimPrefix(path, collectionPath+"/")
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	for i, o := range f.order {
		if o == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

type fakeProfiles struct {
	profile *domain.DonorProfile
	err     error
}

func (p fakeProfiles) Current(context.Context) (*domain.DonorProfile, error) { return p.profile, p.err }

type fakeIdentities struct {
	identity  *domain.Identity
	listeners []session.Listener
}

func (i *fakeIdentities) Current() *domain.Identity { return i.identity }

func (i *fakeIdentities) Subscribe(l session.Listener) func() {
	i.listeners = append(i.listeners, l)
	return func() {}
}

func (i *fakeIdentities) switchTo(identity *domain.Identity) {
	i.identity = identity
	for _, l := range i.listeners {
		l(identity)
	}
}

func newTestService(t *testing.T, api *fakeAPI, profiles Profiles, identity *domain.Identity) *ServiceImplementation {
	t.Helper()
	svc, _ := newTestServiceWithIdentities(t, api, profiles, identity)
	return svc
}

func newTestServiceWithIdentities(t *testing.T, api *fakeAPI, profiles Profiles, identity *domain.Identity) (*ServiceImplementation, *fakeIdentities) {
	t.Helper()
	cfg := &config.Config{DefaultPageSize: 5}
	engine := lifecycle.NewEngine()
	store := NewStore(api, engine, requeststore.NewCache(cfg), nil, zap.NewNop())
	ids := &fakeIdentities{identity: identity}
	return NewService(store, engine, profiles, ids, cfg, zap.NewNop()), ids
}

func sampleRequests() []domain.BloodRequest {
	var out []domain.BloodRequest
	statuses := []domain.Status{domain.StatusPending, domain.StatusInProgress, domain.StatusDone, domain.StatusPending, domain.StatusCanceled, domain.StatusPending}
	for i, st := range statuses {
		email := "ana@example.com"
		if i%2 == 1 {
			email = "bo@example.com"
		}
		out = append(out, domain.BloodRequest{
			ID:             fmt.Sprintf("r%d", i+1),
			RequesterEmail: email,
			RecipientName:  fmt.Sprintf("Recipient %d", i+1),
			BloodGroup:     "O+",
			Status:         st,
		})
	}
	return out
}

func validCreate() CreateRequest {
	return CreateRequest{
		RecipientName: " Rahim ",
		BloodGroup:    "B+",
		Hospital:      "Dhaka Medical",
		Address:       "Zahir Raihan Rd",
		District:      "Dhaka",
		Upazila:       "Ramna",
		DonationDate:  "2026-11-02",
		DonationTime:  "10:30",
	}
}

func TestCreate_FillsRequesterAndStartsPending(t *testing.T) {
	api := newFakeAPI()
	svc := newTestService(t, api,
		fakeProfiles{profile: &domain.DonorProfile{Email: "ana@example.com", Name: "Ana Rahman"}},
		&domain.Identity{Email: "ana@example.com", DisplayName: "ana"})

	id, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec := api.records[id]
	assert.Equal(t, "Ana Rahman", rec.RequesterName)
	assert.Equal(t, "ana@example.com", rec.RequesterEmail)
	assert.Equal(t, "Rahim", rec.RecipientName)
	assert.Equal(t, domain.StatusPending, rec.Status)
}

func TestCreate_BlockedDonorIsForbidden(t *testing.T) {
	api := newFakeAPI()
	svc := newTestService(t, api,
		fakeProfiles{profile: &domain.DonorProfile{Email: "ana@example.com", Status: domain.StatusBlocked}},
		&domain.Identity{Email: "ana@example.com"})

	_, err := svc.Create(context.Background(), validCreate())
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.Zero(t, atomic.LoadInt32(&api.calls))
}

func TestCreate_MissingProfileFallsBackToDisplayName(t *testing.T) {
	api := newFakeAPI()
	svc := newTestService(t, api, fakeProfiles{err: common.ErrNotFound}, &domain.Identity{Email: "new@example.com", DisplayName: "Newcomer"})

	id, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	assert.Equal(t, "Newcomer", api.records[id].RequesterName)
}

func TestCreate_SignedOut(t *testing.T) {
	svc := newTestService(t, newFakeAPI(), fakeProfiles{}, nil)
	_, err := svc.Create(context.Background(), validCreate())
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestListMine_FiltersByEmailAndStatus(t *testing.T) {
	api := newFakeAPI(sampleRequests()...)
	svc := newTestService(t, api, fakeProfiles{}, &domain.Identity{Email: "ana@example.com"})

	pending := domain.StatusPending
	listing, err := svc.ListMine(context.Background(), "ana@example.com", requeststore.Controls{Status: &pending})
	require.NoError(t, err)

	assert.Equal(t, 3, listing.Counts[domain.StatusAll])
	assert.Len(t, listing.Items, 1)
	assert.Equal(t, "r1", listing.Items[0].ID)
	assert.Equal(t, "ana@example.com", api.queries[0].Get("email"))
}

func TestListPending_IgnoresStatusControl(t *testing.T) {
	svc := newTestService(t, newFakeAPI(sampleRequests()...), fakeProfiles{}, nil)

	done := domain.StatusDone
	listing, err := svc.ListPending(context.Background(), requeststore.Controls{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, listing.Status)
	assert.Len(t, listing.Items, 3)
}

func TestListAll_PageIsClamped(t *testing.T) {
	svc := newTestService(t, newFakeAPI(sampleRequests()...), fakeProfiles{}, nil)

	page := 9
	listing, err := svc.ListAll(context.Background(), requeststore.Controls{Page: &page})
	require.NoError(t, err)
	assert.Equal(t, 2, listing.Page.Page)
	assert.Len(t, listing.Items, 1)
}

func TestListViews_ResetOnAccountChange(t *testing.T) {
	ana := &domain.Identity{Email: "ana@example.com", AccessToken: "t1"}
	svc, ids := newTestServiceWithIdentities(t, newFakeAPI(sampleRequests()...), fakeProfiles{}, nil)
	ids.switchTo(ana)

	pending, page := domain.StatusPending, 2
	listing, err := svc.ListAll(context.Background(), requeststore.Controls{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, listing.Status)
	_, err = svc.ListMine(context.Background(), "ana@example.com", requeststore.Controls{Page: &page})
	require.NoError(t, err)

	// A token refresh of the same account keeps the filter.
	ids.switchTo(&domain.Identity{Email: "ANA@example.com", AccessToken: "t2"})
	listing, err = svc.ListAll(context.Background(), requeststore.Controls{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, listing.Status)

	ids.switchTo(&domain.Identity{Email: "bo@example.com"})
	listing, err = svc.ListAll(context.Background(), requeststore.Controls{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAll, listing.Status)
	assert.Equal(t, 1, listing.Page.Page)

	mine, err := svc.ListMine(context.Background(), "bo@example.com", requeststore.Controls{})
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Page.Page)

	queue, err := svc.ListPending(context.Background(), requeststore.Controls{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, queue.Status)
}

func TestRecent_LimitsResult(t *testing.T) {
	api := newFakeAPI(sampleRequests()...)
	svc := newTestService(t, api, fakeProfiles{}, nil)

	recent, err := svc.Recent(context.Background(), "ana@example.com", 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
	assert.Equal(t, "2", api.queries[0].Get("limit"))
}

func TestGet_DetailReflectsRole(t *testing.T) {
	svc := newTestService(t, newFakeAPI(sampleRequests()...), fakeProfiles{}, nil)

	admin, err := svc.Get(context.Background(), domain.RoleAdmin, "r1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Status{domain.StatusInProgress, domain.StatusCanceled}, admin.AllowedTransitions)
	assert.True(t, admin.CanEdit)
	assert.True(t, admin.CanDelete)

	donor, err := svc.Get(context.Background(), domain.RoleDonor, "r1")
	require.NoError(t, err)
	assert.Empty(t, donor.AllowedTransitions)
	assert.False(t, donor.CanEdit)
	assert.False(t, donor.CanDelete)

	_, err = svc.Get(context.Background(), domain.RoleAdmin, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateStatus_VolunteerMovesPendingToInProgress(t *testing.T) {
	api := newFakeAPI(sampleRequests()...)
	svc := newTestService(t, api, fakeProfiles{}, nil)

	updated, err := svc.UpdateStatus(context.Background(), domain.RoleVolunteer, "r1", domain.StatusInProgress)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
}

func TestUpdateStatus_DoneIsTerminal(t *testing.T) {
	api := newFakeAPI(sampleRequests()...)
	svc := newTestService(t, api, fakeProfiles{}, nil)

	_, err := svc.UpdateStatus(context.Background(), domain.RoleAdmin, "r3", domain.StatusPending)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
	assert.Equal(t, domain.StatusDone, api.records["r3"].Status)
}

func TestUpdate_VolunteerCannotEditFields(t *testing.T) {
	api := newFakeAPI(sampleRequests()...)
	svc := newTestService(t, api, fakeProfiles{}, nil)

	hospital := "Square Hospital"
	_, err := svc.Update(context.Background(), domain.RoleVolunteer, "r1", UpdateRequest{Hospital: &hospital})
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
	assert.Zero(t, atomic.LoadInt32(&api.calls))

	updated, err := svc.Update(context.Background(), domain.RoleAdmin, "r1", UpdateRequest{Hospital: &hospital})
	require.NoError(t, err)
	assert.Equal(t, "Square Hospital", updated.Hospital)
	assert.Equal(t, "Recipient 1", updated.RecipientName)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	api := newFakeAPI(sampleRequests()...)
	svc := newTestService(t, api, fakeProfiles{}, nil)

	err := svc.Delete(context.Background(), domain.RoleAdmin, "r1", false)
	assert.ErrorIs(t, err, common.ErrConfirmationRequired)
	assert.Contains(t, api.records, "r1")

	require.NoError(t, svc.Delete(context.Background(), domain.RoleAdmin, "r1", true))
	assert.NotContains(t, api.records, "r1")
}

func TestCounts(t *testing.T) {
	svc := newTestService(t, newFakeAPI(sampleRequests()...), fakeProfiles{}, nil)

	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, counts[domain.StatusAll])
	assert.Equal(t, 3, counts[domain.StatusPending])
	assert.Equal(t, 1, counts[domain.StatusDone])
}
