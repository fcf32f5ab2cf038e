package registry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/registry"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/printing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRegistryRepository is a mock implementation of registry.Repository
type MockRegistryRepository struct {
	mock.Mock
	next map[int]int
}

func (m *MockRegistryRepository) Record(ctx context.Context, e *registry.RepertoriumEntry) error {
	if err := m.Called(ctx, e).Error(0); err != nil {
		return err
	}
	if m.next == nil {
		m.next = make(map[int]int)
	}
	m.next[e.Year]++
	return e.AssignNumber(m.next[e.Year])
}

func (m *MockRegistryRepository) Update(ctx context.Context, e *registry.RepertoriumEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockRegistryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*registry.RepertoriumEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.RepertoriumEntry), args.Error(1)
}

func (m *MockRegistryRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter registry.Filter) ([]*registry.RepertoriumEntry, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*registry.RepertoriumEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockRegistryRepository) FindYear(ctx context.Context, tenantID uuid.UUID, year int) ([]*registry.RepertoriumEntry, error) {
	args := m.Called(ctx, tenantID, year)
	return args.Get(0).([]*registry.RepertoriumEntry), args.Error(1)
}

func (m *MockRegistryRepository) FindKlapper(ctx context.Context, tenantID uuid.UUID, q registry.KlapperQuery) ([]registry.KlapperEntry, error) {
	args := m.Called(ctx, tenantID, q)
	return args.Get(0).([]registry.KlapperEntry), args.Error(1)
}

type mockUsers struct {
	mock.Mock
	identity.UserRepository
}

func (m *mockUsers) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

type mockTenants struct {
	mock.Mock
	identity.TenantRepository
}

func (m *mockTenants) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo    *MockRegistryRepository
	users   *mockUsers
	tenants *mockTenants
	render  *printing.StubRenderer
	svc     *Service
	office  *identity.Tenant
	notary  *identity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	office, err := identity.NewTenant("NOT-02", "Notariaat De Smet")
	require.NoError(t, err)
	notary := &identity.User{Username: "ldesmet", DisplayName: "Meester De Smet", Role: identity.RoleNotary}
	notary.ID = uuid.New()
	notary.TenantID = office.ID

	engine, err := printing.NewTemplateEngine("nl-BE")
	require.NoError(t, err)
	f := &fixture{
		repo:    new(MockRegistryRepository),
		users:   new(mockUsers),
		tenants: new(mockTenants),
		render:  printing.NewStubRenderer(),
		office:  office,
		notary:  notary,
	}
	f.svc = NewService(f.repo, f.users, f.tenants, printing.NewDocumentPrinter(engine, f.render, printing.PaperA4), "nl-BE", nil)
	f.svc.now = func() time.Time { return testNow }
	f.users.On("FindByID", mock.Anything, office.ID, notary.ID).Return(notary, nil)
	f.tenants.On("FindByID", mock.Anything, office.ID).Return(office, nil)
	return f
}

func TestService_Record(t *testing.T) {
	ctx := context.Background()
	fee := decimal.RequireFromString("850.455")

	t.Run("numbers sequentially and indexes parties", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("Record", mock.Anything, mock.AnythingOfType("*registry.RepertoriumEntry")).Return(nil)
		req := RecordRequest{
			DeedDate: testNow.AddDate(0, 0, -1),
			DeedType: "sale",
			Title:    "Verkoop woning",
			NotaryID: f.notary.ID,
			Fee:      &fee,
			Parties: []PartyInput{
				{LastName: "Élise", FirstName: "Marie", Capacity: "seller"},
				{LastName: "Bouw NV", FirstName: "ignored", IsCompany: true, Capacity: "buyer"},
			},
		}

		first, err := f.svc.Record(ctx, f.office.ID, uuid.New(), req)
		require.NoError(t, err)
		assert.Equal(t, "2026/1", first.Label)
		assert.Equal(t, "850.46", first.Fee.StringFixed(2))
		require.Len(t, first.Parties, 2)
		assert.Equal(t, "Bouw NV", first.Parties[1].Name)

		second, err := f.svc.Record(ctx, f.office.ID, uuid.New(), req)
		require.NoError(t, err)
		assert.Equal(t, 2, second.Number)
	})

	t.Run("needs parties", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Record(ctx, f.office.ID, uuid.New(), RecordRequest{
			DeedDate: testNow, DeedType: "will", Title: "Testament", NotaryID: f.notary.ID,
		})
		assert.ErrorIs(t, err, ErrNoParties)
	})

	t.Run("future deed date", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Record(ctx, f.office.ID, uuid.New(), RecordRequest{
			DeedDate: testNow.AddDate(0, 0, 2), DeedType: "will", Title: "Testament", NotaryID: f.notary.ID,
			Parties: []PartyInput{{LastName: "Peeters"}},
		})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_DEED_DATE", de.Code)
	})

	t.Run("clerk cannot execute deeds", func(t *testing.T) {
		f := newFixture(t)
		clerk := &identity.User{Role: identity.RoleClerk}
		clerk.ID = uuid.New()
		f.users.On("FindByID", mock.Anything, f.office.ID, clerk.ID).Return(clerk, nil)
		_, err := f.svc.Record(ctx, f.office.ID, uuid.New(), RecordRequest{
			DeedDate: testNow, DeedType: "will", Title: "Testament", NotaryID: clerk.ID,
			Parties: []PartyInput{{LastName: "Peeters"}},
		})
		assert.ErrorIs(t, err, ErrInvalidNotary)
	})
}

func TestService_Void(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e, err := registry.NewRepertoriumEntry(f.office.ID, uuid.New(), f.notary.ID, testNow, "sale", "Verkoop")
	require.NoError(t, err)
	require.NoError(t, e.AssignNumber(12))
	f.repo.On("FindByID", mock.Anything, f.office.ID, e.ID).Return(e, nil)
	f.repo.On("Update", mock.Anything, e).Return(nil)

	resp, err := f.svc.Void(ctx, f.office.ID, e.ID, "Akte niet verleden")
	require.NoError(t, err)
	assert.Equal(t, "voided", resp.Status)
	assert.Equal(t, 12, resp.Number)

	_, err = f.svc.UpdateRemarks(ctx, f.office.ID, e.ID, "x")
	assert.ErrorIs(t, err, registry.ErrEntryVoided)
}

func TestService_Index(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rows := []registry.KlapperEntry{
		{LastName: "Evers", FirstName: "Tom", Year: 2026, EntryNumber: 3},
		{LastName: "Élise", FirstName: "Marie", Year: 2026, EntryNumber: 1},
		{LastName: "Aerts", FirstName: "An", Year: 2026, EntryNumber: 2},
	}
	f.repo.On("FindKlapper", mock.Anything, f.office.ID, registry.KlapperQuery{}).Return(rows, nil)

	sections, err := f.svc.Index(ctx, f.office.ID, KlapperRequest{})
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "A", sections[0].Letter)
	assert.Equal(t, "E", sections[1].Letter)
	require.Len(t, sections[1].Entries, 2)
	assert.Equal(t, "Élise, Marie", sections[1].Entries[0].Name)
	assert.Equal(t, "Evers, Tom", sections[1].Entries[1].Name)
}

func TestService_IndexLetter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.repo.On("FindKlapper", mock.Anything, f.office.ID, registry.KlapperQuery{Letter: "E", Prefix: "el"}).
		Return([]registry.KlapperEntry{}, nil)

	_, err := f.svc.Index(ctx, f.office.ID, KlapperRequest{Letter: "é", Prefix: " el "})
	require.NoError(t, err)

	_, err = f.svc.Index(ctx, f.office.ID, KlapperRequest{Letter: "AB"})
	assert.ErrorIs(t, err, ErrInvalidLetter)
	_, err = f.svc.Index(ctx, f.office.ID, KlapperRequest{Letter: "1"})
	assert.ErrorIs(t, err, ErrInvalidLetter)
}

func TestService_ExportPDFs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e, err := registry.NewRepertoriumEntry(f.office.ID, uuid.New(), f.notary.ID, testNow, "sale", "Verkoop")
	require.NoError(t, err)
	require.NoError(t, e.AssignNumber(1))
	require.NoError(t, e.AddParty(registry.KlapperEntry{LastName: "Claes", FirstName: "Jan"}))
	f.repo.On("FindYear", mock.Anything, f.office.ID, 2026).Return([]*registry.RepertoriumEntry{e}, nil)
	year := 2026
	f.repo.On("FindKlapper", mock.Anything, f.office.ID, registry.KlapperQuery{Year: &year}).Return(e.Parties, nil)

	rep, err := f.svc.ExportRepertoriumPDF(ctx, f.office.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, "repertorium-2026.pdf", rep.FileName)

	kl, err := f.svc.ExportKlapperPDF(ctx, f.office.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, "klapper-2026.pdf", kl.FileName)

	reqs := f.render.Requests()
	require.Len(t, reqs, 2)
	assert.True(t, reqs[0].Landscape)
	assert.Contains(t, reqs[0].HTML, "Meester De Smet")
	assert.Contains(t, reqs[1].HTML, "Claes")

	_, err = f.svc.ExportRepertoriumPDF(ctx, f.office.ID, 12)
	assert.ErrorIs(t, err, ErrInvalidYear)
}
