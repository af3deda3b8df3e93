package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"city_network/internal/hub"
	"city_network/internal/models"
	"city_network/internal/restriction"
	"city_network/internal/store"
)

type fixture struct {
	stores *store.Stores
	routes *RouteService
	cities *CityService
	ids    map[string]uint
}

func newFixture(t *testing.T, engine *restriction.Engine, policy UpdatePolicy, names ...string) *fixture {
	t.Helper()
	s := store.NewMemory()
	f := &fixture{
		stores: s,
		routes: NewRouteService(s.Routes, s.Cities, engine, policy),
		cities: NewCityService(s.Cities, s.Routes),
		ids:    make(map[string]uint),
	}
	for _, n := range names {
		c := models.City{Name: n}
		require.NoError(t, f.cities.Create(context.Background(), &c))
		f.ids[n] = c.ID
	}
	return f
}

func (f *fixture) mustRoute(t *testing.T, from, to string, cost float64) *models.Route {
	t.Helper()
	r, err := f.routes.Create(context.Background(), RouteInput{
		OriginID:  f.ids[from],
		DestinyID: f.ids[to],
		Cost:      cost,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) input(from, to string, cost float64) RouteInput {
	return RouteInput{OriginID: f.ids[from], DestinyID: f.ids[to], Cost: cost}
}

func TestRouteService_CreateRejectsCheaperIndirectChain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil, ExcludeSelf, "New York", "Los Angeles", "Chicago")

	f.mustRoute(t, "New York", "Los Angeles", 11)
	f.mustRoute(t, "New York", "Chicago", 14)
	f.mustRoute(t, "Los Angeles", "Chicago", 5)

	_, err := f.routes.Create(ctx, f.input("New York", "Chicago", 20))
	require.Error(t, err)
	assert.ErrorIs(t, err, restriction.ErrCostInconsistency)
	assert.Equal(t, restriction.CostInconsistencyMessage, err.Error())

	all, err := f.routes.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3, "rejected route must not be persisted")

	created, err := f.routes.Create(ctx, RouteInput{
		OriginID:          f.ids["New York"],
		DestinyID:         f.ids["Chicago"],
		Cost:              15,
		IntermediateStops: []string{"Denver", "Omaha"},
	})
	require.NoError(t, err)
	require.NotNil(t, created.Origin)
	assert.Equal(t, "New York", created.Origin.Name)
	assert.Equal(t, []string{"Denver", "Omaha"}, created.StopNames())
}

func TestRouteService_CreateChecksEndpoints(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil, ExcludeSelf, "A", "B")

	tests := []struct {
		name string
		in   RouteInput
		want error
	}{
		{name: "negative cost", in: f.input("A", "B", -1), want: models.ErrNegativeCost},
		{name: "same endpoints", in: f.input("A", "A", 1), want: models.ErrSameEndpoints},
		{name: "unknown destiny", in: RouteInput{OriginID: f.ids["A"], DestinyID: 999, Cost: 1}, want: models.ErrUnknownCity},
		{name: "missing origin", in: RouteInput{DestinyID: f.ids["B"], Cost: 1}, want: models.ErrUnknownCity},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.routes.Create(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	all, err := f.routes.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRouteService_CheckDoesNotWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil, ExcludeSelf, "A", "B", "C")

	f.mustRoute(t, "A", "B", 5)
	f.mustRoute(t, "B", "C", 5)

	assert.NoError(t, f.routes.Check(ctx, 0, f.input("A", "C", 9)))
	assert.ErrorIs(t, f.routes.Check(ctx, 0, f.input("A", "C", 10)), restriction.ErrCostInconsistency)

	all, err := f.routes.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// The stored A -> B route is the only way out of A. Replacing it with
// A -> D only conflicts with A -> B -> D if the old version is still
// part of the snapshot.
func TestRouteService_UpdatePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		policy  UpdatePolicy
		wantErr error
	}{
		{name: "exclude self accepts", policy: ExcludeSelf},
		{name: "include self rejects", policy: IncludeSelf, wantErr: restriction.ErrCostInconsistency},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			f := newFixture(t, nil, tt.policy, "A", "B", "C", "D")

			ab := f.mustRoute(t, "A", "B", 3)
			f.mustRoute(t, "B", "C", 3)
			f.mustRoute(t, "B", "D", 2)

			updated, err := f.routes.Update(ctx, ab.ID, f.input("A", "D", 10))
			stored, getErr := f.routes.Get(ctx, ab.ID)
			require.NoError(t, getErr)

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, f.ids["D"], updated.DestinyID)
				assert.Equal(t, 10.0, stored.Cost)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, f.ids["B"], stored.DestinyID)
			assert.Equal(t, 3.0, stored.Cost)
		})
	}
}

func TestRouteService_UpdateMissingRoute(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, ExcludeSelf, "A", "B")

	_, err := f.routes.Update(context.Background(), 404, f.input("A", "B", 1))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRouteService_SearchBudget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, restriction.New(1), ExcludeSelf, "A", "B", "C")

	f.mustRoute(t, "A", "B", 1)
	f.mustRoute(t, "B", "C", 1)

	_, err := f.routes.Create(ctx, f.input("A", "C", 10))
	assert.True(t, errors.Is(err, restriction.ErrSearchBudgetExceeded))
}

func TestRouteService_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil, ExcludeSelf, "A", "B", "C")

	ab := f.mustRoute(t, "A", "B", 1)
	f.mustRoute(t, "B", "C", 1)
	_, err := f.routes.Create(ctx, f.input("A", "C", 2))
	require.ErrorIs(t, err, restriction.ErrCostInconsistency)

	require.NoError(t, f.routes.Delete(ctx, ab.ID))
	_, err = f.routes.Create(ctx, f.input("A", "C", 2))
	assert.NoError(t, err)
	assert.ErrorIs(t, f.routes.Delete(ctx, ab.ID), models.ErrNotFound)
}

func TestCityService_DeleteInUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil, ExcludeSelf, "A", "B", "C")

	r := f.mustRoute(t, "A", "B", 1)

	assert.ErrorIs(t, f.cities.Delete(ctx, f.ids["A"]), models.ErrCityInUse)
	assert.ErrorIs(t, f.cities.Delete(ctx, f.ids["B"]), models.ErrCityInUse)
	assert.NoError(t, f.cities.Delete(ctx, f.ids["C"]))
	assert.ErrorIs(t, f.cities.Delete(ctx, f.ids["C"]), models.ErrNotFound)

	require.NoError(t, f.routes.Delete(ctx, r.ID))
	assert.NoError(t, f.cities.Delete(ctx, f.ids["A"]))
}

func TestCityService_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil, ExcludeSelf, "A", "B")

	lat, lng := 38.72, -9.14
	got, err := f.cities.Update(ctx, f.ids["A"], &models.City{Name: "Lisbon", Color: "#00f", Lat: &lat, Lng: &lng})
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", got.Name)
	assert.True(t, got.HasLocation())

	_, err = f.cities.Update(ctx, f.ids["B"], &models.City{Name: "lisbon"})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = f.cities.Update(ctx, 999, &models.City{Name: "Nowhere"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

type fakeIssuer struct{}

func (fakeIssuer) GenerateToken(userID uint, role string) (string, error) {
	return role + "-token", nil
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemory()
	auth := NewAuthService(s.Users, fakeIssuer{})

	user, token, err := auth.Signup(ctx, SignupInput{Name: "Ana", Email: " Ana@Example.com ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, user.Role)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotEqual(t, "secret", user.Password)
	assert.Equal(t, "viewer-token", token)

	_, _, err = auth.Signup(ctx, SignupInput{Name: "Ana", Email: "ana@example.com", Password: "x"})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, _, err = auth.Signup(ctx, SignupInput{Email: "bob@example.com", Password: "x", Role: "pilot"})
	assert.ErrorIs(t, err, models.ErrInvalidRole)

	got, _, err := auth.Login(ctx, "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, _, err = auth.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, _, err = auth.Login(ctx, "nobody@example.com", "secret")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestNormalizeRole(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: models.RoleViewer},
		{in: " Operator ", want: models.RoleOperator},
		{in: "ADMIN", want: models.RoleAdmin},
		{in: "driver", wantErr: true},
	}
	for _, tt := range tests {
		got, err := normalizeRole(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, models.ErrInvalidRole)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

type recordingNotifier struct {
	kinds []string
	ids   []uint
}

func (n *recordingNotifier) Publish(kind string, id uint, data interface{}) {
	n.kinds = append(n.kinds, kind)
	n.ids = append(n.ids, id)
}

func TestServices_PublishOnlySuccessfulWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil, ExcludeSelf, "A", "B", "C")

	n := &recordingNotifier{}
	f.routes.UseNotifier(n)
	f.cities.UseNotifier(n)

	ab := f.mustRoute(t, "A", "B", 1)
	bc := f.mustRoute(t, "B", "C", 1)
	_, err := f.routes.Create(ctx, f.input("A", "C", 2))
	require.Error(t, err)

	_, err = f.routes.Update(ctx, ab.ID, f.input("A", "B", 3))
	require.NoError(t, err)
	require.NoError(t, f.routes.Delete(ctx, bc.ID))
	require.Error(t, f.cities.Delete(ctx, f.ids["A"]))
	require.NoError(t, f.cities.Delete(ctx, f.ids["C"]))

	assert.Equal(t, []string{
		hub.RouteCreated,
		hub.RouteCreated,
		hub.RouteUpdated,
		hub.RouteDeleted,
		hub.CityDeleted,
	}, n.kinds)
	assert.Equal(t, []uint{ab.ID, bc.ID, ab.ID, bc.ID, f.ids["C"]}, n.ids)
}
