package restriction

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"city_network/internal/models"
)

const (
	cityA uint = iota + 1
	cityB
	cityC
	cityD
	cityE
	cityX
	cityB2
)

func route(id, origin, destiny uint, cost float64) models.Route {
	return models.Route{
		Model:     gorm.Model{ID: id},
		OriginID:  origin,
		DestinyID: destiny,
		Cost:      cost,
	}
}

func candidate(origin, destiny uint, cost float64) models.Route {
	return models.Route{OriginID: origin, DestinyID: destiny, Cost: cost}
}

func TestValidate_CostRule(t *testing.T) {
	t.Parallel()

	chain := []models.Route{
		route(1, cityA, cityB, 5),
		route(2, cityB, cityC, 5),
	}

	tests := []struct {
		name    string
		cost    float64
		wantErr bool
	}{
		{name: "cheaper than chain is accepted", cost: 9},
		{name: "equal to chain is rejected", cost: 10, wantErr: true},
		{name: "dearer than chain is rejected", cost: 15, wantErr: true},
		{name: "one above chain is rejected", cost: 11, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(candidate(cityA, cityC, tt.cost), chain)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCostInconsistency)
			assert.Equal(t, CostInconsistencyMessage, err.Error())
		})
	}
}

func TestValidate_NoOutgoingRoutesAccepted(t *testing.T) {
	t.Parallel()

	routes := []models.Route{
		route(1, cityB, cityC, 1),
		route(2, cityC, cityD, 1),
	}
	assert.NoError(t, Validate(candidate(cityA, cityD, 1000), routes))
	assert.NoError(t, Validate(candidate(cityA, cityD, 0), nil))
}

func TestValidate_DirectDuplicateIsNotIndirect(t *testing.T) {
	t.Parallel()

	routes := []models.Route{
		route(1, cityA, cityC, 1),
	}
	assert.NoError(t, Validate(candidate(cityA, cityC, 50), routes))
}

func TestValidate_CycleTerminates(t *testing.T) {
	t.Parallel()

	routes := []models.Route{
		route(1, cityA, cityB, 1),
		route(2, cityB, cityA, 1),
	}
	assert.NoError(t, Validate(candidate(cityA, cityC, 100), routes))
}

func TestValidate_BacktrackingExploresSiblings(t *testing.T) {
	t.Parallel()

	routes := []models.Route{
		route(1, cityA, cityB, 100),
		route(2, cityA, cityB2, 1),
		route(3, cityB2, cityC, 1),
	}
	err := Validate(candidate(cityA, cityC, 5), routes)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CostInconsistency, verr.Kind)
	assert.Equal(t, []uint{2, 3}, verr.Path)
	assert.Equal(t, 2.0, verr.Cost)
}

func TestValidate_BacktrackingInsideExploration(t *testing.T) {
	t.Parallel()

	// From B the dead end through E is tried first, then B -> X -> D.
	routes := []models.Route{
		route(1, cityA, cityB, 1),
		route(2, cityB, cityE, 1),
		route(3, cityB, cityX, 1),
		route(4, cityX, cityD, 1),
	}
	err := Validate(candidate(cityA, cityD, 3), routes)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []uint{1, 3, 4}, verr.Path)
	assert.Equal(t, 3.0, verr.Cost)
}

func TestValidate_MissingEndpointsExempt(t *testing.T) {
	t.Parallel()

	routes := []models.Route{
		route(1, cityA, cityB, 1),
		route(2, cityB, cityC, 1),
	}
	assert.NoError(t, Validate(candidate(0, cityC, 100), routes))
	assert.NoError(t, Validate(candidate(cityA, 0, 100), routes))
}

func TestValidate_MalformedRoutesSkipped(t *testing.T) {
	t.Parallel()

	routes := []models.Route{
		route(1, cityA, 0, 0),
		route(2, 0, cityC, 0),
		route(3, cityA, cityB, 1),
	}
	assert.NoError(t, Validate(candidate(cityA, cityC, 100), routes))
}

func TestValidate_Idempotent(t *testing.T) {
	t.Parallel()

	routes := []models.Route{
		route(1, cityA, cityB, 5),
		route(2, cityB, cityC, 5),
		route(3, cityB, cityA, 1),
	}
	e := New(0)
	first := e.Validate(candidate(cityA, cityC, 10), routes)
	second := e.Validate(candidate(cityA, cityC, 10), routes)
	assert.Equal(t, first, second)

	assert.NoError(t, e.Validate(candidate(cityA, cityC, 9), routes))
	assert.NoError(t, e.Validate(candidate(cityA, cityC, 9), routes))
}

func TestValidate_CityScenario(t *testing.T) {
	t.Parallel()

	const (
		ny uint = iota + 10
		la
		chi
	)
	routes := []models.Route{
		route(1, ny, la, 11),
		route(2, ny, chi, 14),
		route(3, la, chi, 5),
	}

	err := Validate(candidate(ny, chi, 20), routes)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []uint{1, 3}, verr.Path)
	assert.Equal(t, 16.0, verr.Cost)

	assert.NoError(t, Validate(candidate(ny, chi, 15), routes))
}

func TestValidate_ZeroCostEdges(t *testing.T) {
	t.Parallel()

	routes := []models.Route{
		route(1, cityA, cityB, 0),
		route(2, cityB, cityC, 0),
	}
	assert.ErrorIs(t, Validate(candidate(cityA, cityC, 0), routes), ErrCostInconsistency)
}

func TestValidate_VisitedResetBetweenFirstHops(t *testing.T) {
	t.Parallel()

	// The first hop through B uses X -> D and fails on cost. The second hop
	// through C needs X -> D again and may take it because the visited set
	// starts empty for every first hop.
	routes := []models.Route{
		route(1, cityA, cityB, 50),
		route(2, cityA, cityC, 1),
		route(3, cityB, cityX, 1),
		route(4, cityX, cityD, 1),
		route(5, cityC, cityX, 1),
	}
	err := Validate(candidate(cityA, cityD, 10), routes)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []uint{2, 5, 4}, verr.Path)
	assert.Equal(t, 3.0, verr.Cost)
}

func TestValidate_ExpensiveArrivalClosesLevel(t *testing.T) {
	t.Parallel()

	// From B the expensive B -> D comes first. Reaching D too expensively
	// closes B's level, so the cheaper B -> E -> D is never examined.
	routes := []models.Route{
		route(1, cityA, cityB, 1),
		route(2, cityB, cityD, 100),
		route(3, cityB, cityE, 1),
		route(4, cityE, cityD, 1),
	}
	assert.NoError(t, Validate(candidate(cityA, cityD, 10), routes))

	// Same network with the siblings swapped finds the cheap chain.
	swapped := []models.Route{routes[0], routes[2], routes[3], routes[1]}
	assert.ErrorIs(t, Validate(candidate(cityA, cityD, 10), swapped), ErrCostInconsistency)
}

func TestValidate_ExpensiveArrivalCostStaysInTotal(t *testing.T) {
	t.Parallel()

	// B -> X -> D arrives at 102. Leaving X gives back only B -> X, so the
	// running total is 101 when B -> E -> D is tried and that chain arrives at
	// 103 instead of 3.
	routes := []models.Route{
		route(1, cityA, cityB, 1),
		route(2, cityB, cityX, 1),
		route(3, cityX, cityD, 100),
		route(4, cityB, cityE, 1),
		route(5, cityE, cityD, 1),
	}

	tests := []struct {
		name     string
		cost     float64
		wantErr  bool
		wantPath []uint
		wantCost float64
	}{
		{name: "cheap candidate is accepted", cost: 10},
		{name: "candidate above the second arrival is accepted", cost: 101},
		{name: "candidate at the first arrival is rejected", cost: 102, wantErr: true, wantPath: []uint{1, 2, 3}, wantCost: 102},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(candidate(cityA, cityD, tt.cost), routes)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantPath, verr.Path)
			assert.Equal(t, tt.wantCost, verr.Cost)
		})
	}
}

func TestValidate_SameEndpointsNotSpecialCased(t *testing.T) {
	t.Parallel()

	routes := []models.Route{
		route(1, cityA, cityB, 2),
		route(2, cityB, cityA, 2),
	}
	assert.ErrorIs(t, Validate(candidate(cityA, cityA, 4), routes), ErrCostInconsistency)
	assert.NoError(t, Validate(candidate(cityA, cityA, 3), routes))
}

func TestValidate_StepBudget(t *testing.T) {
	t.Parallel()

	routes := []models.Route{
		route(1, cityA, cityB, 1),
		route(2, cityB, cityC, 1),
		route(3, cityC, cityD, 1),
		route(4, cityD, cityE, 1),
	}

	err := New(2).Validate(candidate(cityA, cityE, 10), routes)
	assert.ErrorIs(t, err, ErrSearchBudgetExceeded)
	assert.NotErrorIs(t, err, ErrCostInconsistency)

	assert.ErrorIs(t, New(10).Validate(candidate(cityA, cityE, 10), routes), ErrCostInconsistency)
}

func TestValidate_LongChainDoesNotGrowCallStack(t *testing.T) {
	t.Parallel()

	const n = 20000
	routes := make([]models.Route, 0, n)
	for i := uint(1); i <= n; i++ {
		routes = append(routes, route(i, 1000+i, 1000+i+1, 1))
	}
	assert.ErrorIs(t, Validate(candidate(1001, 1000+n+1, n), routes), ErrCostInconsistency)
	assert.NoError(t, Validate(candidate(1001, 1000+n+1, n-1), routes))
}

func TestEngine_ConcurrentUse(t *testing.T) {
	t.Parallel()

	routes := []models.Route{
		route(1, cityA, cityB, 5),
		route(2, cityB, cityC, 5),
	}
	e := New(0)

	var wg sync.WaitGroup
	errs := make([]error, 50)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cost := 9.0
			if i%2 == 0 {
				cost = 10
			}
			errs[i] = e.Validate(candidate(cityA, cityC, cost), routes)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if i%2 == 0 {
			assert.ErrorIs(t, err, ErrCostInconsistency)
		} else {
			assert.NoError(t, err)
		}
	}
}

// reference is a plain recursive rendition of the search, used to check the
// iterative engine on generated networks.
type reference struct {
	routes  []models.Route
	target  uint
	limit   float64
	acc     float64
	visited map[int]bool
}

func (r *reference) explore(from uint) bool {
	var next []int
	for i, rt := range r.routes {
		if rt.HasEndpoints() && rt.OriginID == from && !r.visited[i] {
			next = append(next, i)
		}
	}
	for _, i := range next {
		rt := r.routes[i]
		r.acc += rt.Cost
		r.visited[i] = true
		if rt.DestinyID == r.target {
			return r.acc <= r.limit
		}
		if r.explore(rt.DestinyID) {
			return true
		}
		r.acc -= rt.Cost
	}
	return false
}

func referenceValidate(c models.Route, routes []models.Route) (bool, float64) {
	for i, first := range routes {
		if !first.HasEndpoints() || first.OriginID != c.OriginID || first.DestinyID == c.DestinyID {
			continue
		}
		r := &reference{
			routes:  routes,
			target:  c.DestinyID,
			limit:   c.Cost,
			acc:     first.Cost,
			visited: map[int]bool{i: true},
		}
		if r.explore(first.DestinyID) {
			return true, r.acc
		}
	}
	return false, 0
}

func TestValidate_MatchesRecursiveReference(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	const cities = 6

	for n := 0; n < 5000; n++ {
		routes := make([]models.Route, rng.Intn(11))
		for i := range routes {
			routes[i] = route(
				uint(i+1),
				uint(rng.Intn(cities)+1),
				uint(rng.Intn(cities)+1),
				float64(rng.Intn(10)),
			)
		}
		c := candidate(uint(rng.Intn(cities)+1), uint(rng.Intn(cities)+1), float64(rng.Intn(21)))

		wantReject, wantCost := referenceValidate(c, routes)
		err := Validate(c, routes)

		if !wantReject {
			require.NoError(t, err, "network %d: %+v candidate %+v", n, routes, c)
			continue
		}
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "network %d: %+v candidate %+v", n, routes, c)
		require.Equal(t, wantCost, verr.Cost, "network %d", n)
	}
}
