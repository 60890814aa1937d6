package usecase

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/route-context-service/internal/domain"
	"github.com/route-context-service/internal/pkg/errors"
	"github.com/route-context-service/internal/pkg/utils"
)

// SolverUsecase - построение маршрутов методом экономий Кларка-Райта
type SolverUsecase struct {
	logger *zap.Logger
}

// NewSolverUsecase - создание нового SolverUsecase
func NewSolverUsecase(logger *zap.Logger) *SolverUsecase {
	return &SolverUsecase{logger: logger}
}

type saving struct {
	i     int
	j     int
	value float64
}

// Solve assigns every customer to a route starting and ending at the depot.
// Routes are seeded one per customer and merged in descending savings order,
// joining only open endpoints while the combined load fits the capacity.
// Demand exceeding a single vehicle or more routes than vehicles is infeasible.
func (uc *SolverUsecase) Solve(depot domain.Point, customers []domain.Customer, fleet domain.Fleet) ([]domain.Route, error) {
	if fleet.Vehicles < 1 || fleet.Capacity <= 0 {
		return nil, errors.ErrValidation.WithReason("fleet requires at least one vehicle and positive capacity")
	}
	if len(customers) == 0 {
		return []domain.Route{}, nil
	}

	for _, c := range customers {
		if c.Demand > fleet.Capacity {
			return nil, errors.ErrInfeasibleFleet.WithReason(
				fmt.Sprintf("customer %s demand %.3f exceeds vehicle capacity %.3f", c.ID, c.Demand, fleet.Capacity))
		}
	}

	n := len(customers)

	// Distances from the depot and between customers are reused heavily,
	// precompute both.
	depotDist := make([]float64, n)
	for i, c := range customers {
		depotDist[i] = utils.HaversineDistance(depot.Lat, depot.Lon, c.Lat, c.Lon)
	}
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			if i != j {
				dist[i][j] = utils.HaversineDistance(
					customers[i].Lat, customers[i].Lon,
					customers[j].Lat, customers[j].Lon)
			}
		}
	}

	savings := make([]saving, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			savings = append(savings, saving{
				i:     i,
				j:     j,
				value: depotDist[i] + depotDist[j] - dist[i][j],
			})
		}
	}
	// Stable sort keeps pair generation order for equal savings, so results
	// are deterministic for the same input ordering.
	sort.SliceStable(savings, func(a, b int) bool {
		return savings[a].value > savings[b].value
	})

	// One route per customer to start, stored as customer index sequences.
	routes := make([][]int, n)
	loads := make([]float64, n)
	routeOf := make([]int, n)
	for i := 0; i < n; i++ {
		routes[i] = []int{i}
		loads[i] = customers[i].Demand
		routeOf[i] = i
	}

	for _, s := range savings {
		ri, rj := routeOf[s.i], routeOf[s.j]
		if ri == rj {
			continue
		}
		if loads[ri]+loads[rj] > fleet.Capacity {
			continue
		}
		a, b := routes[ri], routes[rj]
		// Merge only when both customers sit at an open endpoint. The
		// sequences are oriented so i ends route a and j starts route b.
		switch {
		case a[len(a)-1] == s.i && b[0] == s.j:
		case a[len(a)-1] == s.i && b[len(b)-1] == s.j:
			reverse(b)
		case a[0] == s.i && b[0] == s.j:
			reverse(a)
		case a[0] == s.i && b[len(b)-1] == s.j:
			reverse(a)
			reverse(b)
		default:
			continue
		}

		merged := append(a, b...)
		routes[ri] = merged
		loads[ri] += loads[rj]
		routes[rj] = nil
		for _, idx := range b {
			routeOf[idx] = ri
		}
	}

	result := make([]domain.Route, 0, fleet.Vehicles)
	vehicle := 0
	for ri, seq := range routes {
		if seq == nil {
			continue
		}
		route := domain.Route{
			Vehicle: vehicle,
			Load:    loads[ri],
		}
		route.Stops = append(route.Stops, domain.Stop{
			ID:  domain.DepotStopID,
			Lat: depot.Lat,
			Lon: depot.Lon,
		})
		for _, idx := range seq {
			c := customers[idx]
			route.Stops = append(route.Stops, domain.Stop{
				ID:     c.ID,
				Lat:    c.Lat,
				Lon:    c.Lon,
				Demand: c.Demand,
			})
			route.ServedIDs = append(route.ServedIDs, c.ID)
		}
		route.Stops = append(route.Stops, domain.Stop{
			ID:  domain.DepotStopID,
			Lat: depot.Lat,
			Lon: depot.Lon,
		})
		for i := 1; i < len(route.Stops); i++ {
			route.DistanceKm += utils.HaversineDistance(
				route.Stops[i-1].Lat, route.Stops[i-1].Lon,
				route.Stops[i].Lat, route.Stops[i].Lon)
		}
		result = append(result, route)
		vehicle++
	}

	if len(result) > fleet.Vehicles {
		return nil, errors.ErrInfeasibleFleet.WithReason(
			fmt.Sprintf("need %d routes but only %d vehicles available", len(result), fleet.Vehicles))
	}

	uc.logger.Debug("solved routing problem",
		zap.Int("customers", n),
		zap.Int("routes", len(result)),
		zap.Int("vehicles", fleet.Vehicles))

	return result, nil
}

func reverse(seq []int) {
	for l, r := 0, len(seq)-1; l < r; l, r = l+1, r-1 {
		seq[l], seq[r] = seq[r], seq[l]
	}
}
