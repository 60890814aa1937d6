package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/route-context-service/internal/config"
	"github.com/route-context-service/internal/domain"
	"github.com/route-context-service/internal/domain/repository"
	"github.com/route-context-service/internal/pkg/errors"
	"github.com/route-context-service/internal/pkg/utils"
	"github.com/route-context-service/internal/pkg/validator"
	"github.com/route-context-service/internal/usecase/dto"
)

const (
	pipelineModePostprocessing = "postprocessing"
	pipelineModeBeforeVRP      = "before_vrp"

	dataSourceLive      = "live"
	dataSourceSimulated = "simulated"

	// Upper bound for one POI repository lookup per route.
	poiLookupLimit = 200

	// Upper bound on ingested observations mixed into one request.
	ingestedObservationLimit = 500
)

// ProviderFactory строит контекст-провайдер для заданной конфигурации.
// Запрос может переопределить таймаут, радиус и параметры прогноза, тогда
// провайдер собирается заново для этого запроса.
type ProviderFactory func(cfg config.ProviderConfig) repository.ContextProvider

// SolveUsecase - оркестратор: решение VRP, сегментация, сопоставление
// контекста и семантический слой.
type SolveUsecase struct {
	solverUC      *SolverUsecase
	segmentUC     *SegmentUsecase
	contextUC     *ContextUsecase
	rankerUC      *RankerUsecase
	poiRepo       repository.POIRepository
	cacheRepo     repository.CacheRepository
	liveFactory   ProviderFactory
	simFactory    ProviderFactory
	liveProvider  repository.ContextProvider
	simProvider   repository.ContextProvider
	providerCfg   config.ProviderConfig
	semantic      config.SemanticConfig
	defaultSource string
	logger        *zap.Logger
}

// NewSolveUsecase - создание нового SolveUsecase. poiRepo и liveFactory
// могут быть nil, тогда соответствующие возможности недоступны.
func NewSolveUsecase(
	solverUC *SolverUsecase,
	segmentUC *SegmentUsecase,
	contextUC *ContextUsecase,
	rankerUC *RankerUsecase,
	poiRepo repository.POIRepository,
	cacheRepo repository.CacheRepository,
	liveFactory ProviderFactory,
	simFactory ProviderFactory,
	providerCfg config.ProviderConfig,
	semantic config.SemanticConfig,
	defaultSource string,
	logger *zap.Logger,
) *SolveUsecase {
	uc := &SolveUsecase{
		solverUC:      solverUC,
		segmentUC:     segmentUC,
		contextUC:     contextUC,
		rankerUC:      rankerUC,
		poiRepo:       poiRepo,
		cacheRepo:     cacheRepo,
		liveFactory:   liveFactory,
		simFactory:    simFactory,
		providerCfg:   providerCfg,
		semantic:      semantic,
		defaultSource: defaultSource,
		logger:        logger,
	}
	// Default instances keep client-lifetime stats across requests.
	if liveFactory != nil {
		uc.liveProvider = liveFactory(providerCfg)
	}
	uc.simProvider = simFactory(providerCfg)
	return uc
}

// Solve runs the full pipeline for one request.
func (uc *SolveUsecase) Solve(ctx context.Context, req *dto.SolveRequest) (*dto.SolveResponse, error) {
	if err := validator.Validate(req); err != nil {
		return nil, errors.ErrValidation.WithReason(err.Error())
	}
	if !utils.ValidateCoordinates(req.Depot.Lat, req.Depot.Lon) {
		return nil, errors.ErrInvalidCoordinates.WithReason("depot coordinates out of range")
	}
	for _, c := range req.Customers {
		if !utils.ValidateCoordinates(c.Lat, c.Lon) {
			return nil, errors.ErrInvalidCoordinates.WithReason("customer " + c.ID + " coordinates out of range")
		}
	}

	departure, err := req.ParseDeparture()
	if err != nil {
		return nil, errors.ErrInvalidDepartureTime.WithReason(err.Error())
	}

	corridorKm := uc.semantic.CorridorRadiusKm
	topK := uc.semantic.TopK
	avgSpeed := uc.semantic.AvgSpeedKmh
	var categories []string
	if req.Semantic != nil {
		if req.Semantic.CorridorRadiusKm != nil {
			corridorKm = *req.Semantic.CorridorRadiusKm
			if !utils.ValidateRadius(corridorKm) {
				return nil, errors.ErrInvalidRadius.WithReason("corridor radius must be between 0.1 and 100 km")
			}
		}
		if req.Semantic.TopK != nil {
			topK = *req.Semantic.TopK
		}
		if req.Semantic.AvgSpeedKmh != nil {
			avgSpeed = *req.Semantic.AvgSpeedKmh
		}
		categories = req.Semantic.Categories
	}

	weatherObs, err := req.ToWeatherObservations()
	if err != nil {
		return nil, errors.ErrValidation.WithReason("weather observation time_utc: " + err.Error())
	}
	trafficObs, err := req.ToTrafficObservations()
	if err != nil {
		return nil, errors.ErrValidation.WithReason("traffic observation time_utc: " + err.Error())
	}

	weatherObs, trafficObs = uc.mergeIngestedObservations(ctx, weatherObs, trafficObs)

	provider, providerSource := uc.selectProvider(req)

	pipelineMode := req.PipelineMode
	if pipelineMode == "" {
		pipelineMode = pipelineModePostprocessing
	}
	if pipelineMode == pipelineModeBeforeVRP && req.UseContextProvider && provider != nil {
		weatherObs, trafficObs = uc.prefetchObservations(ctx, req, provider, providerSource, departure, weatherObs, trafficObs)
	}

	depot := domain.Point{Lat: req.Depot.Lat, Lon: req.Depot.Lon}
	routes, err := uc.solverUC.Solve(depot, req.ToCustomers(), domain.Fleet{
		Vehicles: req.Fleet.Vehicles,
		Capacity: req.Fleet.Capacity,
	})
	if err != nil {
		return nil, err
	}

	params := ContextParams{
		Departure:        departure,
		UseProvider:      req.UseContextProvider && provider != nil,
		Provider:         provider,
		CorridorRadiusKm: corridorKm,
		Weather:          weatherObs,
		Traffic:          trafficObs,
	}
	haveContext := params.UseProvider || len(weatherObs) > 0 || len(trafficObs) > 0

	response := &dto.SolveResponse{
		Routes:           make([]dto.RouteResponse, 0, len(routes)),
		DepartureTimeUTC: departure,
		PipelineMode:     pipelineMode,
		ContextSource:    uc.contextSource(params.UseProvider, providerSource, len(weatherObs)+len(trafficObs)),
	}

	customersServed := 0
	for _, route := range routes {
		segments := uc.segmentUC.BuildSegments(route, avgSpeed, departure)

		routeResp := dto.RouteResponse{
			Vehicle:    route.Vehicle,
			Stops:      route.Stops,
			Load:       route.Load,
			DistanceKm: route.DistanceKm,
			ServedIDs:  route.ServedIDs,
		}
		if len(segments) > 0 {
			last := segments[len(segments)-1]
			routeResp.TotalETAMin = floatPtr(last.ETAMin)
			routeResp.ArrivalTimeUTC = last.ETA
		}

		if haveContext {
			routeResp.Segments = uc.contextUC.MatchSegments(ctx, segments, params)
		} else {
			routeResp.Segments = plainSegments(segments)
		}

		if req.SemanticLayerEnabled() {
			candidates := req.ToCandidates()
			if len(candidates) == 0 && uc.poiRepo != nil {
				candidates = uc.lookupCandidates(ctx, route, corridorKm, categories)
			}
			ranked := uc.rankerUC.Rank(candidates, segments, RankParams{
				CorridorRadiusKm: corridorKm,
				TopK:             topK,
				Categories:       categories,
			})
			if haveContext {
				attachCandidateContext(ranked, routeResp.Segments)
			}
			routeResp.SemanticContext = ranked
		}

		response.Routes = append(response.Routes, routeResp)
		response.TotalDistanceKm += route.DistanceKm
		customersServed += len(route.ServedIDs)
	}
	response.VehiclesUsed = len(routes)
	response.CustomersServed = customersServed

	if params.UseProvider {
		stats := provider.Stats()
		response.Provider = &dto.ProviderSummaryResponse{
			DataSource:     providerSource,
			CacheHits:      stats.CacheHits,
			HTTPRequests:   stats.HTTPRequests,
			WeatherQueries: stats.WeatherQueries,
			TrafficQueries: stats.TrafficQueries,
			RoutingQueries: stats.RoutingQueries,
			Errors:         stats.Errors,
		}
	}

	uc.logger.Info("solve request completed",
		zap.Int("customers", len(req.Customers)),
		zap.Int("routes", len(routes)),
		zap.String("pipeline_mode", pipelineMode),
		zap.String("context_source", response.ContextSource))

	return response, nil
}

// mergeIngestedObservations подмешивает наблюдения, накопленные
// ingest-воркером, к наблюдениям из запроса. Ошибки кеша только логируются.
func (uc *SolveUsecase) mergeIngestedObservations(
	ctx context.Context,
	weatherObs []domain.WeatherObservation,
	trafficObs []domain.TrafficObservation,
) ([]domain.WeatherObservation, []domain.TrafficObservation) {
	if uc.cacheRepo == nil {
		return weatherObs, trafficObs
	}

	if recent, err := uc.cacheRepo.RecentWeatherObservations(ctx, ingestedObservationLimit); err != nil {
		uc.logger.Warn("failed to load ingested weather observations", zap.Error(err))
	} else {
		weatherObs = append(weatherObs, recent...)
	}
	if recent, err := uc.cacheRepo.RecentTrafficObservations(ctx, ingestedObservationLimit); err != nil {
		uc.logger.Warn("failed to load ingested traffic observations", zap.Error(err))
	} else {
		trafficObs = append(trafficObs, recent...)
	}
	return weatherObs, trafficObs
}

// selectProvider resolves the requested data source, falling back to the
// simulator when the live client is not configured. A request overriding
// timeout, radius or forecast settings gets its own provider instance.
func (uc *SolveUsecase) selectProvider(req *dto.SolveRequest) (repository.ContextProvider, string) {
	source := req.ProviderDataSource
	if source == "" {
		source = uc.defaultSource
	}
	cfg, overridden := uc.providerConfigFor(req)

	if source == dataSourceLive {
		if uc.liveFactory != nil {
			if overridden {
				return uc.liveFactory(cfg), domain.SourceProviderLive
			}
			return uc.liveProvider, domain.SourceProviderLive
		}
		if req.UseContextProvider {
			uc.logger.Warn("live provider requested but not configured, using simulator")
		}
	}
	if overridden {
		return uc.simFactory(cfg), domain.SourceProviderSim
	}
	return uc.simProvider, domain.SourceProviderSim
}

func (uc *SolveUsecase) providerConfigFor(req *dto.SolveRequest) (config.ProviderConfig, bool) {
	cfg := uc.providerCfg
	overridden := false
	if req.ProviderTimeoutSec != nil {
		cfg.RequestTimeout = time.Duration(*req.ProviderTimeoutSec) * time.Second
		overridden = true
	}
	if req.TrafficRadiusM != nil {
		cfg.TrafficRadiusM = *req.TrafficRadiusM
		overridden = true
	}
	if req.ForecastWindowHours != nil {
		cfg.ForecastWindowHours = *req.ForecastWindowHours
		overridden = true
	}
	if req.ForecastIntervalMin != nil {
		cfg.ForecastIntervalMin = *req.ForecastIntervalMin
		overridden = true
	}
	return cfg, overridden
}

func (uc *SolveUsecase) contextSource(useProvider bool, providerSource string, userObservations int) string {
	switch {
	case useProvider:
		return providerSource
	case userObservations > 0:
		return domain.SourceUserSupplied
	default:
		return domain.SourceNotProvided
	}
}

// prefetchObservations queries the provider once per input point before
// solving, so segment matching later works against a warm observation set.
func (uc *SolveUsecase) prefetchObservations(
	ctx context.Context,
	req *dto.SolveRequest,
	provider repository.ContextProvider,
	providerSource string,
	departure *time.Time,
	weatherObs []domain.WeatherObservation,
	trafficObs []domain.TrafficObservation,
) ([]domain.WeatherObservation, []domain.TrafficObservation) {
	at := time.Now().UTC()
	if departure != nil {
		at = *departure
	}

	points := make([]domain.Point, 0, len(req.Customers)+1)
	points = append(points, domain.Point{Lat: req.Depot.Lat, Lon: req.Depot.Lon})
	for _, c := range req.Customers {
		points = append(points, domain.Point{Lat: c.Lat, Lon: c.Lon})
	}

	for _, p := range points {
		weather, _, err := provider.FetchWeather(ctx, p.Lat, p.Lon, at)
		if err != nil {
			uc.logger.Warn("prefetch weather failed", zap.Float64("lat", p.Lat), zap.Float64("lon", p.Lon), zap.Error(err))
		} else if weather != nil {
			obs := domain.WeatherObservation{
				Lat:             p.Lat,
				Lon:             p.Lon,
				Time:            at,
				TemperatureC:    weather.TemperatureC,
				PrecipitationMm: weather.PrecipitationMm,
				WindKph:         weather.WindKph,
				Condition:       weather.Condition,
				Source:          providerSource,
			}
			if weather.ObservedAtUTC != nil {
				obs.Time = *weather.ObservedAtUTC
			}
			weatherObs = append(weatherObs, obs)
		}

		traffic, err := provider.FetchTraffic(ctx, p.Lat, p.Lon)
		if err != nil {
			uc.logger.Warn("prefetch traffic failed", zap.Float64("lat", p.Lat), zap.Float64("lon", p.Lon), zap.Error(err))
		} else if traffic != nil {
			obs := domain.TrafficObservation{
				Lat:             p.Lat,
				Lon:             p.Lon,
				Time:            at,
				CongestionLevel: traffic.CongestionLevel,
				SpeedKmh:        traffic.SpeedKmh,
				JamFactor:       traffic.JamFactor,
				IncidentCount:   traffic.IncidentCount,
				Source:          providerSource,
			}
			if traffic.ObservedAtUTC != nil {
				obs.Time = *traffic.ObservedAtUTC
			}
			trafficObs = append(trafficObs, obs)
		}
	}

	return weatherObs, trafficObs
}

// lookupCandidates pulls POI candidates around the route when the request
// carries none. Lookup failures degrade to an empty semantic layer.
func (uc *SolveUsecase) lookupCandidates(ctx context.Context, route domain.Route, corridorKm float64, categories []string) []domain.CandidateLocation {
	if len(route.Stops) == 0 {
		return nil
	}
	centerLat, centerLon := 0.0, 0.0
	for _, s := range route.Stops {
		centerLat += s.Lat
		centerLon += s.Lon
	}
	centerLat /= float64(len(route.Stops))
	centerLon /= float64(len(route.Stops))

	radius := corridorKm
	for _, s := range route.Stops {
		d := utils.HaversineDistance(centerLat, centerLon, s.Lat, s.Lon) + corridorKm
		if d > radius {
			radius = d
		}
	}

	candidates, err := uc.poiRepo.GetNearby(ctx, centerLat, centerLon, radius, categories, poiLookupLimit)
	if err != nil {
		uc.logger.Warn("poi lookup failed",
			zap.Int("vehicle", route.Vehicle),
			zap.Error(err))
		return nil
	}
	return candidates
}

// attachCandidateContext переносит на кандидата уже сопоставленный контекст
// его ближайшего сегмента.
func attachCandidateContext(ranked []domain.SemanticLocation, segments []domain.SegmentContext) {
	for i := range ranked {
		idx := ranked[i].NearestSegmentIndex
		if idx < 0 || idx >= len(segments) {
			continue
		}
		ranked[i].Weather = segments[idx].Weather
		ranked[i].Traffic = segments[idx].Traffic
	}
}

func plainSegments(segments []domain.Segment) []domain.SegmentContext {
	result := make([]domain.SegmentContext, 0, len(segments))
	for _, seg := range segments {
		result = append(result, domain.SegmentContext{
			Segment: seg,
			Weather: domain.UnknownWeatherContext(domain.SourceNotProvided),
			Traffic: domain.UnknownTrafficContext(domain.SourceNotProvided),
		})
	}
	return result
}
