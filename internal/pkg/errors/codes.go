package errors

import "net/http"

var (
	ErrValidation = New(
		"VALIDATION_ERROR",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRadius = New(
		"INVALID_RADIUS",
		"Invalid radius value",
		http.StatusBadRequest,
	)

	ErrInvalidDepartureTime = New(
		"INVALID_DEPARTURE_TIME",
		"Departure time is not a valid RFC 3339 timestamp",
		http.StatusBadRequest,
	)

	ErrInfeasibleFleet = New(
		"INFEASIBLE_FLEET",
		"No capacity-respecting assignment exists for the given fleet",
		http.StatusUnprocessableEntity,
	)

	// ErrProviderUnavailable никогда не возвращается клиенту как ошибка запроса:
	// matcher деградирует до пользовательских наблюдений (см. usecase/context).
	ErrProviderUnavailable = New(
		"PROVIDER_UNAVAILABLE",
		"External context provider failed or timed out",
		http.StatusBadGateway,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
