package domain

type Point struct {
	Lat float64 `json:"lat" db:"lat"`
	Lon float64 `json:"lon" db:"lon"`
}

// Статусы контекста сегмента: наблюдение, прогноз или отсутствие данных.
const (
	ContextStatusObserved   = "observed"
	ContextStatusForecasted = "forecasted"
	ContextStatusUnknown    = "unknown"
)

// Источники контекста: провайдер, пользовательские наблюдения или их
// отсутствие. Маркируют деградацию в ответах.
const (
	SourceNotProvided  = "not_provided"
	SourceUserSupplied = "user_observations"
	SourceProviderLive = "provider_live"
	SourceProviderSim  = "provider_simulated"
)
