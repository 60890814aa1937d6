package domain

import "strings"

// CandidateLocation - точка интереса-кандидат, поставляется вызывающей
// стороной или POI-репозиторием. Ядро данные не мутирует.
type CandidateLocation struct {
	ID       string            `json:"id"`
	Name     *string           `json:"name,omitempty"`
	Lat      float64           `json:"lat"`
	Lon      float64           `json:"lon"`
	Category string            `json:"category,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
	Source   string            `json:"source,omitempty"`
}

// SemanticLocation - кандидат, привязанный к маршруту: расстояние до
// маршрута, стоимость отклонения, relevance score и контекст ближайшего
// сегмента.
type SemanticLocation struct {
	ID                  string            `json:"id"`
	Name                *string           `json:"name,omitempty"`
	Lat                 float64           `json:"lat"`
	Lon                 float64           `json:"lon"`
	Source              string            `json:"source,omitempty"`
	Category            string            `json:"semantic_category"`
	DistanceToRouteKm   float64           `json:"distance_to_route_km"`
	DetourKm            float64           `json:"estimated_detour_km"`
	NearestSegmentIndex int               `json:"nearest_segment_index"`
	RelevanceScore      float64           `json:"relevance_score"`
	Tags                map[string]string `json:"tags,omitempty"`
	Weather             *WeatherContext   `json:"weather,omitempty"`
	Traffic             *TrafficContext   `json:"traffic,omitempty"`
}

// CategoryOther - категория по умолчанию для нераспознанных кандидатов
const CategoryOther = "other"

// knownCategories - маппинг OSM-тегов в семантические категории
var knownCategories = map[[2]string]string{
	{"amenity", "fuel"}:             "fuel",
	{"amenity", "charging_station"}: "charging",
	{"amenity", "parking"}:          "parking",
	{"amenity", "parking_entrance"}: "parking",
	{"amenity", "restaurant"}:       "food",
	{"amenity", "fast_food"}:        "food",
	{"amenity", "cafe"}:             "food",
	{"amenity", "bar"}:              "food",
	{"amenity", "pub"}:              "food",
	{"amenity", "hospital"}:         "healthcare",
	{"amenity", "clinic"}:           "healthcare",
	{"amenity", "pharmacy"}:         "healthcare",
	{"amenity", "car_repair"}:       "vehicle_service",
	{"amenity", "car_wash"}:         "vehicle_service",
	{"tourism", "hotel"}:            "lodging",
	{"tourism", "motel"}:            "lodging",
	{"shop", "supermarket"}:         "grocery",
	{"shop", "convenience"}:         "grocery",
	{"highway", "rest_area"}:        "rest_area",
	{"highway", "services"}:         "rest_area",
}

// Теги проверяются в фиксированном порядке ключей, чтобы вывод категории
// был детерминированным при нескольких распознаваемых тегах.
var categoryTagKeys = []string{"amenity", "tourism", "shop", "highway"}

// InferCategory возвращает семантическую категорию кандидата: явная
// категория имеет приоритет, дальше ищем по известным OSM-тегам,
// иначе CategoryOther.
func (c *CandidateLocation) InferCategory() string {
	if explicit := strings.TrimSpace(strings.ToLower(c.Category)); explicit != "" {
		return explicit
	}
	for _, key := range categoryTagKeys {
		value, ok := c.Tags[key]
		if !ok {
			continue
		}
		if mapped, ok := knownCategories[[2]string{key, strings.TrimSpace(value)}]; ok {
			return mapped
		}
	}
	return CategoryOther
}
