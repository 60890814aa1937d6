package domain

// Customer представляет клиента с координатами и спросом
type Customer struct {
	ID     string  `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Demand float64 `json:"demand"`
}

// Fleet описывает однородный парк: количество машин и вместимость каждой
type Fleet struct {
	Vehicles int     `json:"vehicles"`
	Capacity float64 `json:"capacity"`
}

// Stop - остановка маршрута. Первая и последняя остановка всегда депо
// (ID = DepotStopID, Demand = 0).
type Stop struct {
	ID     string  `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Demand float64 `json:"demand"`
}

// DepotStopID - идентификатор депо в списке остановок
const DepotStopID = "depot"

// Route - решённый маршрут одной машины.
// Инварианты: Load <= Fleet.Capacity; каждый клиент встречается ровно
// в одном маршруте; маршрут начинается и заканчивается в депо.
type Route struct {
	Vehicle    int      `json:"vehicle"`
	Stops      []Stop   `json:"stops"`
	Load       float64  `json:"load"`
	DistanceKm float64  `json:"distance_km"`
	ServedIDs  []string `json:"served_customer_ids"`
}

// InteriorStops возвращает остановки маршрута без обрамляющих депо.
func (r *Route) InteriorStops() []Stop {
	if len(r.Stops) < 3 {
		return nil
	}
	return r.Stops[1 : len(r.Stops)-1]
}
