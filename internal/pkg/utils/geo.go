package utils

import "math"

const earthRadiusKm = 6371.0

// HaversineDistance вычисляет расстояние между двумя точками в километрах
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Midpoint возвращает середину отрезка в координатах (среднее широт и долгот).
// Для сегментов маршрута в пределах десятков километров этого достаточно.
func Midpoint(lat1, lon1, lat2, lon2 float64) (float64, float64) {
	return (lat1 + lat2) / 2.0, (lon1 + lon2) / 2.0
}

// PointToSegmentDistance вычисляет расстояние от точки до отрезка в километрах.
// Координаты проецируются на плоскость (equirectangular) относительно средней
// широты трёх точек, дальше обычная проекция точки на отрезок.
func PointToSegmentDistance(pLat, pLon, aLat, aLon, bLat, bLon float64) float64 {
	refLat := (pLat + aLat + bLat) / 3.0

	px, py := latLonToXYKm(pLat, pLon, refLat)
	ax, ay := latLonToXYKm(aLat, aLon, refLat)
	bx, by := latLonToXYKm(bLat, bLon, refLat)

	vx := bx - ax
	vy := by - ay
	segLenSq := vx*vx + vy*vy
	if segLenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}

	t := ((px-ax)*vx + (py-ay)*vy) / segLenSq
	t = math.Max(0, math.Min(1, t))

	closestX := ax + t*vx
	closestY := ay + t*vy
	return math.Hypot(px-closestX, py-closestY)
}

func latLonToXYKm(lat, lon, refLat float64) (float64, float64) {
	x := lon * math.Pi / 180.0 * earthRadiusKm * math.Cos(refLat*math.Pi/180.0)
	y := lat * math.Pi / 180.0 * earthRadiusKm
	return x, y
}

// PathDistance вычисляет суммарную длину ломаной в километрах.
// Точки задаются парами (lat, lon).
func PathDistance(points [][2]float64) float64 {
	if len(points) < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < len(points)-1; i++ {
		total += HaversineDistance(points[i][0], points[i][1], points[i+1][0], points[i+1][1])
	}
	return total
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidateRadius проверяет валидность радиуса (0.1 - 100 км)
func ValidateRadius(radiusKm float64) bool {
	return radiusKm >= 0.1 && radiusKm <= 100
}
