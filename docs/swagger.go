// Package docs Route Context Service API.
//
// Сервис планирования маршрутов доставки с контекстным обогащением.
// Решает задачу маршрутизации парка машин, разбивает маршруты на сегменты
// с ETA и добавляет семантический слой: погодно-транспортный контекст
// сегментов и ранжированные точки интереса вдоль коридора маршрута.
//
// Основные возможности:
// - Построение маршрутов с ограничением по вместимости машин
// - Пер-сегментная оценка времени прибытия
// - Сопоставление наблюдений погоды и трафика сегментам
// - Live и симулированный контекст-провайдер с прогнозами
// - Ранжирование точек интереса вдоль коридора маршрута
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs
