// Package metrics объявляет метрики Prometheus сервиса бронирований.
// Все метрики регистрируются в реестре по умолчанию при импорте пакета.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "booking"

// HTTPRequestsTotal количество обработанных запросов.
// route - шаблон маршрута, а не фактический путь, чтобы не раздувать кардинальность.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by method, route pattern and status code.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration время обработки запроса
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP request handling.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// BookingsCreatedTotal успешные бронирования.
// mode: "book" (вставка или захват открытого слота) или "claim" (только открытый слот)
var BookingsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_created_total",
		Help:      "Total number of bookings created, by booking mode.",
	},
	[]string{"mode"},
)

// BookingConflictsTotal отказы в бронировании.
// reason: "slot_taken" или "same_day"
var BookingConflictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_conflicts_total",
		Help:      "Total number of rejected bookings, by reason.",
	},
	[]string{"reason"},
)

// BookingsCanceledTotal отменённые бронирования
var BookingsCanceledTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_canceled_total",
		Help:      "Total number of canceled bookings.",
	},
)

// SlotsGeneratedTotal открытые администратором слоты
var SlotsGeneratedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slots_generated_total",
		Help:      "Total number of open slots inserted by slot generation.",
	},
)

// RateLimitedTotal запросы, отклонённые ограничителем частоты
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
)
