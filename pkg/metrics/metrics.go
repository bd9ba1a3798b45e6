package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики студии
var (
	// Операции ядра бронирования
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryo_booking_operations_total",
			Help: "Общее количество выполненных операций",
		},
		[]string{"operation", "status"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cryo_booking_operation_duration_seconds",
			Help:    "Время выполнения операций в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Метрики заявок
	RequestsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryo_booking_requests_created_total",
			Help: "Количество созданных заявок по типу",
		},
		[]string{"type"},
	)

	RequestTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryo_booking_request_transitions_total",
			Help: "Переходы заявок между статусами",
		},
		[]string{"to"},
	)

	// Метрики визитов
	AppointmentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryo_booking_appointments_created_total",
			Help: "Количество созданных визитов по источнику",
		},
		[]string{"source"},
	)

	AppointmentsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryo_booking_appointments_deleted_total",
			Help: "Количество удаленных визитов по причине",
		},
		[]string{"reason"},
	)

	// Метрики абонементов
	EntriesCharged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryo_booking_entries_charged_total",
			Help: "Списанные входы абонемента",
		},
		[]string{"reason"},
	)

	EntriesRefunded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cryo_booking_entries_refunded_total",
			Help: "Возвращенные входы абонемента",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cryo_booking_active_sessions",
			Help: "Количество активных сессий",
		},
	)

	// Метрики уведомлений
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryo_booking_notifications_sent_total",
			Help: "Общее количество отправленных уведомлений",
		},
		[]string{"channel", "status"},
	)

	PendingReminders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cryo_booking_pending_reminders",
			Help: "Количество запланированных напоминаний",
		},
	)

	// Метрики ошибок
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryo_booking_errors_total",
			Help: "Общее количество ошибок",
		},
		[]string{"component", "kind"},
	)

	// Метрики производительности
	MemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cryo_booking_memory_usage_bytes",
			Help: "Использование памяти в байтах",
		},
	)

	GoroutinesCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cryo_booking_goroutines_count",
			Help: "Количество активных горутин",
		},
	)

	// Метрики HTTP сервера
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryo_booking_http_requests_total",
			Help: "Общее количество HTTP запросов",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cryo_booking_http_request_duration_seconds",
			Help:    "Время обработки HTTP запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordOperation записывает результат и длительность операции
func RecordOperation(operation, status string, seconds float64) {
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordRequestCreated записывает создание заявки
func RecordRequestCreated(requestType string) {
	RequestsCreated.WithLabelValues(requestType).Inc()
}

// RecordRequestTransition записывает смену статуса заявки
func RecordRequestTransition(to string) {
	RequestTransitions.WithLabelValues(to).Inc()
}

// RecordAppointmentCreated записывает создание визита
func RecordAppointmentCreated(source string) {
	AppointmentsCreated.WithLabelValues(source).Inc()
}

// RecordAppointmentDeleted записывает удаление визита
func RecordAppointmentDeleted(reason string) {
	AppointmentsDeleted.WithLabelValues(reason).Inc()
}

// RecordEntryCharged записывает списание входа
func RecordEntryCharged(reason string) {
	EntriesCharged.WithLabelValues(reason).Inc()
}

// RecordEntryRefunded записывает возврат входа
func RecordEntryRefunded() {
	EntriesRefunded.Inc()
}

// RecordNotification записывает метрику отправки уведомления
func RecordNotification(channel, status string) {
	NotificationsSent.WithLabelValues(channel, status).Inc()
}

// RecordError записывает метрику ошибки
func RecordError(component, kind string) {
	ErrorsTotal.WithLabelValues(component, kind).Inc()
}

// RecordHTTPRequest записывает метрику HTTP запроса
func RecordHTTPRequest(method, endpoint, status string) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
}

// SetActiveSessions устанавливает количество активных сессий
func SetActiveSessions(count float64) {
	ActiveSessions.Set(count)
}

// SetPendingReminders устанавливает количество запланированных напоминаний
func SetPendingReminders(count float64) {
	PendingReminders.Set(count)
}
