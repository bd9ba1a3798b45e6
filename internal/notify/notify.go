package notify

import (
	"context"
	"errors"
	"sync"
)

// View это логическое представление, которое нужно перерисовать
type View string

const (
	ViewStatistics      View = "statistics"
	ViewClients         View = "clients"
	ViewRequests        View = "requests"
	ViewClientDashboard View = "client_dashboard"
	ViewAdminCalendar   View = "admin_calendar"
	ViewClientCalendar  View = "client_calendar"
)

// Event сообщает об изменении хранилища.
// ClientID равен 0, если событие касается только администратора.
type Event struct {
	Views    []View `json:"views"`
	ClientID int64  `json:"clientId,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Has сообщает, затрагивает ли событие представление v
func (e Event) Has(v View) bool {
	for _, view := range e.Views {
		if view == v {
			return true
		}
	}
	return false
}

// Notifier доставляет события представлениям
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Nop игнорирует события
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi рассылает событие всем уведомителям и собирает их ошибки
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Hub раздает события подписчикам внутри процесса.
// Медленный подписчик теряет события, но не блокирует остальных.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
}

// NewHub создает пустой хаб
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe регистрирует подписчика с буфером size.
// Возвращаемая функция отменяет подписку и закрывает канал.
func (h *Hub) Subscribe(size int) (<-chan Event, func()) {
	if size < 1 {
		size = 1
	}
	ch := make(chan Event, size)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Notify раздает событие без блокировки
func (h *Hub) Notify(_ context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribers возвращает число подписчиков
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
