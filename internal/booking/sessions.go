package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cryo_booking_bot/internal/availability"
	"cryo_booking_bot/internal/calendar"
	"cryo_booking_bot/internal/validation"
	"cryo_booking_bot/pkg/errors"
	"cryo_booking_bot/pkg/logger"
	"cryo_booking_bot/pkg/metrics"
)

// Role это роль пользователя сессии
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Session хранит состояние навигации одного пользователя.
// У администратора и клиента свои курсоры календаря.
type Session struct {
	ID                  string          `json:"id"`
	Role                Role            `json:"role"`
	ClientID            int64           `json:"clientId,omitempty"`
	AdminCursor         calendar.Cursor `json:"adminCursor"`
	ClientCursor        calendar.Cursor `json:"clientCursor"`
	AppointmentToChange *int64          `json:"appointmentToChange,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// DateSelection это выбранная дата и состояние ее слотов
type DateSelection struct {
	Date  string                   `json:"date"`
	Slots []availability.SlotState `json:"slots"`
}

// Login открывает сессию. Для клиента clientID должен существовать.
func (s *Service) Login(ctx context.Context, role Role, clientID int64) (*Session, error) {
	switch role {
	case RoleAdmin:
		clientID = 0
	case RoleClient:
		if _, err := s.store.GetClient(ctx, clientID); err != nil {
			return nil, storageErr(err, errors.ErrClientNotFound, clientID)
		}
	default:
		return nil, errors.ErrInvalidRole.WithContext(map[string]interface{}{"role": role})
	}

	now := s.Now()
	sess := &Session{
		ID:           uuid.NewString(),
		Role:         role,
		ClientID:     clientID,
		AdminCursor:  calendar.NewCursor(now),
		ClientCursor: calendar.NewCursor(now),
		CreatedAt:    now,
	}

	s.sessMu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.sessMu.Unlock()

	metrics.SetActiveSessions(float64(count))
	s.log.WithContext(ctx).Info("Session opened",
		logger.String("session_id", sess.ID),
		logger.String("role", string(role)),
		logger.Int64("client_id", clientID),
	)

	out := *sess
	return &out, nil
}

// Logout закрывает сессию
func (s *Service) Logout(ctx context.Context, id string) error {
	s.sessMu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.sessMu.Unlock()

	if !ok {
		return errors.ErrSessionNotFound
	}
	metrics.SetActiveSessions(float64(count))
	s.log.WithContext(ctx).Info("Session closed", logger.String("session_id", id))
	return nil
}

// Session возвращает копию сессии
func (s *Service) Session(id string) (*Session, error) {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	out := *sess
	return &out, nil
}

// updateSession изменяет сессию под блокировкой
func (s *Service) updateSession(id string, fn func(sess *Session) error) (*Session, error) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	out := *sess
	return &out, nil
}

func (s *Service) clientSession(id string) (*Session, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	if sess.Role != RoleClient {
		return nil, errors.ErrClientRoleRequired
	}
	return sess, nil
}

// cursorFor возвращает курсор нужного вида; клиенту доступен только свой календарь
func cursorFor(sess *Session, view calendar.View) (*calendar.Cursor, error) {
	switch view {
	case calendar.AdminView:
		if sess.Role != RoleAdmin {
			return nil, errors.ErrInvalidRole.WithContext(map[string]interface{}{"view": view})
		}
		return &sess.AdminCursor, nil
	case calendar.ClientView:
		return &sess.ClientCursor, nil
	default:
		return nil, errors.ErrInvalidRole.WithContext(map[string]interface{}{"view": view})
	}
}

func defaultView(sess *Session) calendar.View {
	if sess.Role == RoleAdmin {
		return calendar.AdminView
	}
	return calendar.ClientView
}

// ChangeMonth листает месяц календаря вида view. Выбранная дата не меняется.
func (s *Service) ChangeMonth(ctx context.Context, sessionID string, view calendar.View, direction int) (calendar.Month, error) {
	if err := validation.ValidateDirection(direction); err != nil {
		return calendar.Month{}, err
	}

	sess, err := s.updateSession(sessionID, func(sess *Session) error {
		c, err := cursorFor(sess, view)
		if err != nil {
			return err
		}
		return c.ChangeMonth(direction)
	})
	if err != nil {
		return calendar.Month{}, err
	}
	return s.monthFor(ctx, sess, view)
}

// SelectDate выбирает дату и возвращает состояние ее слотов.
// Клиент не может выбрать прошедшую дату.
func (s *Service) SelectDate(ctx context.Context, sessionID string, year int, month time.Month, day int) (*DateSelection, error) {
	sess, err := s.updateSession(sessionID, func(sess *Session) error {
		c, err := cursorFor(sess, defaultView(sess))
		if err != nil {
			return err
		}

		probe := *c
		if err := probe.Select(year, month, day); err != nil {
			return errors.ErrInvalidDate.WithError(err)
		}
		if sess.Role == RoleClient && probe.Selected < s.Today() {
			return errors.ErrDateInPast.WithContext(map[string]interface{}{"date": probe.Selected})
		}
		*c = probe
		return nil
	})
	if err != nil {
		return nil, err
	}

	c, _ := cursorFor(sess, defaultView(sess))
	return s.selection(ctx, c.Selected)
}

// MoveSelection сдвигает выбранную дату клиента на days дней
func (s *Service) MoveSelection(ctx context.Context, sessionID string, days int) (*DateSelection, error) {
	sess, err := s.updateSession(sessionID, func(sess *Session) error {
		c, err := cursorFor(sess, defaultView(sess))
		if err != nil {
			return err
		}
		if c.Selected == "" {
			return errors.ErrNoDateSelected
		}

		probe := *c
		if err := probe.MoveSelection(days); err != nil {
			return errors.ErrInvalidDate.WithError(err)
		}
		if sess.Role == RoleClient && probe.Selected < s.Today() {
			return errors.ErrDateInPast.WithContext(map[string]interface{}{"date": probe.Selected})
		}
		*c = probe
		return nil
	})
	if err != nil {
		return nil, err
	}

	c, _ := cursorFor(sess, defaultView(sess))
	return s.selection(ctx, c.Selected)
}

func (s *Service) selection(ctx context.Context, date string) (*DateSelection, error) {
	slots, err := s.engine.SlotStates(ctx, date)
	if err != nil {
		return nil, classify(err)
	}
	return &DateSelection{Date: date, Slots: slots}, nil
}

// MonthView строит сетку месяца для вида view
func (s *Service) MonthView(ctx context.Context, sessionID string, view calendar.View) (calendar.Month, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return calendar.Month{}, err
	}
	return s.monthFor(ctx, sess, view)
}

func (s *Service) monthFor(ctx context.Context, sess *Session, view calendar.View) (calendar.Month, error) {
	c, err := cursorFor(sess, view)
	if err != nil {
		return calendar.Month{}, err
	}

	states, err := s.engine.MonthStates(ctx, *c)
	if err != nil {
		return calendar.Month{}, classify(err)
	}

	return calendar.BuildMonth(*c, view, s.Today(), func(date string) calendar.DayState {
		return states[date]
	}), nil
}

// BookSelectedSlot отправляет заявку на слот выбранной даты
func (s *Service) BookSelectedSlot(ctx context.Context, sessionID, slot string) (*Result, error) {
	sess, err := s.clientSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.ClientCursor.Selected == "" {
		return nil, errors.ErrNoDateSelected
	}
	return s.SubmitBookingRequest(ctx, sess.ClientID, sess.ClientCursor.Selected, slot)
}

// ChangeAppointmentRequest начинает перенос визита клиентом сессии.
// Следующий SubmitSpecialRequest заменит этот визит.
func (s *Service) ChangeAppointmentRequest(ctx context.Context, sessionID string, apptID int64) (*ChangeTicket, error) {
	sess, err := s.clientSession(sessionID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.changeAppointment(ctx, sess.ClientID, apptID)
	if err != nil {
		return nil, err
	}

	if _, err := s.updateSession(sessionID, func(sess *Session) error {
		id := apptID
		sess.AppointmentToChange = &id
		return nil
	}); err != nil {
		return nil, err
	}
	return ticket, nil
}

// CancelChange отменяет начатый перенос; списанный штраф не возвращается
func (s *Service) CancelChange(sessionID string) error {
	_, err := s.updateSession(sessionID, func(sess *Session) error {
		sess.AppointmentToChange = nil
		return nil
	})
	return err
}

// SubmitSpecialRequest отправляет заявку на особый термин от клиента сессии.
// Если начат перенос, заменяемый визит удаляется.
func (s *Service) SubmitSpecialRequest(ctx context.Context, sessionID, date, slot string) (*Result, error) {
	sess, err := s.clientSession(sessionID)
	if err != nil {
		return nil, err
	}

	var replaceID int64
	if sess.AppointmentToChange != nil {
		replaceID = *sess.AppointmentToChange
	}

	res, err := s.CreateSpecialRequest(ctx, sess.ClientID, date, slot, replaceID)
	if err != nil {
		return nil, err
	}

	if err := s.CancelChange(sessionID); err != nil {
		return nil, err
	}
	return res, nil
}

// AcceptProposalFor принимает предложение от имени клиента сессии
func (s *Service) AcceptProposalFor(ctx context.Context, sessionID string, requestID int64) (*Result, error) {
	sess, err := s.clientSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.AcceptProposal(ctx, sess.ClientID, requestID)
}

// RejectProposalFor отклоняет предложение от имени клиента сессии
func (s *Service) RejectProposalFor(ctx context.Context, sessionID string, requestID int64) (*Result, error) {
	sess, err := s.clientSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.RejectProposal(ctx, sess.ClientID, requestID)
}

// DashboardFor возвращает панель клиента сессии
func (s *Service) DashboardFor(ctx context.Context, sessionID string) (*Dashboard, error) {
	sess, err := s.clientSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.ClientDashboard(ctx, sess.ClientID)
}
