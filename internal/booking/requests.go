package booking

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"cryo_booking_bot/internal/notify"
	"cryo_booking_bot/internal/storage"
	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/internal/validation"
	"cryo_booking_bot/pkg/errors"
	"cryo_booking_bot/pkg/metrics"
)

// Источники визитов для метрик
const (
	sourceRequest  = "request"
	sourceProposal = "proposal"
	sourceAdmin    = "admin"
)

// Proposal описывает новый термин от администратора.
// Задается ровно одна цель: RequestID или AppointmentID.
type Proposal struct {
	RequestID     int64  `json:"requestId,omitempty"`
	AppointmentID int64  `json:"appointmentId,omitempty"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

func (s *Service) validateClientSlot(date, slot string) error {
	if _, err := validation.ValidateFutureDate(date, s.Now()); err != nil {
		return err
	}
	if _, err := validation.ValidateTime(slot); err != nil {
		return err
	}
	return nil
}

func getRequest(ctx context.Context, repo storage.Repository, id int64) (*models.Request, error) {
	req, err := repo.GetRequest(ctx, id)
	if err != nil {
		return nil, storageErr(err, errors.ErrRequestNotFound, id)
	}
	return req, nil
}

func createRequest(ctx context.Context, repo storage.Repository, req *models.Request, res *Result) error {
	if err := repo.CreateRequest(ctx, req); err != nil {
		return storageErr(err, nil, 0)
	}
	res.Request = req
	res.touch(req.ClientID, notify.ViewRequests, notify.ViewClientDashboard)
	reqType := req.Type
	res.onCommit(func() { metrics.RecordRequestCreated(reqType) })
	return nil
}

func updateStatus(ctx context.Context, repo storage.Repository, req *models.Request, res *Result) error {
	if err := repo.UpdateRequest(ctx, req); err != nil {
		return storageErr(err, errors.ErrRequestNotFound, req.ID)
	}
	res.Request = req
	res.touch(req.ClientID, notify.ViewRequests, notify.ViewClientDashboard)
	status := string(req.Status)
	res.onCommit(func() { metrics.RecordRequestTransition(status) })
	return nil
}

func deleteRequest(ctx context.Context, repo storage.Repository, req *models.Request, res *Result) error {
	if err := repo.DeleteRequest(ctx, req.ID); err != nil {
		return storageErr(err, errors.ErrRequestNotFound, req.ID)
	}
	res.touch(req.ClientID, notify.ViewRequests, notify.ViewClientDashboard)
	res.onCommit(func() { metrics.RecordRequestTransition("removed") })
	return nil
}

// SubmitBookingRequest создает заявку клиента на слот из календаря.
// Конфликты не проверяются: решение принимает администратор.
func (s *Service) SubmitBookingRequest(ctx context.Context, clientID int64, date, slot string) (*Result, error) {
	return s.exec(ctx, "submit_booking_request", func(ctx context.Context, repo storage.Repository, res *Result) error {
		if err := s.validateClientSlot(date, slot); err != nil {
			return err
		}

		client, err := repo.GetClient(ctx, clientID)
		if err != nil {
			return storageErr(err, errors.ErrClientNotFound, clientID)
		}

		req := &models.Request{
			From:         client.Name,
			ClientID:     client.ID,
			Type:         models.RequestTypeBooking,
			Details:      detailsBooking(date, slot),
			Status:       models.StatusPendingAdmin,
			ProposedDate: date,
			ProposedTime: slot,
		}
		if err := createRequest(ctx, repo, req, res); err != nil {
			return err
		}

		res.Message = msgBookingSent(date, slot)
		return nil
	}, attribute.Int64("client.id", clientID), attribute.String("date", date))
}

// ConfirmRequest превращает заявку в визит.
// Если дату и время извлечь нельзя, заявка остается без изменений.
func (s *Service) ConfirmRequest(ctx context.Context, id int64) (*Result, error) {
	return s.exec(ctx, "confirm_request", func(ctx context.Context, repo storage.Repository, res *Result) error {
		req, err := getRequest(ctx, repo, id)
		if err != nil {
			return err
		}
		if req.Status != models.StatusPendingAdmin {
			return errors.ErrRequestNotPendingAdmin.WithContext(map[string]interface{}{"status": req.Status})
		}

		date, slot, err := proposedSlot(req)
		if err != nil {
			return err
		}

		if _, err := realize(ctx, repo, req.ClientID, date, slot, req.CarriedEntry, sourceRequest, res); err != nil {
			return err
		}

		req.Status = models.StatusConfirmed
		req.Details = detailsConfirmed(date, slot)
		req.ProposedDate, req.ProposedTime = date, slot
		req.CarriedEntry = false
		if err := updateStatus(ctx, repo, req, res); err != nil {
			return err
		}

		res.Message = msgConfirmed(req.From, date, slot)
		return nil
	}, attribute.Int64("request.id", id))
}

// RejectRequest отклоняет заявку; запись остается для истории клиента
func (s *Service) RejectRequest(ctx context.Context, id int64) (*Result, error) {
	return s.exec(ctx, "reject_request", func(ctx context.Context, repo storage.Repository, res *Result) error {
		req, err := getRequest(ctx, repo, id)
		if err != nil {
			return err
		}
		if req.Status != models.StatusPendingAdmin {
			return errors.ErrRequestNotPendingAdmin.WithContext(map[string]interface{}{"status": req.Status})
		}

		if req.CarriedEntry {
			if err := refundEntry(ctx, repo, req.ClientID, res); err != nil {
				return err
			}
			req.CarriedEntry = false
		}

		req.Status = models.StatusRejected
		req.Details = detailsRejected(req.Details)
		if err := updateStatus(ctx, repo, req, res); err != nil {
			return err
		}

		res.Message = msgRejected(req.From)
		return nil
	}, attribute.Int64("request.id", id))
}

// ProposeNewTime отправляет клиенту новый термин.
// Для визита старый слот освобождается сразу, а списанный вход переходит в новую заявку.
func (s *Service) ProposeNewTime(ctx context.Context, p Proposal) (*Result, error) {
	return s.exec(ctx, "propose_new_time", func(ctx context.Context, repo storage.Repository, res *Result) error {
		if (p.RequestID == 0) == (p.AppointmentID == 0) {
			return errors.ErrInvalidID.WithContext("нужен ровно один из request_id и appointment_id")
		}
		if err := s.validateClientSlot(p.Date, p.Time); err != nil {
			return err
		}

		if p.RequestID != 0 {
			req, err := getRequest(ctx, repo, p.RequestID)
			if err != nil {
				return err
			}
			if req.Status != models.StatusPendingAdmin {
				return errors.ErrRequestNotPendingAdmin.WithContext(map[string]interface{}{"status": req.Status})
			}

			req.Status = models.StatusPendingClient
			req.ProposedDate, req.ProposedTime = p.Date, p.Time
			req.Details = detailsCounterProposal(p.Date, p.Time)
			if err := updateStatus(ctx, repo, req, res); err != nil {
				return err
			}
		} else {
			appt, err := repo.GetAppointment(ctx, p.AppointmentID)
			if err != nil {
				return storageErr(err, errors.ErrAppointmentNotFound, p.AppointmentID)
			}
			if err := removeAppointment(ctx, repo, appt, "admin_reschedule", res); err != nil {
				return err
			}

			req := &models.Request{
				From:         models.AdminName,
				ClientID:     appt.ClientID,
				Type:         models.RequestTypeAdminProposal,
				Details:      detailsAdminReschedule(appt.Date, appt.Time, p.Date, p.Time),
				Status:       models.StatusPendingClient,
				ProposedDate: p.Date,
				ProposedTime: p.Time,
				OriginalDate: appt.Date,
				OriginalTime: appt.Time,
				CarriedEntry: appt.EntryCharged,
			}
			if err := createRequest(ctx, repo, req, res); err != nil {
				return err
			}
		}

		res.Message = msgProposalSent
		return nil
	}, attribute.Int64("request.id", p.RequestID), attribute.Int64("appointment.id", p.AppointmentID))
}

// AcceptProposal принимает предложение администратора: создает визит и удаляет заявку
func (s *Service) AcceptProposal(ctx context.Context, clientID, id int64) (*Result, error) {
	return s.exec(ctx, "accept_proposal", func(ctx context.Context, repo storage.Repository, res *Result) error {
		req, err := clientProposal(ctx, repo, clientID, id)
		if err != nil {
			return err
		}

		date, slot, err := proposedSlot(req)
		if err != nil {
			return err
		}

		if _, err := realize(ctx, repo, req.ClientID, date, slot, req.CarriedEntry, sourceProposal, res); err != nil {
			return err
		}
		if err := deleteRequest(ctx, repo, req, res); err != nil {
			return err
		}

		res.Message = msgProposalAccepted
		return nil
	}, attribute.Int64("request.id", id))
}

// RejectProposal отклоняет предложение администратора и удаляет заявку без следа
func (s *Service) RejectProposal(ctx context.Context, clientID, id int64) (*Result, error) {
	return s.exec(ctx, "reject_proposal", func(ctx context.Context, repo storage.Repository, res *Result) error {
		req, err := clientProposal(ctx, repo, clientID, id)
		if err != nil {
			return err
		}

		if req.CarriedEntry {
			if err := refundEntry(ctx, repo, req.ClientID, res); err != nil {
				return err
			}
		}
		if err := deleteRequest(ctx, repo, req, res); err != nil {
			return err
		}

		res.Message = msgProposalRejected
		return nil
	}, attribute.Int64("request.id", id))
}

func clientProposal(ctx context.Context, repo storage.Repository, clientID, id int64) (*models.Request, error) {
	req, err := getRequest(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if clientID != 0 && req.ClientID != clientID {
		return nil, errors.ErrRequestNotFound.WithContext(map[string]interface{}{"id": id})
	}
	if req.Status != models.StatusPendingClient {
		return nil, errors.ErrRequestNotPendingClient.WithContext(map[string]interface{}{"status": req.Status})
	}
	return req, nil
}

// CreateSpecialRequest создает заявку на термин вне шаблона.
// Если replaceID задан, старый визит удаляется сразу и заявка становится просьбой о переносе.
func (s *Service) CreateSpecialRequest(ctx context.Context, clientID int64, date, slot string, replaceID int64) (*Result, error) {
	return s.exec(ctx, "create_special_request", func(ctx context.Context, repo storage.Repository, res *Result) error {
		if date == "" || slot == "" {
			return errors.ErrInvalidDate.WithMessage("Proszę wybrać datę i godzinę.")
		}
		if err := s.validateClientSlot(date, slot); err != nil {
			return err
		}

		client, err := repo.GetClient(ctx, clientID)
		if err != nil {
			return storageErr(err, errors.ErrClientNotFound, clientID)
		}

		req := &models.Request{
			From:         client.Name,
			ClientID:     client.ID,
			Type:         models.RequestTypeSpecial,
			Details:      detailsBooking(date, slot),
			Status:       models.StatusPendingAdmin,
			ProposedDate: date,
			ProposedTime: slot,
		}

		if replaceID != 0 {
			old, err := repo.GetAppointment(ctx, replaceID)
			switch {
			case err == nil && old.ClientID == client.ID:
				if err := removeAppointment(ctx, repo, old, "client_reschedule", res); err != nil {
					return err
				}
				req.Type = models.RequestTypeReschedule
				req.Details = detailsClientReschedule(old.Date, old.Time, date, slot)
				req.OriginalDate, req.OriginalTime = old.Date, old.Time
				req.CarriedEntry = old.EntryCharged
			case err != nil && !isNotFound(err):
				return storageErr(err, nil, replaceID)
			}
		}

		if err := createRequest(ctx, repo, req, res); err != nil {
			return err
		}

		res.Message = msgSpecialSent
		return nil
	}, attribute.Int64("client.id", clientID), attribute.Int64("replace.id", replaceID))
}

// ListRequests возвращает все заявки, ожидающие администратора первыми
func (s *Service) ListRequests(ctx context.Context) ([]*models.Request, error) {
	reqs, err := s.store.ListRequests(ctx)
	if err != nil {
		return nil, classify(err)
	}
	sortRequests(reqs)
	return reqs, nil
}

// ClientRequests возвращает заявки клиента
func (s *Service) ClientRequests(ctx context.Context, clientID int64) ([]*models.Request, error) {
	reqs, err := s.store.ListRequestsByClient(ctx, clientID)
	if err != nil {
		return nil, classify(err)
	}
	sortRequests(reqs)
	return reqs, nil
}

// GetRequest возвращает заявку по ID
func (s *Service) GetRequest(ctx context.Context, id int64) (*models.Request, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, storageErr(err, errors.ErrRequestNotFound, id)
	}
	return req, nil
}

func sortRequests(reqs []*models.Request) {
	rank := func(st models.RequestStatus) int {
		switch st {
		case models.StatusPendingAdmin:
			return 0
		case models.StatusPendingClient:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(reqs, func(i, j int) bool {
		ri, rj := rank(reqs[i].Status), rank(reqs[j].Status)
		if ri != rj {
			return ri < rj
		}
		return reqs[i].ID < reqs[j].ID
	})
}
