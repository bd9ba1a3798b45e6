package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"cryo_booking_bot/internal/booking"
	"cryo_booking_bot/internal/calendar"
	"cryo_booking_bot/pkg/logger"
)

// API отдает операции сервиса бронирования в виде JSON
type API struct {
	svc *booking.Service
	log *logger.Logger
}

// NewAPI создает JSON API поверх сервиса бронирования
func NewAPI(svc *booking.Service, log *logger.Logger) *API {
	if log == nil {
		log = logger.Discard()
	}
	return &API{svc: svc, log: log}
}

// Routes регистрирует маршруты API
func (a *API) Routes(r chi.Router) {
	r.Post("/sessions", a.login)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Delete("/", a.logout)
		r.Get("/calendar/{view}", a.monthView)
		r.Post("/calendar/{view}/month", a.changeMonth)
		r.Post("/selection", a.selectDate)
		r.Post("/selection/move", a.moveSelection)
		r.Post("/book", a.bookSelectedSlot)
		r.Post("/special", a.submitSpecialRequest)
		r.Post("/change/{appointmentID}", a.changeAppointment)
		r.Delete("/change", a.cancelChange)
		r.Post("/proposals/{requestID}/accept", a.acceptProposal)
		r.Post("/proposals/{requestID}/reject", a.rejectProposal)
		r.Get("/dashboard", a.sessionDashboard)
	})

	r.Get("/requests", a.listRequests)
	r.Post("/requests/{requestID}/confirm", a.confirmRequest)
	r.Post("/requests/{requestID}/reject", a.rejectRequest)
	r.Post("/requests/{requestID}/propose", a.proposeForRequest)

	r.Get("/appointments", a.appointmentsOnDate)
	r.Post("/appointments", a.createAppointment)
	r.Delete("/appointments/{appointmentID}", a.deleteAppointment)
	r.Post("/appointments/{appointmentID}/propose", a.proposeForAppointment)

	r.Get("/statistics", a.statistics)
	r.Get("/clients", a.listClients)
	r.Post("/clients", a.addClient)
	r.Route("/clients/{clientID}", func(r chi.Router) {
		r.Get("/", a.getClient)
		r.Put("/", a.updateClient)
		r.Delete("/", a.deleteClient)
		r.Get("/dashboard", a.clientDashboard)
		r.Post("/history", a.addHistoryItem)
		r.Delete("/history/{visitID}", a.deleteHistoryItem)
	})
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.log.WithContext(r.Context()).Error("API request failed",
			logger.String("request_id", chimw.GetReqID(r.Context())),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeJSON(w, status, errorBody(err))
}

// reply пишет результат операции или ошибку
func (a *API) reply(w http.ResponseWriter, r *http.Request, status int, payload any, err error) {
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, status, payload)
}

type loginRequest struct {
	Role     booking.Role `json:"role"`
	ClientID int64        `json:"clientId"`
}

type directionRequest struct {
	Direction int `json:"direction"`
}

type dateRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

type moveRequest struct {
	Days int `json:"days"`
}

type slotRequest struct {
	Date string `json:"date,omitempty"`
	Time string `json:"time"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	sess, err := a.svc.Login(r.Context(), req.Role, req.ClientID)
	a.reply(w, r, http.StatusCreated, sess, err)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Logout(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) monthView(w http.ResponseWriter, r *http.Request) {
	m, err := a.svc.MonthView(r.Context(), chi.URLParam(r, "sessionID"), calendar.View(chi.URLParam(r, "view")))
	a.reply(w, r, http.StatusOK, m, err)
}

func (a *API) changeMonth(w http.ResponseWriter, r *http.Request) {
	var req directionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	m, err := a.svc.ChangeMonth(r.Context(), chi.URLParam(r, "sessionID"), calendar.View(chi.URLParam(r, "view")), req.Direction)
	a.reply(w, r, http.StatusOK, m, err)
}

func (a *API) selectDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	sel, err := a.svc.SelectDate(r.Context(), chi.URLParam(r, "sessionID"), req.Year, time.Month(req.Month), req.Day)
	a.reply(w, r, http.StatusOK, sel, err)
}

func (a *API) moveSelection(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	sel, err := a.svc.MoveSelection(r.Context(), chi.URLParam(r, "sessionID"), req.Days)
	a.reply(w, r, http.StatusOK, sel, err)
}

func (a *API) bookSelectedSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.BookSelectedSlot(r.Context(), chi.URLParam(r, "sessionID"), req.Time)
	a.reply(w, r, http.StatusCreated, res, err)
}

func (a *API) submitSpecialRequest(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.SubmitSpecialRequest(r.Context(), chi.URLParam(r, "sessionID"), req.Date, req.Time)
	a.reply(w, r, http.StatusCreated, res, err)
}

func (a *API) changeAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "appointmentID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ticket, err := a.svc.ChangeAppointmentRequest(r.Context(), chi.URLParam(r, "sessionID"), id)
	a.reply(w, r, http.StatusOK, ticket, err)
}

func (a *API) cancelChange(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.CancelChange(chi.URLParam(r, "sessionID")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) acceptProposal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "requestID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.AcceptProposalFor(r.Context(), chi.URLParam(r, "sessionID"), id)
	a.reply(w, r, http.StatusOK, res, err)
}

func (a *API) rejectProposal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "requestID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.RejectProposalFor(r.Context(), chi.URLParam(r, "sessionID"), id)
	a.reply(w, r, http.StatusOK, res, err)
}

func (a *API) sessionDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := a.svc.DashboardFor(r.Context(), chi.URLParam(r, "sessionID"))
	a.reply(w, r, http.StatusOK, d, err)
}

func (a *API) listRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := a.svc.ListRequests(r.Context())
	a.reply(w, r, http.StatusOK, reqs, err)
}

func (a *API) confirmRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "requestID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.ConfirmRequest(r.Context(), id)
	a.reply(w, r, http.StatusOK, res, err)
}

func (a *API) rejectRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "requestID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.RejectRequest(r.Context(), id)
	a.reply(w, r, http.StatusOK, res, err)
}

func (a *API) proposeForRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "requestID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req slotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.ProposeNewTime(r.Context(), booking.Proposal{RequestID: id, Date: req.Date, Time: req.Time})
	a.reply(w, r, http.StatusOK, res, err)
}

func (a *API) appointmentsOnDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = a.svc.Today()
	}
	views, err := a.svc.AppointmentsOnDate(r.Context(), date)
	a.reply(w, r, http.StatusOK, views, err)
}

func (a *API) createAppointment(w http.ResponseWriter, r *http.Request) {
	var in booking.AppointmentInput
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.AdminCreateAppointment(r.Context(), in)
	a.reply(w, r, http.StatusCreated, res, err)
}

func (a *API) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "appointmentID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.AdminDeleteAppointment(r.Context(), id)
	a.reply(w, r, http.StatusOK, res, err)
}

func (a *API) proposeForAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "appointmentID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req slotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.ProposeNewTime(r.Context(), booking.Proposal{AppointmentID: id, Date: req.Date, Time: req.Time})
	a.reply(w, r, http.StatusOK, res, err)
}

func (a *API) statistics(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.Statistics(r.Context())
	a.reply(w, r, http.StatusOK, st, err)
}

func (a *API) listClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clients, err := a.svc.ListClients(r.Context(), booking.ClientFilter{
		Search:   q.Get("search"),
		FilterBy: q.Get("filterBy"),
	})
	a.reply(w, r, http.StatusOK, clients, err)
}

func (a *API) addClient(w http.ResponseWriter, r *http.Request) {
	var in booking.ClientInput
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.AddClient(r.Context(), in)
	a.reply(w, r, http.StatusCreated, res, err)
}

func (a *API) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	client, err := a.svc.GetClient(r.Context(), id)
	a.reply(w, r, http.StatusOK, client, err)
}

func (a *API) updateClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in booking.ClientInput
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.UpdateClient(r.Context(), id, in)
	a.reply(w, r, http.StatusOK, res, err)
}

func (a *API) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.DeleteClient(r.Context(), id)
	a.reply(w, r, http.StatusOK, res, err)
}

func (a *API) clientDashboard(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	d, err := a.svc.ClientDashboard(r.Context(), id)
	a.reply(w, r, http.StatusOK, d, err)
}

func (a *API) addHistoryItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in booking.HistoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.AddHistoryItem(r.Context(), id, in)
	a.reply(w, r, http.StatusCreated, res, err)
}

func (a *API) deleteHistoryItem(w http.ResponseWriter, r *http.Request) {
	clientID, err := idParam(r, "clientID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	visitID, err := idParam(r, "visitID")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.DeleteHistoryItem(r.Context(), clientID, visitID)
	a.reply(w, r, http.StatusOK, res, err)
}
