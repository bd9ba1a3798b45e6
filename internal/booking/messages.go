package booking

import "fmt"

// DeletedClientName показывается вместо имени удаленного клиента
const DeletedClientName = "(usunięty klient)"

func detailsBooking(date, slot string) string {
	return fmt.Sprintf("Prośba o wizytę: %s o %s", date, slot)
}

func detailsConfirmed(date, slot string) string {
	return fmt.Sprintf("Wizyta na %s o %s została pomyślnie potwierdzona!", date, slot)
}

func detailsRejected(previous string) string {
	return fmt.Sprintf("Prośba (%s) została odrzucona.", previous)
}

func detailsCounterProposal(date, slot string) string {
	return fmt.Sprintf("Administrator zaproponował nowy termin: %s o %s.", date, slot)
}

func detailsAdminReschedule(fromDate, fromSlot, date, slot string) string {
	return fmt.Sprintf("Administrator proponuje zmianę terminu z %s o %s na %s o %s.", fromDate, fromSlot, date, slot)
}

func detailsClientReschedule(fromDate, fromSlot, date, slot string) string {
	return fmt.Sprintf("Klient prosi o zmianę terminu z %s o %s na %s o %s.", fromDate, fromSlot, date, slot)
}

const (
	msgSpecialSent      = "Twoja prośba została wysłana!"
	msgProposalSent     = "Propozycja zmiany terminu została wysłana do klienta!"
	msgProposalAccepted = "Propozycja została zaakceptowana! Twój termin został zarezerwowany."
	msgProposalRejected = "Propozycja została odrzucona."
	msgAppointmentGone  = "Wizyta została usunięta."
	msgHistoryAdded     = "Wizyta została dodana do historii."
	msgHistoryDeleted   = "Wpis został usunięty z historii."
	msgLateChange       = "Do wizyty pozostało mniej niż 24 godziny. Zgodnie z regulaminem z Twojego karnetu odjęto 1 wejście. Wybierz nowy termin."
	msgChange           = "Wybierz nowy termin. Twoja obecna rezerwacja zostanie anulowana po wysłaniu prośby."
)

func msgBookingSent(date, slot string) string {
	return fmt.Sprintf("Twoja prośba o rezerwację na %s o %s została wysłana!", date, slot)
}

func msgConfirmed(from, date, slot string) string {
	return fmt.Sprintf("Wizyta dla \"%s\" na %s o %s została potwierdzona!", from, date, slot)
}

func msgRejected(from string) string {
	return fmt.Sprintf("Wniosek od \"%s\" został odrzucony.", from)
}

func msgAppointmentAdded(name, date, slot string) string {
	return fmt.Sprintf("Dodano wizytę dla %s na %s o %s.", name, date, slot)
}

func msgNoEntries(name string) string {
	return fmt.Sprintf("Uwaga: Klient \"%s\" nie ma dostępnych wejść na karnecie. Czy na pewno chcesz utworzyć wizytę?", name)
}

func msgClientAdded(name string) string {
	return fmt.Sprintf("Klient \"%s\" został dodany.", name)
}

func msgClientUpdated(name string) string {
	return fmt.Sprintf("Dane klienta \"%s\" zostały zaktualizowane.", name)
}

func msgClientDeleted(name string) string {
	return fmt.Sprintf("Klient \"%s\" został usunięty.", name)
}

// ExpiryLabel возвращает подпись срока действия абонемента
func ExpiryLabel(daysLeft int) string {
	if daysLeft > 0 {
		return fmt.Sprintf("%d dni", daysLeft)
	}
	return "Wygasł"
}
