// Package model содержит доменные сущности библиотечной системы ЛиброНова.
package model

import "time"

// User представляет сотрудника библиотеки, оформляющего выдачу книг.
type User struct {
	ID           int64
	Login        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// MembershipType описывает тип читательского абонемента.
type MembershipType string

const (
	MembershipRegular MembershipType = "REGULAR"
	MembershipPremium MembershipType = "PREMIUM"
	MembershipVIP     MembershipType = "VIP"
)

// Valid сообщает, является ли значение одним из допустимых типов абонемента.
func (m MembershipType) Valid() bool {
	switch m {
	case MembershipRegular, MembershipPremium, MembershipVIP:
		return true
	}
	return false
}

// MaxLoans возвращает лимит одновременных выдач для данного типа абонемента.
func (m MembershipType) MaxLoans() int {
	switch m {
	case MembershipPremium:
		return 5
	case MembershipVIP:
		return 10
	default:
		return 3
	}
}

// LoanStatus описывает статус выдачи книги.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "ACTIVE"
	LoanStatusOverdue  LoanStatus = "OVERDUE"
	LoanStatusReturned LoanStatus = "RETURNED"
)

// Valid сообщает, является ли значение одним из допустимых статусов выдачи.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusActive, LoanStatusOverdue, LoanStatusReturned:
		return true
	}
	return false
}

// Book описывает книгу в каталоге библиотеки.
type Book struct {
	ID              int64
	ISBN            string
	Title           string
	Author          string
	Publisher       string
	PublicationDate time.Time
	Category        string
	Stock           int
	AvailableStock  int
	Active          bool
}

// IsAvailable сообщает, доступна ли книга для выдачи.
func (b *Book) IsAvailable() bool {
	return b.Active && b.AvailableStock > 0
}

// Member описывает читателя библиотеки.
type Member struct {
	ID               int64
	MemberID         string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Address          string
	BirthDate        time.Time
	RegistrationDate time.Time
	Membership       MembershipType
	Active           bool
	CurrentLoans     int
}

// FullName возвращает полное имя читателя.
func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// MaxLoans возвращает лимит одновременных выдач читателя.
func (m *Member) MaxLoans() int {
	return m.Membership.MaxLoans()
}

// CanBorrow сообщает, может ли читатель взять ещё одну книгу.
func (m *Member) CanBorrow() bool {
	return m.Active && m.CurrentLoans < m.MaxLoans()
}

// Loan описывает выдачу книги читателю.
type Loan struct {
	ID         int64
	LoanID     string
	BookID     int64
	MemberID   int64
	UserID     int64
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     LoanStatus
	FineCents  int64
	Notes      string
}

// IsReturned сообщает, была ли книга уже возвращена.
func (l *Loan) IsReturned() bool {
	return l.Status == LoanStatusReturned
}

// IsOverdueAt сообщает, просрочена ли выдача на указанную дату.
// Учитывается как уже проставленный статус OVERDUE, так и активная
// выдача с истёкшим сроком.
func (l *Loan) IsOverdueAt(today time.Time) bool {
	if l.Status == LoanStatusOverdue {
		return true
	}
	return l.Status == LoanStatusActive && DaysBetween(l.DueDate, today) > 0
}

// DaysOverdueAt возвращает количество календарных дней просрочки на указанную дату.
func (l *Loan) DaysOverdueAt(today time.Time) int {
	days := DaysBetween(l.DueDate, today)
	if days < 0 {
		return 0
	}
	return days
}

// FineAt вычисляет размер штрафа в копейках на указанную дату по дневной ставке.
// Вычисление чистое: состояние выдачи не меняется.
func (l *Loan) FineAt(dailyRateCents int64, today time.Time) int64 {
	if !l.IsOverdueAt(today) {
		return 0
	}
	return dailyRateCents * int64(l.DaysOverdueAt(today))
}

// MarkReturned переводит выдачу в статус RETURNED, проставляет дату возврата
// и фиксирует штраф, если на момент возврата срок был просрочен.
func (l *Loan) MarkReturned(dailyRateCents int64, today time.Time) {
	if l.IsOverdueAt(today) {
		l.FineCents = l.FineAt(dailyRateCents, today)
	}
	returned := today
	l.ReturnDate = &returned
	l.Status = LoanStatusReturned
}

// MarkOverdue переводит активную выдачу в статус OVERDUE.
func (l *Loan) MarkOverdue() {
	if l.Status == LoanStatusActive {
		l.Status = LoanStatusOverdue
	}
}

// DaysBetween возвращает разницу между двумя календарными датами в днях.
// Время суток и часовой пояс не учитываются.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f) / (24 * time.Hour))
}
