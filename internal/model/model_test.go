package model

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMembershipMaxLoans(t *testing.T) {
	tests := []struct {
		membership MembershipType
		want       int
	}{
		{MembershipRegular, 3},
		{MembershipPremium, 5},
		{MembershipVIP, 10},
	}

	for _, tt := range tests {
		if got := tt.membership.MaxLoans(); got != tt.want {
			t.Errorf("MaxLoans(%s) = %d, want %d", tt.membership, got, tt.want)
		}
	}
}

func TestMembershipValid(t *testing.T) {
	if !MembershipVIP.Valid() {
		t.Errorf("VIP must be valid")
	}
	if MembershipType("GOLD").Valid() {
		t.Errorf("GOLD must not be valid")
	}
}

func TestMemberCanBorrow(t *testing.T) {
	m := &Member{Membership: MembershipRegular, Active: true, CurrentLoans: 2}
	if !m.CanBorrow() {
		t.Fatalf("member with 2 of 3 loans must be able to borrow")
	}

	m.CurrentLoans = 3
	if m.CanBorrow() {
		t.Fatalf("member at quota must not be able to borrow")
	}

	m.CurrentLoans = 0
	m.Active = false
	if m.CanBorrow() {
		t.Fatalf("inactive member must not be able to borrow")
	}
}

func TestBookIsAvailable(t *testing.T) {
	b := &Book{Active: true, Stock: 5, AvailableStock: 1}
	if !b.IsAvailable() {
		t.Fatalf("active book with stock must be available")
	}

	b.AvailableStock = 0
	if b.IsAvailable() {
		t.Fatalf("book without free copies must not be available")
	}

	b.AvailableStock = 1
	b.Active = false
	if b.IsAvailable() {
		t.Fatalf("inactive book must not be available")
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same day", date(2024, 3, 10), date(2024, 3, 10), 0},
		{"one day", date(2024, 3, 10), date(2024, 3, 11), 1},
		{"six days", date(2024, 3, 10), date(2024, 3, 16), 6},
		{"negative", date(2024, 3, 10), date(2024, 3, 8), -2},
		{"across month", date(2024, 2, 28), date(2024, 3, 1), 2},
		{"time of day ignored", time.Date(2024, 3, 10, 23, 50, 0, 0, time.UTC), time.Date(2024, 3, 11, 0, 5, 0, 0, time.UTC), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("DaysBetween = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLoanIsOverdueAt(t *testing.T) {
	due := date(2024, 3, 10)

	l := &Loan{Status: LoanStatusActive, DueDate: due}
	if l.IsOverdueAt(date(2024, 3, 10)) {
		t.Fatalf("loan due today is not overdue")
	}
	if !l.IsOverdueAt(date(2024, 3, 11)) {
		t.Fatalf("active loan past due date must be overdue")
	}

	l.Status = LoanStatusOverdue
	if !l.IsOverdueAt(date(2024, 3, 9)) {
		t.Fatalf("loan marked OVERDUE is overdue regardless of date")
	}

	l.Status = LoanStatusReturned
	if l.IsOverdueAt(date(2024, 4, 1)) {
		t.Fatalf("returned loan is not overdue")
	}
}

func TestLoanMarkReturned_OnTime(t *testing.T) {
	today := date(2024, 3, 15)
	l := &Loan{Status: LoanStatusActive, DueDate: date(2024, 3, 20)}

	l.MarkReturned(500, today)

	if l.Status != LoanStatusReturned {
		t.Fatalf("status = %s, want RETURNED", l.Status)
	}
	if l.ReturnDate == nil || !l.ReturnDate.Equal(today) {
		t.Fatalf("return date = %v, want %v", l.ReturnDate, today)
	}
	if l.FineCents != 0 {
		t.Fatalf("fine = %d, want 0 for on-time return", l.FineCents)
	}
}

func TestLoanMarkReturned_SixDaysLate(t *testing.T) {
	// Ставка 5.00 в день, просрочка 6 дней: штраф 30.00.
	l := &Loan{Status: LoanStatusActive, DueDate: date(2024, 3, 10)}

	l.MarkReturned(500, date(2024, 3, 16))

	if l.Status != LoanStatusReturned {
		t.Fatalf("status = %s, want RETURNED", l.Status)
	}
	if l.FineCents != 3000 {
		t.Fatalf("fine = %d, want 3000", l.FineCents)
	}
}

func TestLoanMarkReturned_AlreadySweptOverdue(t *testing.T) {
	// Штраф считается от фактической просрочки и тогда, когда статус
	// OVERDUE уже был проставлен фоновым процессом.
	l := &Loan{Status: LoanStatusOverdue, DueDate: date(2024, 3, 10)}

	l.MarkReturned(500, date(2024, 3, 13))

	if l.FineCents != 1500 {
		t.Fatalf("fine = %d, want 1500", l.FineCents)
	}
}

func TestLoanMarkOverdue(t *testing.T) {
	l := &Loan{Status: LoanStatusActive}
	l.MarkOverdue()
	if l.Status != LoanStatusOverdue {
		t.Fatalf("status = %s, want OVERDUE", l.Status)
	}

	r := &Loan{Status: LoanStatusReturned}
	r.MarkOverdue()
	if r.Status != LoanStatusReturned {
		t.Fatalf("MarkOverdue must not touch a returned loan")
	}
}

func TestLoanFineAt_Pure(t *testing.T) {
	l := &Loan{Status: LoanStatusActive, DueDate: date(2024, 3, 10)}

	if got := l.FineAt(500, date(2024, 3, 8)); got != 0 {
		t.Fatalf("fine before due date = %d, want 0", got)
	}
	if got := l.FineAt(500, date(2024, 3, 16)); got != 3000 {
		t.Fatalf("fine = %d, want 3000", got)
	}
	if l.Status != LoanStatusActive || l.FineCents != 0 || l.ReturnDate != nil {
		t.Fatalf("FineAt must not mutate the loan")
	}
}
