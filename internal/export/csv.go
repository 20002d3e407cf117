// Package export формирует CSV-отчёты по данным библиотеки.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mmeshcher/libronova-system/internal/model"
)

const dateLayout = "02/01/2006"

// WriteBookCatalog записывает каталог книг в формате CSV.
func WriteBookCatalog(w io.Writer, books []model.Book) error {
	cw := csv.NewWriter(w)

	header := []string{"ID", "ISBN", "Title", "Author", "Publisher", "Publication Date",
		"Category", "Stock", "Available Stock", "Status"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, b := range books {
		record := []string{
			strconv.FormatInt(b.ID, 10),
			b.ISBN,
			b.Title,
			b.Author,
			b.Publisher,
			b.PublicationDate.Format(dateLayout),
			b.Category,
			strconv.Itoa(b.Stock),
			strconv.Itoa(b.AvailableStock),
			activeLabel(b.Active),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write book %d: %w", b.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMembers записывает список читателей в формате CSV.
func WriteMembers(w io.Writer, members []model.Member) error {
	cw := csv.NewWriter(w)

	header := []string{"ID", "Member ID", "First Name", "Last Name", "Email", "Phone",
		"Address", "Birth Date", "Registration Date", "Membership", "Current Loans",
		"Max Loans", "Status"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, m := range members {
		record := []string{
			strconv.FormatInt(m.ID, 10),
			m.MemberID,
			m.FirstName,
			m.LastName,
			m.Email,
			m.Phone,
			m.Address,
			m.BirthDate.Format(dateLayout),
			m.RegistrationDate.Format(dateLayout),
			string(m.Membership),
			strconv.Itoa(m.CurrentLoans),
			strconv.Itoa(m.MaxLoans()),
			activeLabel(m.Active),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write member %d: %w", m.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteLoans записывает список выдач в формате CSV.
func WriteLoans(w io.Writer, loans []model.Loan) error {
	cw := csv.NewWriter(w)

	header := []string{"ID", "Loan ID", "Book ID", "Member ID", "User ID", "Loan Date",
		"Due Date", "Return Date", "Status", "Fine", "Notes"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, l := range loans {
		record := []string{
			strconv.FormatInt(l.ID, 10),
			l.LoanID,
			strconv.FormatInt(l.BookID, 10),
			strconv.FormatInt(l.MemberID, 10),
			strconv.FormatInt(l.UserID, 10),
			l.LoanDate.Format(dateLayout),
			l.DueDate.Format(dateLayout),
			formatDate(l.ReturnDate),
			string(l.Status),
			fmt.Sprintf("%.2f", float64(l.FineCents)/100),
			l.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write loan %d: %w", l.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(dateLayout)
}

func activeLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}
