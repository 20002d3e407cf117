package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmeshcher/libronova-system/internal/model"
	"github.com/mmeshcher/libronova-system/internal/repository"
)

func validMember() *model.Member {
	return &model.Member{
		MemberID:   "MEM-001",
		FirstName:  "Anna",
		LastName:   "Petrova",
		Email:      "anna@example.com",
		Phone:      "+7 900 123-45-67",
		Address:    "Moscow, Tverskaya 1",
		BirthDate:  time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		Membership: model.MembershipRegular,
	}
}

func TestCreateMember_Success(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	created, err := svc.CreateMember(context.Background(), validMember())
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}

	if created.ID == 0 {
		t.Errorf("member must receive an id")
	}
	if !created.Active {
		t.Errorf("new member must be active")
	}
	if created.CurrentLoans != 0 {
		t.Errorf("current loans = %d, want 0", created.CurrentLoans)
	}
	wantReg := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if !created.RegistrationDate.Equal(wantReg) {
		t.Errorf("registration date = %v, want %v", created.RegistrationDate, wantReg)
	}
}

func TestCreateMember_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *model.Member)
	}{
		{"empty member id", func(m *model.Member) { m.MemberID = "" }},
		{"empty first name", func(m *model.Member) { m.FirstName = " " }},
		{"empty last name", func(m *model.Member) { m.LastName = "" }},
		{"bad email", func(m *model.Member) { m.Email = "anna-at-example.com" }},
		{"empty phone", func(m *model.Member) { m.Phone = "" }},
		{"empty address", func(m *model.Member) { m.Address = "" }},
		{"zero birth date", func(m *model.Member) { m.BirthDate = time.Time{} }},
		{"future birth date", func(m *model.Member) {
			m.BirthDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		}},
		{"unknown membership", func(m *model.Member) { m.Membership = "GOLD" }},
		{"under minimum age", func(m *model.Member) {
			// 16 лет исполнится только завтра.
			m.BirthDate = time.Date(2008, 3, 11, 0, 0, 0, 0, time.UTC)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo()
			svc := newTestService(repo)

			m := validMember()
			tt.mutate(m)

			_, err := svc.CreateMember(context.Background(), m)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if len(repo.members) != 0 {
				t.Errorf("invalid member must not be stored")
			}
		})
	}
}

func TestCreateMember_ExactlyMinimumAge(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	m := validMember()
	// Ровно 16 лет в день регистрации.
	m.BirthDate = time.Date(2008, 3, 10, 0, 0, 0, 0, time.UTC)

	if _, err := svc.CreateMember(context.Background(), m); err != nil {
		t.Fatalf("member turning 16 today must be accepted, got %v", err)
	}
}

func TestDeactivateMember_WithActiveLoans(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	created, err := svc.CreateMember(context.Background(), validMember())
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	repo.members[created.ID].CurrentLoans = 1

	err = svc.DeactivateMember(context.Background(), created.ID)
	if !errors.Is(err, repository.ErrMemberHasLoans) {
		t.Fatalf("expected ErrMemberHasLoans, got %v", err)
	}
	if !repo.members[created.ID].Active {
		t.Errorf("member must stay active")
	}
}

func TestDeactivateMember_Success(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	created, err := svc.CreateMember(context.Background(), validMember())
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}

	if err := svc.DeactivateMember(context.Background(), created.ID); err != nil {
		t.Fatalf("DeactivateMember: %v", err)
	}
	if repo.members[created.ID].Active {
		t.Errorf("member must be deactivated")
	}
}
