package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/libronova-system/internal/model"
	"github.com/mmeshcher/libronova-system/internal/repository"
	"github.com/mmeshcher/libronova-system/internal/validation"
)

// Минимальный возраст читателя в годах.
const minMemberAge = 16

// CreateMember регистрирует нового читателя с проверкой анкетных данных.
func (s *Service) CreateMember(ctx context.Context, m *model.Member) (*model.Member, error) {
	if err := s.validateMember(m); err != nil {
		return nil, err
	}

	m.RegistrationDate = s.today()

	id, err := s.repo.CreateMember(ctx, m)
	if err != nil {
		return nil, err
	}

	m.ID = id
	m.Active = true
	m.CurrentLoans = 0

	s.logger.Info("member created", zap.String("memberID", m.MemberID), zap.Int64("id", id))
	return m, nil
}

// GetMember возвращает читателя по внутреннему идентификатору.
func (s *Service) GetMember(ctx context.Context, id int64) (*model.Member, error) {
	return s.repo.GetMemberByID(ctx, id)
}

// GetMemberByMemberID возвращает читателя по номеру билета.
func (s *Service) GetMemberByMemberID(ctx context.Context, memberID string) (*model.Member, error) {
	return s.repo.GetMemberByMemberID(ctx, memberID)
}

// ListMembers возвращает читателей по фильтру.
func (s *Service) ListMembers(ctx context.Context, f repository.MemberFilter) ([]model.Member, error) {
	return s.repo.ListMembers(ctx, f)
}

// UpdateMember обновляет анкетные данные читателя.
func (s *Service) UpdateMember(ctx context.Context, m *model.Member) (*model.Member, error) {
	if err := s.validateMember(m); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateMember(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("member updated", zap.String("memberID", m.MemberID), zap.Int64("id", m.ID))
	return s.repo.GetMemberByID(ctx, m.ID)
}

// DeactivateMember деактивирует читателя. Пока за читателем числятся
// невозвращённые книги, деактивация невозможна.
func (s *Service) DeactivateMember(ctx context.Context, id int64) error {
	if err := s.repo.DeactivateMember(ctx, id); err != nil {
		return err
	}
	s.logger.Info("member deactivated", zap.Int64("id", id))
	return nil
}

func (s *Service) validateMember(m *model.Member) error {
	switch {
	case strings.TrimSpace(m.MemberID) == "":
		return fmt.Errorf("%w: member id is required", ErrInvalidInput)
	case strings.TrimSpace(m.FirstName) == "":
		return fmt.Errorf("%w: first name is required", ErrInvalidInput)
	case strings.TrimSpace(m.LastName) == "":
		return fmt.Errorf("%w: last name is required", ErrInvalidInput)
	case !validation.IsValidEmail(m.Email):
		return fmt.Errorf("%w: email %q has invalid format", ErrInvalidInput, m.Email)
	case strings.TrimSpace(m.Phone) == "":
		return fmt.Errorf("%w: phone is required", ErrInvalidInput)
	case strings.TrimSpace(m.Address) == "":
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	case m.BirthDate.IsZero():
		return fmt.Errorf("%w: birth date is required", ErrInvalidInput)
	case m.BirthDate.After(s.today()):
		return fmt.Errorf("%w: birth date cannot be in the future", ErrInvalidInput)
	case !m.Membership.Valid():
		return fmt.Errorf("%w: membership type %q is not one of REGULAR, PREMIUM, VIP", ErrInvalidInput, m.Membership)
	}

	if age := yearsBetween(m.BirthDate, s.today()); age < minMemberAge {
		return fmt.Errorf("%w: member must be at least %d years old", ErrInvalidInput, minMemberAge)
	}

	return nil
}

// yearsBetween возвращает число полных лет между двумя датами.
func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	anniversary := from.AddDate(years, 0, 0)
	if anniversary.After(to) {
		years--
	}
	return years
}
