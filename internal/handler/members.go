package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/libronova-system/internal/model"
	"github.com/mmeshcher/libronova-system/internal/repository"
)

type memberRequest struct {
	MemberID       string `json:"member_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	BirthDate      string `json:"birth_date"`
	MembershipType string `json:"membership_type"`
}

type memberResponse struct {
	ID               int64  `json:"id"`
	MemberID         string `json:"member_id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	BirthDate        string `json:"birth_date"`
	RegistrationDate string `json:"registration_date"`
	MembershipType   string `json:"membership_type"`
	CurrentLoans     int    `json:"current_loans"`
	MaxLoans         int    `json:"max_loans"`
	Active           bool   `json:"active"`
}

func toMemberResponse(m *model.Member) memberResponse {
	return memberResponse{
		ID:               m.ID,
		MemberID:         m.MemberID,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Email:            m.Email,
		Phone:            m.Phone,
		Address:          m.Address,
		BirthDate:        m.BirthDate.Format(dateLayout),
		RegistrationDate: m.RegistrationDate.Format(dateLayout),
		MembershipType:   string(m.Membership),
		CurrentLoans:     m.CurrentLoans,
		MaxLoans:         m.MaxLoans(),
		Active:           m.Active,
	}
}

func (r memberRequest) toModel() (*model.Member, error) {
	var birthDate time.Time
	if r.BirthDate != "" {
		var err error
		birthDate, err = time.Parse(dateLayout, r.BirthDate)
		if err != nil {
			return nil, err
		}
	}

	return &model.Member{
		MemberID:   r.MemberID,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Phone:      r.Phone,
		Address:    r.Address,
		BirthDate:  birthDate,
		Membership: model.MembershipType(r.MembershipType),
	}, nil
}

// CreateMember регистрирует нового читателя.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	member, err := req.toModel()
	if err != nil {
		http.Error(w, "invalid birth date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	created, err := h.service.CreateMember(r.Context(), member)
	if err != nil {
		h.writeError(w, err, "create member")
		return
	}

	h.writeJSON(w, http.StatusCreated, toMemberResponse(created))
}

// GetMember возвращает читателя по идентификатору.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get member")
		return
	}

	h.writeJSON(w, http.StatusOK, toMemberResponse(member))
}

// GetMemberByCard возвращает читателя по номеру читательского билета.
func (h *Handler) GetMemberByCard(w http.ResponseWriter, r *http.Request) {
	member, err := h.service.GetMemberByMemberID(r.Context(), chi.URLParam(r, "memberID"))
	if err != nil {
		h.writeError(w, err, "get member by card")
		return
	}

	h.writeJSON(w, http.StatusOK, toMemberResponse(member))
}

// ListMembers возвращает читателей с учётом параметров фильтрации.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	f := repository.MemberFilter{
		Search:     r.URL.Query().Get("search"),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}

	members, err := h.service.ListMembers(r.Context(), f)
	if err != nil {
		h.writeError(w, err, "list members")
		return
	}

	resp := make([]memberResponse, 0, len(members))
	for i := range members {
		resp = append(resp, toMemberResponse(&members[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// UpdateMember обновляет анкетные данные читателя.
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	member, err := req.toModel()
	if err != nil {
		http.Error(w, "invalid birth date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	member.ID = id

	updated, err := h.service.UpdateMember(r.Context(), member)
	if err != nil {
		h.writeError(w, err, "update member")
		return
	}

	h.writeJSON(w, http.StatusOK, toMemberResponse(updated))
}

// DeactivateMember деактивирует читателя.
func (h *Handler) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeactivateMember(r.Context(), id); err != nil {
		h.writeError(w, err, "deactivate member")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
