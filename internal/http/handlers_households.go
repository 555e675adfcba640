package http

import (
	"net/http"

	"contas/internal/core"
)

type registerUserRequest struct {
	Nome    string `json:"nome"`
	Apelido string `json:"apelido"`
	Email   string `json:"email"`
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	id, err := s.households.RegisterUser(r.Context(), sanitizeInput(req.Nome), sanitizeInput(req.Apelido), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type createHouseholdRequest struct {
	Nome         string `json:"nome"`
	CriadorNome  string `json:"criadorNome"`
	CriadorEmail string `json:"criadorEmail"`
}

func (s *Server) handleCreateHousehold(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	row, err := s.households.CreateHousehold(r.Context(), sanitizeInput(req.Nome), sanitizeInput(req.CriadorNome), req.CriadorEmail)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHouseholdDTO(row))
}

func (s *Server) handleListHouseholds(w http.ResponseWriter, r *http.Request) {
	rows, err := s.households.ListHouseholds(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]householdDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toHouseholdDTO(row))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetHousehold(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	row, err := s.households.GetHousehold(r.Context(), homeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHouseholdDTO(row))
}

func (s *Server) handleRenameHousehold(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req struct {
		Nome string `json:"nome"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.households.RenameHousehold(r.Context(), homeID, sanitizeInput(req.Nome)); err != nil {
		writeError(w, r, err)
		return
	}
	row, err := s.households.GetHousehold(r.Context(), homeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHouseholdDTO(row))
}

func (s *Server) handleDeleteHousehold(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.households.DeleteHousehold(r.Context(), homeID); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(homeID)
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	members, err := s.households.ListMembers(r.Context(), homeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]memberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberDTO(m))
	}
	writeJSON(w, http.StatusOK, out)
}

type addMemberRequest struct {
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Papel string `json:"papel"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	role, err := parseRole(req.Papel)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	member, err := s.households.AddMember(r.Context(), homeID, sanitizeInput(req.Nome), req.Email, role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberDTO(member))
}

func (s *Server) handleUpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	memberID, err := pathID(r, "memberID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req struct {
		Papel string `json:"papel"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	role, err := parseRole(req.Papel)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	member, err := s.households.UpdateMemberRole(r.Context(), homeID, memberID, role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(member))
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	memberID, err := pathID(r, "memberID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.households.RemoveMember(r.Context(), homeID, memberID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func parseRole(s string) (core.Role, error) {
	switch core.Role(s) {
	case core.RoleAdmin, core.RoleMember:
		return core.Role(s), nil
	}
	return "", core.ErrValidation
}

func parseTxType(s string) (core.TransactionType, error) {
	t := core.TransactionType(s)
	if !t.Valid() {
		return "", core.ErrInvalidTxType
	}
	return t, nil
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var txType core.TransactionType
	if v := r.URL.Query().Get("tipo"); v != "" {
		txType, err = parseTxType(v)
		if err != nil {
			badRequest(w, "invalid tipo")
			return
		}
	}
	cats, err := s.households.ListCategories(r.Context(), homeID, txType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTOs(cats))
}

type createCategoryRequest struct {
	Nome string `json:"nome"`
	Tipo string `json:"tipo"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	txType, err := parseTxType(req.Tipo)
	if err != nil {
		badRequest(w, "invalid tipo")
		return
	}
	cat, err := s.households.CreateCategory(r.Context(), homeID, sanitizeInput(req.Nome), txType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryDTO{ID: cat.ID, Nome: cat.Name, Tipo: string(cat.Type)})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	catID, err := pathID(r, "catID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.households.DeleteCategory(r.Context(), homeID, catID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	units, err := s.households.ListUnits(r.Context(), homeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]unitDTO, 0, len(units))
	for _, u := range units {
		out = append(out, unitDTO{ID: u.ID, Nome: u.Name, Abreviacao: u.Abbreviation})
	}
	writeJSON(w, http.StatusOK, out)
}

type createUnitRequest struct {
	Nome       string `json:"nome"`
	Abreviacao string `json:"abreviacao"`
}

func (s *Server) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req createUnitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	unit, err := s.households.CreateUnit(r.Context(), homeID, sanitizeInput(req.Nome), sanitizeInput(req.Abreviacao))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, unitDTO{ID: unit.ID, Nome: unit.Name, Abreviacao: unit.Abbreviation})
}

func (s *Server) handleDeleteUnit(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	unitID, err := pathID(r, "unitID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.households.DeleteUnit(r.Context(), homeID, unitID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListItemCategories(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	cats, err := s.households.ListItemCategories(r.Context(), homeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]itemCategoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, itemCategoryDTO{ID: c.ID, Nome: c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateItemCategory(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req struct {
		Nome string `json:"nome"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	cat, err := s.households.CreateItemCategory(r.Context(), homeID, sanitizeInput(req.Nome))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemCategoryDTO{ID: cat.ID, Nome: cat.Name})
}

func (s *Server) handleDeleteItemCategory(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	icID, err := pathID(r, "icID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.households.DeleteItemCategory(r.Context(), homeID, icID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
