package http

import (
	"net/http"

	"contas/internal/core"
	"contas/internal/services"
	"contas/internal/storage"
)

type lineItemRequest struct {
	Descricao       string   `json:"descricao"`
	Quantidade      *float64 `json:"quantidade"`
	UnidadeID       *int64   `json:"unidadeId"`
	CategoriaItemID *int64   `json:"categoriaItemId"`
	Valor           string   `json:"valor"`
	ValorCentavos   int64    `json:"valorCentavos"`
}

type transactionRequest struct {
	Descricao     string            `json:"descricao"`
	Valor         string            `json:"valor"`
	ValorCentavos int64             `json:"valorCentavos"`
	Tipo          string            `json:"tipo"`
	Categoria     string            `json:"categoria"`
	Data          string            `json:"data"`
	Itens         []lineItemRequest `json:"itens"`
}

func (req transactionRequest) toInput() (services.TransactionInput, error) {
	date, err := core.ParseDate(req.Data)
	if err != nil {
		return services.TransactionInput{}, err
	}

	in := services.TransactionInput{
		Description: sanitizeInput(req.Descricao),
		Type:        core.TransactionType(req.Tipo),
		Category:    sanitizeInput(req.Categoria),
		Date:        date,
	}

	for _, it := range req.Itens {
		total, err := parseAmount(it.Valor, it.ValorCentavos)
		if err != nil {
			return services.TransactionInput{}, err
		}
		in.Items = append(in.Items, core.LineItem{
			Description:    sanitizeInput(it.Descricao),
			Quantity:       it.Quantidade,
			UnitID:         it.UnidadeID,
			ItemCategoryID: it.CategoriaItemID,
			Total:          total,
		})
	}

	// Itemized entries derive their amount from the items, so the top
	// level amount is only required when no items came along.
	if len(in.Items) == 0 {
		in.Amount, err = parseAmount(req.Valor, req.ValorCentavos)
		if err != nil {
			return services.TransactionInput{}, err
		}
	}
	return in, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.transactions.Create(r.Context(), homeID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(homeID)
	writeJSON(w, http.StatusCreated, toDetailDTO(detail))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	txID, err := pathID(r, "txID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	detail, err := s.transactions.Get(r.Context(), homeID, txID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailDTO(detail))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	txID, err := pathID(r, "txID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.transactions.Update(r.Context(), homeID, txID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(homeID)
	writeJSON(w, http.StatusOK, toDetailDTO(detail))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	txID, err := pathID(r, "txID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.transactions.Delete(r.Context(), homeID, txID); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(homeID)
	writeJSON(w, http.StatusNoContent, nil)
}

type transactionListResponse struct {
	Lancamentos []transactionDTO `json:"lancamentos"`
	Total       int64            `json:"total"`
	Resumo      *summaryDTO      `json:"resumo,omitempty"`
}

// handleListTransactions returns one page of entries. When the listing is
// narrowed to a single month the month's summary rides along, saving the
// dashboard a second round trip.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	q := r.URL.Query()
	var filter storage.TransactionFilter
	if q.Get("ano") != "" || q.Get("mes") != "" {
		filter.Year, filter.Month, err = parseYearMonth(r)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
	}
	if filter.Page, err = queryInt(r, "pagina", 1); err != nil {
		badRequest(w, err.Error())
		return
	}
	if filter.Limit, err = queryInt(r, "limite", 50); err != nil {
		badRequest(w, err.Error())
		return
	}

	page, err := s.transactions.List(r.Context(), homeID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := transactionListResponse{
		Lancamentos: toTransactionRowDTOs(page.Rows),
		Total:       page.Total,
	}
	if filter.Year != 0 && filter.Month != 0 {
		summary, err := s.reports.MonthlySummary(r.Context(), homeID, filter.Year, filter.Month)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.Resumo = toSummaryDTO(summary)
	}
	writeJSON(w, http.StatusOK, resp)
}
