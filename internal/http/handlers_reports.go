package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"contas/internal/core"
)

// Report names accepted in the tipo query parameter.
const (
	reportMonthlySummary     = "resumoMensal"
	reportForecast           = "previsao"
	reportByCategory         = "porCategoria"
	reportCategoryDetails    = "porCategoriaDetalhes"
	reportMonthlyPayments    = "pagamentosMensal"
	reportByItemCategory     = "itemCategoria"
	reportTopItemsByQuantity = "itensMaisComprados"
	reportTopItemsByValue    = "maioresGastos"
)

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	year, month, err := parseYearMonth(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	q := r.URL.Query()
	tipo := q.Get("tipo")
	if tipo == "" {
		tipo = reportMonthlySummary
	}

	limit, err := queryInt(r, "limite", 0)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	category := sanitizeInput(q.Get("categoria"))
	txType := core.Expense
	if v := q.Get("tipoLancamento"); v != "" {
		txType, err = parseTxType(v)
		if err != nil {
			badRequest(w, "invalid tipoLancamento")
			return
		}
	}

	cacheKey := fmt.Sprintf("%d:%s:%d:%d:%s:%s:%d", homeID, tipo, year, month, category, txType, limit)
	if body, ok := s.reportCache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("X-Cache", "hit")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}

	payload, err := s.buildReport(r, homeID, tipo, year, month, category, txType, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payload == nil {
		badRequest(w, fmt.Sprintf("unknown report %q", tipo))
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.reportCache.Set(cacheKey, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// buildReport dispatches on the report name. A nil payload with nil error
// means the name is unknown.
func (s *Server) buildReport(r *http.Request, homeID int64, tipo string, year, month int, category string, txType core.TransactionType, limit int) (any, error) {
	ctx := r.Context()

	switch tipo {
	case reportMonthlySummary:
		summary, err := s.reports.MonthlySummary(ctx, homeID, year, month)
		if err != nil {
			return nil, err
		}
		// A month without movement reports explicit absence, not zeros.
		return map[string]any{"resumo": toSummaryDTO(summary)}, nil

	case reportForecast:
		entries, err := s.reports.ForecastDetails(ctx, homeID, year, month)
		if err != nil {
			return nil, err
		}
		return map[string]any{"previsao": toForecastDTOs(entries)}, nil

	case reportByCategory:
		totals, err := s.reports.ByCategory(ctx, homeID, txType, year, month)
		if err != nil {
			return nil, err
		}
		return map[string]any{"categorias": toCategoryTotalDTOs(totals)}, nil

	case reportCategoryDetails:
		if category == "" {
			return nil, fmt.Errorf("%w: categoria is required", core.ErrValidation)
		}
		rows, err := s.reports.CategoryTransactions(ctx, homeID, category, year, month)
		if err != nil {
			return nil, err
		}
		return map[string]any{"lancamentos": toTransactionRowDTOs(rows)}, nil

	case reportMonthlyPayments:
		entries, err := s.reports.PaymentsByMonth(ctx, homeID, year, month)
		if err != nil {
			return nil, err
		}
		total, byCategory := summarizePayments(entries)
		return map[string]any{
			"pagamentos":    toPaymentEntryDTOs(entries),
			"totalCentavos": total,
			"categorias":    byCategory,
		}, nil

	case reportByItemCategory:
		totals, err := s.reports.ByItemCategory(ctx, homeID, year, month)
		if err != nil {
			return nil, err
		}
		return map[string]any{"categorias": toCategoryTotalDTOs(totals)}, nil

	case reportTopItemsByQuantity:
		items, err := s.reports.TopItemsByQuantity(ctx, homeID, year, month, limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"itens": toItemTotalDTOs(items)}, nil

	case reportTopItemsByValue:
		items, err := s.reports.TopItemsByValue(ctx, homeID, year, month, limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"itens": toItemTotalDTOs(items)}, nil
	}

	return nil, nil
}

// summarizePayments totals a month's payments overall and per category of
// the parent expense.
func summarizePayments(entries []core.PaymentEntry) (int64, []categoryTotalDTO) {
	var total int64
	sums := make(map[string]int64)
	for _, e := range entries {
		total += e.Amount.Cents
		sums[e.Category] += e.Amount.Cents
	}

	out := make([]categoryTotalDTO, 0, len(sums))
	for name, cents := range sums {
		out = append(out, categoryTotalDTO{Nome: name, Centavos: cents})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Centavos != out[j].Centavos {
			return out[i].Centavos > out[j].Centavos
		}
		return out[i].Nome < out[j].Nome
	})
	return total, out
}
