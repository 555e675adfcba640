package http

import (
	"contas/internal/core"
	"contas/internal/services"
	"contas/internal/storage"
)

// Wire shapes. Field names follow the Portuguese vocabulary the clients
// already speak; every monetary field travels as integer cents.

type transactionDTO struct {
	ID        int64   `json:"id"`
	Descricao string  `json:"descricao"`
	Centavos  int64   `json:"valorCentavos"`
	Tipo      string  `json:"tipo"`
	Categoria string  `json:"categoria"`
	Data      string  `json:"data"`
	Status    string  `json:"status"`
	Pago      bool    `json:"pago"`
	PagoEm    *string `json:"pagoEm,omitempty"`
	OrigemID  *int64  `json:"origemId,omitempty"`
	TotalPago int64   `json:"totalPagoCentavos"`
	Restante  int64   `json:"restanteCentavos"`
}

type paymentDTO struct {
	ID        int64  `json:"id"`
	Transacao int64  `json:"transacaoId"`
	Centavos  int64  `json:"valorCentavos"`
	Data      string `json:"data"`
}

type lineItemDTO struct {
	ID              int64    `json:"id"`
	Descricao       string   `json:"descricao"`
	Quantidade      *float64 `json:"quantidade,omitempty"`
	UnidadeID       *int64   `json:"unidadeId,omitempty"`
	CategoriaItemID *int64   `json:"categoriaItemId,omitempty"`
	Centavos        int64    `json:"valorCentavos"`
}

type transactionDetailDTO struct {
	transactionDTO
	Pagamentos []paymentDTO  `json:"pagamentos"`
	Itens      []lineItemDTO `json:"itens"`
}

type summaryDTO struct {
	Ano           int   `json:"ano"`
	Mes           int   `json:"mes"`
	Entradas      int64 `json:"entradasCentavos"`
	SaidasPagas   int64 `json:"saidasPagasCentavos"`
	Previsao      int64 `json:"previsaoCentavos"`
	Transferido   int64 `json:"transferidoCentavos"`
	SaldoAnterior int64 `json:"saldoAnteriorCentavos"`
	Saldo         int64 `json:"saldoCentavos"`
}

type householdDTO struct {
	ID          int64  `json:"id"`
	Nome        string `json:"nome"`
	CriadoEm    string `json:"criadoEm"`
	Membros     int64  `json:"membros"`
	Lancamentos int64  `json:"lancamentos"`
	Saldo       int64  `json:"saldoCentavos"`
}

type memberDTO struct {
	ID        int64  `json:"id"`
	UsuarioID int64  `json:"usuarioId"`
	Nome      string `json:"nome"`
	Apelido   string `json:"apelido,omitempty"`
	Email     string `json:"email"`
	Papel     string `json:"papel"`
}

type categoryDTO struct {
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Tipo  string `json:"tipo"`
	EmUso bool   `json:"emUso"`
}

type unitDTO struct {
	ID         int64  `json:"id"`
	Nome       string `json:"nome"`
	Abreviacao string `json:"abreviacao"`
}

type itemCategoryDTO struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}

type categoryTotalDTO struct {
	Nome     string `json:"nome"`
	Centavos int64  `json:"totalCentavos"`
}

type forecastEntryDTO struct {
	Transacao int64  `json:"transacaoId"`
	Descricao string `json:"descricao"`
	Categoria string `json:"categoria"`
	Data      string `json:"data"`
	Centavos  int64  `json:"valorCentavos"`
	TotalPago int64  `json:"totalPagoCentavos"`
	Restante  int64  `json:"restanteCentavos"`
	Status    string `json:"status"`
}

type paymentEntryDTO struct {
	ID            int64  `json:"id"`
	Centavos      int64  `json:"valorCentavos"`
	Data          string `json:"data"`
	Transacao     int64  `json:"transacaoId"`
	Descricao     string `json:"descricao"`
	TotalCentavos int64  `json:"valorTotalCentavos"`
	Categoria     string `json:"categoria"`
	DataOriginal  string `json:"dataOriginal"`
}

type itemTotalDTO struct {
	Descricao   string  `json:"descricao"`
	Quantidade  float64 `json:"quantidade"`
	Centavos    int64   `json:"totalCentavos"`
	Ocorrencias int     `json:"ocorrencias"`
}

func toTransactionDTO(t core.Transaction, totalPaid int64) transactionDTO {
	dto := transactionDTO{
		ID:        t.ID,
		Descricao: t.Description,
		Centavos:  t.Amount.Cents,
		Tipo:      string(t.Type),
		Categoria: t.Category,
		Data:      t.Date.String(),
		Status:    string(t.Status),
		Pago:      t.Paid,
		OrigemID:  t.OriginID,
		TotalPago: totalPaid,
	}
	if t.Type == core.Expense {
		dto.Restante = core.Remaining(t.Amount.Cents, totalPaid)
	}
	if t.PaidOn != nil {
		s := t.PaidOn.String()
		dto.PagoEm = &s
	}
	return dto
}

func toTransactionRowDTOs(rows []storage.TransactionRow) []transactionDTO {
	out := make([]transactionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTransactionDTO(row.Transaction, row.TotalPaid.Cents))
	}
	return out
}

func toPaymentDTO(p core.Payment) paymentDTO {
	return paymentDTO{
		ID:        p.ID,
		Transacao: p.TransactionID,
		Centavos:  p.Amount.Cents,
		Data:      p.Date.String(),
	}
}

func toPaymentDTOs(payments []core.Payment) []paymentDTO {
	out := make([]paymentDTO, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentDTO(p))
	}
	return out
}

func toLineItemDTOs(items []core.LineItem) []lineItemDTO {
	out := make([]lineItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, lineItemDTO{
			ID:              it.ID,
			Descricao:       it.Description,
			Quantidade:      it.Quantity,
			UnidadeID:       it.UnitID,
			CategoriaItemID: it.ItemCategoryID,
			Centavos:        it.Total.Cents,
		})
	}
	return out
}

func toDetailDTO(d services.TransactionDetail) transactionDetailDTO {
	return transactionDetailDTO{
		transactionDTO: toTransactionDTO(d.Transaction, d.TotalPaid.Cents),
		Pagamentos:     toPaymentDTOs(d.Payments),
		Itens:          toLineItemDTOs(d.Items),
	}
}

func toSummaryDTO(s *core.MonthSummary) *summaryDTO {
	if s == nil {
		return nil
	}
	return &summaryDTO{
		Ano:           s.Year,
		Mes:           s.Month,
		Entradas:      s.Income.Cents,
		SaidasPagas:   s.ExpensesPaid.Cents,
		Previsao:      s.Forecast.Cents,
		Transferido:   s.Transferred.Cents,
		SaldoAnterior: s.PriorBalance.Cents,
		Saldo:         s.Balance.Cents,
	}
}

func toHouseholdDTO(h storage.HouseholdRow) householdDTO {
	return householdDTO{
		ID:          h.ID,
		Nome:        h.Name,
		CriadoEm:    h.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Membros:     h.MemberCount,
		Lancamentos: h.TransactionCount,
		Saldo:       h.Balance.Cents,
	}
}

func toMemberDTO(m core.Member) memberDTO {
	return memberDTO{
		ID:        m.ID,
		UsuarioID: m.UserID,
		Nome:      m.Name,
		Apelido:   m.Nickname,
		Email:     m.Email,
		Papel:     string(m.Role),
	}
}

func toCategoryDTOs(cats []core.Category) []categoryDTO {
	out := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryDTO{ID: c.ID, Nome: c.Name, Tipo: string(c.Type), EmUso: c.InUse})
	}
	return out
}

func toCategoryTotalDTOs(totals []core.CategoryTotal) []categoryTotalDTO {
	out := make([]categoryTotalDTO, 0, len(totals))
	for _, t := range totals {
		out = append(out, categoryTotalDTO{Nome: t.Name, Centavos: t.Total.Cents})
	}
	return out
}

func toForecastDTOs(entries []core.ForecastEntry) []forecastEntryDTO {
	out := make([]forecastEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, forecastEntryDTO{
			Transacao: e.TransactionID,
			Descricao: e.Description,
			Categoria: e.Category,
			Data:      e.Date.String(),
			Centavos:  e.Amount.Cents,
			TotalPago: e.TotalPaid.Cents,
			Restante:  e.Remaining.Cents,
			Status:    string(e.Status),
		})
	}
	return out
}

func toPaymentEntryDTOs(entries []core.PaymentEntry) []paymentEntryDTO {
	out := make([]paymentEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, paymentEntryDTO{
			ID:            e.PaymentID,
			Centavos:      e.Amount.Cents,
			Data:          e.Date.String(),
			Transacao:     e.Transaction,
			Descricao:     e.Description,
			TotalCentavos: e.TotalAmount.Cents,
			Categoria:     e.Category,
			DataOriginal:  e.OriginalDate.String(),
		})
	}
	return out
}

func toItemTotalDTOs(items []core.ItemTotal) []itemTotalDTO {
	out := make([]itemTotalDTO, 0, len(items))
	for _, it := range items {
		out = append(out, itemTotalDTO{
			Descricao:   it.Description,
			Quantidade:  it.Quantity,
			Centavos:    it.Total.Cents,
			Ocorrencias: it.Occurrences,
		})
	}
	return out
}
