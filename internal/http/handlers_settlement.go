package http

import (
	"context"
	"net/http"

	"contas/internal/core"
)

type settleRequest struct {
	Data string `json:"data"`
}

type transferFunc func(ctx context.Context, homeID, id int64) (core.Transaction, error)

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
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
	var req settleRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			badRequest(w, err.Error())
			return
		}
	}
	paidOn, err := parseOptionalDate(req.Data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.settlement.MarkPaid(r.Context(), homeID, txID, paidOn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(homeID)
	writeJSON(w, http.StatusOK, toTransactionDTO(t, t.Amount.Cents))
}

func (s *Server) handleMarkUnpaid(w http.ResponseWriter, r *http.Request) {
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
	t, err := s.settlement.MarkUnpaid(r.Context(), homeID, txID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(homeID)
	detail, err := s.transactions.Get(r.Context(), homeID, t.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailDTO(detail))
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
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
	payments, err := s.settlement.Payments(r.Context(), homeID, txID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

type paymentRequest struct {
	Valor         string `json:"valor"`
	ValorCentavos int64  `json:"valorCentavos"`
	Data          string `json:"data"`
}

type paymentResponse struct {
	Lancamento transactionDTO `json:"lancamento"`
	Pagamento  paymentDTO     `json:"pagamento"`
}

func (s *Server) handleRegisterPayment(w http.ResponseWriter, r *http.Request) {
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
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	amount, err := parseAmount(req.Valor, req.ValorCentavos)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payDate, err := parseOptionalDate(req.Data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, payment, err := s.settlement.RegisterPartialPayment(r.Context(), homeID, txID, amount, payDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(homeID)

	detail, err := s.transactions.Get(r.Context(), homeID, t.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentResponse{
		Lancamento: toTransactionDTO(detail.Transaction, detail.TotalPaid.Cents),
		Pagamento:  toPaymentDTO(payment),
	})
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	homeID, err := pathID(r, "homeID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	paymentID, err := pathID(r, "paymentID")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	t, err := s.settlement.DeletePayment(r.Context(), homeID, paymentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(homeID)
	detail, err := s.transactions.Get(r.Context(), homeID, t.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailDTO(detail))
}

func (s *Server) handleTransferWhole(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, s.settlement.TransferWhole)
}

func (s *Server) handleTransferRemainder(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, s.settlement.TransferRemainder)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request, transfer transferFunc) {
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
	clone, err := transfer(r.Context(), homeID, txID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports(homeID)
	writeJSON(w, http.StatusCreated, toTransactionDTO(clone, 0))
}
