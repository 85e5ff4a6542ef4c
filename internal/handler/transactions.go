package handler

import "net/http"

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.transactions.List(r.Context(), r.PathValue("groupId"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	res := make([]transactionResponse, len(txns))
	for i, t := range txns {
		res[i] = toTransaction(t)
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.transactions.Get(r.Context(), r.PathValue("groupId"), r.PathValue("transactionId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransaction(txn))
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decode(w, r, &req) {
		return
	}

	txn, err := h.transactions.Create(r.Context(), r.PathValue("groupId"), req.input())
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/groups/"+txn.GroupID+"/transactions/"+txn.ID)
	writeJSON(w, http.StatusCreated, toTransaction(txn))
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decode(w, r, &req) {
		return
	}

	txn, err := h.transactions.Update(r.Context(), r.PathValue("groupId"), r.PathValue("transactionId"), req.input())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransaction(txn))
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.transactions.Delete(r.Context(), r.PathValue("groupId"), r.PathValue("transactionId")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) paidByMember(w http.ResponseWriter, r *http.Request) {
	groupID, memberID := r.PathValue("groupId"), r.PathValue("memberId")

	sum, err := h.transactions.GetPaidByMember(r.Context(), groupID, memberID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paidSumResponse{GroupID: groupID, MemberID: memberID, PaidSum: money(sum)})
}

func (h *Handler) expensesByMember(w http.ResponseWriter, r *http.Request) {
	groupID, memberID := r.PathValue("groupId"), r.PathValue("memberId")

	sum, err := h.transactions.GetExpensesByMember(r.Context(), groupID, memberID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expensesSumResponse{GroupID: groupID, MemberID: memberID, ExpensesSum: money(sum)})
}

func (h *Handler) incomeByMember(w http.ResponseWriter, r *http.Request) {
	groupID, memberID := r.PathValue("groupId"), r.PathValue("memberId")

	sum, err := h.transactions.GetIncomeByMember(r.Context(), groupID, memberID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, earningsSumResponse{GroupID: groupID, MemberID: memberID, EarningsSum: money(sum)})
}
