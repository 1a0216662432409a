package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/set-night/clickpulse/internal/config"
	"github.com/set-night/clickpulse/internal/middleware"
	"github.com/shopspring/decimal"
)

func (h *Handler) WorkerSignIn(c *gin.Context) {
	var req signInRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	sess, err := h.signIn.SignInWorker(c.Request.Context(), req.PublicKey, req.Signature)
	if err != nil {
		writeError(c, err)
		return
	}
	coins := decimal.NewFromInt(sess.Worker.PendingAmount).Div(decimal.NewFromInt(config.TotalDecimal))
	c.JSON(http.StatusOK, gin.H{"token": sess.Token, "amount": coins.InexactFloat64()})
}

func (h *Handler) NextTask(c *gin.Context) {
	task, err := h.assignment.NextTask(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if task == nil {
		c.JSON(http.StatusOK, gin.H{"task": nil, "message": "No tasks left for you to review"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": toNextTask(task)})
}

func (h *Handler) Submit(c *gin.Context) {
	var req submissionRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	taskID, optionID, err := req.ids()
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.submissions.Submit(c.Request.Context(), middleware.SubjectID(c), taskID, optionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, submissionResponse{NextTask: toNextTask(res.NextTask), Amount: res.Amount})
}

func (h *Handler) Balance(c *gin.Context) {
	b, err := h.payouts.Balance(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, balanceResponse{PendingAmount: b.PendingAmount, LockedAmount: b.LockedAmount})
}

func (h *Handler) Payout(c *gin.Context) {
	p, err := h.payouts.Payout(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Processing Payouts",
		"signature": p.Signature,
		"amount":    p.Amount,
	})
}

func (h *Handler) ListPayouts(c *gin.Context) {
	payouts, err := h.payouts.ListPayouts(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]payoutResponse, len(payouts))
	for i, p := range payouts {
		out[i] = toPayout(p)
	}
	c.JSON(http.StatusOK, out)
}
