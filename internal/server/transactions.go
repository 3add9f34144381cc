package server

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"dindin/internal/store"
)

type transactionRequest struct {
	Type    string          `json:"type"`
	Amount  float64         `json:"amount"`
	Details json.RawMessage `json:"details"`
}

// createTransactionHandler handles both deposits and withdrawal requests.
// Deposits credit immediately; withdrawals hold the amount as PENDING until
// an operator approves or rejects them.
func (s *FiberServer) createTransactionHandler(c *fiber.Ctx) error {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Corpo da requisição inválido")
	}
	if req.Amount <= 0 {
		return badRequest(c, "Valor inválido")
	}

	var (
		tx      *store.Transaction
		balance float64
		err     error
	)
	switch req.Type {
	case store.TxDeposit:
		tx, balance, err = s.store.Deposit(c.Context(), userID(c), req.Amount, req.Details)
	case store.TxWithdrawal:
		tx, balance, err = s.store.Withdraw(c.Context(), userID(c), req.Amount, req.Details)
	default:
		return badRequest(c, "Tipo de transação inválido")
	}
	if err != nil {
		return s.fail(c, err)
	}

	s.log.Info("transaction created",
		zap.String("user", userID(c)),
		zap.String("type", req.Type),
		zap.Float64("amount", req.Amount))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"transaction": tx,
		"balance":     balance,
	})
}

// getTransactionHandler returns one transaction. Somebody else's transaction
// answers 404, not 403, so guessing ids reveals nothing.
func (s *FiberServer) getTransactionHandler(c *fiber.Ctx) error {
	tx, err := s.store.GetTransaction(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if tx.UserID != userID(c) && !isAdmin(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Transação não encontrada",
		})
	}
	return c.JSON(tx)
}

func (s *FiberServer) listTransactionsHandler(c *fiber.Ctx) error {
	txs, err := s.store.RecentTransactions(c.Context(), userID(c), c.QueryInt("limit", 10))
	if err != nil {
		return s.fail(c, err)
	}
	if txs == nil {
		txs = []store.Transaction{}
	}
	return c.JSON(txs)
}
