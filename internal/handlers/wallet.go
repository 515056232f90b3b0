package handlers

import (
	"tally/internal/models"
	"tally/internal/services/ledger"
	"tally/internal/utils/pagination"
	"tally/internal/utils/response"
	"tally/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	ledger ledger.Service
}

func NewWalletHandler(ledgerService ledger.Service) *WalletHandler {
	return &WalletHandler{
		ledger: ledgerService,
	}
}

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// GetWallets returns every wallet of the authenticated user.
func (h *WalletHandler) GetWallets(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	wallets, err := h.ledger.GetBalances(c.Context(), claims.UserID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, fiber.Map{"wallets": wallets})
}

// GetWallet returns one wallet snapshot of the authenticated user.
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}
	walletType, err := validation.ParseWalletType(c.Params("type"))
	if err != nil {
		return response.DomainError(c, err)
	}

	wallet, err := h.ledger.GetWallet(c.Context(), claims.UserID, walletType)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, fiber.Map{"wallet": wallet})
}

// GetHistory returns a page of the authenticated user's audit trail for one
// currency type.
func (h *WalletHandler) GetHistory(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}
	walletType, err := validation.ParseWalletType(c.Params("type"))
	if err != nil {
		return response.DomainError(c, err)
	}

	p := pagination.ParseFromRequest(c)
	rows, total, err := h.ledger.GetHistory(c.Context(), ledger.HistoryQuery{
		UserID:         claims.UserID,
		Type:           &walletType,
		RequestBatchID: c.Query("request_batch_id"),
		Limit:          p.Limit,
		Offset:         p.Offset,
	})
	if err != nil {
		return response.DomainError(c, err)
	}
	p.Total = total
	return c.JSON(pagination.Response(p, rows))
}

type adjustInput struct {
	UserID         string            `json:"user_id"`
	WalletType     string            `json:"wallet_type"`
	ChangeMethod   string            `json:"change_method"`
	Amount         float64           `json:"amount"`
	SourceType     string            `json:"source_type"`
	RequestBatchID string            `json:"request_batch_id"`
	Reason         string            `json:"reason"`
	Meta           map[string]string `json:"meta"`
}

type reservationInput struct {
	UserID     string  `json:"user_id"`
	WalletType string  `json:"wallet_type"`
	Amount     float64 `json:"amount"`
}

type consumeInput struct {
	UserID         string            `json:"user_id"`
	WalletType     string            `json:"wallet_type"`
	Amount         float64           `json:"amount"`
	SourceType     string            `json:"source_type"`
	RequestBatchID string            `json:"request_batch_id"`
	Reason         string            `json:"reason"`
	Meta           map[string]string `json:"meta"`
}

func (h *WalletHandler) adjust(c *fiber.Ctx, defaultSource models.SourceType, allowOverride bool) error {
	var input adjustInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	if input.UserID == "" {
		return response.BadRequest(c, "user_id is required")
	}
	walletType, err := validation.ParseWalletType(input.WalletType)
	if err != nil {
		return response.DomainError(c, err)
	}
	method, err := validation.ParseChangeMethod(input.ChangeMethod)
	if err != nil {
		return response.DomainError(c, err)
	}
	source := defaultSource
	if allowOverride {
		source, err = validation.ParseSourceType(input.SourceType, defaultSource)
		if err != nil {
			return response.DomainError(c, err)
		}
	}

	result, err := h.ledger.AdjustBalance(c.Context(), ledger.AdjustRequest{
		UserID:       input.UserID,
		Type:         walletType,
		ChangeMethod: method,
		Amount:       input.Amount,
		Context: ledger.ChangeContext{
			SourceType:     source,
			RequestBatchID: input.RequestBatchID,
			Reason:         input.Reason,
			Meta:           input.Meta,
		},
	})
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, fiber.Map{
		"wallet":  result.Wallet,
		"history": result.History,
	})
}

// AdminAdjust applies a balance change on behalf of an operator.
func (h *WalletHandler) AdminAdjust(c *fiber.Ctx) error {
	return h.adjust(c, models.SourceTypeAdminAction, false)
}

// SystemAdjust applies a balance change on behalf of another service. The
// calling service may attribute the change to an acting user via
// source_type.
func (h *WalletHandler) SystemAdjust(c *fiber.Ctx) error {
	return h.adjust(c, models.SourceTypeSystem, true)
}

// SystemReserve earmarks funds for a pending external action.
func (h *WalletHandler) SystemReserve(c *fiber.Ctx) error {
	var input reservationInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	if input.UserID == "" {
		return response.BadRequest(c, "user_id is required")
	}
	walletType, err := validation.ParseWalletType(input.WalletType)
	if err != nil {
		return response.DomainError(c, err)
	}

	wallet, err := h.ledger.ReserveBalance(c.Context(), input.UserID, walletType, input.Amount)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, fiber.Map{"wallet": wallet})
}

// SystemRelease abandons a reservation, unlocking its funds.
func (h *WalletHandler) SystemRelease(c *fiber.Ctx) error {
	var input reservationInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	if input.UserID == "" {
		return response.BadRequest(c, "user_id is required")
	}
	walletType, err := validation.ParseWalletType(input.WalletType)
	if err != nil {
		return response.DomainError(c, err)
	}

	wallet, err := h.ledger.ReleaseReservation(c.Context(), input.UserID, walletType, input.Amount)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, fiber.Map{"wallet": wallet})
}

// SystemConsume settles a reservation as a spend.
func (h *WalletHandler) SystemConsume(c *fiber.Ctx) error {
	var input consumeInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request format")
	}
	if input.UserID == "" {
		return response.BadRequest(c, "user_id is required")
	}
	walletType, err := validation.ParseWalletType(input.WalletType)
	if err != nil {
		return response.DomainError(c, err)
	}
	source, err := validation.ParseSourceType(input.SourceType, models.SourceTypeSystem)
	if err != nil {
		return response.DomainError(c, err)
	}

	result, err := h.ledger.ConsumeReservedBalance(c.Context(), ledger.ConsumeRequest{
		UserID: input.UserID,
		Type:   walletType,
		Amount: input.Amount,
		Context: ledger.ChangeContext{
			SourceType:     source,
			RequestBatchID: input.RequestBatchID,
			Reason:         input.Reason,
			Meta:           input.Meta,
		},
	})
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, fiber.Map{
		"wallet":  result.Wallet,
		"history": result.History,
	})
}
