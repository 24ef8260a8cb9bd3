package dto

import "rimshield/internal/core/id"

// SyncCreditRequest pushes one credit note to bookkeeping.
type SyncCreditRequest struct {
	CreditID id.ID `json:"creditId" binding:"required"`
}

// SyncCreditResponse acknowledges the sync, flagging replays.
type SyncCreditResponse struct {
	OK      bool `json:"ok"`
	Already bool `json:"already,omitempty"`
}

// SyncOrderRequest pushes one paid order to bookkeeping.
type SyncOrderRequest struct {
	OrderID id.ID `json:"orderId" binding:"required"`
}

// SyncOrderResponse reports the created mutation IDs.
type SyncOrderResponse struct {
	OK             bool  `json:"ok"`
	Already        bool  `json:"already,omitempty"`
	VerkoopMutatie int64 `json:"verkoop_mutatie_id,omitempty"`
	CogsMutatie    int64 `json:"cogs_mutatie_id,omitempty"`
}
