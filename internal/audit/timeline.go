package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action names a product mutation.
type Action string

const (
	ActionCreated      Action = "created"
	ActionUpdated      Action = "updated"
	ActionDeleted      Action = "deleted"
	ActionStockChanged Action = "stock_changed"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionStockChanged:
		return true
	}
	return false
}

// ProductLog is an immutable record of one product mutation.
type ProductLog struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	Action            Action          `json:"action"`
	OldValues         json.RawMessage `json:"old_values,omitempty"`
	NewValues         json.RawMessage `json:"new_values,omitempty"`
	ResponsibleUserID string          `json:"responsible_user_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Entry describes a mutation to record. Old is nil on create, New is nil on delete.
type Entry struct {
	ProductID uuid.UUID
	Action    Action
	Old       any
	New       any
	ActorID   string
}

// HistoryFilters selects a page of one product's history.
type HistoryFilters struct {
	ProductID uuid.UUID
	Action    Action
	Page      int
	PageSize  int
}

// PagingInfo menyimpan metadata pagination sederhana.
type PagingInfo struct {
	Page     int  `json:"page"`
	HasNext  bool `json:"has_next"`
	PageSize int  `json:"page_size"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result wraps one page of logs with its paging info.
type Result struct {
	Rows   []ProductLog `json:"data"`
	Paging PagingInfo   `json:"paging"`
}
