package request

import (
	"strconv"

	"github.com/sangkips/retailpos-api/internal/domain/entity"
)

// ReturnItemRequest is one bill item selected for return
type ReturnItemRequest struct {
	BillItemID string `json:"bill_item_id" binding:"required"`
	Qty        int64  `json:"qty"`
}

// ReturnRequest represents a return preview or submission
type ReturnRequest struct {
	BillID string              `json:"bill_id" binding:"required"`
	Items  []ReturnItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToReturnItems converts the request items
func (r *ReturnRequest) ToReturnItems() []entity.ReturnItem {
	items := make([]entity.ReturnItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, entity.ReturnItem{BillItemID: item.BillItemID, Qty: item.Qty})
	}
	return items
}

func fieldIndex(collection string, i int, field string) string {
	return collection + "[" + strconv.Itoa(i) + "]." + field
}
