package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/retailpos-api/internal/domain/enum"
	"gorm.io/gorm"
)

// LabelPrintLog records one label print invocation
type LabelPrintLog struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TerminalID   string            `gorm:"size:100;index" json:"terminal_id"`
	BillID       string            `gorm:"size:100;index" json:"bill_id,omitempty"`
	Requested    int               `gorm:"not null" json:"requested"`
	Succeeded    int               `gorm:"not null" json:"succeeded"`
	Failed       int               `gorm:"not null" json:"failed"`
	Rows         int               `gorm:"not null" json:"rows"`
	Channel      enum.PrintChannel `gorm:"type:smallint;default:0" json:"channel"`
	DocumentName string            `gorm:"size:100" json:"document_name,omitempty"`
	Error        string            `gorm:"type:text" json:"error,omitempty"`
	CreatedAt    time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new print log
func (l *LabelPrintLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the LabelPrintLog model
func (LabelPrintLog) TableName() string {
	return "label_print_logs"
}
