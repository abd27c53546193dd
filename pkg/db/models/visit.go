package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dopeevents/dopeevents-backend/pkg/enums"
)

// Visit is a tracked visitor interaction used by the analytics module.
type Visit struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SessionKey string          `gorm:"column:session_key;not null;index:idx_visits_session_time"`
	Path       string          `gorm:"column:path;not null;index"`
	Type       enums.VisitType `gorm:"column:type;not null;default:'page_view';index"`
	EventID    *uuid.UUID      `gorm:"column:event_id;type:uuid;index"`
	IPAddress  string          `gorm:"column:ip_address"`
	UserAgent  string          `gorm:"column:user_agent"`
	Referrer   string          `gorm:"column:referrer"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime;index:idx_visits_session_time"`
}
