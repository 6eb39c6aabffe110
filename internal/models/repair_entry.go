package models

import (
	"time"

	"gorm.io/gorm"
)

// RepairView names the denormalised view a failed step left inconsistent.
type RepairView string

const (
	ViewUserFriends        RepairView = "user_friends"
	ViewUserFriendRequests RepairView = "user_friend_requests"
	ViewUserNotifications  RepairView = "user_notifications"
	ViewUserReactions      RepairView = "user_reactions"
	ViewReactable          RepairView = "reactable"
)

// RepairEntry records a partially failed multi-step operation so the
// reconcile tool can rebuild the affected view later.
type RepairEntry struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Operation   string         `gorm:"size:64;not null;index" json:"operation"`
	View        RepairView     `gorm:"size:32;not null;index" json:"view"`
	SubjectKind string         `gorm:"size:16" json:"subjectKind,omitempty"`
	SubjectID   string         `gorm:"size:64;not null" json:"subjectId"`
	Step        string         `gorm:"size:128" json:"step"`
	Error       string         `gorm:"type:text" json:"error"`
	ResolvedAt  *time.Time     `gorm:"index" json:"resolvedAt,omitempty"`
	Resolution  string         `gorm:"type:text" json:"resolution,omitempty"`
}

func (RepairEntry) TableName() string { return "repair_entries" }
