package registry

import (
	"github.com/pitabwire/frame/data"
)

// User is a registered employee. The base model ID is the 7-character
// user id handed out in conversation.
type User struct {
	data.BaseModel
}

func (User) TableName() string { return "leave_users" }

// Leave is one applied leave. LeaveDate keeps the user's own wording.
type Leave struct {
	data.BaseModel

	UserID    string `gorm:"type:varchar(16);not null;index:idx_leave_user" json:"user_id"`
	LeaveType string `gorm:"type:varchar(64);not null"                      json:"leave_type"`
	LeaveDate string `gorm:"type:varchar(255);not null"                     json:"leave_date"`
}

func (Leave) TableName() string { return "leaves" }
