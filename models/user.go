package models

import "time"

type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"not null;uniqueIndex;size:150"`
	PasswordHash string `json:"-" gorm:"not null"`
	PlanID       *uint  `json:"-" gorm:"index"`
	Plan         *Plan  `json:"plan,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	IsStaff      bool   `json:"is_staff" gorm:"not null;default:false"`
	IsSuperuser  bool   `json:"is_superuser" gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EffectivePlan returns the assigned plan or NoPlan.
func (u *User) EffectivePlan() Plan {
	if u == nil || u.Plan == nil {
		return NoPlan
	}
	return *u.Plan
}

// AuthToken is the session credential handed out by the token endpoint.
type AuthToken struct {
	Key       string    `json:"token" gorm:"primaryKey;size:40"`
	UserID    uint      `json:"-" gorm:"not null;uniqueIndex"`
	User      User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created"`
}
