package models

import "time"

type User struct {
	ID                uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Username          string    `gorm:"size:20;not null;index"        json:"username"`
	Email             string    `gorm:"size:50;not null;uniqueIndex"  json:"email"`
	EncryptedPassword []byte    `gorm:"not null"                      json:"-"`
	Disabled          bool      `gorm:"not null;default:false"        json:"disabled"`
	IsAdmin           bool      `gorm:"not null;default:false"        json:"is_admin"`
	WriteDatetime     time.Time `gorm:"not null"                      json:"write_datetime"`
	CreationDatetime  time.Time `gorm:"not null"                      json:"creation_datetime"`
}

func (User) TableName() string { return "users" }

// ToDo references its owner through UserID only. Owner exists so the
// migration emits the foreign key; it is never preloaded.
type ToDo struct {
	ID                 uint       `gorm:"primaryKey;autoIncrement"  json:"id"`
	UserID             uint       `gorm:"not null;index"            json:"user_id"`
	Owner              *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Description        string     `gorm:"size:100;not null"         json:"description"`
	Done               bool       `gorm:"not null;default:false"    json:"done"`
	IsFavorite         bool       `gorm:"not null;default:false"    json:"is_favorite"`
	ReminderDatetime   *time.Time `json:"reminder_datetime"`
	ExpirationDatetime *time.Time `json:"expiration_datetime"`
	WriteDatetime      time.Time  `gorm:"not null"                  json:"write_datetime"`
	CreationDatetime   time.Time  `gorm:"not null"                  json:"creation_datetime"`
}

func (ToDo) TableName() string { return "todos" }

func All() []any {
	return []any{&User{}, &ToDo{}}
}
