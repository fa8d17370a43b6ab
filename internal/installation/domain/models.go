package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// UnknownIPAddress is stored when neither the reporter nor the proxy supplied an address.
const UnknownIPAddress = "0.0.0.0"

type Installation struct {
	ID          snowflake.ID   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	AppName     string         `gorm:"not null;index" json:"appName"`
	AppVersion  string         `gorm:"not null" json:"appVersion"`
	IPAddress   string         `gorm:"column:ip_address;not null" json:"ipAddress"`
	PreviousID  *string        `gorm:"column:previous_id" json:"previousId,omitempty"`
	Data        datatypes.JSON `json:"data,omitempty"`
	CountryCode *string        `gorm:"index" json:"countryCode,omitempty"`
	Region      *string        `json:"region,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updatedAt"`
}

// GeoUpdate writes country and region of one installation together.
type GeoUpdate struct {
	ID          snowflake.ID
	CountryCode string
	Region      string
	UpdatedAt   time.Time
}

type ListFilter struct {
	AppName     string
	CountryCode string
}
