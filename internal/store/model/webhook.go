package model

import "time"

// Webhook maps an owner to a single callback URL. One registration per
// owner; re-registering replaces the URL.
type Webhook struct {
	Username  string `gorm:"primaryKey;column:username;type:VARCHAR;size:100"`
	OrgID     string `gorm:"primaryKey;column:org_id;type:VARCHAR;size:100"`
	URL       string `gorm:"column:url;type:VARCHAR;size:500;not null"`
	UpdatedAt time.Time
}
