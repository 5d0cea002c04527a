package models

import "time"

// Roles accepted for User.Role.
const (
	RoleAdmin    = "admin"
	RoleAllRead  = "allread"
	RoleOnlyEdit = "onlyedit"
	RoleOnlyRead = "onlyread"
)

// Site statuses.
const (
	SiteStatusActive = "active"
	SiteStatusPaused = "paused"
)

type Site struct {
	ID     string `json:"id" example:"f4f6a1de-8f2a-4a1b-9c64-2f2d7a9b1c11"`
	Domain string `json:"domain" example:"example.com"`

	CheckHTTP  bool `json:"check_http" example:"true"`
	CheckHTTPS bool `json:"check_https" example:"true"`
	CheckTLS   bool `json:"check_tls" example:"true"`
	CheckWhois bool `json:"check_whois" example:"true"`

	HTTPIntervalSeconds int `json:"http_interval_seconds" example:"300"`
	TLSIntervalDays     int `json:"tls_interval_days" example:"1"`
	WhoisIntervalDays   int `json:"whois_interval_days" example:"1"`

	FailureThreshold    int `json:"failure_threshold" example:"3"`
	ConsecutiveFailures int `json:"consecutive_failures" example:"0"`

	LastHTTPCheck  *time.Time `json:"last_http_check,omitempty"`
	LastTLSCheck   *time.Time `json:"last_tls_check,omitempty"`
	LastWhoisCheck *time.Time `json:"last_whois_check,omitempty"`

	Status   string   `json:"status" example:"active"`
	GroupIDs []string `json:"group_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckResult is one persisted outcome of a check cycle for a site.
// Nullable columns map to pointer fields: nil means the signal has never
// been recorded for this site.
type CheckResult struct {
	ID             string    `json:"id" example:"7f9f4ad0-62d5-4d29-95a0-12a3d1a7e902"`
	SiteID         string    `json:"site_id" example:"f4f6a1de-8f2a-4a1b-9c64-2f2d7a9b1c11"`
	Healthy        bool      `json:"healthy" example:"true"`
	HTTPStatus     *int      `json:"http_status,omitempty" example:"200"`
	TLSDaysLeft    *int      `json:"tls_days_left,omitempty" example:"73"`
	DomainDaysLeft *int      `json:"domain_days_left,omitempty" example:"245"`
	ErrorDetails   string    `json:"error_details,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}

type AlertConfig struct {
	ID               string    `json:"id"`
	TelegramBotToken string    `json:"telegram_bot_token,omitempty" example:"123456:ABC-DEF1234ghIkl"`
	TelegramChatID   string    `json:"telegram_chat_id,omitempty" example:"-1001234567890:42"`
	TLSAlertDays     int       `json:"tls_alert_days" example:"14"`
	DomainAlertDays  int       `json:"domain_alert_days" example:"30"`
	Enabled          bool      `json:"enabled" example:"false"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type RetentionConfig struct {
	ID                       string `json:"id"`
	AuditLogEnabled          bool   `json:"audit_log_enabled" example:"false"`
	AuditLogRetentionDays    int    `json:"audit_log_retention_days" example:"30"`
	CheckResultEnabled       bool   `json:"check_result_enabled" example:"false"`
	CheckResultRetentionDays int    `json:"check_result_retention_days" example:"30"`
}

type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username" example:"admin"`
	PasswordHash     string    `json:"-"`
	Role             string    `json:"role" example:"onlyread"`
	AssignedGroupIDs []string  `json:"assigned_group_ids"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" example:"production"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AuditEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username" example:"admin"`
	Action    string    `json:"action" example:"site.create"`
	Target    string    `json:"target,omitempty" example:"example.com"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidRole reports whether role is one of the known role names.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAllRead, RoleOnlyEdit, RoleOnlyRead:
		return true
	}
	return false
}
