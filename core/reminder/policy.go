package reminder

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/proclass/backend/core"
)

var ErrPolicyNotFound = errors.New("reminder policy not found")

// Template placeholder tokens.
const (
	TokenStudent = "{aluno}"
	TokenAmount  = "{valor}"
	TokenDueDay  = "{vencimento}"
)

// Policy holds a teacher's reminder configuration, channel credentials included.
type Policy struct {
	TeacherID       string    `json:"teacher_id"`
	Enabled         bool      `json:"enabled"`
	AutoSendEnabled bool      `json:"auto_send_enabled"`
	// LeadDays is how many days before the due day a reminder goes out when
	// the payment is not yet overdue.
	LeadDays        int       `json:"lead_days"`
	MessageTemplate string    `json:"message_template"`
	AccountSID      string    `json:"account_sid"`
	AuthToken       string    `json:"-"`
	FromNumber      string    `json:"from_number"`
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

func (p *Policy) HasCredentials() bool {
	return p.AccountSID != "" && p.AuthToken != "" && p.FromNumber != ""
}

// MaskedAuthToken never exposes the stored secret; only its last 4 characters.
func (p *Policy) MaskedAuthToken() string {
	if p.AuthToken == "" {
		return ""
	}
	if len(p.AuthToken) <= 4 {
		return strings.Repeat("•", len(p.AuthToken))
	}
	return strings.Repeat("•", 8) + p.AuthToken[len(p.AuthToken)-4:]
}

// UpdatePolicy defines what information may be provided to modify a teacher's Policy.
// An empty AuthToken keeps the stored secret, so clients can echo back the
// masked placeholder without wiping credentials.
type UpdatePolicy struct {
	Enabled         *bool  `json:"enabled"`
	AutoSendEnabled *bool  `json:"auto_send_enabled"`
	LeadDays        *int   `json:"lead_days" validate:"omitempty,min=0,max=28"`
	MessageTemplate string `json:"message_template"`
	AccountSID      string `json:"account_sid"`
	AuthToken       string `json:"auth_token"`
	FromNumber      string `json:"from_number"`
}

func (up *UpdatePolicy) Validate() error {
	up.MessageTemplate = core.CleanString(up.MessageTemplate)
	up.AccountSID = core.CleanString(up.AccountSID)
	up.AuthToken = core.CleanString(up.AuthToken)
	up.FromNumber = core.CleanString(up.FromNumber)
	return core.Validate.Struct(up)
}

// Merge applies the update on top of orig and returns the resulting Policy.
func (up *UpdatePolicy) Merge(orig Policy) Policy {
	pol := orig
	if up.Enabled != nil {
		pol.Enabled = *up.Enabled
	}
	if up.AutoSendEnabled != nil {
		pol.AutoSendEnabled = *up.AutoSendEnabled
	}
	if up.LeadDays != nil {
		pol.LeadDays = *up.LeadDays
	}
	if up.MessageTemplate != "" {
		pol.MessageTemplate = up.MessageTemplate
	}
	if up.AccountSID != "" {
		pol.AccountSID = up.AccountSID
	}
	if up.AuthToken != "" {
		pol.AuthToken = up.AuthToken
	}
	if up.FromNumber != "" {
		pol.FromNumber = up.FromNumber
	}
	pol.UpdatedAt = time.Now().UTC()
	return pol
}

// PolicyRepository persists per-teacher reminder configuration.
type PolicyRepository interface {
	// GetPolicyByTeacher returns ErrPolicyNotFound when the teacher never
	// configured reminders.
	GetPolicyByTeacher(ctx context.Context, teacherID string) (Policy, error)
	UpsertPolicy(ctx context.Context, pol Policy) (Policy, error)
}
