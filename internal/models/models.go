package models

import "time"

type User struct {
	ID            int64
	Email         string
	PassHash      []byte
	HasPassword   bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// * UserUpdate описывает частичное обновление пользователя, nil поля не трогаются
type UserUpdate struct {
	Email         *string
	PassHash      []byte
	EmailVerified *bool
}

func (u UserUpdate) IsEmpty() bool {
	return u.Email == nil && u.PassHash == nil && u.EmailVerified == nil
}

type OperationType string

const (
	OperationSignUp           OperationType = "su"
	OperationSignUpConfirm    OperationType = "sc"
	OperationPasswordRecovery OperationType = "pr"
	OperationPasswordChange   OperationType = "pc"
	OperationEmailChange      OperationType = "ec"
	OperationEmailSign        OperationType = "es"
)

func (t OperationType) String() string {
	switch t {
	case OperationSignUp:
		return "sign_up"
	case OperationSignUpConfirm:
		return "sign_up_confirm"
	case OperationPasswordRecovery:
		return "password_recovery"
	case OperationPasswordChange:
		return "password_change"
	case OperationEmailChange:
		return "email_change"
	case OperationEmailSign:
		return "email_sign"
	}

	return string(t)
}

type OperationData struct {
	Password string `json:"password,omitempty"`
	Email    string `json:"email,omitempty"`
}

type UserOperation struct {
	ID        int64
	UserID    int64
	Type      OperationType
	Token     string
	TTL       time.Time
	Data      *OperationData
	CreatedAt time.Time
	UpdatedAt time.Time
}

// * IsExpired проверяет, истек ли срок действия операции
func (o UserOperation) IsExpired(now time.Time) bool {
	return o.TTL.Before(now)
}

type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SessionPayload struct {
	UserID int64 `json:"user_id"`
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

const (
	TemplateWithButton = "with_button"
	TemplateSimple     = "simple"
)

type EmailMessage struct {
	To       string       `json:"to"`
	Subject  string       `json:"subject"`
	Template string       `json:"template"`
	Payload  EmailPayload `json:"payload"`
}

type EmailPayload struct {
	Body   string `json:"body"`
	URL    string `json:"url,omitempty"`
	Button string `json:"button,omitempty"`
}
