package auth

import (
	"net/mail"
	"net/url"
	"strings"

	"github.com/hitoshi/kondate/internal/model"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 5

// RegisterForm は検証済みの登録フォーム入力。
type RegisterForm struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginForm は検証済みのログインフォーム入力。
type LoginForm struct {
	Email    string
	Password string
}

// ParseRegisterForm はフォーム入力を境界で一度だけ検証し、
// 型付きの結果かフィールド単位のエラーマップを返す。
// エラーがある場合、ストアには一切アクセスしない前提で呼び出すこと。
func ParseRegisterForm(values url.Values) (RegisterForm, model.FieldErrors) {
	errs := model.FieldErrors{}

	email := strings.TrimSpace(values.Get("email"))
	validateEmail(email, errs)

	password := values.Get("password")
	validatePassword(password, errs)

	firstName := strings.TrimSpace(values.Get("firstName"))
	if firstName == "" {
		errs["firstName"] = "First name must be set."
	}

	lastName := strings.TrimSpace(values.Get("lastName"))
	if lastName == "" {
		errs["lastName"] = "Last name must be set."
	}

	if len(errs) > 0 {
		return RegisterForm{}, errs
	}

	return RegisterForm{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	}, nil
}

// ParseLoginForm はログインフォーム入力を検証する。
func ParseLoginForm(values url.Values) (LoginForm, model.FieldErrors) {
	errs := model.FieldErrors{}

	email := strings.TrimSpace(values.Get("email"))
	validateEmail(email, errs)

	password := values.Get("password")
	validatePassword(password, errs)

	if len(errs) > 0 {
		return LoginForm{}, errs
	}

	return LoginForm{Email: email, Password: password}, nil
}

// ParseEmailForm は認証入口のメールアドレス入力を検証する。
func ParseEmailForm(values url.Values) (string, model.FieldErrors) {
	errs := model.FieldErrors{}

	email := strings.TrimSpace(values.Get("email"))
	validateEmail(email, errs)

	if len(errs) > 0 {
		return "", errs
	}
	return email, nil
}

func validateEmail(email string, errs model.FieldErrors) {
	if email == "" {
		errs["email"] = "E-mail must be set"
		return
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs["email"] = "Email does not match"
	}
}

func validatePassword(password string, errs model.FieldErrors) {
	if password == "" {
		errs["password"] = "Password must be set."
		return
	}
	if len(password) < minPasswordLength {
		errs["password"] = "Password must be more than 5 characters long"
	}
}
