package handlers

import (
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"watchstore/internal/middleware"
	"watchstore/internal/models"
	"watchstore/internal/render"
	"watchstore/internal/session"
	"watchstore/internal/store"
)

// totpIssuer names the shop in authenticator apps.
const totpIssuer = "Watchstore"

// Auth groups sign-in, sign-up and the admin two-factor flow.
type Auth struct {
	*Shell
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(shell *Shell, sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		Shell:     shell,
		sessions:  sessions,
		userStore: userStore,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		if !sess.TwoFADone {
			http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	a.loginForm(w, r, http.StatusOK, "", "")
}

func (a *Auth) loginForm(w http.ResponseWriter, r *http.Request, status int, email, errMsg string) {
	a.pageStatus(w, r, status, "shop/login", &render.PageData{
		Title: "Sign in",
		Data: map[string]any{
			"Email": email,
			"Next":  safeNext(r.FormValue("next"), ""),
			"Error": errMsg,
		},
	})
}

// LoginSubmit checks the credentials and opens a session. Admins continue
// with the two-factor step before reaching the back office.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	user, err := a.userStore.FindByEmail(email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		a.loginForm(w, r, http.StatusInternalServerError, email, "An unexpected error occurred.")
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, password) {
		a.loginForm(w, r, http.StatusUnauthorized, email, "Invalid email or password.")
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, session.NewData(user)); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)

	switch {
	case user.Needs2FASetup():
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
	case user.IsAdmin():
		http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
	default:
		http.Redirect(w, r, safeNext(r.FormValue("next"), "/"), http.StatusSeeOther)
	}
}

// RegisterPage renders the sign-up form.
func (a *Auth) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromCtx(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	a.registerForm(w, r, http.StatusOK, registration{}, nil)
}

func (a *Auth) registerForm(w http.ResponseWriter, r *http.Request, status int, reg registration, errs map[string]string) {
	reg.Password, reg.Confirm = "", ""
	a.pageStatus(w, r, status, "shop/register", &render.PageData{
		Title: "Create an account",
		Data: map[string]any{
			"Form":   reg,
			"Errors": errs,
		},
	})
}

// RegisterSubmit creates a customer account and signs it in.
func (a *Auth) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	reg, err := parseRegistration(r)
	if fields, ok := validationFields(err); ok {
		a.registerForm(w, r, http.StatusUnprocessableEntity, reg, fields)
		return
	}
	if err != nil {
		a.fail(w, r, err, "validate registration failed")
		return
	}

	user, err := a.userStore.Create(reg.Email, reg.Password, reg.FirstName, reg.LastName, models.RoleCustomer)
	if fields, ok := validationFields(err); ok {
		a.registerForm(w, r, http.StatusUnprocessableEntity, reg, fields)
		return
	}
	if err != nil {
		a.fail(w, r, err, "create user failed")
		return
	}
	slog.Info("customer registered", "user_id", user.ID)

	if _, err := a.sessions.Create(r.Context(), w, session.NewData(user)); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout destroys the session and returns to the home page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// qrCode renders the otpauth URL of a secret as a base64 PNG.
func qrCode(email, secret string) (string, error) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return "", fmt.Errorf("decode totp secret: %w", err)
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: email,
		Secret:      raw,
	})
	if err != nil {
		return "", fmt.Errorf("build totp key: %w", err)
	}
	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// TwoFASetupPage generates a TOTP secret and displays the QR code. An
// admin who already enrolled is sent to verification instead, so a
// password alone can never replace the second factor.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPEnabled {
		http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err := a.userStore.SetTOTPSecret(user.ID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.twoFASetupForm(w, r, http.StatusOK, user.Email, key.Secret(), "")
}

func (a *Auth) twoFASetupForm(w http.ResponseWriter, r *http.Request, status int, email, secret, errMsg string) {
	qr, err := qrCode(email, secret)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.renderer.PageStatus(w, r, status, "auth/2fa_setup", &render.PageData{
		Title: "Two-Factor Authentication Setup",
		Data: map[string]any{
			"QRCode": qr,
			"Secret": secret,
			"Error":  errMsg,
		},
	})
}

// TwoFAVerifyPage renders the code entry form, or forwards admins who
// have not enrolled yet to the setup page.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.Needs2FASetup() {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "auth/2fa_verify", &render.PageData{
		Title: "Two-Factor Authentication",
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes authentication.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	if !totp.Validate(r.FormValue("code"), *user.TOTPSecret) {
		slog.Warn("invalid 2fa code", "user_id", user.ID)
		if !user.TOTPEnabled {
			a.twoFASetupForm(w, r, http.StatusUnauthorized, user.Email, *user.TOTPSecret, "Invalid code. Please try again.")
			return
		}
		a.renderer.PageStatus(w, r, http.StatusUnauthorized, "auth/2fa_verify", &render.PageData{
			Title: "Two-Factor Authentication",
			Data:  map[string]any{"Error": "Invalid code. Please try again."},
		})
		return
	}

	// First successful code completes enrolment.
	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
