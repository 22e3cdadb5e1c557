package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/olzhasov/ticketbot/internal/config"
	"github.com/olzhasov/ticketbot/internal/utils"
)

// AuthHandler issues admin access tokens for the web panel.  There are
// no self-served accounts: admins share one panel password and are
// whitelisted by Telegram id in the configuration.
type AuthHandler struct {
	Cfg config.Config
}

// NewAuthHandler constructs a new AuthHandler.
func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{Cfg: cfg}
}

// Login handles POST /v1/auth/login.  The body carries the admin's
// Telegram id and the panel password; on success it returns a Bearer
// token for the admin routes.  The same 401 is returned for a wrong
// password and an unknown id so the endpoint does not leak which ids
// are whitelisted.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		TgID     int64  `json:"tg_id"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !h.Cfg.IsAdmin(body.TgID) || !utils.VerifyPassword(h.Cfg.AdminPasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	token, err := utils.NewAccessToken(h.Cfg.JWTSecret, body.TgID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token.Token,
		"expires_at":   token.Exp,
	})
}
