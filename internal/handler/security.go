package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/sgjo/shop-api/internal/domain/user"
)

const userKey = "user"

// requireUser resolves the bearer token to an active account. A token whose
// subject no longer exists is treated as invalid.
func (h *Handler) requireUser(c *gin.Context) {
	token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	if !found || token == "" {
		abort(c, http.StatusUnauthorized, "missing bearer token")
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), token)
	if errors.Is(err, user.ErrNotFound) {
		abort(c, http.StatusUnauthorized, "user not found")
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.Set(userKey, u)
	c.Next()
}

func (h *Handler) requireAdmin(c *gin.Context) {
	if err := h.users.AuthorizeAdmin(currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) *user.User {
	u, _ := c.MustGet(userKey).(*user.User)
	return u
}

type sessionJSON struct {
	AccessToken        string `json:"access_token"`
	TokenType          string `json:"token_type"`
	MustChangePassword bool   `json:"must_change_password"`
	IsAdmin            bool   `json:"is_admin"`
	Username           string `json:"username"`
}

func (h *Handler) startSession(c *gin.Context, username, password string) {
	// Forwarding headers only count when the engine trusts the peer as a proxy.
	s, err := h.users.Login(c.Request.Context(), c.ClientIP(), username, password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionJSON{
		AccessToken:        s.Token,
		TokenType:          "bearer",
		MustChangePassword: s.MustChangePassword,
		IsAdmin:            s.User.IsAdmin,
		Username:           s.User.Username,
	})
}

func (h *Handler) signUp(c *gin.Context) {
	username, password := c.PostForm("username"), c.PostForm("password")
	if _, err := h.users.SignUp(c.Request.Context(), username, password); err != nil {
		fail(c, err)
		return
	}
	h.startSession(c, strings.TrimSpace(username), password)
}

func (h *Handler) login(c *gin.Context) {
	h.startSession(c, strings.TrimSpace(c.PostForm("username")), c.PostForm("password"))
}

func (h *Handler) changePassword(c *gin.Context) {
	if err := h.users.ChangePassword(c.Request.Context(), currentUser(c), c.PostForm("new_password")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ok{OK: true})
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, toUser(*currentUser(c)))
}
