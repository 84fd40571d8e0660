package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"makelaardij/server/internal/auth"
	"makelaardij/server/internal/database"
	"makelaardij/server/internal/mailer"
	"makelaardij/server/internal/models"
)

const (
	msgResetRequested    = "If your email is registered, you will receive a password reset link"
	msgVerificationAgain = "If your email is registered and not yet verified, you will receive a new verification link"
)

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	required := []struct{ field, value string }{
		{"username", req.Username},
		{"email", req.Email},
		{"password", req.Password},
	}
	for _, r := range required {
		if r.value == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Missing required field: %s", r.field)})
			return
		}
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	existing, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check username")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
		return
	}
	existing, err = h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check email")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	token := uuid.NewString()
	user := &models.User{
		Username:                req.Username,
		Email:                   req.Email,
		PasswordHash:            hash,
		FirstName:               strings.TrimSpace(req.FirstName),
		LastName:                strings.TrimSpace(req.LastName),
		Phone:                   strings.TrimSpace(req.Phone),
		IsActive:                true,
		VerificationToken:       &token,
		NotificationPreferences: models.DefaultNotificationPreferences(),
	}
	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
			return
		}
		h.logger.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	h.sendVerification(c, user, token)

	h.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully. Please check your email to verify your account.",
		"user":    user,
	})
}

func (h *Handler) sendVerification(c *gin.Context, u *models.User, token string) bool {
	msg, err := mailer.VerificationEmail(*u, h.config.Server.FrontendURL, token)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build verification email")
		return false
	}
	return h.send(c, msg)
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	var req tokenRequest
	_ = c.ShouldBindJSON(&req)
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Verification token is required"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByVerificationToken(ctx, req.Token)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up verification token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify email"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid verification token"})
		return
	}

	if err := h.users.MarkVerified(ctx, user.ID); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to verify email")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify email"})
		return
	}
	user.IsVerified = true
	user.VerificationToken = nil

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully",
		"user":    user,
	})
}

// ResendVerification issues a new verification token. The response never reveals
// whether the address is registered.
func (h *Handler) ResendVerification(c *gin.Context) {
	var req emailRequest
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resend verification"})
		return
	}

	if user != nil && !user.IsVerified {
		token := uuid.NewString()
		if err := h.users.SetVerificationToken(ctx, user.ID, token); err != nil {
			h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to store verification token")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resend verification"})
			return
		}
		h.sendVerification(c, user, token)
	}

	c.JSON(http.StatusOK, gin.H{"message": msgVerificationAgain})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !user.IsVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Please verify your email before logging in"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Your account has been deactivated"})
		return
	}

	pair, err := h.tokens.Pair(user)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	if err := h.users.TouchLogin(ctx, user.ID, h.now()); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Login successful",
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_at":    pair.ExpiresAt,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// Refresh exchanges a refresh token, sent as bearer token or in the body, for a
// new access token
func (h *Handler) Refresh(c *gin.Context) {
	raw := bearer(c)
	if raw == "" {
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		raw = strings.TrimSpace(req.RefreshToken)
	}
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
		return
	}

	claims, err := h.tokens.Parse(raw, auth.KindRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByID(ctx, claims.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh token"})
		return
	}
	if user == nil || user.TokenVersion != claims.TokenVersion {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Your account has been deactivated"})
		return
	}

	access, exp, err := h.tokens.Sign(user, auth.KindAccess)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to sign access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_at":   exp,
	})
}

// Logout revokes every token issued to the user so far
func (h *Handler) Logout(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if err := h.users.BumpTokenVersion(c.Request.Context(), claims.UserID); err != nil {
		h.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to revoke tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// ForgotPassword always answers with the same message so that registered
// addresses cannot be discovered
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"message": msgResetRequested})
		return
	}

	token := uuid.NewString()
	if err := h.users.SetResetToken(ctx, user.ID, token, h.now().Add(mailer.ResetTokenValidity)); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to store reset token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}

	msg, err := mailer.PasswordResetEmail(*user, h.config.Server.FrontendURL, token)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build password reset email")
	} else {
		h.send(c, msg)
	}

	c.JSON(http.StatusOK, gin.H{"message": msgResetRequested})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.Token) == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token and new password are required"})
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByValidResetToken(ctx, strings.TrimSpace(req.Token), h.now())
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up reset token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}
	if user == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}
	if err := h.users.ResetPassword(ctx, user.ID, hash); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to reset password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
}

func (h *Handler) GetProfile(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to get profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if patch.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	claims := auth.MustGetClaims(c)
	user, err := h.users.UpdateProfile(c.Request.Context(), claims.UserID, patch)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to update profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ChangePassword replaces the password and returns a fresh token pair, since the
// change revokes every token issued before it
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	_ = c.ShouldBindJSON(&req)
	if req.CurrentPassword == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password and new password are required"})
		return
	}

	claims := auth.MustGetClaims(c)
	ctx := c.Request.Context()
	user, err := h.users.GetByID(ctx, claims.UserID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to get user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}
	if err := h.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to change password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}
	user.TokenVersion++

	resp := gin.H{"message": "Password changed successfully"}
	if pair, err := h.tokens.Pair(user); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to issue tokens")
	} else {
		resp["access_token"] = pair.AccessToken
		resp["refresh_token"] = pair.RefreshToken
		resp["token_type"] = pair.TokenType
		resp["expires_at"] = pair.ExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}
