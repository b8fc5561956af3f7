package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"

	"campchat/backend/internal/models"
	"campchat/backend/pkg/apperrors"
)

// AuthService видає та перевіряє JWT (HS256, claim user_id).
type AuthService struct {
	secret    []byte
	expiresIn time.Duration
}

func NewAuthService(secret string, expiresIn time.Duration) *AuthService {
	if expiresIn == 0 {
		expiresIn = 72 * time.Hour
	}
	return &AuthService{secret: []byte(secret), expiresIn: expiresIn}
}

func (a *AuthService) GenerateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(a.expiresIn).Unix(),
		"iss":     "campchat-service", // Видавець
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// VerifyToken реалізує chathub.Authenticator.
func (a *AuthService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.ErrNotAuthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperrors.ErrNotAuthenticated
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", apperrors.ErrNotAuthenticated
	}
	return userID, nil
}

// RequireAuth — gin middleware: Bearer-токен обов'язковий.
func (h *Handler) RequireAuth(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		respondErr(c, apperrors.ErrNotAuthenticated)
		c.Abort()
		return
	}

	userID, err := h.Auth.VerifyToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		respondErr(c, err)
		c.Abort()
		return
	}

	c.Set("user_id", userID)
	c.Next()
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
}

// Register створює користувача, одразу видає йому пару ключів і JWT.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("username is required"))
		return
	}

	user := &models.User{Username: req.Username}
	userID, err := h.Store.CreateUser(c.Request.Context(), user)
	if err != nil {
		respondErr(c, err)
		return
	}

	publicKey, err := h.Chat.IssueKeys(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}

	token, err := h.Auth.GenerateToken(userID)
	if err != nil {
		respondErr(c, apperrors.Internal("failed to create token", err))
		return
	}

	respondOK(c, gin.H{"user_id": userID, "token": token, "public_key": publicKey})
}

type tokenRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// IssueToken повторно видає JWT існуючому користувачу.
func (h *Handler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperrors.InvalidInput("user_id is required"))
		return
	}

	if _, err := h.Store.FindUserByID(c.Request.Context(), req.UserID); err != nil {
		respondErr(c, err)
		return
	}

	token, err := h.Auth.GenerateToken(req.UserID)
	if err != nil {
		respondErr(c, apperrors.Internal("failed to create token", err))
		return
	}

	respondOK(c, gin.H{"token": token})
}

// GetPublicKey повертає публічний ключ користувача (для клієнтської
// верифікації, приватні ключі ніколи не покидають сховище).
func (h *Handler) GetPublicKey(c *gin.Context) {
	publicKey, err := h.Chat.PublicKey(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"user_id": c.Param("id"), "public_key": publicKey})
}
