// utils/auth.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ascendra/ascendra_backend/middleware"
	"golang.org/x/crypto/bcrypt"
)

// GenerateToken mints an HMAC-signed JWT for a member or admin session.
func GenerateToken(memberID primitive.ObjectID, username, userType string) (string, error) {
	claims := &middleware.JwtCustomClaims{
		MemberID: memberID.Hex(),
		Username: username,
		UserType: userType,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(middleware.GetJWTSecret()))
}

// CheckPassword compares a bcrypt hash with a plaintext candidate.
func CheckPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// GetMemberIDFromToken extracts the authenticated member id from the
// request's JWT claims.
func GetMemberIDFromToken(c echo.Context) (primitive.ObjectID, error) {
	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return primitive.NilObjectID, errors.New("no token claims in context")
	}
	return primitive.ObjectIDFromHex(claims.MemberID)
}
