package helper

import (
	"errors"
	"strings"
	"time"

	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Auth struct {
	Secret string
	TTL    time.Duration
	now    func() time.Time
}

func SetupAuth(secret string, ttl time.Duration) Auth {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return Auth{Secret: secret, TTL: ttl, now: time.Now}
}

func (a Auth) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}

func (a Auth) GenerateToken(adminID uint, email string) (string, error) {
	if adminID == 0 || email == "" {
		return "", errors.New("required inputs are missing to generate token")
	}

	now := a.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin_id": adminID,
		"email":    email,
		"iat":      now.Unix(),
		"exp":      now.Add(a.TTL).Unix(),
	})

	tokenStr, err := token.SignedString([]byte(a.Secret))
	if err != nil {
		return "", errors.New("unable to sign the token")
	}
	return tokenStr, nil
}

// VerifyToken accepts "Bearer <token>" or a bare token.
func (a Auth) VerifyToken(tokenString string) (dto.AuthResponse, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return dto.AuthResponse{}, errors.New("missing token")
	}
	if strings.HasPrefix(strings.ToLower(tokenString), "bearer ") {
		tokenString = strings.TrimSpace(tokenString[len("bearer "):])
		if tokenString == "" {
			return dto.AuthResponse{}, errors.New("invalid token format")
		}
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.Secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(a.clock))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dto.AuthResponse{}, errors.New("token expired")
		}
		return dto.AuthResponse{}, errors.New("token parse error")
	}
	if !token.Valid {
		return dto.AuthResponse{}, errors.New("invalid token claims")
	}

	adminID, _ := claims["admin_id"].(float64)
	email, _ := claims["email"].(string)
	if adminID == 0 || email == "" {
		return dto.AuthResponse{}, errors.New("invalid token claims")
	}
	exp, _ := claims["exp"].(float64)
	iat, _ := claims["iat"].(float64)

	return dto.AuthResponse{
		AdminID: uint(adminID),
		Email:   email,
		Expiry:  exp,
		Iat:     iat,
	}, nil
}

func (a Auth) GetCurrentAdmin(ctx *fiber.Ctx) (dto.AuthResponse, error) {
	claims, ok := ctx.Locals("admin").(dto.AuthResponse)
	if !ok {
		return dto.AuthResponse{}, errors.New("missing auth admin in context")
	}
	return claims, nil
}

func (a Auth) HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password is required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (a Auth) VerifyPassword(plain, hashed string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
