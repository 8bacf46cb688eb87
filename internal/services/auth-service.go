package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/internal/helper"
	"github.com/SundayYogurt/visa_admin/internal/interfaces"
	"github.com/SundayYogurt/visa_admin/internal/session"
)

type AuthService struct {
	api      interfaces.AuthAPI
	sessions *session.Manager
	log      *slog.Logger
}

func NewAuthService(api interfaces.AuthAPI, sessions *session.Manager, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{api: api, sessions: sessions, log: log}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (session.Session, error) {
	input := dto.AdminLogin{Email: email, Password: password}
	if err := helper.ValidateStruct(input); err != nil {
		return session.Session{}, errors.New(helper.FormatValidationErrors(err))
	}

	res, err := s.api.Login(ctx, input.Email, input.Password)
	if err != nil {
		return session.Session{}, fmt.Errorf("login: %w", err)
	}
	if err := s.sessions.Attach(res.AccessToken, input.Email); err != nil {
		return session.Session{}, fmt.Errorf("store session: %w", err)
	}

	current, _ := s.sessions.Current()
	s.log.Info("admin logged in", "email", input.Email)
	return current, nil
}

func (s *AuthService) Logout() error {
	if err := s.sessions.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.log.Info("admin logged out")
	return nil
}
