package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/hitoshi/storefront/internal/catalog"
	"github.com/hitoshi/storefront/internal/model"
)

// CatalogAuthClient は認証サービスが必要とするカタログAPIクライアントのインターフェース。
// catalog.Clientの部分集合として定義する。
type CatalogAuthClient interface {
	// Login は外部APIに認証を委譲し、受理された場合にトークンを返す。
	Login(ctx context.Context, username, password string) (string, error)
	// CreateUser は外部APIにユーザー登録をシミュレートさせ、発行されたIDを返す。
	CreateUser(ctx context.Context, input catalog.RegisterInput) (int, error)
}

// Metrics は認証操作のメトリクス記録インターフェース。
type Metrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionSecret string // 登録時トークンの署名鍵
	SessionMaxAge int    // セッション有効期間（秒）
}

// RegisterInput はユーザー登録フォームの入力を表す。
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	Firstname string
	Lastname  string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	client  CatalogAuthClient
	logger  *slog.Logger
	metrics Metrics
	config  ServiceConfig
}

// NewService はServiceを生成する。
func NewService(client CatalogAuthClient, logger *slog.Logger, metrics Metrics, config ServiceConfig) *Service {
	return &Service{
		client:  client,
		logger:  logger,
		metrics: metrics,
		config:  config,
	}
}

// Login は外部デモAPIへのログインを試行し、成功時に認証情報を返す。
// デモAPIはユーザー情報を返さないため、ユーザー名から表示用のデモユーザーを導出する。
// 失敗時は原因を区別しない固定メッセージのエラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.Credentials, error) {
	token, err := s.client.Login(ctx, username, password)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordLoginFailure()
		}
		s.logger.Warn("login rejected",
			slog.String("username", username),
		)
		return nil, model.NewAuthFailedError()
	}

	user := demoUser(username)

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
	s.logger.Info("user logged in",
		slog.String("username", username),
		slog.Int("user_id", user.ID),
	)

	return &model.Credentials{User: user, Token: token}, nil
}

// Register は外部デモAPIへのユーザー登録を試行し、成功時に認証情報を返す。
// デモAPIは登録を永続化しないため、トークンはローカルで署名したJWTを発行する。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.Credentials, error) {
	id, err := s.client.CreateUser(ctx, catalog.RegisterInput{
		Email:    input.Email,
		Username: input.Username,
		Password: input.Password,
		Name: model.Name{
			Firstname: input.Firstname,
			Lastname:  input.Lastname,
		},
	})
	if err != nil {
		s.logger.Error("registration failed",
			slog.String("username", input.Username),
			slog.String("error", err.Error()),
		)
		return nil, model.NewRegistrationFailedError()
	}

	// 外部APIがIDを返さない場合は時刻ベースのIDで代替する
	if id == 0 {
		id = int(time.Now().UnixMilli())
	}

	user := &model.User{
		ID:       id,
		Email:    input.Email,
		Username: input.Username,
		Name: model.Name{
			Firstname: input.Firstname,
			Lastname:  input.Lastname,
		},
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("username", input.Username),
		slog.Int("user_id", user.ID),
	)

	return &model.Credentials{User: user, Token: token}, nil
}

// mintToken は登録ユーザー向けのセッショントークンをHS256署名のJWTとして発行する。
func (s *Service) mintToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId":   user.ID,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(time.Duration(s.config.SessionMaxAge) * time.Second).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SessionSecret))
}

// demoUser はログインユーザー名から表示用のデモユーザーを導出する。
// デモAPIのログインレスポンスにはトークンしか含まれないための代替措置。
func demoUser(username string) *model.User {
	firstname := username
	if firstname != "" {
		firstname = strings.ToUpper(firstname[:1]) + firstname[1:]
	}
	return &model.User{
		ID:       1,
		Email:    username + "@example.com",
		Username: username,
		Name: model.Name{
			Firstname: firstname,
			Lastname:  "User",
		},
	}
}
