package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	hmw "github.com/nkiryanov/savingapp/internal/handlers/middleware"
	"github.com/nkiryanov/savingapp/internal/logger"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/service/account"
	"github.com/nkiryanov/savingapp/internal/service/dashboard"
	"github.com/nkiryanov/savingapp/internal/service/ledger"
	"github.com/nkiryanov/savingapp/internal/service/user"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Config struct {
	// Origins allowed by CORS, '*' allows any
	AllowedOrigins []string
}

type Services struct {
	Auth         authService
	Users        userService
	Accounts     accountService
	Access       accessChecker
	Poster       transactionPoster
	Transactions transactionQuery
	Dashboard    dashboardService
}

func NewRouter(cfg Config, s Services, l logger.Logger) http.Handler {
	withAuth := hmw.AuthMiddleware(s.Auth)
	role := func(h http.Handler, roles ...models.Role) http.Handler {
		return chain(h, withAuth, hmw.RequireRole(roles...))
	}
	staff := func(h http.Handler) http.Handler { return role(h, models.RoleStaff, models.RoleAdmin) }
	admin := func(h http.Handler) http.Handler { return role(h, models.RoleAdmin) }
	nasabah := func(h http.Handler) http.Handler { return role(h, models.RoleNasabah) }

	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/login", handleLogin(s.Auth, l))
	mux.Handle("POST /api/auth/refresh", handleRefresh(s.Auth, l))
	mux.Handle("POST /api/auth/logout", handleLogout(s.Auth, l))

	mux.Handle("GET /api/profile/me", withAuth(handleProfileMe()))
	mux.Handle("PUT /api/profile/update", withAuth(handleProfileUpdate(s.Users, l)))
	mux.Handle("PATCH /api/profile/change-password", withAuth(handleChangePassword(s.Users, l)))

	mux.Handle("POST /api/admin/nasabah/create", admin(handleCreateNasabah(s.Users, l)))
	mux.Handle("GET /api/admin/nasabah/list", admin(handleListNasabah(s.Users, l)))
	mux.Handle("GET /api/admin/nasabah/{userId}", admin(handleGetNasabah(s.Users, l)))
	mux.Handle("PUT /api/admin/nasabah/{userId}/update", admin(handleUpdateNasabah(s.Users, l)))
	mux.Handle("DELETE /api/admin/nasabah/{userId}", admin(handleDeleteNasabah(s.Users, l)))
	mux.Handle("GET /api/admin/dashboard", staff(handleAdminDashboard(s.Dashboard, l)))

	mux.Handle("POST /api/staff/account/create", staff(handleCreateAccount(s.Accounts, l)))
	mux.Handle("GET /api/staff/account/list", staff(handleListAccounts(s.Accounts, l)))
	mux.Handle("PATCH /api/staff/account/{accountCode}/status", staff(handleAccountStatus(s.Accounts, l)))
	mux.Handle("DELETE /api/staff/account/{accountCode}", staff(handleDeleteAccount(s.Accounts, l)))

	mux.Handle("GET /api/nasabah/accounts", nasabah(handleOwnAccounts(s.Accounts, l)))
	mux.Handle("GET /api/nasabah/dashboard", nasabah(handleNasabahDashboard(s.Dashboard, l)))

	mux.Handle("POST /api/transactions", withAuth(handleCreateTransaction(s.Access, s.Poster, l)))
	mux.Handle("GET /api/transactions", withAuth(handleListTransactions(s.Access, s.Transactions, l)))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return chain(mux,
		middleware.RequestID,
		middleware.RealIP,
		hmw.LoggerMiddleware(l),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}),
	)
}

type authService interface {
	// Login user with email and password
	// Has to return apperrors.ErrInvalidCredentials if email or password is wrong
	Login(ctx context.Context, email string, password string) (models.TokenPair, models.User, error)

	// Exchange refresh token for a new pair
	// Used token: apperrors.ErrRefreshTokenIsUsed, expired: apperrors.ErrRefreshTokenExpired
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	Logout(ctx context.Context, refresh string) error

	// Get request and return user if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	CreateNasabah(ctx context.Context, p user.CreateParams) (models.User, error)
	GetNasabah(ctx context.Context, id uuid.UUID) (models.User, error)
	ListNasabah(ctx context.Context, p user.ListParams) (models.Page[models.User], error)
	UpdateNasabah(ctx context.Context, id uuid.UUID, p user.ProfileParams) (models.User, error)
	DeleteNasabah(ctx context.Context, id uuid.UUID) error
	UpdateProfile(ctx context.Context, id uuid.UUID, p user.ProfileParams) (models.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, oldPassword string, newPassword string) error
}

type accountService interface {
	Create(ctx context.Context, userID uuid.UUID) (models.Account, error)
	List(ctx context.Context, p account.ListParams) (models.Page[models.Account], error)
	ListOwn(ctx context.Context, userID uuid.UUID, page models.PageRequest) (models.Page[models.Account], error)
	SetStatus(ctx context.Context, code string, active bool) (models.Account, error)
	Delete(ctx context.Context, code string) error
}

// The only place deciding whether user may act on the account
type accessChecker interface {
	CheckAccount(ctx context.Context, user models.User, code string) (models.Account, error)
}

type transactionPoster interface {
	Post(ctx context.Context, p ledger.PostParams) (models.Transaction, error)
}

type transactionQuery interface {
	List(ctx context.Context, f models.TransactionFilter) (models.Page[models.Transaction], error)
}

type dashboardService interface {
	Admin(ctx context.Context) (dashboard.AdminDashboard, error)
	Nasabah(ctx context.Context, userID uuid.UUID, p dashboard.NasabahParams) (dashboard.NasabahDashboard, error)
}

// Seconds left until t, never negative
func secondsUntil(t time.Time) int64 {
	s := int64(time.Until(t).Seconds())
	return max(s, 0)
}
