package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/savingapp/internal/logger"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/repository/postgres"
	"github.com/nkiryanov/savingapp/internal/service/access"
	"github.com/nkiryanov/savingapp/internal/service/account"
	"github.com/nkiryanov/savingapp/internal/service/auth"
	"github.com/nkiryanov/savingapp/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/savingapp/internal/service/dashboard"
	"github.com/nkiryanov/savingapp/internal/service/ledger"
	"github.com/nkiryanov/savingapp/internal/service/user"
	"github.com/nkiryanov/savingapp/internal/testutil"
)

type envelope struct {
	Status   string          `json:"status"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Metadata *struct {
		Page  int   `json:"page"`
		Size  int   `json:"size"`
		Total int `json:"total"`
	} `json:"metadata"`
}

type client struct {
	t   *testing.T
	url string
}

// Send JSON request with optional bearer token and decode response envelope
func (c client) do(method string, path string, token string, body string) (int, envelope) {
	c.t.Helper()

	req, err := http.NewRequestWithContext(c.t.Context(), method, c.url+path, strings.NewReader(body))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	var env envelope
	require.NoErrorf(c.t, json.Unmarshal(raw, &env), "response is not an envelope: %s", string(raw))
	return resp.StatusCode, env
}

func (c client) login(email string, password string) string {
	c.t.Helper()

	code, env := c.do(http.MethodPost, "/api/auth/login", "", `{"email": "`+email+`", "password": "`+password+`"}`)
	require.Equalf(c.t, http.StatusOK, code, "login failed: %s", env.Message)

	var tokens tokenResponse
	require.NoError(c.t, json.Unmarshal(env.Data, &tokens))
	return tokens.AccessToken
}

func Test_Router(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	hasher := auth.BcryptHasher{Cost: bcrypt.MinCost}

	// Start server with production services working within db transaction
	// Users: admin, staff and two nasabah. All have password 'password123'
	withServer := func(t *testing.T, fn func(c client, users map[models.Role]models.User, other models.User)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			l := logger.NewNoOpLogger()

			tokens, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Revocation())
			require.NoError(t, err)
			authService, err := auth.NewService(auth.Config{Hasher: hasher}, tokens, storage.User())
			require.NoError(t, err)
			userService := user.NewService(hasher, storage)

			users := make(map[models.Role]models.User)
			for _, role := range []models.Role{models.RoleAdmin, models.RoleStaff, models.RoleNasabah} {
				users[role], err = userService.CreateUser(t.Context(), user.CreateParams{
					FullName: "User " + string(role),
					Email:    string(role) + "@example.com",
					Password: "password123",
					Role:     role,
				})
				require.NoError(t, err)
			}
			other, err := userService.CreateNasabah(t.Context(), user.CreateParams{
				FullName: "Siti Aminah",
				Email:    "siti@example.com",
				Password: "password123",
			})
			require.NoError(t, err)

			router := NewRouter(Config{}, Services{
				Auth:         authService,
				Users:        userService,
				Accounts:     account.NewService(storage, l),
				Access:       access.NewChecker(storage.Account()),
				Poster:       ledger.NewPoster(storage, l),
				Transactions: ledger.NewQuery(storage),
				Dashboard:    dashboard.NewService(storage),
			}, l)

			srv := httptest.NewServer(router)
			defer srv.Close()

			fn(client{t: t, url: srv.URL}, users, other)
		})
	}

	// Open account for the nasabah as staff and return its code
	openAccount := func(c client, staffToken string, owner models.User) string {
		c.t.Helper()

		code, env := c.do(http.MethodPost, "/api/staff/account/create", staffToken, `{"user_id": "`+owner.ID.String()+`"}`)
		require.Equalf(c.t, http.StatusCreated, code, "account not created: %s", env.Message)

		var acc accountResponse
		require.NoError(c.t, json.Unmarshal(env.Data, &acc))
		return acc.AccountCode
	}

	t.Run("login fail", func(t *testing.T) {
		withServer(t, func(c client, _ map[models.Role]models.User, _ models.User) {
			code, env := c.do(http.MethodPost, "/api/auth/login", "", `{"email": "nasabah@example.com", "password": "wrong"}`)

			assert.Equal(t, http.StatusUnauthorized, code)
			assert.Equal(t, "error", env.Status)
			assert.Equal(t, "Invalid email or password", env.Message)
		})
	})

	t.Run("login validation fail", func(t *testing.T) {
		withServer(t, func(c client, _ map[models.Role]models.User, _ models.User) {
			code, env := c.do(http.MethodPost, "/api/auth/login", "", `{"email": "not-an-email"}`)

			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Validation failed", env.Message)
			assert.JSONEq(t, `{"email": "Must be a valid email", "password": "This field is required"}`, string(env.Data))
		})
	})

	t.Run("refresh token is single use", func(t *testing.T) {
		withServer(t, func(c client, _ map[models.Role]models.User, _ models.User) {
			code, env := c.do(http.MethodPost, "/api/auth/login", "", `{"email": "nasabah@example.com", "password": "password123"}`)
			require.Equal(t, http.StatusOK, code)
			var tokens tokenResponse
			require.NoError(t, json.Unmarshal(env.Data, &tokens))
			assert.Equal(t, "Bearer", tokens.TokenType)
			assert.Positive(t, tokens.ExpiresIn)
			require.NotNil(t, tokens.User)
			assert.Equal(t, "nasabah", tokens.User.Role)

			body := `{"refresh_token": "` + tokens.RefreshToken + `"}`
			code, _ = c.do(http.MethodPost, "/api/auth/refresh", "", body)
			require.Equal(t, http.StatusOK, code)

			code, env = c.do(http.MethodPost, "/api/auth/refresh", "", body)
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.Equal(t, "Refresh token has already been used", env.Message)
		})
	})

	t.Run("protected route without token", func(t *testing.T) {
		withServer(t, func(c client, _ map[models.Role]models.User, _ models.User) {
			code, env := c.do(http.MethodGet, "/api/profile/me", "", "")

			assert.Equal(t, http.StatusUnauthorized, code)
			assert.Equal(t, "Unauthorized", env.Message)
		})
	})

	t.Run("profile", func(t *testing.T) {
		withServer(t, func(c client, users map[models.Role]models.User, _ models.User) {
			token := c.login("nasabah@example.com", "password123")

			code, env := c.do(http.MethodGet, "/api/profile/me", token, "")
			require.Equal(t, http.StatusOK, code)
			var me userResponse
			require.NoError(t, json.Unmarshal(env.Data, &me))
			assert.Equal(t, users[models.RoleNasabah].ID, me.ID)

			code, env = c.do(http.MethodPut, "/api/profile/update", token,
				`{"full_name": "Budi Santoso", "email": "nasabah@example.com", "phone": "0812345"}`)
			require.Equalf(t, http.StatusOK, code, "update failed: %s", env.Message)
			require.NoError(t, json.Unmarshal(env.Data, &me))
			assert.Equal(t, "Budi Santoso", me.FullName)
			assert.Equal(t, "0812345", me.Phone)

			code, env = c.do(http.MethodPatch, "/api/profile/change-password", token,
				`{"old_password": "wrong-password", "new_password": "new-password"}`)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Old password is incorrect", env.Message)

			code, _ = c.do(http.MethodPatch, "/api/profile/change-password", token,
				`{"old_password": "password123", "new_password": "new-password"}`)
			require.Equal(t, http.StatusOK, code)
			c.login("nasabah@example.com", "new-password")
		})
	})

	t.Run("admin manages nasabah", func(t *testing.T) {
		withServer(t, func(c client, users map[models.Role]models.User, _ models.User) {
			admin := c.login("admin@example.com", "password123")

			body := `{"full_name": "Andi", "email": "andi@example.com", "password": "password123"}`
			code, env := c.do(http.MethodPost, "/api/admin/nasabah/create", admin, body)
			require.Equalf(t, http.StatusCreated, code, "create failed: %s", env.Message)
			var andi userResponse
			require.NoError(t, json.Unmarshal(env.Data, &andi))
			assert.Equal(t, "nasabah", andi.Role)

			code, _ = c.do(http.MethodPost, "/api/admin/nasabah/create", admin, body)
			assert.Equal(t, http.StatusConflict, code, "email must be unique")

			code, env = c.do(http.MethodGet, "/api/admin/nasabah/list?keyword=andi", admin, "")
			require.Equal(t, http.StatusOK, code)
			require.NotNil(t, env.Metadata)
			assert.Equal(t, 1, env.Metadata.Total)
			assert.Equal(t, 1, env.Metadata.Page)

			code, env = c.do(http.MethodPut, "/api/admin/nasabah/"+andi.ID.String()+"/update", admin,
				`{"full_name": "Andi Wijaya", "email": "andi@example.com", "address": "Jl. Asia Afrika 8"}`)
			require.Equalf(t, http.StatusOK, code, "update failed: %s", env.Message)
			require.NoError(t, json.Unmarshal(env.Data, &andi))
			assert.Equal(t, "Andi Wijaya", andi.FullName)
			assert.Equal(t, "Jl. Asia Afrika 8", andi.Address)

			code, env = c.do(http.MethodPut, "/api/admin/nasabah/"+users[models.RoleStaff].ID.String()+"/update", admin,
				`{"full_name": "Not Staff", "email": "staff@example.com"}`)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Only 'nasabah' users are allowed here", env.Message)

			code, env = c.do(http.MethodPut, "/api/admin/nasabah/"+andi.ID.String()+"/update", admin, `{"email": "andi"}`)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Validation failed", env.Message)

			code, _ = c.do(http.MethodGet, "/api/admin/nasabah/"+andi.ID.String(), admin, "")
			assert.Equal(t, http.StatusOK, code)

			code, env = c.do(http.MethodDelete, "/api/admin/nasabah/"+users[models.RoleStaff].ID.String(), admin, "")
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Only 'nasabah' users are allowed here", env.Message)

			code, _ = c.do(http.MethodDelete, "/api/admin/nasabah/"+andi.ID.String(), admin, "")
			assert.Equal(t, http.StatusOK, code)

			code, _ = c.do(http.MethodGet, "/api/admin/nasabah/"+andi.ID.String(), admin, "")
			assert.Equal(t, http.StatusNotFound, code)

			code, env = c.do(http.MethodGet, "/api/admin/nasabah/not-a-uuid", admin, "")
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Invalid value 'not-a-uuid' for parameter 'userId'", env.Message)
		})
	})

	t.Run("nasabah list sorted and paged", func(t *testing.T) {
		withServer(t, func(c client, _ map[models.Role]models.User, _ models.User) {
			admin := c.login("admin@example.com", "password123")
			names := func(env envelope) []string {
				var list []userResponse
				require.NoError(t, json.Unmarshal(env.Data, &list))
				out := make([]string, 0, len(list))
				for _, u := range list {
					out = append(out, u.FullName)
				}
				return out
			}

			code, env := c.do(http.MethodGet, "/api/admin/nasabah/list", admin, "")
			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, []string{"Siti Aminah", "User nasabah"}, names(env), "full name ascending by default")

			code, env = c.do(http.MethodGet, "/api/admin/nasabah/list?sortBy=fullName&sortDirection=desc", admin, "")
			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, []string{"User nasabah", "Siti Aminah"}, names(env))

			code, env = c.do(http.MethodGet, "/api/admin/nasabah/list?sortBy=email&pageSize=1&page=2", admin, "")
			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, []string{"Siti Aminah"}, names(env), "nasabah@ then siti@")
			assert.Equal(t, 2, env.Metadata.Total, "two nasabah one per page")

			code, env = c.do(http.MethodGet, "/api/admin/nasabah/list?sortBy=password", admin, "")
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Unsupported sort field or direction", env.Message)

			code, _ = c.do(http.MethodGet, "/api/admin/nasabah/list?sortDirection=sideways", admin, "")
			assert.Equal(t, http.StatusBadRequest, code)
		})
	})

	t.Run("roles are enforced", func(t *testing.T) {
		withServer(t, func(c client, _ map[models.Role]models.User, _ models.User) {
			staff := c.login("staff@example.com", "password123")
			nasabah := c.login("nasabah@example.com", "password123")

			code, _ := c.do(http.MethodGet, "/api/admin/nasabah/list", staff, "")
			assert.Equal(t, http.StatusForbidden, code, "staff is not admin")

			code, _ = c.do(http.MethodGet, "/api/staff/account/list", nasabah, "")
			assert.Equal(t, http.StatusForbidden, code)

			code, _ = c.do(http.MethodGet, "/api/nasabah/accounts", staff, "")
			assert.Equal(t, http.StatusForbidden, code)

			code, _ = c.do(http.MethodGet, "/api/admin/dashboard", staff, "")
			assert.Equal(t, http.StatusOK, code, "staff sees admin dashboard")
		})
	})

	t.Run("savings scenario", func(t *testing.T) {
		withServer(t, func(c client, users map[models.Role]models.User, other models.User) {
			staff := c.login("staff@example.com", "password123")
			nasabah := c.login("nasabah@example.com", "password123")
			siti := c.login("siti@example.com", "password123")
			accountCode := openAccount(c, staff, users[models.RoleNasabah])

			post := func(token string, typ string, amount string) (int, envelope) {
				return c.do(http.MethodPost, "/api/transactions", token,
					`{"accountCode": "`+accountCode+`", "type": "`+typ+`", "amount": `+amount+`, "note": "setoran"}`)
			}

			code, env := post(nasabah, "deposit", "800000")
			require.Equalf(t, http.StatusCreated, code, "deposit failed: %s", env.Message)
			var tx transactionResponse
			require.NoError(t, json.Unmarshal(env.Data, &tx))
			assert.Equal(t, int64(800000), tx.Balance)

			code, _ = post(staff, "withdraw", "200000")
			require.Equal(t, http.StatusCreated, code)

			code, env = post(nasabah, "withdraw", "700000")
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "insufficient balance: current balance 600000, requested 700000", env.Message)

			code, _ = post(siti, "deposit", "100")
			assert.Equal(t, http.StatusForbidden, code, "other nasabah can't post")

			code, env = post(nasabah, "deposit", "0")
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Validation failed", env.Message)

			code, env = c.do(http.MethodGet, "/api/transactions?accountCode="+accountCode+"&sortBy=amount&sortDirection=desc", nasabah, "")
			require.Equal(t, http.StatusOK, code)
			var list []transactionResponse
			require.NoError(t, json.Unmarshal(env.Data, &list))
			require.Len(t, list, 2)
			assert.Equal(t, int64(800000), list[0].Amount)
			assert.Equal(t, int64(600000), list[1].Balance)
			assert.Equal(t, 1, env.Metadata.Total, "two transactions fit one page")

			code, env = c.do(http.MethodGet, "/api/transactions?accountCode="+accountCode+"&pageSize=1&page=2", nasabah, "")
			require.Equal(t, http.StatusOK, code)
			require.NoError(t, json.Unmarshal(env.Data, &list))
			require.Len(t, list, 1)
			assert.Equal(t, int64(200000), list[0].Amount, "second by creation time")
			assert.Equal(t, 2, env.Metadata.Page)
			assert.Equal(t, 1, env.Metadata.Size)
			assert.Equal(t, 2, env.Metadata.Total, "two pages of one transaction")

			code, _ = c.do(http.MethodGet, "/api/transactions?accountCode="+accountCode, siti, "")
			assert.Equal(t, http.StatusForbidden, code)

			code, _ = c.do(http.MethodGet, "/api/transactions?accountCode="+accountCode+"&keyword=nothing", nasabah, "")
			assert.Equal(t, http.StatusNotFound, code)

			code, env = c.do(http.MethodGet, "/api/transactions?accountCode="+accountCode+"&from=2024-02-01&to=2024-01-01", nasabah, "")
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "'from' must not be after 'to'", env.Message)

			code, env = c.do(http.MethodGet, "/api/transactions?accountCode="+accountCode+"&sortBy=note", nasabah, "")
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Unsupported sort field or direction", env.Message)

			code, env = c.do(http.MethodGet, "/api/transactions", nasabah, "")
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Missing required parameter: accountCode", env.Message)

			code, env = c.do(http.MethodGet, "/api/nasabah/dashboard", nasabah, "")
			require.Equal(t, http.StatusOK, code)
			assert.JSONEq(t, `{
				"total_deposit": 800000,
				"total_withdraw": 200000,
				"total_balance": 600000,
				"total_accounts": 1,
				"total_accounts_active": 1,
				"total_accounts_inactive": 0
			}`, string(env.Data))

			code, _ = c.do(http.MethodDelete, "/api/staff/account/"+accountCode, staff, "")
			assert.Equal(t, http.StatusBadRequest, code, "account with history can't be deleted")
		})
	})

	t.Run("inactive account rejects transactions", func(t *testing.T) {
		withServer(t, func(c client, users map[models.Role]models.User, _ models.User) {
			staff := c.login("staff@example.com", "password123")
			accountCode := openAccount(c, staff, users[models.RoleNasabah])

			code, env := c.do(http.MethodPatch, "/api/staff/account/"+accountCode+"/status", staff, `{"is_active": false}`)
			require.Equalf(t, http.StatusOK, code, "status not changed: %s", env.Message)

			code, env = c.do(http.MethodPost, "/api/transactions", staff,
				`{"accountCode": "`+accountCode+`", "type": "deposit", "amount": 1000}`)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Account is not active", env.Message)

			code, _ = c.do(http.MethodPatch, "/api/staff/account/"+accountCode+"/status", staff, `{}`)
			assert.Equal(t, http.StatusBadRequest, code, "status is required")
		})
	})

	t.Run("accounts", func(t *testing.T) {
		withServer(t, func(c client, users map[models.Role]models.User, other models.User) {
			staff := c.login("staff@example.com", "password123")
			siti := c.login("siti@example.com", "password123")

			code, _ := c.do(http.MethodGet, "/api/nasabah/accounts", siti, "")
			assert.Equal(t, http.StatusNotFound, code, "no accounts yet")

			openAccount(c, staff, users[models.RoleNasabah])
			sitiCode := openAccount(c, staff, other)

			code, env := c.do(http.MethodGet, "/api/nasabah/accounts", siti, "")
			require.Equal(t, http.StatusOK, code)
			var own []accountResponse
			require.NoError(t, json.Unmarshal(env.Data, &own))
			require.Len(t, own, 1)
			assert.Equal(t, sitiCode, own[0].AccountCode)

			code, env = c.do(http.MethodGet, "/api/staff/account/list?keyword=siti&pageSize=5", staff, "")
			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, 5, env.Metadata.Size)
			assert.Equal(t, 1, env.Metadata.Total)

			code, env = c.do(http.MethodGet, "/api/staff/account/list?userId="+other.ID.String(), staff, "")
			require.Equal(t, http.StatusOK, code)
			var owned []accountResponse
			require.NoError(t, json.Unmarshal(env.Data, &owned))
			require.Len(t, owned, 1)
			assert.Equal(t, sitiCode, owned[0].AccountCode)

			code, _ = c.do(http.MethodGet, "/api/staff/account/list?userId="+users[models.RoleStaff].ID.String(), staff, "")
			assert.Equal(t, http.StatusNotFound, code, "staff owns no accounts")

			code, env = c.do(http.MethodGet, "/api/staff/account/list?userId=42", staff, "")
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Invalid value '42' for parameter 'userId'", env.Message)

			code, _ = c.do(http.MethodGet, "/api/staff/account/list?page=abc", staff, "")
			assert.Equal(t, http.StatusBadRequest, code)

			code, _ = c.do(http.MethodPost, "/api/staff/account/create", staff, `{"user_id": "`+users[models.RoleStaff].ID.String()+`"}`)
			assert.Equal(t, http.StatusBadRequest, code, "accounts are for nasabah only")

			code, _ = c.do(http.MethodDelete, "/api/staff/account/"+sitiCode, staff, "")
			assert.Equal(t, http.StatusOK, code)

			code, _ = c.do(http.MethodDelete, "/api/staff/account/"+sitiCode, staff, "")
			assert.Equal(t, http.StatusNotFound, code)
		})
	})

	t.Run("logout revokes refresh token", func(t *testing.T) {
		withServer(t, func(c client, _ map[models.Role]models.User, _ models.User) {
			code, env := c.do(http.MethodPost, "/api/auth/login", "", `{"email": "staff@example.com", "password": "password123"}`)
			require.Equal(t, http.StatusOK, code)
			var tokens tokenResponse
			require.NoError(t, json.Unmarshal(env.Data, &tokens))
			body := `{"refresh_token": "` + tokens.RefreshToken + `"}`

			code, _ = c.do(http.MethodPost, "/api/auth/logout", "", body)
			require.Equal(t, http.StatusOK, code)

			code, _ = c.do(http.MethodPost, "/api/auth/refresh", "", body)
			assert.Equal(t, http.StatusUnauthorized, code)
		})
	})
}
