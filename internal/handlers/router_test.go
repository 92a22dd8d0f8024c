package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/icyeza/bkvc/internal/logger"
	"github.com/icyeza/bkvc/internal/models"
	"github.com/icyeza/bkvc/internal/service/auth"
	"github.com/icyeza/bkvc/internal/service/card"
	"github.com/icyeza/bkvc/internal/service/transfer"
)

var errNotStubbed = errors.New("not stubbed")

// fakeServices implements every service the router needs. Only the stubbed
// calls respond, the rest fail with errNotStubbed
type fakeServices struct {
	user models.User

	register func(ctx context.Context, arg auth.RegisterParams) (models.User, models.TokenPair, error)
	login    func(ctx context.Context, username string, password string) (models.User, models.TokenPair, error)
	refresh  func(ctx context.Context, refresh string) (models.TokenPair, error)

	createCard func(ctx context.Context, user *models.User, arg card.CreateParams) (models.Card, error)
	listCards  func(ctx context.Context, user *models.User) ([]models.Card, error)
	deposit    func(ctx context.Context, user *models.User, number string, amount decimal.Decimal) (models.Card, error)

	initiate func(ctx context.Context, user *models.User, senderNumber string, receiverNumber string, amount decimal.Decimal) (models.Confirmation, error)
	verify   func(ctx context.Context, confirmationID uuid.UUID, code string) (transfer.VerifyResult, error)
	status   func(ctx context.Context, user *models.User, confirmationID uuid.UUID) (models.Confirmation, models.Transaction, error)
	resend   func(ctx context.Context, user *models.User, confirmationID uuid.UUID) error
}

func newFakeServices() *fakeServices {
	return &fakeServices{
		user: models.User{ID: uuid.New(), Username: "nk", Email: "nk@example.com"},
	}
}

// Auth lets every request through as the fixture user
func (f *fakeServices) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	if r.Header.Get("Authorization") == "" {
		return models.User{}, errors.New("no bearer token in request")
	}
	return f.user, nil
}

func (f *fakeServices) Register(ctx context.Context, arg auth.RegisterParams) (models.User, models.TokenPair, error) {
	if f.register == nil {
		return models.User{}, models.TokenPair{}, errNotStubbed
	}
	return f.register(ctx, arg)
}

func (f *fakeServices) Login(ctx context.Context, username string, password string) (models.User, models.TokenPair, error) {
	if f.login == nil {
		return models.User{}, models.TokenPair{}, errNotStubbed
	}
	return f.login(ctx, username, password)
}

func (f *fakeServices) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	if f.refresh == nil {
		return models.TokenPair{}, errNotStubbed
	}
	return f.refresh(ctx, refresh)
}

func (f *fakeServices) Create(ctx context.Context, user *models.User, arg card.CreateParams) (models.Card, error) {
	if f.createCard == nil {
		return models.Card{}, errNotStubbed
	}
	return f.createCard(ctx, user, arg)
}

func (f *fakeServices) List(ctx context.Context, user *models.User) ([]models.Card, error) {
	if f.listCards == nil {
		return nil, errNotStubbed
	}
	return f.listCards(ctx, user)
}

func (f *fakeServices) Deposit(ctx context.Context, user *models.User, number string, amount decimal.Decimal) (models.Card, error) {
	if f.deposit == nil {
		return models.Card{}, errNotStubbed
	}
	return f.deposit(ctx, user, number, amount)
}

func (f *fakeServices) Initiate(ctx context.Context, user *models.User, senderNumber string, receiverNumber string, amount decimal.Decimal) (models.Confirmation, error) {
	if f.initiate == nil {
		return models.Confirmation{}, errNotStubbed
	}
	return f.initiate(ctx, user, senderNumber, receiverNumber, amount)
}

func (f *fakeServices) Verify(ctx context.Context, confirmationID uuid.UUID, code string) (transfer.VerifyResult, error) {
	if f.verify == nil {
		return transfer.VerifyResult{}, errNotStubbed
	}
	return f.verify(ctx, confirmationID, code)
}

func (f *fakeServices) Status(ctx context.Context, user *models.User, confirmationID uuid.UUID) (models.Confirmation, models.Transaction, error) {
	if f.status == nil {
		return models.Confirmation{}, models.Transaction{}, errNotStubbed
	}
	return f.status(ctx, user, confirmationID)
}

func (f *fakeServices) Resend(ctx context.Context, user *models.User, confirmationID uuid.UUID) error {
	if f.resend == nil {
		return errNotStubbed
	}
	return f.resend(ctx, user, confirmationID)
}

func newTestServer(t *testing.T, f *fakeServices) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(NewRouter(f, f, f, logger.NewNoOpLogger()))
	t.Cleanup(srv.Close)

	return srv
}

// doRequest sends body to the test server with a bearer token attached
func doRequest(t *testing.T, srv *httptest.Server, method string, path string, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(got)
}

func Test_Router(t *testing.T) {
	t.Run("unknown path", func(t *testing.T) {
		srv := newTestServer(t, newFakeServices())

		code, _ := doRequest(t, srv, http.MethodGet, "/api/v1/nothing-here", "")

		require.Equal(t, http.StatusNotFound, code)
	})

	t.Run("protected routes require auth", func(t *testing.T) {
		srv := newTestServer(t, newFakeServices())

		for _, path := range []string{"/api/v1/card", "/api/v1/transaction"} {
			req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, srv.URL+path, strings.NewReader("{}"))
			require.NoError(t, err)

			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			_ = resp.Body.Close()

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "path %s should demand a token", path)
		}
	})

	t.Run("signup open without auth", func(t *testing.T) {
		f := newFakeServices()
		f.register = func(ctx context.Context, arg auth.RegisterParams) (models.User, models.TokenPair, error) {
			return f.user, models.TokenPair{}, nil
		}
		srv := newTestServer(t, f)

		body := `{
			"username": "nk",
			"password": "StrongEnoughPassword",
			"name": "Test User",
			"email": "nk@example.com",
			"phonenumber": "+250780000001",
			"nid": "1199880012345678",
			"gender": "male"
		}`
		req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, srv.URL+"/api/v1/user/signup", strings.NewReader(body))
		require.NoError(t, err)

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		require.Equal(t, http.StatusCreated, resp.StatusCode)
	})
}
