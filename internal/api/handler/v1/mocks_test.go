package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/raffle-hub/raffle-api/internal/api/middleware"
	"github.com/raffle-hub/raffle-api/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Signup(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockAuthService) SignupAdmin(ctx context.Context, user domain.User, secret string) (domain.User, error) {
	args := m.Called(ctx, user, secret)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(domain.User), args.Error(1)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserService) GetUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserService) UpdateUser(ctx context.Context, actor domain.User, id string, update domain.UserUpdate) (domain.User, error) {
	args := m.Called(ctx, actor, id, update)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserService) DeleteUser(ctx context.Context, actor domain.User, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

type mockTicketService struct {
	mock.Mock
}

func (m *mockTicketService) CreateTicket(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	return args.Get(0).(domain.Ticket), args.Error(1)
}

func (m *mockTicketService) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Ticket), args.Error(1)
}

func (m *mockTicketService) GetTickets(ctx context.Context) ([]domain.Ticket, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *mockTicketService) UpdateTicket(ctx context.Context, id string, update domain.TicketUpdate) (domain.Ticket, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(domain.Ticket), args.Error(1)
}

func (m *mockTicketService) DeleteTicket(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockTicketService) AddPrize(ctx context.Context, ticketID string, prize domain.Prize) (domain.Prize, error) {
	args := m.Called(ctx, ticketID, prize)
	return args.Get(0).(domain.Prize), args.Error(1)
}

func (m *mockTicketService) RemovePrize(ctx context.Context, ticketID, prizeID string) error {
	args := m.Called(ctx, ticketID, prizeID)
	return args.Error(0)
}

type mockPurchaseService struct {
	mock.Mock
}

func (m *mockPurchaseService) BuyQuota(ctx context.Context, ticketID, buyerID, drawnNumber string) (domain.PaymentRedirect, error) {
	args := m.Called(ctx, ticketID, buyerID, drawnNumber)
	return args.Get(0).(domain.PaymentRedirect), args.Error(1)
}

type mockConfirmationService struct {
	mock.Mock
}

func (m *mockConfirmationService) ConfirmBuyQuota(ctx context.Context, ticketID, paymentID, action string) (domain.ConfirmationOutcome, error) {
	args := m.Called(ctx, ticketID, paymentID, action)
	return args.Get(0).(domain.ConfirmationOutcome), args.Error(1)
}

// asCaller stands in for VerifyJWT.
func asCaller(userID, role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, userID)
		ctx.Set(middleware.ContextRoleKey, role)
		ctx.Next()
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func strPtr(s string) *string {
	return &s
}
