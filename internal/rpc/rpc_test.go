package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/calories/internal/auth"
	"github.com/mmynk/calories/internal/calculator"
	"github.com/mmynk/calories/internal/lookup"
	"github.com/mmynk/calories/internal/models"
	"github.com/mmynk/calories/internal/service"
	"github.com/mmynk/calories/internal/storage/sqlstore"
)

type stubLookup struct{}

func (stubLookup) Lookup(context.Context, string) (lookup.Result, error) {
	return lookup.Result{Calories: 52, Provider: "stub"}, nil
}

type clients struct {
	login  *connect.Client[LoginRequest, LoginResponse]
	list   *connect.Client[ListFoodRecordsRequest, ListFoodRecordsResponse]
	get    *connect.Client[GetFoodRecordRequest, GetFoodRecordResponse]
	create *connect.Client[CreateFoodRecordRequest, CreateFoodRecordResponse]
	delete *connect.Client[DeleteFoodRecordRequest, DeleteFoodRecordResponse]
	today  *connect.Client[GetTodaySummaryRequest, GetTodaySummaryResponse]
}

func setup(t *testing.T) (*clients, *sqlstore.SQLStore, *auth.PasswordAuthenticator) {
	t.Helper()

	store, err := sqlstore.New(context.Background(), "sqlite", filepath.Join(t.TempDir(), "rpc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	authn := auth.NewPasswordAuthenticator(store, bcrypt.MinCost)
	jwtManager := auth.NewJWTManager("test-secret", 0)
	tokens := auth.NewTokenAuthenticator(jwtManager, store)
	food := service.NewFoodService(store, calculator.NewDailyLimit(time.UTC), stubLookup{}, nil)
	login := service.NewAuthService(authn, jwtManager, store, nil, nil)

	mux := http.NewServeMux()
	mux.Handle(NewAuthServiceHandler(NewAuthServer(login, nil)))
	mux.Handle(NewFoodServiceHandler(NewFoodServer(food, nil), tokens))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	hc := srv.Client()
	return &clients{
		login:  connect.NewClient[LoginRequest, LoginResponse](hc, srv.URL+AuthServiceLoginProcedure, WithJSON()),
		list:   connect.NewClient[ListFoodRecordsRequest, ListFoodRecordsResponse](hc, srv.URL+FoodServiceListFoodRecordsProcedure, WithJSON()),
		get:    connect.NewClient[GetFoodRecordRequest, GetFoodRecordResponse](hc, srv.URL+FoodServiceGetFoodRecordProcedure, WithJSON()),
		create: connect.NewClient[CreateFoodRecordRequest, CreateFoodRecordResponse](hc, srv.URL+FoodServiceCreateFoodRecordProcedure, WithJSON()),
		delete: connect.NewClient[DeleteFoodRecordRequest, DeleteFoodRecordResponse](hc, srv.URL+FoodServiceDeleteFoodRecordProcedure, WithJSON()),
		today:  connect.NewClient[GetTodaySummaryRequest, GetTodaySummaryResponse](hc, srv.URL+FoodServiceGetTodaySummaryProcedure, WithJSON()),
	}, store, authn
}

func seed(t *testing.T, store *sqlstore.SQLStore, authn *auth.PasswordAuthenticator, username string, role models.Role) {
	t.Helper()
	hash, err := authn.HashCredential("pw")
	require.NoError(t, err)
	require.NoError(t, store.CreateAccount(context.Background(), &models.Account{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		Profile:      models.Profile{MaxDailyCalories: 500},
	}))
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func login(t *testing.T, c *clients, username string) string {
	t.Helper()
	resp, err := c.login.CallUnary(context.Background(), connect.NewRequest(&LoginRequest{Username: username, Password: "pw"}))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Msg.Token)
	return resp.Msg.Token
}

func TestLogin(t *testing.T) {
	c, store, authn := setup(t)
	seed(t, store, authn, "alice", models.RoleNormalUser)
	ctx := context.Background()

	assert.Equal(t, login(t, c, "alice"), login(t, c, "alice"))

	_, err := c.login.CallUnary(ctx, connect.NewRequest(&LoginRequest{Username: "alice", Password: "wrong"}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = c.login.CallUnary(ctx, connect.NewRequest(&LoginRequest{Username: "alice"}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestFoodServiceRequiresToken(t *testing.T) {
	c, _, _ := setup(t)
	ctx := context.Background()

	_, err := c.list.CallUnary(ctx, connect.NewRequest(&ListFoodRecordsRequest{}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = c.list.CallUnary(ctx, withToken(&ListFoodRecordsRequest{}, "garbage"))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

func TestFoodService(t *testing.T) {
	c, store, authn := setup(t)
	seed(t, store, authn, "alice", models.RoleNormalUser)
	seed(t, store, authn, "bob", models.RoleNormalUser)
	alice := login(t, c, "alice")
	bob := login(t, c, "bob")
	ctx := context.Background()

	created, err := c.create.CallUnary(ctx, withToken(&CreateFoodRecordRequest{Name: "Pizza", Calories: 400}, alice))
	require.NoError(t, err)
	pizza := created.Msg.Record
	assert.Equal(t, "alice", pizza.User)
	assert.Equal(t, int32(400), pizza.Calories)
	assert.False(t, pizza.ExceededDailyLimit)
	assert.NotNil(t, pizza.Timestamp)

	created, err = c.create.CallUnary(ctx, withToken(&CreateFoodRecordRequest{Name: "Apple"}, alice))
	require.NoError(t, err)
	assert.Equal(t, int32(52), created.Msg.Record.Calories)
	assert.False(t, created.Msg.Record.ExceededDailyLimit)

	created, err = c.create.CallUnary(ctx, withToken(&CreateFoodRecordRequest{Name: "Cookie", Calories: 100}, alice))
	require.NoError(t, err)
	assert.True(t, created.Msg.Record.ExceededDailyLimit)

	_, err = c.create.CallUnary(ctx, withToken(&CreateFoodRecordRequest{Name: "  "}, alice))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	listed, err := c.list.CallUnary(ctx, withToken(&ListFoodRecordsRequest{Ordering: "calories"}, alice))
	require.NoError(t, err)
	require.Len(t, listed.Msg.Records, 3)
	assert.Equal(t, "Apple", listed.Msg.Records[0].Name)
	assert.Equal(t, "Pizza", listed.Msg.Records[2].Name)

	listed, err = c.list.CallUnary(ctx, withToken(&ListFoodRecordsRequest{}, bob))
	require.NoError(t, err)
	assert.Empty(t, listed.Msg.Records)

	_, err = c.list.CallUnary(ctx, withToken(&ListFoodRecordsRequest{Date: "10/03/2024"}, alice))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = c.get.CallUnary(ctx, withToken(&GetFoodRecordRequest{Id: pizza.Id}, bob))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	got, err := c.get.CallUnary(ctx, withToken(&GetFoodRecordRequest{Id: pizza.Id}, alice))
	require.NoError(t, err)
	assert.Equal(t, "Pizza", got.Msg.Record.Name)

	today, err := c.today.CallUnary(ctx, withToken(&GetTodaySummaryRequest{}, alice))
	require.NoError(t, err)
	assert.Equal(t, int32(552), today.Msg.Consumed)
	assert.Equal(t, int32(500), today.Msg.MaxDailyCalories)
	assert.Equal(t, int32(0), today.Msg.Remaining)
	assert.True(t, today.Msg.Exceeded)

	_, err = c.delete.CallUnary(ctx, withToken(&DeleteFoodRecordRequest{Id: pizza.Id}, bob))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	_, err = c.delete.CallUnary(ctx, withToken(&DeleteFoodRecordRequest{Id: pizza.Id}, alice))
	require.NoError(t, err)
	_, err = c.get.CallUnary(ctx, withToken(&GetFoodRecordRequest{Id: pizza.Id}, alice))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}
