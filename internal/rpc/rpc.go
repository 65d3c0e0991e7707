// Package rpc serves the Connect RPC surface of the calorie tracker.
//
// Messages are plain structs carried by a JSON codec, so any Connect client
// configured with WithJSON, or plain HTTP POSTs of JSON, can call them.
package rpc

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/calories/internal/auth"
	"github.com/mmynk/calories/internal/middleware"
)

const (
	// AuthServiceName is the fully-qualified name of the AuthService service.
	AuthServiceName = "calories.v1.AuthService"
	// FoodServiceName is the fully-qualified name of the FoodService service.
	FoodServiceName = "calories.v1.FoodService"
)

// Procedure paths.
const (
	AuthServiceLoginProcedure = "/" + AuthServiceName + "/Login"

	FoodServiceListFoodRecordsProcedure  = "/" + FoodServiceName + "/ListFoodRecords"
	FoodServiceGetFoodRecordProcedure    = "/" + FoodServiceName + "/GetFoodRecord"
	FoodServiceCreateFoodRecordProcedure = "/" + FoodServiceName + "/CreateFoodRecord"
	FoodServiceDeleteFoodRecordProcedure = "/" + FoodServiceName + "/DeleteFoodRecord"
	FoodServiceGetTodaySummaryProcedure  = "/" + FoodServiceName + "/GetTodaySummary"
)

// NewAuthServiceHandler builds the AuthService handler. It returns the path
// to mount it on and the handler itself.
func NewAuthServiceHandler(svc *AuthServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(middleware.LoggingInterceptor()),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(AuthServiceLoginProcedure, connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...))
	return "/" + AuthServiceName + "/", mux
}

// NewFoodServiceHandler builds the FoodService handler. Every procedure
// requires a session key.
func NewFoodServiceHandler(svc *FoodServer, tokens auth.TokenValidator, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		// RequireAuth runs first so the logger sees the account.
		connect.WithInterceptors(middleware.RequireAuth(tokens), middleware.LoggingInterceptor()),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(FoodServiceListFoodRecordsProcedure, connect.NewUnaryHandler(FoodServiceListFoodRecordsProcedure, svc.ListFoodRecords, opts...))
	mux.Handle(FoodServiceGetFoodRecordProcedure, connect.NewUnaryHandler(FoodServiceGetFoodRecordProcedure, svc.GetFoodRecord, opts...))
	mux.Handle(FoodServiceCreateFoodRecordProcedure, connect.NewUnaryHandler(FoodServiceCreateFoodRecordProcedure, svc.CreateFoodRecord, opts...))
	mux.Handle(FoodServiceDeleteFoodRecordProcedure, connect.NewUnaryHandler(FoodServiceDeleteFoodRecordProcedure, svc.DeleteFoodRecord, opts...))
	mux.Handle(FoodServiceGetTodaySummaryProcedure, connect.NewUnaryHandler(FoodServiceGetTodaySummaryProcedure, svc.GetTodaySummary, opts...))
	return "/" + FoodServiceName + "/", mux
}
