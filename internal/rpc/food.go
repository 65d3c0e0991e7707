package rpc

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/calories/internal/middleware"
	"github.com/mmynk/calories/internal/service"
)

// FoodServer implements the FoodService RPC interface.
type FoodServer struct {
	food   *service.FoodService
	logger *slog.Logger
}

// NewFoodServer creates a new FoodServer.
func NewFoodServer(food *service.FoodService, logger *slog.Logger) *FoodServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FoodServer{food: food, logger: logger}
}

// ListFoodRecords returns the food records visible to the caller.
func (s *FoodServer) ListFoodRecords(ctx context.Context, req *connect.Request[ListFoodRecordsRequest]) (*connect.Response[ListFoodRecordsResponse], error) {
	filter := service.FoodFilter{
		Item:     req.Msg.Item,
		Consumer: req.Msg.Consumer,
		Exceeded: req.Msg.Exceeded,
		Ordering: req.Msg.Ordering,
		Limit:    req.Msg.Limit,
		Offset:   req.Msg.Offset,
	}
	if req.Msg.Date != "" {
		day, err := time.ParseInLocation(time.DateOnly, req.Msg.Date, s.food.Location())
		if err != nil {
			verr := &service.ValidationError{}
			verr.Add("date", "Enter a valid date in YYYY-MM-DD format.")
			return nil, toConnectError(verr)
		}
		filter.Date = day
	}

	records, err := s.food.ListFoodRecords(ctx, middleware.AccountFrom(ctx), filter)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &ListFoodRecordsResponse{Records: make([]*FoodRecord, 0, len(records))}
	for _, r := range records {
		resp.Records = append(resp.Records, toProtoFoodRecord(r))
	}
	return connect.NewResponse(resp), nil
}

// GetFoodRecord returns one food record.
func (s *FoodServer) GetFoodRecord(ctx context.Context, req *connect.Request[GetFoodRecordRequest]) (*connect.Response[GetFoodRecordResponse], error) {
	record, err := s.food.GetFoodRecord(ctx, middleware.AccountFrom(ctx), req.Msg.Id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetFoodRecordResponse{Record: toProtoFoodRecord(record)}), nil
}

// CreateFoodRecord logs food for the caller.
func (s *FoodServer) CreateFoodRecord(ctx context.Context, req *connect.Request[CreateFoodRecordRequest]) (*connect.Response[CreateFoodRecordResponse], error) {
	in := service.FoodInput{Name: &req.Msg.Name}
	if req.Msg.Calories != 0 {
		calories := int(req.Msg.Calories)
		in.Calories = &calories
	}

	record, err := s.food.CreateFoodRecord(ctx, middleware.AccountFrom(ctx), in)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateFoodRecordResponse{Record: toProtoFoodRecord(record)}), nil
}

// DeleteFoodRecord removes a food record.
func (s *FoodServer) DeleteFoodRecord(ctx context.Context, req *connect.Request[DeleteFoodRecordRequest]) (*connect.Response[DeleteFoodRecordResponse], error) {
	if err := s.food.DeleteFoodRecord(ctx, middleware.AccountFrom(ctx), req.Msg.Id); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteFoodRecordResponse{}), nil
}

// GetTodaySummary returns the caller's intake so far today.
func (s *FoodServer) GetTodaySummary(ctx context.Context, _ *connect.Request[GetTodaySummaryRequest]) (*connect.Response[GetTodaySummaryResponse], error) {
	summary, err := s.food.TodaySummary(ctx, middleware.AccountFrom(ctx))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toProtoSummary(summary)), nil
}
