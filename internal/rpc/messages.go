package rpc

import (
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mmynk/calories/internal/calculator"
	"github.com/mmynk/calories/internal/models"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// FoodRecord is a logged food item. User is empty for records whose owner
// was deleted.
type FoodRecord struct {
	Id                 string                 `json:"id"`
	User               string                 `json:"user,omitempty"`
	Name               string                 `json:"name"`
	Calories           int32                  `json:"calories"`
	ExceededDailyLimit bool                   `json:"exceeded_daily_limit"`
	Timestamp          *timestamppb.Timestamp `json:"timestamp"`
}

type ListFoodRecordsRequest struct {
	Item     string `json:"item,omitempty"`
	Consumer string `json:"consumer,omitempty"`
	// Date is a YYYY-MM-DD calendar day.
	Date     string `json:"date,omitempty"`
	Exceeded *bool  `json:"exceeded,omitempty"`
	Ordering string `json:"ordering,omitempty"`
	Limit    uint64 `json:"limit,omitempty"`
	Offset   uint64 `json:"offset,omitempty"`
}

type ListFoodRecordsResponse struct {
	Records []*FoodRecord `json:"records"`
}

type GetFoodRecordRequest struct {
	Id string `json:"id"`
}

type GetFoodRecordResponse struct {
	Record *FoodRecord `json:"record"`
}

// CreateFoodRecordRequest logs food. Zero calories are looked up by name.
type CreateFoodRecordRequest struct {
	Name     string `json:"name"`
	Calories int32  `json:"calories,omitempty"`
}

type CreateFoodRecordResponse struct {
	Record *FoodRecord `json:"record"`
}

type DeleteFoodRecordRequest struct {
	Id string `json:"id"`
}

type DeleteFoodRecordResponse struct{}

type GetTodaySummaryRequest struct{}

type GetTodaySummaryResponse struct {
	Date             string `json:"date"`
	Consumed         int32  `json:"consumed"`
	MaxDailyCalories int32  `json:"max_daily_calories"`
	Remaining        int32  `json:"remaining"`
	Exceeded         bool   `json:"exceeded"`
}

func toProtoFoodRecord(f *models.FoodRecord) *FoodRecord {
	return &FoodRecord{
		Id:                 f.ID,
		User:               f.OwnerUsername,
		Name:               f.Name,
		Calories:           int32(f.Calories),
		ExceededDailyLimit: f.ExceededDailyLimit,
		Timestamp:          timestamppb.New(f.CreatedAt),
	}
}

func toProtoSummary(s *calculator.Summary) *GetTodaySummaryResponse {
	return &GetTodaySummaryResponse{
		Date:             s.Date.Format(time.DateOnly),
		Consumed:         int32(s.Consumed),
		MaxDailyCalories: int32(s.Max),
		Remaining:        int32(s.Remaining),
		Exceeded:         s.Exceeded,
	}
}
