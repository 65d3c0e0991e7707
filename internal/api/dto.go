package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/calories/internal/models"
	"github.com/mmynk/calories/internal/service"
)

type profileJSON struct {
	User             string `json:"user"`
	MaxDailyCalories int    `json:"max_daily_calories"`
}

type accountJSON struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Profile  profileJSON `json:"profile"`
	Groups   []string    `json:"groups"`
	IsActive bool        `json:"is_active"`
}

func newAccountJSON(a *models.Account) accountJSON {
	groups := []string{}
	if a.Role != models.RoleNone {
		groups = append(groups, string(a.Role))
	}
	return accountJSON{
		ID:       a.ID,
		Username: a.Username,
		Profile: profileJSON{
			User:             a.Username,
			MaxDailyCalories: a.Profile.MaxDailyCalories,
		},
		Groups:   groups,
		IsActive: a.Active,
	}
}

type profileRequest struct {
	MaxDailyCalories *int `json:"max_daily_calories"`
}

type accountRequest struct {
	Username *string         `json:"username"`
	Password *string         `json:"password"`
	Groups   []string        `json:"groups"`
	Profile  *profileRequest `json:"profile"`
	IsActive *bool           `json:"is_active"`
}

func (r accountRequest) input() service.AccountInput {
	in := service.AccountInput{
		Username: r.Username,
		Password: r.Password,
		Groups:   r.Groups,
		Active:   r.IsActive,
	}
	if r.Profile != nil {
		in.Profile = &service.ProfileInput{MaxDailyCalories: r.Profile.MaxDailyCalories}
	}
	return in
}

type foodJSON struct {
	ID                 string  `json:"id"`
	User               *string `json:"user"`
	Timestamp          string  `json:"timestamp"`
	Name               string  `json:"name"`
	Calories           int     `json:"calories"`
	ExceededDailyLimit bool    `json:"exceeded_daily_limit"`
}

func newFoodJSON(f *models.FoodRecord, loc *time.Location) foodJSON {
	out := foodJSON{
		ID:                 f.ID,
		Timestamp:          f.CreatedAt.In(loc).Format(time.RFC3339Nano),
		Name:               f.Name,
		Calories:           f.Calories,
		ExceededDailyLimit: f.ExceededDailyLimit,
	}
	// Records of deleted accounts have no owner to show.
	if f.OwnerUsername != "" {
		user := f.OwnerUsername
		out.User = &user
	}
	return out
}

type foodRequest struct {
	Name     *string         `json:"name"`
	Calories json.RawMessage `json:"calories"`
}

// input converts the request. Missing, null and blank calories are all
// reported as omitted.
func (r foodRequest) input() (service.FoodInput, error) {
	in := service.FoodInput{Name: r.Name}

	raw := bytes.TrimSpace(r.Calories)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return in, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		v, err := strconv.Atoi(n.String())
		if err != nil {
			return in, invalidCalories()
		}
		in.Calories = &v
		return in, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return in, invalidCalories()
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return in, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return in, invalidCalories()
	}
	in.Calories = &v
	return in, nil
}

func invalidCalories() error {
	verr := &service.ValidationError{}
	verr.Add("calories", msgInvalidInteger)
	return verr
}

type summaryJSON struct {
	Date      string `json:"date"`
	Consumed  int    `json:"consumed"`
	Max       int    `json:"max_daily_calories"`
	Remaining int    `json:"remaining"`
	Exceeded  bool   `json:"exceeded"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}
