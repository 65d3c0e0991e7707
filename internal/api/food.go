package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/calories/internal/middleware"
	"github.com/mmynk/calories/internal/service"
)

func (s *Server) createFoodRecord(w http.ResponseWriter, r *http.Request) error {
	var req foodRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	record, err := s.food.CreateFoodRecord(r.Context(), middleware.AccountFrom(r.Context()), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, newFoodJSON(record, s.food.Location()))
	return nil
}

func (s *Server) listFoodRecords(w http.ResponseWriter, r *http.Request) error {
	filter, err := parseFoodFilter(r.URL.Query(), s.food.Location())
	if err != nil {
		return err
	}
	records, err := s.food.ListFoodRecords(r.Context(), middleware.AccountFrom(r.Context()), filter)
	if err != nil {
		return err
	}
	out := make([]foodJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, newFoodJSON(rec, s.food.Location()))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) getFoodRecord(w http.ResponseWriter, r *http.Request) error {
	record, err := s.food.GetFoodRecord(r.Context(), middleware.AccountFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, newFoodJSON(record, s.food.Location()))
	return nil
}

func (s *Server) updateFoodRecord(partial bool) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req foodRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		in, err := req.input()
		if err != nil {
			return err
		}
		caller := middleware.AccountFrom(r.Context())
		record, err := s.food.UpdateFoodRecord(r.Context(), caller, r.PathValue("id"), in, partial)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, newFoodJSON(record, s.food.Location()))
		return nil
	}
}

func (s *Server) deleteFoodRecord(w http.ResponseWriter, r *http.Request) error {
	if err := s.food.DeleteFoodRecord(r.Context(), middleware.AccountFrom(r.Context()), r.PathValue("id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) todaySummary(w http.ResponseWriter, r *http.Request) error {
	summary, err := s.food.TodaySummary(r.Context(), middleware.AccountFrom(r.Context()))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, summaryJSON{
		Date:      summary.Date.Format(time.DateOnly),
		Consumed:  summary.Consumed,
		Max:       summary.Max,
		Remaining: summary.Remaining,
		Exceeded:  summary.Exceeded,
	})
	return nil
}

// parseFoodFilter reads the list filters from the query string, collecting
// every malformed parameter.
func parseFoodFilter(q url.Values, loc *time.Location) (service.FoodFilter, error) {
	verr := &service.ValidationError{}
	f := service.FoodFilter{
		Item:     q.Get("item"),
		Consumer: q.Get("consumer"),
		Ordering: q.Get("ordering"),
	}

	if v := q.Get("date"); v != "" {
		d, err := time.ParseInLocation(time.DateOnly, v, loc)
		if err != nil {
			verr.Add("date", msgInvalidDate)
		}
		f.Date = d
	}
	if v := q.Get("exceeded"); v != "" {
		b, err := parseBool(v)
		if err != nil {
			verr.Add("exceeded", msgInvalidBoolean)
		}
		f.Exceeded = &b
	}
	f.Limit = parseUint(verr, q, "limit")
	f.Offset = parseUint(verr, q, "offset")

	return f, verr.OrNil()
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return strconv.ParseBool(v)
}

func parseUint(verr *service.ValidationError, q url.Values, key string) uint64 {
	v := q.Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		verr.Add(key, "Enter a non-negative whole number.")
	}
	return n
}
