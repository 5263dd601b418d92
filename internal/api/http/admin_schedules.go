package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campus-hub/campushub-lms/internal/assess"
)

type scheduleReq struct {
	Topic         string    `json:"topic" validate:"required"`
	DepartmentID  string    `json:"department" validate:"required"`
	BatchID       string    `json:"batch" validate:"required"`
	Instructor    string    `json:"instructor" validate:"required"`
	StartTime     time.Time `json:"startTime" validate:"required"`
	EndTime       time.Time `json:"endTime" validate:"required"`
	MeetingLink   string    `json:"meetingLink"`
	MeetingID     string    `json:"meetingId"`
	Passcode      string    `json:"passcode"`
	WindowMinutes int       `json:"attendanceWindow" validate:"omitempty,min=1"`
}

func (req scheduleReq) toSchedule() assess.Schedule {
	return assess.Schedule{
		Topic:         req.Topic,
		DepartmentID:  req.DepartmentID,
		BatchID:       req.BatchID,
		Instructor:    req.Instructor,
		StartTime:     req.StartTime.UTC(),
		EndTime:       req.EndTime.UTC(),
		MeetingLink:   req.MeetingLink,
		MeetingID:     req.MeetingID,
		Passcode:      req.Passcode,
		WindowMinutes: req.WindowMinutes,
	}
}

// POST /api/admin/schedules
func CreateScheduleHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scheduleReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}
		sc, err := svc.CreateSchedule(r.Context(), req.toSchedule())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sc)
	}
}

// GET /api/admin/schedules?batch=...&limit=50&offset=0
func ListSchedulesHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := assess.ScheduleListOpts{
			BatchID: r.URL.Query().Get("batch"),
			Limit:   parseIntDefault(r.URL.Query().Get("limit"), 0),
			Offset:  parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		list, err := svc.ListSchedules(r.Context(), opts)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// PUT /api/admin/schedules/{scheduleID}
func UpdateScheduleHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scheduleReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if err := validate.Struct(req); err != nil {
			badRequest(w, err.Error())
			return
		}
		sc := req.toSchedule()
		sc.ID = chi.URLParam(r, "scheduleID")
		updated, err := svc.UpdateSchedule(r.Context(), sc)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// DELETE /api/admin/schedules/{scheduleID}
func DeleteScheduleHandler(svc *assess.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteSchedule(r.Context(), chi.URLParam(r, "scheduleID")); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Scheduled class removed."})
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
