package dto

// UpdateScheduleRequest sets the daily edit window and enables it.
type UpdateScheduleRequest struct {
	StartHHMM string `json:"start_hhmm" validate:"required,hhmm"`
	EndHHMM   string `json:"end_hhmm" validate:"required,hhmm"`
}
