package leavetype

type CreateLeaveTypeRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Code       string `json:"code" binding:"required,max=20"`
	IsDeducted bool   `json:"is_deducted"`
	GoToClinic bool   `json:"go_to_clinic"`
}

type UpdateLeaveTypeRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	IsDeducted bool   `json:"is_deducted"`
	GoToClinic bool   `json:"go_to_clinic"`
	IsActive   *bool  `json:"is_active"`
}

type CreateLeaveReasonRequest struct {
	Name string `json:"name" binding:"required,max=150"`
}

type LeaveReasonResponse struct {
	ID          string `json:"id"`
	LeaveTypeID string `json:"leave_type_id"`
	Name        string `json:"name"`
	IsActive    bool   `json:"is_active"`
}

type LeaveTypeResponse struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Code       string                `json:"code"`
	IsDeducted bool                  `json:"is_deducted"`
	GoToClinic bool                  `json:"go_to_clinic"`
	IsActive   bool                  `json:"is_active"`
	Reasons    []LeaveReasonResponse `json:"reasons,omitempty"`
}
