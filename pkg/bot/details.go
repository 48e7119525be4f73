package bot

// LeaveDetails is the record the leave request dialog fills in. An empty
// field is unset; LeaveID is only assigned once the leave is stored.
type LeaveDetails struct {
	LeaveID   string `json:"leave_id,omitempty"`
	LeaveType string `json:"leave_type,omitempty"`
	LeaveDate string `json:"leave_date,omitempty"`
}

func (ld LeaveDetails) templateData() map[string]string {
	return map[string]string{
		"LeaveID":   ld.LeaveID,
		"LeaveType": ld.LeaveType,
		"LeaveDate": ld.LeaveDate,
	}
}

// mainOptions are the options MainDialog is (re)started with.
type mainOptions struct {
	Message string `json:"message,omitempty"`
}
