package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// DefaultDateLayout formats the example date in the intro prompt.
const DefaultDateLayout = "January 2, 2006"

// Messages holds every user-facing text of the assistant. Fields holding
// Go templates are documented with the data they receive.
type Messages struct {
	UserTypePrompt string `yaml:"user_type_prompt"`
	ExistingUser   string `yaml:"existing_user"`
	NewUser        string `yaml:"new_user"`

	UserIDPrompt   string `yaml:"user_id_prompt"`
	UserIDNotFound string `yaml:"user_id_not_found"`
	Validating     string `yaml:"validating"`
	Verified       string `yaml:"verified"`
	NoteUserID     string `yaml:"note_user_id"`

	ClassifierNotConfigured string `yaml:"classifier_not_configured"`

	// Intro receives {{.Date}}, today plus seven days in DateLayout.
	Intro      string `yaml:"intro"`
	DateLayout string `yaml:"date_layout"`
	Continue   string `yaml:"continue"`

	// The acknowledgements receive {{.Intent}}.
	RequestLeaveAck string `yaml:"request_leave_ack"`
	CancelLeaveAck  string `yaml:"cancel_leave_ack"`
	CheckBalanceAck string `yaml:"check_balance_ack"`
	UnknownIntent   string `yaml:"unknown_intent"`

	LeaveTypePrompt string   `yaml:"leave_type_prompt"`
	LeaveTypes      []string `yaml:"leave_types"`
	// LeaveTypeSelected, ConfirmLeave and LeaveApplied receive
	// {{.LeaveType}} and {{.LeaveDate}}.
	LeaveTypeSelected string `yaml:"leave_type_selected"`
	LeaveDatePrompt   string `yaml:"leave_date_prompt"`
	ConfirmLeave      string `yaml:"confirm_leave"`
	LeaveApplied      string `yaml:"leave_applied"`

	Apology string `yaml:"apology"`
}

// Defaults returns the built-in catalog.
func Defaults() *Messages {
	return &Messages{
		UserTypePrompt: "Please Specify Your User Type!!!",
		ExistingUser:   "Existing User",
		NewUser:        "New User",

		UserIDPrompt:   "Please Enter Your UserId",
		UserIDNotFound: "The user id you entered is not found,Please enter correct id",
		Validating:     "Please wait, while I validate your details...",
		Verified:       "Your details are verified",
		NoteUserID:     "Please make a note of your user id",

		ClassifierNotConfigured: "NOTE: the intent classifier is not configured. To enable all capabilities, set " +
			"'CLU_ENDPOINT', 'CLU_API_KEY', 'CLU_PROJECT_NAME' and 'CLU_DEPLOYMENT_NAME' in the environment.",

		Intro:      "What can I help you with today?\nSay something like \"Request for a leave on {{.Date}}\"",
		DateLayout: DefaultDateLayout,
		Continue:   "What else can I do for you?",

		RequestLeaveAck: "You have requested for a leave (intent was {{.Intent}})",
		CancelLeaveAck:  "You have requested for cancel leave (intent was {{.Intent}})",
		CheckBalanceAck: "You have requested for check balance leave (intent was {{.Intent}})",
		UnknownIntent:   "Sorry, I didn't get that. Please try asking in a different way (intent was {{.Intent}})",

		LeaveTypePrompt:   "Which type of leave you want to apply?",
		LeaveTypes:        []string{"Casual Leave", "Earned Leave", "Sick Leave"},
		LeaveTypeSelected: "You have selected - {{.LeaveType}}",
		LeaveDatePrompt:   "On which date do you want a leave",
		ConfirmLeave:      "Please confirm, I have requested your : {{.LeaveType}} for: {{.LeaveDate}}. Is this correct?",
		LeaveApplied:      "I have applied your {{.LeaveType}} for {{.LeaveDate}}",

		Apology: "Sorry, it looks like something went wrong. Please try again.",
	}
}

// Current lets a fixed catalog act as a Source.
func (m *Messages) Current() *Messages {
	return m
}

// Validate checks that every text is set and every template parses.
func (m *Messages) Validate() error {
	var errs []error
	v := reflect.ValueOf(m).Elem()
	t := v.Type()
	for i := range t.NumField() {
		f := v.Field(i)
		if f.Kind() != reflect.String {
			continue
		}
		name := t.Field(i).Tag.Get("yaml")
		if strings.TrimSpace(f.String()) == "" {
			errs = append(errs, fmt.Errorf("%s: empty", name))
			continue
		}
		if _, err := parse(f.String()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if len(m.LeaveTypes) == 0 {
		errs = append(errs, errors.New("leave_types: empty"))
	}
	return errors.Join(errs...)
}

// Source yields the catalog in effect for a turn.
type Source interface {
	Current() *Messages
}
