package dialog

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Step is one stage of a waterfall. It returns exactly one outcome built
// from the StepContext helpers.
type Step func(ctx context.Context, sc *StepContext) (Outcome, error)

// Validator checks a recognized prompt answer. Returning false re-issues
// the prompt without advancing the dialog.
type Validator func(ctx context.Context, pc *PromptContext) (bool, error)

// Waterfall is a named, linear sequence of steps.
type Waterfall struct {
	Name  string
	Steps []Step
}

// DialogSet is the registry of dialogs and prompt validators an engine
// can run.
type DialogSet struct {
	dialogs    map[string]*Waterfall
	validators map[string]Validator
	errs       []error
}

// NewDialogSet creates an empty dialog set.
func NewDialogSet() *DialogSet {
	return &DialogSet{
		dialogs:    make(map[string]*Waterfall),
		validators: make(map[string]Validator),
	}
}

// Add registers a waterfall dialog. Problems are reported by Validate.
func (s *DialogSet) Add(name string, steps ...Step) *DialogSet {
	if _, dup := s.dialogs[name]; dup {
		s.errs = append(s.errs, fmt.Errorf("dialog %q: registered twice", name))
		return s
	}
	s.dialogs[name] = &Waterfall{Name: name, Steps: steps}
	return s
}

// AddValidator registers a prompt validator under name.
func (s *DialogSet) AddValidator(name string, v Validator) *DialogSet {
	if _, dup := s.validators[name]; dup {
		s.errs = append(s.errs, fmt.Errorf("validator %q: registered twice", name))
		return s
	}
	s.validators[name] = v
	return s
}

// Validate checks the registered dialogs for consistency.
func (s *DialogSet) Validate() error {
	errs := append([]error(nil), s.errs...)
	for _, name := range s.Names() {
		w := s.dialogs[name]
		if name == "" {
			errs = append(errs, errors.New("dialog name is required"))
		}
		if len(w.Steps) == 0 {
			errs = append(errs, fmt.Errorf("dialog %q: at least one step is required", name))
		}
		for i, step := range w.Steps {
			if step == nil {
				errs = append(errs, fmt.Errorf("dialog %q step %d: step is nil", name, i))
			}
		}
	}
	for name, v := range s.validators {
		if name == "" || v == nil {
			errs = append(errs, fmt.Errorf("validator %q: name and function are required", name))
		}
	}
	return errors.Join(errs...)
}

// Dialog returns the waterfall registered under name.
func (s *DialogSet) Dialog(name string) (*Waterfall, bool) {
	w, ok := s.dialogs[name]
	return w, ok
}

// Validator returns the validator registered under name.
func (s *DialogSet) Validator(name string) (Validator, bool) {
	v, ok := s.validators[name]
	return v, ok
}

// Names returns the registered dialog names in sorted order.
func (s *DialogSet) Names() []string {
	names := make([]string, 0, len(s.dialogs))
	for name := range s.dialogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
