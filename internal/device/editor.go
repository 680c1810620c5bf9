// Package device validates and commits device edits for a single port.
// Validation runs entirely locally; nothing reaches the store until every
// field has passed.
package device

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"switchdeck/internal/models"
	"switchdeck/internal/registry"
)

// Validation failure reasons.
const (
	ReasonRequired     = "required"
	ReasonInvalidMAC   = "invalid_mac"
	ReasonInvalidIP    = "invalid_ip"
	ReasonInvalidClass = "invalid_class"
)

// ValidationError reports a single malformed form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

var validate = validator.New()

// MAC groups must use one separator style throughout; the two accepted
// shapes are checked separately since Go regexps have no backreferences.
var (
	macColonPattern  = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$`)
	macHyphenPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}-){5}[0-9A-Fa-f]{2}$`)
	ipPattern        = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)
)

// Form holds the raw device attributes from the edit modal.
type Form struct {
	Name  string `validate:"required"`
	MAC   string `validate:"required"`
	IP    string `validate:"required"`
	Class string `validate:"required"`
}

// Validate checks all fields and returns the staged device on success. The
// first failing field is reported. The MAC is normalized to uppercase.
func (f *Form) Validate() (*models.Device, error) {
	if strings.TrimSpace(f.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: ReasonRequired}
	}
	if err := validate.Struct(f); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			return nil, &ValidationError{Field: strings.ToLower(fe.Field()), Reason: ReasonRequired}
		}
	}
	if !macColonPattern.MatchString(f.MAC) && !macHyphenPattern.MatchString(f.MAC) {
		return nil, &ValidationError{Field: "mac", Reason: ReasonInvalidMAC}
	}
	if !ipPattern.MatchString(f.IP) {
		return nil, &ValidationError{Field: "ip", Reason: ReasonInvalidIP}
	}
	class := models.DeviceClass(f.Class)
	if !class.Valid() {
		return nil, &ValidationError{Field: "class", Reason: ReasonInvalidClass}
	}
	return &models.Device{
		Name:  strings.TrimSpace(f.Name),
		MAC:   strings.ToUpper(f.MAC),
		IP:    f.IP,
		Class: class,
	}, nil
}

// Editor stages device edits and commits them through the registry.
type Editor struct {
	Registry *registry.Registry
}

// Commit validates the form, replaces the target port's device in the
// in-memory switch and persists the whole switch via UpdateFull.
func (e *Editor) Commit(ctx context.Context, switchID string, portNumber int, form Form) error {
	dev, err := form.Validate()
	if err != nil {
		return err
	}

	sw, err := e.staged(switchID, portNumber)
	if err != nil {
		return err
	}
	for i := range sw.Ports {
		if sw.Ports[i].PortNumber == portNumber {
			sw.Ports[i].SetDevice(*dev)
		}
	}
	return e.Registry.UpdateFull(ctx, switchID, *sw)
}

// Remove clears the target port's device. The port itself is retained.
func (e *Editor) Remove(ctx context.Context, switchID string, portNumber int) error {
	sw, err := e.staged(switchID, portNumber)
	if err != nil {
		return err
	}
	for i := range sw.Ports {
		if sw.Ports[i].PortNumber == portNumber {
			sw.Ports[i].ClearDevice()
		}
	}
	return e.Registry.UpdateFull(ctx, switchID, *sw)
}

// staged returns a mutable copy of the switch, checking the port exists.
func (e *Editor) staged(switchID string, portNumber int) (*models.Switch, error) {
	sw, err := e.Registry.Switch(switchID)
	if err != nil {
		return nil, err
	}
	for _, p := range sw.Ports {
		if p.PortNumber == portNumber {
			return sw, nil
		}
	}
	return nil, fmt.Errorf("port %d not found on switch %s", portNumber, switchID)
}
