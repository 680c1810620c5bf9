// Package gateway is the application's remote data gateway: the storage
// surface the registry, session guard and user directory talk to. The
// production implementation sits on GORM over SQLite; tests substitute
// their own Store.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"switchdeck/internal/models"
)

// ErrAdminExists is returned by PromoteToAdminIfFirst when an admin
// already exists; the first successful commit wins.
var ErrAdminExists = errors.New("an administrator already exists")

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Error wraps a storage or transport failure. Callers treat any *Error as
// "operation failed, remote state unknown, local state left as it was".
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrap returns nil for nil err, otherwise an *Error tagged with op.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Store is the persistence contract. Switch reads return ports ordered
// ascending by port number.
type Store interface {
	// Switch and port storage.
	Switches(ctx context.Context) ([]models.Switch, error)
	InsertSwitch(ctx context.Context, sw *models.Switch) error
	UpdateSwitchName(ctx context.Context, switchID, name string) error
	DeleteSwitch(ctx context.Context, switchID string) error
	InsertPorts(ctx context.Context, switchID string, numbers []int) error
	DeletePorts(ctx context.Context, switchID string) error
	UpsertPort(ctx context.Context, port models.Port) error

	// User profile storage.
	Profiles(ctx context.Context) ([]models.UserProfile, error)
	ProfileByID(ctx context.Context, id string) (*models.UserProfile, error)
	ProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	InsertProfile(ctx context.Context, profile *models.UserProfile) error
	UpdateProfile(ctx context.Context, id string, fullName string, role models.Role) error
	DeleteProfile(ctx context.Context, id string) error

	// PromoteToAdminIfFirst promotes the given user to admin inside a
	// transaction that re-checks no admin exists yet. Returns
	// ErrAdminExists when the check fails.
	PromoteToAdminIfFirst(ctx context.Context, userID string) error
}
