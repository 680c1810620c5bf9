// Package users is the privileged user-management service behind the admin
// screen. Every action re-checks the caller's role here, server-side; the
// web layer's gating is a UX affordance only.
package users

import (
	"context"
	"errors"
	"fmt"

	"switchdeck/internal/gateway"
	"switchdeck/internal/logging"
	"switchdeck/internal/models"
	"switchdeck/internal/session"
)

// Action names mirror the wire actions of the management endpoint.
type Action string

const (
	ActionListUsers         Action = "list_users"
	ActionInviteUser        Action = "invite_user"
	ActionUpdateUserRole    Action = "update_user_role"
	ActionDeleteUser        Action = "delete_user"
	ActionPromoteFirstAdmin Action = "promote_to_admin_if_first"
)

var (
	// ErrForbidden is the authorization denial. On list_users it doubles
	// as the "no admin exists yet" signal driving the first-admin
	// promotion screen.
	ErrForbidden = errors.New("Forbidden")
	// ErrSelfTarget: the signed-in account cannot delete itself or change
	// its own role through this screen.
	ErrSelfTarget = errors.New("cannot modify the signed-in account")
	// ErrPasswordRequired: inviting a user needs an initial password.
	ErrPasswordRequired = errors.New("an initial password is required to invite a user")
	// ErrInvalidRole: the role is not part of the closed enum.
	ErrInvalidRole = errors.New("invalid role")
)

// UserData carries the per-action payload.
type UserData struct {
	UserID   string
	Email    string
	Password string
	FullName string
	Role     models.Role
}

// Request is one invocation of the management endpoint.
type Request struct {
	Action   Action
	UserData *UserData
}

// Directory executes privileged user-management actions.
type Directory struct {
	store gateway.Store
}

func NewDirectory(store gateway.Store) *Directory {
	return &Directory{store: store}
}

// Handle runs one action on behalf of caller. All actions except the
// first-admin promotion require the admin role.
func (d *Directory) Handle(ctx context.Context, caller *models.UserProfile, req Request) (interface{}, error) {
	if caller == nil {
		return nil, ErrForbidden
	}

	switch req.Action {
	case ActionListUsers:
		return d.listUsers(ctx, caller)
	case ActionInviteUser:
		return d.inviteUser(ctx, caller, req.UserData)
	case ActionUpdateUserRole:
		return d.updateUserRole(ctx, caller, req.UserData)
	case ActionDeleteUser:
		return d.deleteUser(ctx, caller, req.UserData)
	case ActionPromoteFirstAdmin:
		return d.promoteFirstAdmin(ctx, caller)
	default:
		return nil, fmt.Errorf("unknown action %q", req.Action)
	}
}

func (d *Directory) listUsers(ctx context.Context, caller *models.UserProfile) ([]models.UserProfile, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return d.store.Profiles(ctx)
}

func (d *Directory) inviteUser(ctx context.Context, caller *models.UserProfile, data *UserData) (*models.UserProfile, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if data == nil || data.Email == "" {
		return nil, errors.New("email is required")
	}
	if data.Password == "" {
		return nil, ErrPasswordRequired
	}
	if !data.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := session.HashPassword(data.Password)
	if err != nil {
		return nil, err
	}
	profile := &models.UserProfile{
		Email:        data.Email,
		FullName:     data.FullName,
		Role:         data.Role,
		PasswordHash: hash,
		Confirmed:    true,
	}
	if err := d.store.InsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	logging.Logger.WithField("email", data.Email).Info("user invited")
	return profile, nil
}

func (d *Directory) updateUserRole(ctx context.Context, caller *models.UserProfile, data *UserData) (interface{}, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if data == nil || data.UserID == "" {
		return nil, errors.New("user id is required")
	}
	if data.UserID == caller.ID {
		return nil, ErrSelfTarget
	}
	if !data.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := d.store.UpdateProfile(ctx, data.UserID, data.FullName, data.Role); err != nil {
		return nil, err
	}
	return nil, nil
}

func (d *Directory) deleteUser(ctx context.Context, caller *models.UserProfile, data *UserData) (interface{}, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if data == nil || data.UserID == "" {
		return nil, errors.New("user id is required")
	}
	if data.UserID == caller.ID {
		return nil, ErrSelfTarget
	}
	if err := d.store.DeleteProfile(ctx, data.UserID); err != nil {
		return nil, err
	}
	logging.Logger.WithField("user_id", data.UserID).Info("user deleted")
	return nil, nil
}

// promoteFirstAdmin promotes the caller when no admin exists yet. The
// decision is made inside a store transaction: with two concurrent first
// users, the first successful commit wins and the loser gets Forbidden.
func (d *Directory) promoteFirstAdmin(ctx context.Context, caller *models.UserProfile) (interface{}, error) {
	err := d.store.PromoteToAdminIfFirst(ctx, caller.ID)
	if errors.Is(err, gateway.ErrAdminExists) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	logging.Logger.WithField("user_id", caller.ID).Info("first admin promoted")
	return nil, nil
}
