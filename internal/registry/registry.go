// Package registry owns the in-memory view of switches and the active
// selection. Every mutation follows the same contract: validate locally,
// write through the gateway, then reload from the gateway so the local
// view never reflects a half-applied write. A single busy flag serializes
// mutations registry-wide.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"switchdeck/internal/gateway"
	"switchdeck/internal/logging"
	"switchdeck/internal/models"
)

var (
	// ErrBusy: another mutation is still outstanding.
	ErrBusy = errors.New("registry busy: another operation is in progress")
	// ErrEmptyName: a switch name was empty or whitespace.
	ErrEmptyName = errors.New("switch name is required")
	// ErrBadPortCount: a port count was zero or negative.
	ErrBadPortCount = errors.New("port count must be a positive integer")
	// ErrNotConfirmed: a destructive operation ran without confirmation.
	ErrNotConfirmed = errors.New("operation requires confirmation")
	// ErrNotFound: the switch id is unknown to the registry.
	ErrNotFound = errors.New("switch not found")
)

// Registry synchronizes an in-memory switch list with the data gateway.
type Registry struct {
	store gateway.Store

	mu       sync.Mutex
	switches []models.Switch
	activeID string
	busy     bool
}

func New(store gateway.Store) *Registry {
	return &Registry{store: store}
}

// List reloads all switches and their ports from the gateway. On failure
// the prior in-memory state is preserved and the error returned. Reads are
// not gated by the busy flag; a refresh may interleave with a pending
// mutation's completion, the store stays the source of truth.
func (r *Registry) List(ctx context.Context) ([]models.Switch, error) {
	switches, err := r.store.Switches(ctx)
	if err != nil {
		logging.Logger.WithError(err).Error("switch reload failed, keeping last known state")
		return nil, err
	}

	r.mu.Lock()
	r.switches = switches
	r.normalizeSelection()
	out := r.snapshot()
	r.mu.Unlock()
	return out, nil
}

// Switches returns a copy of the current in-memory view.
func (r *Registry) Switches() []models.Switch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// ActiveID returns the currently selected switch id, or "".
func (r *Registry) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// Switch returns a copy of the switch with the given id.
func (r *Registry) Switch(id string) (*models.Switch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sw := range r.switches {
		if sw.ID == id {
			c := cloneSwitch(sw)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// Select changes the active switch.
func (r *Registry) Select(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sw := range r.switches {
		if sw.ID == id {
			r.activeID = id
			return nil
		}
	}
	return ErrNotFound
}

// Create persists a new switch with ports numbered 1..portCount and makes
// it the active selection. If port creation fails after the switch row was
// created, the switch row is deleted again: a switch never persists
// without its full port set.
func (r *Registry) Create(ctx context.Context, name string, portCount int) (*models.Switch, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if portCount <= 0 {
		return nil, ErrBadPortCount
	}
	if err := r.begin(); err != nil {
		return nil, err
	}
	defer r.end()

	sw := &models.Switch{Name: name}
	if err := r.store.InsertSwitch(ctx, sw); err != nil {
		return nil, err
	}
	if err := r.store.InsertPorts(ctx, sw.ID, sequence(1, portCount)); err != nil {
		// Compensating delete; the partial switch must not survive.
		if derr := r.store.DeleteSwitch(ctx, sw.ID); derr != nil {
			logging.Logger.WithError(derr).Error("rollback of partially created switch failed")
		}
		return nil, err
	}

	if _, err := r.reload(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.activeID = sw.ID
	r.mu.Unlock()

	logging.Logger.WithField("switch", name).Info("switch created")
	return sw, nil
}

// RenameResize updates the switch name and, when newPortCount differs from
// the current count, drops every port and recreates 1..newPortCount. The
// resize is destructive: all device assignments on the switch are lost.
// Callers must warn the user before invoking it.
func (r *Registry) RenameResize(ctx context.Context, switchID, newName string, newPortCount int) error {
	if newName == "" {
		return ErrEmptyName
	}
	if newPortCount <= 0 {
		return ErrBadPortCount
	}

	r.mu.Lock()
	current := -1
	for _, sw := range r.switches {
		if sw.ID == switchID {
			current = len(sw.Ports)
		}
	}
	r.mu.Unlock()
	if current < 0 {
		return ErrNotFound
	}

	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	if err := r.store.UpdateSwitchName(ctx, switchID, newName); err != nil {
		return err
	}
	if newPortCount != current {
		if err := r.store.DeletePorts(ctx, switchID); err != nil {
			return err
		}
		if err := r.store.InsertPorts(ctx, switchID, sequence(1, newPortCount)); err != nil {
			return err
		}
	}

	_, err := r.reload(ctx)
	return err
}

// Delete removes the switch and all its ports. The caller must have
// obtained affirmative confirmation from the user. If the deleted switch
// was the active selection, selection moves to a remaining switch or
// empties.
func (r *Registry) Delete(ctx context.Context, switchID string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if _, err := r.Switch(switchID); err != nil {
		return err
	}
	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	// Ports first so a failure between the two deletes never leaves
	// orphaned port rows behind a missing switch.
	if err := r.store.DeletePorts(ctx, switchID); err != nil {
		return err
	}
	if err := r.store.DeleteSwitch(ctx, switchID); err != nil {
		return err
	}

	_, err := r.reload(ctx)
	return err
}

// UpdateFull persists the switch name and upserts every port's device
// fields, writing NULLs for cleared devices. This is the commit path for
// all per-port device edits and removals.
func (r *Registry) UpdateFull(ctx context.Context, switchID string, updated models.Switch) error {
	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	if err := r.store.UpdateSwitchName(ctx, switchID, updated.Name); err != nil {
		return err
	}
	for _, p := range updated.Ports {
		p.SwitchID = switchID
		if err := r.store.UpsertPort(ctx, p); err != nil {
			return err
		}
	}

	_, err := r.reload(ctx)
	return err
}

// AddPorts appends count sequentially numbered ports after the current
// maximum. Existing ports are never renumbered or touched.
func (r *Registry) AddPorts(ctx context.Context, switchID string, count int) error {
	if count <= 0 {
		return ErrBadPortCount
	}
	sw, err := r.Switch(switchID)
	if err != nil {
		return err
	}
	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	if err := r.store.InsertPorts(ctx, switchID, sequence(sw.MaxPortNumber()+1, count)); err != nil {
		return err
	}

	_, err = r.reload(ctx)
	return err
}

// begin claims the registry-wide busy flag for a mutation.
func (r *Registry) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return ErrBusy
	}
	r.busy = true
	return nil
}

func (r *Registry) end() {
	r.mu.Lock()
	r.busy = false
	r.mu.Unlock()
}

// reload refreshes in-memory state from the gateway after a mutation.
func (r *Registry) reload(ctx context.Context) ([]models.Switch, error) {
	switches, err := r.store.Switches(ctx)
	if err != nil {
		logging.Logger.WithError(err).Error("post-mutation reload failed, keeping last known state")
		return nil, fmt.Errorf("reload after write: %w", err)
	}
	r.mu.Lock()
	r.switches = switches
	r.normalizeSelection()
	out := r.snapshot()
	r.mu.Unlock()
	return out, nil
}

// normalizeSelection keeps activeID pointing at an existing switch. Called
// with mu held.
func (r *Registry) normalizeSelection() {
	if len(r.switches) == 0 {
		r.activeID = ""
		return
	}
	for _, sw := range r.switches {
		if sw.ID == r.activeID {
			return
		}
	}
	r.activeID = r.switches[0].ID
}

// snapshot copies the switch list. Called with mu held.
func (r *Registry) snapshot() []models.Switch {
	out := make([]models.Switch, len(r.switches))
	for i, sw := range r.switches {
		out[i] = cloneSwitch(sw)
	}
	return out
}

func cloneSwitch(sw models.Switch) models.Switch {
	c := sw
	c.Ports = make([]models.Port, len(sw.Ports))
	copy(c.Ports, sw.Ports)
	return c
}

func sequence(start, count int) []int {
	nums := make([]int, count)
	for i := range nums {
		nums[i] = start + i
	}
	return nums
}
