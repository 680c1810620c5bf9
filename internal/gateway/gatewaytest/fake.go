// Package gatewaytest provides an in-memory Store for component tests,
// with per-operation error injection.
package gatewaytest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"switchdeck/internal/gateway"
	"switchdeck/internal/models"
)

// Fake is an in-memory gateway.Store. Set Err["op"] to make that
// operation fail; op names match the method names.
type Fake struct {
	mu sync.Mutex

	SwitchRows  map[string]string        // id -> name
	PortRows    map[string][]models.Port // switch id -> ports
	ProfileRows map[string]*models.UserProfile

	Err    map[string]error
	nextID int
}

func New() *Fake {
	return &Fake{
		SwitchRows:  make(map[string]string),
		PortRows:    make(map[string][]models.Port),
		ProfileRows: make(map[string]*models.UserProfile),
		Err:         make(map[string]error),
	}
}

func (f *Fake) fail(op string) error { return f.Err[op] }

func (f *Fake) Switches(ctx context.Context) ([]models.Switch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Switches"); err != nil {
		return nil, err
	}
	var out []models.Switch
	for id, name := range f.SwitchRows {
		ports := append([]models.Port(nil), f.PortRows[id]...)
		sort.Slice(ports, func(i, j int) bool { return ports[i].PortNumber < ports[j].PortNumber })
		out = append(out, models.Switch{ID: id, Name: name, Ports: ports})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *Fake) InsertSwitch(ctx context.Context, sw *models.Switch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertSwitch"); err != nil {
		return err
	}
	if sw.ID == "" {
		f.nextID++
		sw.ID = fmt.Sprintf("sw-%d", f.nextID)
	}
	f.SwitchRows[sw.ID] = sw.Name
	return nil
}

func (f *Fake) UpdateSwitchName(ctx context.Context, switchID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateSwitchName"); err != nil {
		return err
	}
	f.SwitchRows[switchID] = name
	return nil
}

func (f *Fake) DeleteSwitch(ctx context.Context, switchID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteSwitch"); err != nil {
		return err
	}
	delete(f.SwitchRows, switchID)
	return nil
}

func (f *Fake) InsertPorts(ctx context.Context, switchID string, numbers []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertPorts"); err != nil {
		return err
	}
	for _, n := range numbers {
		f.PortRows[switchID] = append(f.PortRows[switchID], models.Port{
			SwitchID:   switchID,
			PortNumber: n,
		})
	}
	return nil
}

func (f *Fake) DeletePorts(ctx context.Context, switchID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeletePorts"); err != nil {
		return err
	}
	delete(f.PortRows, switchID)
	return nil
}

func (f *Fake) UpsertPort(ctx context.Context, port models.Port) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpsertPort"); err != nil {
		return err
	}
	ports := f.PortRows[port.SwitchID]
	for i := range ports {
		if ports[i].PortNumber == port.PortNumber {
			ports[i].DeviceName = port.DeviceName
			ports[i].DeviceMAC = port.DeviceMAC
			ports[i].DeviceIP = port.DeviceIP
			ports[i].DeviceType = port.DeviceType
			return nil
		}
	}
	f.PortRows[port.SwitchID] = append(ports, port)
	return nil
}

func (f *Fake) Profiles(ctx context.Context) ([]models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Profiles"); err != nil {
		return nil, err
	}
	var out []models.UserProfile
	for _, p := range f.ProfileRows {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *Fake) ProfileByID(ctx context.Context, id string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ProfileByID"); err != nil {
		return nil, err
	}
	p, ok := f.ProfileRows[id]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (f *Fake) ProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ProfileByEmail"); err != nil {
		return nil, err
	}
	for _, p := range f.ProfileRows {
		if p.Email == email {
			c := *p
			return &c, nil
		}
	}
	return nil, gateway.ErrNotFound
}

func (f *Fake) InsertProfile(ctx context.Context, profile *models.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertProfile"); err != nil {
		return err
	}
	if profile.ID == "" {
		f.nextID++
		profile.ID = fmt.Sprintf("user-%d", f.nextID)
	}
	c := *profile
	f.ProfileRows[profile.ID] = &c
	return nil
}

func (f *Fake) UpdateProfile(ctx context.Context, id string, fullName string, role models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateProfile"); err != nil {
		return err
	}
	p, ok := f.ProfileRows[id]
	if !ok {
		return gateway.ErrNotFound
	}
	p.FullName = fullName
	p.Role = role
	return nil
}

func (f *Fake) DeleteProfile(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteProfile"); err != nil {
		return err
	}
	delete(f.ProfileRows, id)
	return nil
}

func (f *Fake) PromoteToAdminIfFirst(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("PromoteToAdminIfFirst"); err != nil {
		return err
	}
	for _, p := range f.ProfileRows {
		if p.Role == models.RoleAdmin {
			return gateway.ErrAdminExists
		}
	}
	p, ok := f.ProfileRows[userID]
	if !ok {
		return gateway.ErrNotFound
	}
	p.Role = models.RoleAdmin
	return nil
}
