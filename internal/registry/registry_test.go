package registry

import (
	"context"
	"errors"
	"testing"

	"switchdeck/internal/gateway"
	"switchdeck/internal/gateway/gatewaytest"
	"switchdeck/internal/models"
)

func TestCreateYieldsSequentialFreePorts(t *testing.T) {
	fake := gatewaytest.New()
	reg := New(fake)
	ctx := context.Background()

	for _, n := range []int{1, 8, 24, 48} {
		sw, err := reg.Create(ctx, "sw", n)
		if err != nil {
			t.Fatalf("Create(%d): %v", n, err)
		}
		got, err := reg.Switch(sw.ID)
		if err != nil {
			t.Fatalf("Switch: %v", err)
		}
		if len(got.Ports) != n {
			t.Fatalf("Create(%d) yielded %d ports", n, len(got.Ports))
		}
		for i, p := range got.Ports {
			if p.PortNumber != i+1 {
				t.Fatalf("port %d numbered %d, want %d", i, p.PortNumber, i+1)
			}
			if p.Device() != nil {
				t.Fatalf("new port %d has a device", p.PortNumber)
			}
		}
	}
}

func TestCreateValidation(t *testing.T) {
	reg := New(gatewaytest.New())
	ctx := context.Background()

	if _, err := reg.Create(ctx, "", 8); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("empty name: got %v, want ErrEmptyName", err)
	}
	if _, err := reg.Create(ctx, "sw", 0); !errors.Is(err, ErrBadPortCount) {
		t.Fatalf("zero ports: got %v, want ErrBadPortCount", err)
	}
	if _, err := reg.Create(ctx, "sw", -3); !errors.Is(err, ErrBadPortCount) {
		t.Fatalf("negative ports: got %v, want ErrBadPortCount", err)
	}
}

func TestCreateRollsBackOnPortFailure(t *testing.T) {
	fake := gatewaytest.New()
	reg := New(fake)
	ctx := context.Background()

	boom := errors.New("insert failed")
	fake.Err["InsertPorts"] = boom

	_, err := reg.Create(ctx, "sw", 8)
	if !errors.Is(err, boom) {
		t.Fatalf("Create: got %v, want the insert failure", err)
	}
	// The compensating delete must have removed the half-created switch.
	if len(fake.SwitchRows) != 0 {
		t.Fatalf("switch row survived a failed port insert: %v", fake.SwitchRows)
	}
}

func TestRenameResizeClearsDevices(t *testing.T) {
	fake := gatewaytest.New()
	reg := New(fake)
	ctx := context.Background()

	sw, err := reg.Create(ctx, "sw", 8)
	if err != nil {
		t.Fatal(err)
	}
	attachDevice(t, reg, sw.ID, 3)

	if err := reg.RenameResize(ctx, sw.ID, "renamed", 12); err != nil {
		t.Fatalf("RenameResize: %v", err)
	}

	got, err := reg.Switch(sw.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "renamed" {
		t.Errorf("name = %q, want renamed", got.Name)
	}
	if len(got.Ports) != 12 {
		t.Fatalf("resized to %d ports, want 12", len(got.Ports))
	}
	for _, p := range got.Ports {
		if p.Device() != nil {
			t.Fatalf("port %d kept its device through a resize", p.PortNumber)
		}
	}
}

func TestRenameKeepsPortsWhenCountUnchanged(t *testing.T) {
	fake := gatewaytest.New()
	reg := New(fake)
	ctx := context.Background()

	sw, err := reg.Create(ctx, "sw", 8)
	if err != nil {
		t.Fatal(err)
	}
	attachDevice(t, reg, sw.ID, 3)

	if err := reg.RenameResize(ctx, sw.ID, "renamed", 8); err != nil {
		t.Fatalf("RenameResize: %v", err)
	}

	got, _ := reg.Switch(sw.ID)
	if got.Ports[2].Device() == nil {
		t.Fatal("same-count rename dropped a device assignment")
	}
}

func TestAddPortsAppendsAfterMax(t *testing.T) {
	fake := gatewaytest.New()
	reg := New(fake)
	ctx := context.Background()

	sw, err := reg.Create(ctx, "sw", 8)
	if err != nil {
		t.Fatal(err)
	}
	attachDevice(t, reg, sw.ID, 3)

	if err := reg.AddPorts(ctx, sw.ID, 4); err != nil {
		t.Fatalf("AddPorts: %v", err)
	}

	got, _ := reg.Switch(sw.ID)
	if len(got.Ports) != 12 {
		t.Fatalf("got %d ports, want 12", len(got.Ports))
	}
	for i, p := range got.Ports {
		if p.PortNumber != i+1 {
			t.Fatalf("port %d numbered %d, want %d", i, p.PortNumber, i+1)
		}
	}
	if got.Ports[2].Device() == nil {
		t.Fatal("AddPorts disturbed an existing device assignment")
	}
}

func TestDeleteCascadesAndMovesSelection(t *testing.T) {
	fake := gatewaytest.New()
	reg := New(fake)
	ctx := context.Background()

	a, err := reg.Create(ctx, "a", 4)
	if err != nil {
		t.Fatal(err)
	}
	b, err := reg.Create(ctx, "b", 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Select(a.ID); err != nil {
		t.Fatal(err)
	}

	if err := reg.Delete(ctx, a.ID, true); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := fake.PortRows[a.ID]; ok {
		t.Fatal("ports survived switch deletion")
	}
	if got := reg.ActiveID(); got != b.ID {
		t.Fatalf("selection = %q, want remaining switch %q", got, b.ID)
	}

	if err := reg.Delete(ctx, b.ID, true); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := reg.ActiveID(); got != "" {
		t.Fatalf("selection = %q after last delete, want empty", got)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	fake := gatewaytest.New()
	reg := New(fake)
	ctx := context.Background()

	sw, err := reg.Create(ctx, "a", 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Delete(ctx, sw.ID, false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("unconfirmed delete: got %v, want ErrNotConfirmed", err)
	}
	if len(fake.SwitchRows) != 1 {
		t.Fatal("unconfirmed delete reached the store")
	}
}

func TestListFailurePreservesState(t *testing.T) {
	fake := gatewaytest.New()
	reg := New(fake)
	ctx := context.Background()

	if _, err := reg.Create(ctx, "a", 4); err != nil {
		t.Fatal(err)
	}

	fake.Err["Switches"] = errors.New("connection refused")
	if _, err := reg.List(ctx); err == nil {
		t.Fatal("List succeeded against a failing store")
	}

	// Prior in-memory state must survive the failed reload.
	if got := reg.Switches(); len(got) != 1 || len(got[0].Ports) != 4 {
		t.Fatalf("state lost after failed reload: %+v", got)
	}
}

func TestMutationsSerializedByBusyFlag(t *testing.T) {
	fake := gatewaytest.New()
	blocker := &blockingStore{Store: fake, entered: make(chan struct{}), release: make(chan struct{})}
	reg := New(blocker)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := reg.Create(ctx, "slow", 4)
		done <- err
	}()

	<-blocker.entered
	if _, err := reg.Create(ctx, "fast", 4); !errors.Is(err, ErrBusy) {
		t.Fatalf("concurrent mutation: got %v, want ErrBusy", err)
	}

	close(blocker.release)
	if err := <-done; err != nil {
		t.Fatalf("first mutation failed: %v", err)
	}

	// With the flag released, mutations work again.
	if _, err := reg.Create(ctx, "after", 4); err != nil {
		t.Fatalf("mutation after release: %v", err)
	}
}

func TestSelectUnknownSwitch(t *testing.T) {
	reg := New(gatewaytest.New())
	if err := reg.Select("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

// attachDevice puts a device on the given port via UpdateFull, the same
// path the device editor uses.
func attachDevice(t *testing.T, reg *Registry, switchID string, portNumber int) {
	t.Helper()
	sw, err := reg.Switch(switchID)
	if err != nil {
		t.Fatal(err)
	}
	for i := range sw.Ports {
		if sw.Ports[i].PortNumber == portNumber {
			sw.Ports[i].SetDevice(models.Device{
				Name:  "host",
				MAC:   "00:1B:44:11:3A:B7",
				IP:    "192.168.1.100",
				Class: models.ClassComputer,
			})
		}
	}
	if err := reg.UpdateFull(context.Background(), switchID, *sw); err != nil {
		t.Fatalf("UpdateFull: %v", err)
	}
}

// blockingStore stalls InsertPorts until released, to hold the busy flag
// across a concurrent mutation attempt.
type blockingStore struct {
	gateway.Store
	entered chan struct{}
	release chan struct{}
	once    bool
}

func (b *blockingStore) InsertPorts(ctx context.Context, switchID string, numbers []int) error {
	if !b.once {
		b.once = true
		close(b.entered)
		<-b.release
	}
	return b.Store.InsertPorts(ctx, switchID, numbers)
}
