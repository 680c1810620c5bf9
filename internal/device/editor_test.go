package device

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"switchdeck/internal/gateway/gatewaytest"
	"switchdeck/internal/registry"
)

func validForm() Form {
	return Form{
		Name:  "Reception desk",
		MAC:   "00:1b:44:11:3a:b7",
		IP:    "192.168.1.100",
		Class: "computer",
	}
}

func TestFormValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Form)
		wantField  string
		wantReason string
	}{
		{"valid form", func(f *Form) {}, "", ""},
		{"empty name", func(f *Form) { f.Name = "" }, "name", ReasonRequired},
		{"whitespace name", func(f *Form) { f.Name = "   " }, "name", ReasonRequired},
		{"empty mac", func(f *Form) { f.MAC = "" }, "mac", ReasonRequired},
		{"five MAC groups", func(f *Form) { f.MAC = "00:1B:44:11:3A" }, "mac", ReasonInvalidMAC},
		{"mixed separators", func(f *Form) { f.MAC = "00:1B-44:11:3A:B7" }, "mac", ReasonInvalidMAC},
		{"non-hex MAC", func(f *Form) { f.MAC = "00:1B:44:11:3A:GG" }, "mac", ReasonInvalidMAC},
		{"empty ip", func(f *Form) { f.IP = "" }, "ip", ReasonRequired},
		{"octet out of range", func(f *Form) { f.IP = "192.168.1.999" }, "ip", ReasonInvalidIP},
		{"three octets", func(f *Form) { f.IP = "10.0.0" }, "ip", ReasonInvalidIP},
		{"unknown class", func(f *Form) { f.Class = "toaster" }, "class", ReasonInvalidClass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			dev, err := form.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want success", err)
				}
				if dev == nil {
					t.Fatal("Validate() returned nil device on success")
				}
				return
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField || ve.Reason != tt.wantReason {
				t.Fatalf("got %s/%s, want %s/%s", ve.Field, ve.Reason, tt.wantField, tt.wantReason)
			}
		})
	}
}

func TestValidateNormalizesMAC(t *testing.T) {
	form := validForm()
	dev, err := form.Validate()
	require.NoError(t, err)
	require.Equal(t, "00:1B:44:11:3A:B7", dev.MAC, "MAC must be stored uppercase")
}

func TestValidateAcceptsHyphenSeparators(t *testing.T) {
	form := validForm()
	form.MAC = "00-1b-44-11-3a-b7"
	dev, err := form.Validate()
	require.NoError(t, err)
	require.Equal(t, "00-1B-44-11-3A-B7", dev.MAC)
}

func TestCommitAndRemove(t *testing.T) {
	fake := gatewaytest.New()
	reg := registry.New(fake)
	editor := &Editor{Registry: reg}
	ctx := context.Background()

	sw, err := reg.Create(ctx, "core-1", 4)
	require.NoError(t, err)

	require.NoError(t, editor.Commit(ctx, sw.ID, 2, validForm()))

	got, err := reg.Switch(sw.ID)
	require.NoError(t, err)
	dev := got.Ports[1].Device()
	require.NotNil(t, dev)
	require.Equal(t, "Reception desk", dev.Name)
	require.Equal(t, "00:1B:44:11:3A:B7", dev.MAC)

	// Removing the device keeps the port row.
	require.NoError(t, editor.Remove(ctx, sw.ID, 2))
	got, err = reg.Switch(sw.ID)
	require.NoError(t, err)
	require.Len(t, got.Ports, 4)
	require.Nil(t, got.Ports[1].Device())
}

func TestCommitRejectsInvalidBeforeAnyWrite(t *testing.T) {
	fake := gatewaytest.New()
	reg := registry.New(fake)
	editor := &Editor{Registry: reg}
	ctx := context.Background()

	sw, err := reg.Create(ctx, "core-1", 4)
	require.NoError(t, err)

	// A failing store op would surface if the commit reached it.
	fake.Err["UpsertPort"] = errors.New("must not be called")

	form := validForm()
	form.IP = "10.0.0"
	err = editor.Commit(ctx, sw.ID, 2, form)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ReasonInvalidIP, ve.Reason)
}

func TestCommitUnknownPort(t *testing.T) {
	fake := gatewaytest.New()
	reg := registry.New(fake)
	editor := &Editor{Registry: reg}
	ctx := context.Background()

	sw, err := reg.Create(ctx, "core-1", 4)
	require.NoError(t, err)

	err = editor.Commit(ctx, sw.ID, 99, validForm())
	require.Error(t, err)
}
