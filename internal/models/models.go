package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceClass is the closed set of device types a port can hold.
type DeviceClass string

const (
	ClassComputer DeviceClass = "computer"
	ClassLaptop   DeviceClass = "laptop"
	ClassPhone    DeviceClass = "phone"
	ClassServer   DeviceClass = "server"
	ClassRouter   DeviceClass = "router"
	ClassDVR      DeviceClass = "dvr"
)

var deviceClasses = map[DeviceClass]bool{
	ClassComputer: true,
	ClassLaptop:   true,
	ClassPhone:    true,
	ClassServer:   true,
	ClassRouter:   true,
	ClassDVR:      true,
}

// Valid reports whether c is one of the known device classes.
func (c DeviceClass) Valid() bool {
	return deviceClasses[c]
}

// DeviceClasses lists the valid classes in display order.
func DeviceClasses() []DeviceClass {
	return []DeviceClass{ClassComputer, ClassLaptop, ClassPhone, ClassServer, ClassRouter, ClassDVR}
}

// Role is a user profile role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleFeeder Role = "feeder"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleFeeder
}

// Device is the end host attached to a port.
type Device struct {
	Name  string
	MAC   string
	IP    string
	Class DeviceClass
}

// Switch is a managed switch owning an ordered set of numbered ports.
// Ports are loaded separately and kept in ascending port-number order.
type Switch struct {
	ID    string `gorm:"primaryKey"`
	Name  string `gorm:"not null"`
	Ports []Port `gorm:"-"`
}

func (s *Switch) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// MaxPortNumber returns the highest port number on the switch, 0 if none.
func (s *Switch) MaxPortNumber() int {
	max := 0
	for _, p := range s.Ports {
		if p.PortNumber > max {
			max = p.PortNumber
		}
	}
	return max
}

// Port is a numbered slot on a switch. The device columns are nullable;
// a port with no device name is free. Port rows outlive device edits.
type Port struct {
	ID         uint    `gorm:"primaryKey"`
	SwitchID   string  `gorm:"uniqueIndex:idx_switch_port;not null"`
	PortNumber int     `gorm:"uniqueIndex:idx_switch_port;not null"`
	DeviceName *string
	DeviceMAC  *string `gorm:"column:device_mac"`
	DeviceIP   *string `gorm:"column:device_ip"`
	DeviceType *string
}

// Device returns the attached device, or nil when the port is free.
func (p *Port) Device() *Device {
	if p.DeviceName == nil || *p.DeviceName == "" {
		return nil
	}
	d := &Device{Name: *p.DeviceName}
	if p.DeviceMAC != nil {
		d.MAC = *p.DeviceMAC
	}
	if p.DeviceIP != nil {
		d.IP = *p.DeviceIP
	}
	if p.DeviceType != nil {
		d.Class = DeviceClass(*p.DeviceType)
	}
	return d
}

// SetDevice attaches d to the port, replacing any previous device.
func (p *Port) SetDevice(d Device) {
	name, mac, ip, class := d.Name, d.MAC, d.IP, string(d.Class)
	p.DeviceName = &name
	p.DeviceMAC = &mac
	p.DeviceIP = &ip
	p.DeviceType = &class
}

// ClearDevice frees the port. The port row itself is kept.
func (p *Port) ClearDevice() {
	p.DeviceName = nil
	p.DeviceMAC = nil
	p.DeviceIP = nil
	p.DeviceType = nil
}

// UserProfile is the role-bearing identity record behind a session.
// Email is immutable after creation.
type UserProfile struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	FullName     string
	Role         Role   `gorm:"not null;default:feeder"`
	PasswordHash string `gorm:"not null"`
	Confirmed    bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
}

func (u *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin reports whether the profile holds the admin role.
func (u *UserProfile) IsAdmin() bool {
	return u.Role == RoleAdmin
}
