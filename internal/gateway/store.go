package gateway

import (
	"context"
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"switchdeck/internal/logging"
	"switchdeck/internal/models"
)

// DB implements Store over GORM.
type DB struct {
	gorm *gorm.DB
}

// InitDB opens (or creates) the SQLite database at path and migrates the
// schema.
func InitDB(path string) (*DB, error) {
	g, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, wrap("open", err)
	}

	if err := g.AutoMigrate(&models.Switch{}, &models.Port{}, &models.UserProfile{}); err != nil {
		return nil, wrap("migrate", err)
	}

	logging.Logger.WithField("path", path).Info("database ready")
	return &DB{gorm: g}, nil
}

func (d *DB) Switches(ctx context.Context) ([]models.Switch, error) {
	var switches []models.Switch
	if err := d.gorm.WithContext(ctx).Order("name asc").Find(&switches).Error; err != nil {
		return nil, wrap("list switches", err)
	}
	for i := range switches {
		var ports []models.Port
		err := d.gorm.WithContext(ctx).
			Where("switch_id = ?", switches[i].ID).
			Order("port_number asc").
			Find(&ports).Error
		if err != nil {
			return nil, wrap("list ports", err)
		}
		switches[i].Ports = ports
	}
	return switches, nil
}

func (d *DB) InsertSwitch(ctx context.Context, sw *models.Switch) error {
	return wrap("insert switch", d.gorm.WithContext(ctx).Create(sw).Error)
}

func (d *DB) UpdateSwitchName(ctx context.Context, switchID, name string) error {
	err := d.gorm.WithContext(ctx).
		Model(&models.Switch{}).
		Where("id = ?", switchID).
		Update("name", name).Error
	return wrap("update switch name", err)
}

func (d *DB) DeleteSwitch(ctx context.Context, switchID string) error {
	err := d.gorm.WithContext(ctx).
		Where("id = ?", switchID).
		Delete(&models.Switch{}).Error
	return wrap("delete switch", err)
}

func (d *DB) InsertPorts(ctx context.Context, switchID string, numbers []int) error {
	if len(numbers) == 0 {
		return nil
	}
	ports := make([]models.Port, 0, len(numbers))
	for _, n := range numbers {
		ports = append(ports, models.Port{SwitchID: switchID, PortNumber: n})
	}
	return wrap("insert ports", d.gorm.WithContext(ctx).Create(&ports).Error)
}

func (d *DB) DeletePorts(ctx context.Context, switchID string) error {
	err := d.gorm.WithContext(ctx).
		Where("switch_id = ?", switchID).
		Delete(&models.Port{}).Error
	return wrap("delete ports", err)
}

// UpsertPort inserts or updates a port row keyed on (switch_id,
// port_number). Device columns are written as given, including NULLs, so a
// cleared device clears the stored fields.
func (d *DB) UpsertPort(ctx context.Context, port models.Port) error {
	err := d.gorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "switch_id"}, {Name: "port_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"device_name", "device_mac", "device_ip", "device_type",
		}),
	}).Create(&models.Port{
		SwitchID:   port.SwitchID,
		PortNumber: port.PortNumber,
		DeviceName: port.DeviceName,
		DeviceMAC:  port.DeviceMAC,
		DeviceIP:   port.DeviceIP,
		DeviceType: port.DeviceType,
	}).Error
	return wrap("upsert port", err)
}

func (d *DB) Profiles(ctx context.Context) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	if err := d.gorm.WithContext(ctx).Order("created_at asc").Find(&profiles).Error; err != nil {
		return nil, wrap("list profiles", err)
	}
	return profiles, nil
}

func (d *DB) ProfileByID(ctx context.Context, id string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := d.gorm.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("profile by id", err)
	}
	return &profile, nil
}

func (d *DB) ProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := d.gorm.WithContext(ctx).Where("email = ?", email).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("profile by email", err)
	}
	return &profile, nil
}

func (d *DB) InsertProfile(ctx context.Context, profile *models.UserProfile) error {
	return wrap("insert profile", d.gorm.WithContext(ctx).Create(profile).Error)
}

// UpdateProfile updates the mutable profile fields. Email is immutable and
// deliberately not part of the update set.
func (d *DB) UpdateProfile(ctx context.Context, id string, fullName string, role models.Role) error {
	err := d.gorm.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"full_name": fullName, "role": role}).Error
	return wrap("update profile", err)
}

func (d *DB) DeleteProfile(ctx context.Context, id string) error {
	err := d.gorm.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.UserProfile{}).Error
	return wrap("delete profile", err)
}

func (d *DB) PromoteToAdminIfFirst(ctx context.Context, userID string) error {
	err := d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admins int64
		if err := tx.Model(&models.UserProfile{}).
			Where("role = ?", models.RoleAdmin).
			Count(&admins).Error; err != nil {
			return err
		}
		if admins > 0 {
			return ErrAdminExists
		}
		return tx.Model(&models.UserProfile{}).
			Where("id = ?", userID).
			Update("role", models.RoleAdmin).Error
	})
	if errors.Is(err, ErrAdminExists) {
		return ErrAdminExists
	}
	return wrap("promote first admin", err)
}
