package database

import (
	"context"
	"errors"
	"fmt"

	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository"
	"go-kasir-ws/internal/repository/memory"
	"go-kasir-ws/pkg/config"

	"github.com/rs/zerolog"
)

// OpenStore connects the configured backend and migrates it. The returned close
// func releases the pool.
func OpenStore(cfg config.DBConfig, log zerolog.Logger) (*repository.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory store, data is lost on exit")
		return memory.New().Repository(), func() {}, nil

	case config.DriverPostgres:
		db, err := ConnectDB(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		if err := Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repository.NewStore(db), closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
}

type seedActor struct {
	username, password, fullName string
	role                         model.Role
}

var defaultActors = []seedActor{
	{"admin", "admin123", "Administrator", model.RoleAdmin},
	{"manager1", "manager123", "Manager 1", model.RoleManager},
	{"kasir1", "kasir123", "Kasir 1", model.RoleCashier},
	{"kasir2", "kasir123", "Kasir 2", model.RoleCashier},
}

var defaultProducts = []model.Product{
	{Barcode: "8992700100097", Name: "Indomie Goreng", Price: 2500, Stock: 50},
	{Barcode: "8992700100110", Name: "Indomie Kuah Ayam", Price: 2500, Stock: 50},
	{Barcode: "8992711400029", Name: "Mie Sedaap Goreng", Price: 3000, Stock: 50},
	{Barcode: "4001200006008", Name: "Aqua 600ml", Price: 5000, Stock: 100},
	{Barcode: "8998888100010", Name: "Coca Cola 250ml", Price: 4500, Stock: 80},
	{Barcode: "8888000100001", Name: "Sprite 250ml", Price: 4500, Stock: 80},
	{Barcode: "8999999900001", Name: "Teh Sosro", Price: 3000, Stock: 60},
	{Barcode: "7777777700001", Name: "Roti Tawar", Price: 8000, Stock: 30},
}

const defaultMinimumStock = 20

// SeedDefaults creates the default actors and catalogue when they are missing.
// Existing rows are left alone.
func SeedDefaults(ctx context.Context, store *repository.Store, log zerolog.Logger) error {
	for _, sa := range defaultActors {
		_, err := store.Actors.FindByUsername(ctx, sa.username)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		a := &model.Actor{Username: sa.username, FullName: sa.fullName, Role: sa.role, IsActive: true}
		a.CreatedBy, a.UpdatedBy = "system", "system"
		if err := a.SetPassword(sa.password); err != nil {
			return fmt.Errorf("hash password for %s: %w", sa.username, err)
		}
		if err := store.Actors.Create(ctx, a); err != nil {
			return fmt.Errorf("seed actor %s: %w", sa.username, err)
		}
		log.Info().Str("username", sa.username).Str("role", string(sa.role)).Msg("seeded actor")
	}

	for _, p := range defaultProducts {
		_, err := store.Products.FindByBarcode(ctx, p.Barcode)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		p.MinimumStock = defaultMinimumStock
		p.InitialStock = p.Stock
		p.CreatedBy, p.UpdatedBy = "system", "system"
		if err := store.Products.Create(ctx, &p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.Barcode, err)
		}
	}
	return nil
}
