package device

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-panels/migrations"
)

// setupTestDB opens a migrated SQLite database in a temporary directory.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "devices.db"),
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), migrations.FS, migrations.Dir); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func testDevice(id string) *Device {
	return &Device{
		ID:   id,
		Name: "Hall " + id,
		Type: "light",
		Capabilities: map[string]CapabilityDef{
			CapOnOff: {Setable: true},
			CapDim:   {Setable: true},
		},
		State: State{CapOnOff: false},
	}
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t).DB)

	if err := repo.Create(ctx, testDevice("light-1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "light-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Hall light-1" {
		t.Errorf("Name = %q, want %q", got.Name, "Hall light-1")
	}
	if !got.Capabilities[CapDim].Setable {
		t.Error("dim capability should be setable")
	}
	if got.State[CapOnOff] != false {
		t.Errorf("State[onoff] = %v, want false", got.State[CapOnOff])
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestSQLiteRepository_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t).DB)

	if err := repo.Create(ctx, testDevice("light-1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := repo.Create(ctx, testDevice("light-1"))
	if !errors.Is(err, ErrDeviceExists) {
		t.Errorf("Create() duplicate error = %v, want ErrDeviceExists", err)
	}
}

func TestSQLiteRepository_GetByID_NotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t).DB)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_UpdateStateMerges(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t).DB)

	if err := repo.Create(ctx, testDevice("light-1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.UpdateState(ctx, "light-1", State{CapDim: 0.4}); err != nil {
		t.Fatalf("UpdateState() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "light-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.State[CapDim] != 0.4 {
		t.Errorf("State[dim] = %v, want 0.4", got.State[CapDim])
	}
	if got.State[CapOnOff] != false {
		t.Errorf("State[onoff] = %v, want false (preserved)", got.State[CapOnOff])
	}
	if got.StateUpdatedAt == nil {
		t.Error("StateUpdatedAt should be set")
	}

	if err := repo.UpdateState(ctx, "missing", State{CapDim: 1.0}); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("UpdateState() on missing device error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t).DB)

	for _, id := range []string{"b", "a"} {
		if err := repo.Create(ctx, testDevice(id)); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	devices, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(devices) != 2 || devices[0].ID != "a" {
		t.Errorf("List() = %v, want [a b] ordered by name", devices)
	}

	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "a"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("second Delete() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_Variables(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t).DB)

	if _, err := repo.GetVariable(ctx, "away"); !errors.Is(err, ErrVariableNotFound) {
		t.Errorf("GetVariable() error = %v, want ErrVariableNotFound", err)
	}

	if err := repo.SaveVariable(ctx, &Variable{Name: "away", Type: VariableBoolean, Value: true}); err != nil {
		t.Fatalf("SaveVariable() error = %v", err)
	}
	if err := repo.SaveVariable(ctx, &Variable{Name: "away", Type: VariableBoolean, Value: false}); err != nil {
		t.Fatalf("SaveVariable() overwrite error = %v", err)
	}

	v, err := repo.GetVariable(ctx, "away")
	if err != nil {
		t.Fatalf("GetVariable() error = %v", err)
	}
	if v.Type != VariableBoolean || v.Value != false {
		t.Errorf("GetVariable() = %+v, want boolean false", v)
	}

	vars, err := repo.ListVariables(ctx)
	if err != nil {
		t.Fatalf("ListVariables() error = %v", err)
	}
	if len(vars) != 1 {
		t.Errorf("ListVariables() len = %d, want 1", len(vars))
	}
}
