package deviceconfig

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aldermoor/sentrycam-core/internal/infrastructure/database"
	"github.com/aldermoor/sentrycam-core/migrations"
)

// fakeRepo is an in-memory Repository with switchable failure modes.
type fakeRepo struct {
	snap     map[string]string
	loadErr  error
	saveErr  error
	saveHits int
}

func (f *fakeRepo) Load(context.Context) (map[string]string, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make(map[string]string, len(f.snap))
	for k, v := range f.snap {
		out[k] = v
	}
	return out, nil
}

func (f *fakeRepo) Save(_ context.Context, snapshot map[string]string) error {
	f.saveHits++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snap = make(map[string]string, len(snapshot))
	for k, v := range snapshot {
		f.snap[k] = v
	}
	return nil
}

func TestStore_Load_FirstBootGeneratesDefaults(t *testing.T) {
	repo := &fakeRepo{}
	store := NewStore(repo)

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg := store.Current()
	if cfg.DeviceID == "" {
		t.Error("first boot should generate a device identity")
	}
	if len(cfg.PIN) != PINLength {
		t.Errorf("PIN length = %d, want %d", len(cfg.PIN), PINLength)
	}
	if !cfg.PINConfigured {
		t.Error("PINConfigured should be set after default generation")
	}
	if cfg.IsOperationValid() {
		t.Error("defaults must not be operation-valid (no network, token, owner)")
	}
	if cfg.ConfigVersion != 0 {
		t.Errorf("ConfigVersion = %d, want 0 on default reload", cfg.ConfigVersion)
	}
}

func TestStore_Load_ReadFailureFallsBackToDefaults(t *testing.T) {
	repo := &fakeRepo{loadErr: errors.New("disk gone")}
	store := NewStore(repo)

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() should fall back to defaults, got error %v", err)
	}
	if store.Current().DeviceID == "" {
		t.Error("fallback config should carry a fresh identity")
	}
}

func TestStore_Update_IncrementsVersionAndPersists(t *testing.T) {
	repo := &fakeRepo{}
	store := NewStore(repo)
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	before := store.Version()
	err := store.Update(ctx, func(cfg *DeviceConfig) error {
		cfg.AlertTemplate = "Intruder!"
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got := store.Version(); got != before+1 {
		t.Errorf("Version() = %d, want %d", got, before+1)
	}
	if repo.snap[keyAlertTemplate] != "Intruder!" {
		t.Errorf("persisted alert_template = %q, want %q", repo.snap[keyAlertTemplate], "Intruder!")
	}
}

func TestStore_Update_FnErrorChangesNothing(t *testing.T) {
	repo := &fakeRepo{}
	store := NewStore(repo)
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	before := store.Version()
	saves := repo.saveHits

	wantErr := errors.New("rejected")
	err := store.Update(ctx, func(*DeviceConfig) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("Update() error = %v, want %v", err, wantErr)
	}
	if store.Version() != before {
		t.Error("failed update must not bump version")
	}
	if repo.saveHits != saves {
		t.Error("failed update must not persist")
	}
}

func TestStore_Update_PersistFailureKeepsMemoryState(t *testing.T) {
	repo := &fakeRepo{}
	store := NewStore(repo)
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	repo.saveErr = errors.New("write failed")
	err := store.Update(ctx, func(cfg *DeviceConfig) error {
		cfg.DisplayName = "Porch"
		return nil
	})
	if !errors.Is(err, ErrUnsaved) {
		t.Fatalf("Update() error = %v, want ErrUnsaved", err)
	}

	if store.Current().DisplayName != "Porch" {
		t.Error("in-memory state must be kept after persist failure")
	}
	if !store.Unsaved() {
		t.Error("store should be marked unsaved")
	}

	// A later explicit Flush retries and clears the flag.
	repo.saveErr = nil
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if store.Unsaved() {
		t.Error("Flush() should clear the unsaved flag")
	}
	if repo.snap[keyDisplayName] != "Porch" {
		t.Error("Flush() should persist the retained mutation")
	}
}

func TestStore_VersionIsStrictlyIncreasing(t *testing.T) {
	repo := &fakeRepo{}
	store := NewStore(repo)
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	last := store.Version()
	for i := 0; i < 10; i++ {
		if err := store.Update(ctx, func(cfg *DeviceConfig) error {
			cfg.DisplayName = "round"
			return nil
		}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got := store.Version(); got <= last {
			t.Fatalf("version did not increase: %d -> %d", last, got)
		}
		last = store.Version()
	}
}

func TestStore_ResetDefaults_ResetsVersionAndIdentity(t *testing.T) {
	repo := &fakeRepo{}
	store := NewStore(repo)
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	oldID := store.Current().DeviceID
	if err := store.Update(ctx, func(cfg *DeviceConfig) error {
		cfg.DisplayName = "x"
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if err := store.ResetDefaults(ctx); err != nil {
		t.Fatalf("ResetDefaults() error = %v", err)
	}

	cfg := store.Current()
	if cfg.ConfigVersion != 0 {
		t.Errorf("ConfigVersion after reset = %d, want 0", cfg.ConfigVersion)
	}
	if cfg.DeviceID == oldID {
		t.Error("factory reset should mint a new identity")
	}
	if cfg.DisplayName != "" {
		t.Error("factory reset should discard mutations")
	}
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "cfg.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	repo := NewSQLiteRepository(db)
	store := NewStore(repo)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := store.Update(ctx, func(cfg *DeviceConfig) error {
		cfg.Networks[0] = NetworkCredential{Name: "Home", Secret: "pw123456"}
		cfg.OwnerEndpoint = "chat-owner"
		cfg.Provisioned = true
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	want := store.Current()

	// A second store over the same repository sees the persisted state.
	reloaded := NewStore(repo)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	got := reloaded.Current()

	if got.DeviceID != want.DeviceID {
		t.Errorf("DeviceID = %q, want %q", got.DeviceID, want.DeviceID)
	}
	if got.Networks[0] != want.Networks[0] {
		t.Errorf("Networks[0] = %+v, want %+v", got.Networks[0], want.Networks[0])
	}
	if got.ConfigVersion != want.ConfigVersion {
		t.Errorf("ConfigVersion = %d, want %d", got.ConfigVersion, want.ConfigVersion)
	}
	if !got.Provisioned {
		t.Error("Provisioned flag lost in round trip")
	}
}
