package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mess-backend/internal/apperror"
	"mess-backend/internal/menu"
	"mess-backend/internal/models"
	"mess-backend/internal/testutil"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const sample = `
[[users]]
name = "Warden"
email = "Warden@Example.com"
password = "change-me"
role = "admin"

[[users]]
name = "Sohan"
email = "sohan@example.com"
password = "hunter22"
role = "student"

[[menu]]
name = "Rice Meal"
price = "50.00"
date = "2024-06-10"

[[menu]]
name = "Dal Roti"
price = "40.5"
date = "2024-06-10"
`

func newSeeder(t *testing.T) (*Seeder, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	s := NewSeeder(db, menu.NewCatalog(db, zerolog.Nop()), zerolog.Nop())
	s.cost = bcrypt.MinCost
	return s, db
}

func TestApplyIsIdempotent(t *testing.T) {
	s, db := newSeeder(t)
	f, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	res, err := s.Apply(context.Background(), f)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res != (Result{UsersCreated: 2, ItemsCreated: 2}) {
		t.Errorf("first run = %+v", res)
	}

	res, err = s.Apply(context.Background(), f)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if res != (Result{UsersSkipped: 2, ItemsSkipped: 2}) {
		t.Errorf("second run = %+v", res)
	}

	var warden models.User
	if err := db.Where("email = ?", "warden@example.com").First(&warden).Error; err != nil {
		t.Fatalf("find warden: %v", err)
	}
	if warden.Role != models.RoleAdmin {
		t.Errorf("role = %s, want admin", warden.Role)
	}
	if bcrypt.CompareHashAndPassword([]byte(warden.PasswordHash), []byte("change-me")) != nil {
		t.Error("stored hash does not match the seeded password")
	}
}

func TestApplyRejectsInvalidRows(t *testing.T) {
	tests := []struct {
		name string
		file File
	}{
		{"bad role", File{Users: []User{{Name: "X", Email: "x@example.com", Password: "p", Role: "chef"}}}},
		{"missing password", File{Users: []User{{Name: "X", Email: "x@example.com", Role: models.RoleStudent}}}},
		{"bad price", File{Menu: []Item{{Name: "Rice", Price: "fifty", Date: "2024-06-10"}}}},
		{"bad date", File{Menu: []Item{{Name: "Rice", Price: "50", Date: "10/06/2024"}}}},
		{"zero price", File{Menu: []Item{{Name: "Rice", Price: "0", Date: "2024-06-10"}}}},
	}
	for _, tt := range tests {
		s, _ := newSeeder(t)
		if _, err := s.Apply(context.Background(), &tt.file); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("%s: Apply = %v, want validation error", tt.name, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "seed.toml")
	if err := os.WriteFile(good, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := LoadFile(good)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(f.Users) != 2 || len(f.Menu) != 2 || f.Menu[1].Price != "40.5" {
		t.Errorf("decoded = %+v", f)
	}

	typo := filepath.Join(dir, "typo.toml")
	if err := os.WriteFile(typo, []byte("[[menu]]\nname = \"Rice\"\nprize = \"50\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(typo); err == nil {
		t.Error("LoadFile accepted an unknown key")
	}
}
