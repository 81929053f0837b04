// Package seed loads accounts and menus from a TOML file. Accounts are only
// ever created here; the HTTP surface has no registration endpoint.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mess-backend/internal/apperror"
	"mess-backend/internal/database"
	"mess-backend/internal/menu"
	"mess-backend/internal/models"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// File mirrors a seed file:
//
//	[[users]]
//	name = "Warden"
//	email = "warden@example.com"
//	password = "change-me"
//	role = "admin"
//
//	[[menu]]
//	name = "Rice Meal"
//	price = "50.00"
//	date = "2024-06-10"
type File struct {
	Users []User `toml:"users"`
	Menu  []Item `toml:"menu"`
}

type User struct {
	Name     string          `toml:"name"`
	Email    string          `toml:"email"`
	Password string          `toml:"password"`
	Role     models.UserRole `toml:"role"`
}

type Item struct {
	Name  string `toml:"name"`
	Price string `toml:"price"`
	Date  string `toml:"date"`
}

type Result struct {
	UsersCreated int
	UsersSkipped int
	ItemsCreated int
	ItemsSkipped int
}

// LoadFile decodes path. Unknown keys are rejected so typos do not silently
// drop rows.
func LoadFile(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

// Parse decodes seed data held in memory.
func Parse(data string) (*File, error) {
	var f File
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	return &f, nil
}

func checkUndecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.String())
	}
	return fmt.Errorf("unknown keys: %s", strings.Join(names, ", "))
}

type Seeder struct {
	db      *gorm.DB
	catalog *menu.Catalog
	log     zerolog.Logger
	cost    int
}

func NewSeeder(db *gorm.DB, catalog *menu.Catalog, log zerolog.Logger) *Seeder {
	return &Seeder{
		db:      db,
		catalog: catalog,
		log:     log.With().Str("component", "seed").Logger(),
		cost:    bcrypt.DefaultCost,
	}
}

// Apply is idempotent: existing emails and already published dishes are
// skipped. The first invalid row aborts the run.
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	var res Result

	for i, u := range f.Users {
		created, err := s.createUser(ctx, u)
		if err != nil {
			return res, fmt.Errorf("users[%d]: %w", i, err)
		}
		if created {
			res.UsersCreated++
		} else {
			res.UsersSkipped++
		}
	}

	for i, it := range f.Menu {
		created, err := s.publish(ctx, it)
		if err != nil {
			return res, fmt.Errorf("menu[%d]: %w", i, err)
		}
		if created {
			res.ItemsCreated++
		} else {
			res.ItemsSkipped++
		}
	}

	s.log.Info().
		Int("users_created", res.UsersCreated).
		Int("users_skipped", res.UsersSkipped).
		Int("items_created", res.ItemsCreated).
		Int("items_skipped", res.ItemsSkipped).
		Msg("seed applied")
	return res, nil
}

func (s *Seeder) createUser(ctx context.Context, u User) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	name := strings.TrimSpace(u.Name)
	if name == "" || email == "" || u.Password == "" {
		return false, apperror.Validation("name, email and password are required")
	}
	if !u.Role.Valid() {
		return false, apperror.Validation("role %q is invalid", u.Role)
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, apperror.Storage("count users", err)
	}
	if count > 0 {
		s.log.Debug().Str("email", email).Msg("user exists, skipping")
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.cost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{Name: name, Email: email, PasswordHash: string(hash), Role: u.Role}
	if err := db.Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return false, nil
		}
		return false, apperror.Storage("insert user", err)
	}
	return true, nil
}

func (s *Seeder) publish(ctx context.Context, it Item) (bool, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(it.Price))
	if err != nil {
		return false, apperror.Validation("price %q is not a number", it.Price)
	}
	date, err := models.ParseDate(it.Date)
	if err != nil {
		return false, apperror.Validation("date %q must be YYYY-MM-DD", it.Date)
	}

	_, err = s.catalog.Publish(ctx, it.Name, price, date)
	if errors.Is(err, apperror.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
