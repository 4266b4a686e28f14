// internal/mockapi/directory.go
package mockapi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"carbon-portal/internal/domain/identity"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists     = errors.New("user already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid email or password")
)

type account struct {
	identity     identity.Identity
	passwordHash []byte
}

// Directory is an in-memory user table keyed by lower-cased email.
type Directory struct {
	mu      sync.RWMutex
	byEmail map[string]*account
	byID    map[string]*account
}

func NewDirectory() *Directory {
	return &Directory{
		byEmail: make(map[string]*account),
		byID:    make(map[string]*account),
	}
}

// Add registers id with a bcrypt hash of password.
func (d *Directory) Add(id identity.Identity, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(id.Email))
	now := time.Now().UTC()
	if id.CreatedAt.IsZero() {
		id.CreatedAt = now
	}
	if id.UpdatedAt.IsZero() {
		id.UpdatedAt = now
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byEmail[email]; exists {
		return ErrUserExists
	}
	if _, exists := d.byID[id.ID]; exists {
		return ErrUserExists
	}
	acc := &account{identity: id, passwordHash: hash}
	d.byEmail[email] = acc
	d.byID[id.ID] = acc
	return nil
}

// Authenticate checks email and password.
func (d *Directory) Authenticate(email, password string) (*identity.Identity, error) {
	d.mu.RLock()
	acc, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return acc.identity.Clone(), nil
}

func (d *Directory) FindByID(id string) (*identity.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	acc, ok := d.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return acc.identity.Clone(), nil
}

// Remove deletes a user; tokens already issued to it stop resolving.
func (d *Directory) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if acc, ok := d.byID[id]; ok {
		delete(d.byEmail, strings.ToLower(acc.identity.Email))
		delete(d.byID, id)
	}
}

// SeedDemoUsers adds one account per role in roles (every role when none
// are given), all sharing password.
func SeedDemoUsers(d *Directory, password string, roles ...identity.Role) error {
	if len(roles) == 0 {
		roles = identity.AllRoles()
	}
	demo := map[identity.Role]identity.Identity{
		identity.RoleEVOwner:  {ID: "u-evowner", Email: "evowner@carbon.local", Name: "Demo EV Owner", Role: identity.RoleEVOwner},
		identity.RoleBuyer:    {ID: "u-buyer", Email: "buyer@carbon.local", Name: "Demo Buyer", Role: identity.RoleBuyer},
		identity.RoleVerifier: {ID: "u-cva", Email: "cva@carbon.local", Name: "Demo Verifier", Role: identity.RoleVerifier},
		identity.RoleAdmin:    {ID: "u-admin", Email: "admin@carbon.local", Name: "Demo Admin", Role: identity.RoleAdmin},
	}
	for _, role := range roles {
		id, ok := demo[role]
		if !ok {
			return fmt.Errorf("no demo account for role %s", role)
		}
		if err := d.Add(id, password); err != nil && !errors.Is(err, ErrUserExists) {
			return fmt.Errorf("seed %s: %w", id.Email, err)
		}
	}
	return nil
}
