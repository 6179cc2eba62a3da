// Package residents resolves authenticated principals to resident records,
// creating one with placeholder housing metadata on first access.
package residents

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/platform/id"
	"github.com/valusophy/city/internal/services/residents/storage"
)

// DefaultBuilding is the building assigned to newly provisioned residents.
const DefaultBuilding = "A"

const (
	apartmentBlockMax = 20
	apartmentUnitMax  = 100
	floorMax          = 20
)

// Provisioner maps auth principals to resident rows, lazily creating them.
type Provisioner struct {
	store storage.ResidentStore
	clock func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewProvisioner builds a provisioner over the given resident store.
func NewProvisioner(store storage.ResidentStore, seed int64) *Provisioner {
	return &Provisioner{
		store: store,
		clock: time.Now,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// EnsureResident returns the resident for an auth principal, creating one on
// first access. The create is an atomic insert-if-absent keyed by the auth
// user id, so concurrent first accesses converge on a single row.
func (p *Provisioner) EnsureResident(ctx context.Context, authUserID, email string) (storage.Resident, error) {
	if p == nil || p.store == nil {
		return storage.Resident{}, fmt.Errorf("resident provisioner is not configured")
	}
	authUserID = strings.TrimSpace(authUserID)
	if authUserID == "" {
		return storage.Resident{}, apperrors.New(apperrors.CodeUnauthenticated, "auth user id is required")
	}

	resident, err := p.store.GetResidentByAuthUserID(ctx, authUserID)
	if err == nil {
		return resident, nil
	}
	if err != storage.ErrNotFound {
		return storage.Resident{}, apperrors.Wrap(apperrors.CodeBackendFailure, "look up resident", err)
	}

	residentID, err := id.NewID()
	if err != nil {
		return storage.Resident{}, apperrors.Wrap(apperrors.CodeBackendFailure, "generate resident id", err)
	}
	now := p.clock().UTC()
	candidate := storage.Resident{
		ID:              residentID,
		AuthUserID:      authUserID,
		Name:            displayNameFromEmail(email),
		Email:           strings.TrimSpace(email),
		ApartmentNumber: p.randomApartment(),
		Building:        DefaultBuilding,
		Floor:           p.randomFloor(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := p.store.CreateResident(ctx, candidate); err != nil {
		return storage.Resident{}, apperrors.Wrap(apperrors.CodeBackendFailure, "create resident", err)
	}

	// Re-read regardless of the insert outcome: a concurrent first access may
	// have won the insert, and its row is the authoritative one.
	resident, err = p.store.GetResidentByAuthUserID(ctx, authUserID)
	if err != nil {
		return storage.Resident{}, apperrors.Wrap(apperrors.CodeBackendFailure, "read provisioned resident", err)
	}
	return resident, nil
}

// displayNameFromEmail derives a resident name from the email local part.
func displayNameFromEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "User"
	}
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "User"
	}
	return local
}

// randomApartment returns an apartment label like "A12-34".
func (p *Provisioner) randomApartment() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	block := p.rng.Intn(apartmentBlockMax) + 1
	unit := p.rng.Intn(apartmentUnitMax) + 1
	return fmt.Sprintf("A%d-%d", block, unit)
}

func (p *Provisioner) randomFloor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(floorMax) + 1
}
