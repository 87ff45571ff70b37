package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// Compile-time check: Hasher implements domain.PasswordHasher.
var _ domain.PasswordHasher = Hasher{}

// Hasher hashes credentials with bcrypt.
type Hasher struct {
	Cost int
}

func (h Hasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether password matches hash.
func (Hasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
