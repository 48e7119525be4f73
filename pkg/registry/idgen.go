package registry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
)

const (
	// UserIDAlphabet is the character set of generated user ids.
	UserIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// UserIDLength is the length of generated user ids.
	UserIDLength = 7
	// DefaultMaxAttempts bounds the probes made for a single id.
	DefaultMaxAttempts = 10
)

// ErrIDSpaceExhausted is returned when every candidate id was taken.
var ErrIDSpaceExhausted = errors.New("no free user id found")

// Checker reports whether an id is already taken.
type Checker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// IDGenerator draws random user ids until it finds one that is free.
type IDGenerator struct {
	maxAttempts int
	intN        func(n int) int
}

// NewIDGenerator creates a generator that gives up after maxAttempts
// taken candidates.
func NewIDGenerator(maxAttempts int) *IDGenerator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &IDGenerator{maxAttempts: maxAttempts, intN: rand.IntN}
}

// NewUserID returns a candidate that checker reports as free. Only a
// definitive "exists" leads to another attempt; lookup errors are returned.
func (g *IDGenerator) NewUserID(ctx context.Context, checker Checker) (string, error) {
	for range g.maxAttempts {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id := g.candidate()
		taken, err := checker.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check user id: %w", err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrIDSpaceExhausted, g.maxAttempts)
}

func (g *IDGenerator) candidate() string {
	b := make([]byte, UserIDLength)
	for i := range b {
		b[i] = UserIDAlphabet[g.intN(len(UserIDAlphabet))]
	}
	return string(b)
}
