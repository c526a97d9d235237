package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/server/repositories/users"
)

const (
	shortSuffixAttempts = 10
	shortSuffixRange    = 100
	longSuffixAttempts  = 10
	longSuffixRange     = 10000
)

// baseUserName lower-cases fullName and drops whitespace and underscores.
func baseUserName(fullName string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' {
			return -1
		}
		return unicode.ToLower(r)
	}, fullName)
}

// userNameGenerator derives usernames for accounts created through Google
// login. Candidates get a numeric suffix and are checked against the store.
type userNameGenerator struct {
	randIntn func(n int64) (int64, error)
}

func newUserNameGenerator() *userNameGenerator {
	return &userNameGenerator{randIntn: common.RandomIntn}
}

// Generate tries 0-99 suffixes first and widens to 0-9999 when those keep
// colliding.
func (g *userNameGenerator) Generate(ctx context.Context, repo users.Repository, fullName string) (string, error) {
	base := baseUserName(fullName)
	if base == "" {
		return "", common.ErrFullNameRequired
	}

	rounds := []struct {
		attempts int
		n        int64
	}{
		{shortSuffixAttempts, shortSuffixRange},
		{longSuffixAttempts, longSuffixRange},
	}

	for _, round := range rounds {
		for i := 0; i < round.attempts; i++ {
			suffix, err := g.randIntn(round.n)
			if err != nil {
				return "", fmt.Errorf("%w: random suffix: %v", common.ErrorInternal, err)
			}

			candidate := fmt.Sprintf("%s%d", base, suffix)
			_, err = repo.GetByUserName(ctx, candidate)
			if errors.Is(err, common.ErrorNotFound) {
				return candidate, nil
			}
			if err != nil {
				return "", fmt.Errorf("%w: check username: %v", common.ErrorInternal, err)
			}
		}
	}

	return "", fmt.Errorf("%w: no free username for %q", common.ErrorInternal, base)
}
