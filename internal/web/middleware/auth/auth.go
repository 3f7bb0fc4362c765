package auth

import (
	"crypto/sha256"
	"strings"
	"sync"

	"github.com/alexedwards/argon2id"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// LocalsTokenIndex is the fiber.Locals key holding the index of the matched token hash.
const LocalsTokenIndex = "api_token_index"

const bearerPrefix = "bearer "

// Config of the token middleware.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	Next func(c fiber.Ctx) bool
	// Disabled lets every request through.
	Disabled bool
	// Hashes are argon2id hashes of the accepted tokens.
	Hashes []string
}

// New returns the bearer token middleware.
func New(cfg Config) fiber.Handler {
	v := &verifier{hashes: cfg.Hashes}

	if cfg.Disabled {
		log.Warn().Msg("api authentication is disabled")
	}

	return func(c fiber.Ctx) error {
		if cfg.Disabled || (cfg.Next != nil && cfg.Next(c)) {
			return c.Next()
		}

		token, ok := bearer(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		idx, ok := v.verify(token)
		if !ok {
			log.Warn().Str("ip", c.IP()).Str("path", c.Path()).Msg("rejected api token")

			return fiber.NewError(fiber.StatusUnauthorized, "invalid bearer token")
		}

		c.Locals(LocalsTokenIndex, idx)

		return c.Next()
	}
}

func bearer(header string) (string, bool) {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])

	return token, token != ""
}

// verifier checks tokens against argon2id hashes. Accepted tokens are remembered by
// their sha256 so argon2 runs once per token and process.
type verifier struct {
	hashes []string
	known  sync.Map // [32]byte -> int
}

func (v *verifier) verify(token string) (int, bool) {
	sum := sha256.Sum256([]byte(token))

	if idx, ok := v.known.Load(sum); ok {
		return idx.(int), true //nolint:forcetypeassert
	}

	for i, hash := range v.hashes {
		match, err := argon2id.ComparePasswordAndHash(token, hash)
		if err != nil {
			log.Error().Err(err).Int("index", i).Msg("malformed api token hash")

			continue
		}

		if match {
			v.known.Store(sum, i)

			return i, true
		}
	}

	return 0, false
}
