// Package hash checks candidates against stored password hashes.
package hash

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"passwordCrackerEngine/internal/core/domain"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var hexLengths = map[int]domain.HashType{
	md5.Size * 2:    domain.HashMD5,
	sha1.Size * 2:   domain.HashSHA1,
	sha256.Size * 2: domain.HashSHA256,
	sha512.Size * 2: domain.HashSHA512,
}

// Service implements port.HashService for unsalted hex digests and bcrypt.
type Service struct {
	cost int
}

func NewService() *Service {
	return &Service{cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost used by Generate.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// Identify guesses the hash type from its shape. It returns "" when the
// hash is not recognised.
func (s *Service) Identify(hash string) domain.HashType {
	hash = strings.TrimSpace(hash)
	if isBcrypt(hash) {
		if _, err := bcrypt.Cost([]byte(hash)); err == nil {
			return domain.HashBCRYPT
		}
		return ""
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return ""
	}
	return hexLengths[len(hash)]
}

func (s *Service) Verify(password []byte, hash string, hashType domain.HashType) bool {
	if hashType == domain.HashBCRYPT {
		return bcrypt.CompareHashAndPassword([]byte(hash), password) == nil
	}
	want, err := hex.DecodeString(strings.TrimSpace(hash))
	if err != nil {
		return false
	}
	got, err := digest(password, hashType)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

func (s *Service) Generate(password []byte, hashType domain.HashType) (string, error) {
	if hashType == domain.HashBCRYPT {
		out, err := bcrypt.GenerateFromPassword(password, s.cost)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	sum, err := digest(password, hashType)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

func digest(password []byte, hashType domain.HashType) ([]byte, error) {
	switch hashType {
	case domain.HashMD5:
		sum := md5.Sum(password)
		return sum[:], nil
	case domain.HashSHA1:
		sum := sha1.Sum(password)
		return sum[:], nil
	case domain.HashSHA256:
		sum := sha256.Sum256(password)
		return sum[:], nil
	case domain.HashSHA512:
		sum := sha512.Sum512(password)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedHash, hashType)
	}
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
