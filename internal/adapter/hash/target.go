package hash

import (
	"bufio"
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/port"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// FileTarget is a file holding one hash on its first non-blank line, written
// either bare or as "type:hash" (for example "sha256:9f86d0...").
type FileTarget struct {
	Path   string
	Hashes port.HashService
}

func NewFileTarget(path string) *FileTarget {
	return &FileTarget{Path: path, Hashes: NewService()}
}

func (t *FileTarget) Describe() string {
	return "hash file " + t.Path
}

func (t *FileTarget) Open(ctx context.Context) (port.Oracle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, err
	}
	line := firstLine(data)
	if line == "" {
		return nil, fmt.Errorf("%w: %s holds no hash", domain.ErrInvalidHash, t.Path)
	}

	hashType, value := splitType(line)
	detected := t.Hashes.Identify(value)
	if detected == "" {
		return nil, fmt.Errorf("%w: cannot identify %q", domain.ErrInvalidHash, value)
	}
	if hashType != "" && hashType != detected {
		return nil, fmt.Errorf("%w: declared %s but the hash looks like %s", domain.ErrInvalidHash, hashType, detected)
	}
	return newOracle(value, detected)
}

// Oracle compares candidates against one hash. It holds no mutable state and
// is shared by every worker.
type Oracle struct {
	hashType domain.HashType
	encoded  []byte
	want     []byte
}

func newOracle(value string, hashType domain.HashType) (*Oracle, error) {
	o := &Oracle{hashType: hashType, encoded: []byte(value)}
	if hashType != domain.HashBCRYPT {
		want, err := hex.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidHash, err)
		}
		o.want = want
	}
	return o, nil
}

func (o *Oracle) Type() domain.HashType {
	return o.hashType
}

func (o *Oracle) Attempt(candidate domain.Candidate) (bool, error) {
	if o.hashType == domain.HashBCRYPT {
		err := bcrypt.CompareHashAndPassword(o.encoded, candidate)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
			return false, nil
		default:
			return false, err
		}
	}
	got, err := digest(candidate, o.hashType)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(got, o.want) == 1, nil
}

func firstLine(data []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}

func splitType(line string) (domain.HashType, string) {
	prefix, value, ok := strings.Cut(line, ":")
	if !ok || strings.HasPrefix(line, "$") {
		return "", line
	}
	switch hashType := domain.HashType(strings.ToUpper(strings.ReplaceAll(prefix, "-", ""))); hashType {
	case domain.HashMD5, domain.HashSHA1, domain.HashSHA256, domain.HashSHA512, domain.HashBCRYPT:
		return hashType, strings.TrimSpace(value)
	default:
		return "", line
	}
}
