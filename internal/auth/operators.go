package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleReader = "reader"
	RoleWriter = "writer"
)

var (
	ErrOperatorExists     = errors.New("operator already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBadOperatorSpec    = errors.New("bad operator spec")
)

type Operator struct {
	Name string
	Hash []byte
	Role string
}

// Operators is the set of configured accounts allowed to request tokens.
type Operators struct {
	mu     sync.RWMutex
	byName map[string]Operator
}

func NewOperators() *Operators {
	return &Operators{byName: make(map[string]Operator)}
}

// ParseOperators reads a comma separated list of name:role:bcrypt-hash entries.
func ParseOperators(spec string) (*Operators, error) {
	ops := NewOperators()

	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		p := strings.SplitN(entry, ":", 3)
		if len(p) != 3 || p[0] == "" || p[2] == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadOperatorSpec, entry)
		}
		if !validRole(p[1]) {
			return nil, fmt.Errorf("%w: unknown role %q", ErrBadOperatorSpec, p[1])
		}
		if _, err := bcrypt.Cost([]byte(p[2])); err != nil {
			return nil, fmt.Errorf("%w: operator %q: %v", ErrBadOperatorSpec, p[0], err)
		}

		if err := ops.addHash(normalizeName(p[0]), p[1], []byte(p[2])); err != nil {
			return nil, err
		}
	}

	return ops, nil
}

func (o *Operators) Add(name, password, role string) error {
	if !validRole(role) {
		return fmt.Errorf("%w: unknown role %q", ErrBadOperatorSpec, role)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return o.addHash(normalizeName(name), role, hash)
}

func (o *Operators) addHash(name, role string, hash []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.byName[name]; ok {
		return ErrOperatorExists
	}
	o.byName[name] = Operator{Name: name, Hash: hash, Role: role}
	return nil
}

func (o *Operators) Verify(name, password string) (Operator, error) {
	name = normalizeName(name)

	o.mu.RLock()
	op, ok := o.byName[name]
	o.mu.RUnlock()

	if !ok {
		return Operator{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(op.Hash, []byte(password)); err != nil {
		return Operator{}, ErrInvalidCredentials
	}

	return op, nil
}

func (o *Operators) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.byName)
}

func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func validRole(role string) bool {
	return role == RoleReader || role == RoleWriter
}
