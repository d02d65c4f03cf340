package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultAdminRole is the self-administering root of the admin hierarchy.
// It is the all-zero role value and the implicit admin of every role that
// was never configured through setRoleAdmin.
const DefaultAdminRole = "0x0000000000000000000000000000000000000000000000000000000000000000"

// RoleNamed derives the opaque role identifier for a human-readable name.
// Identifiers are compared by equality only.
func RoleNamed(name string) string {
	sum := sha256.Sum256([]byte(name))
	return "0x" + hex.EncodeToString(sum[:])
}

// ValidRole reports whether role is a well-formed 32-byte 0x-hex value.
func ValidRole(role string) bool {
	if len(role) != 2+64 || !strings.HasPrefix(role, "0x") {
		return false
	}
	_, err := hex.DecodeString(role[2:])
	return err == nil
}

// Membership is one row of the hasRole relation.
type Membership struct {
	Role    string `json:"role"`
	Account string `json:"account"`
	Member  bool   `json:"member"`
}
