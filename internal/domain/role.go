package domain

import (
	"fmt"
	"strings"
)

// Role identifies the caller category attached to a bearer token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperador Role = "operador"
	// RoleAnonimo covers deployments where the backend tolerates requests
	// without a token.
	RoleAnonimo Role = "anonimo"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOperador, RoleAnonimo:
		return true
	}
	return false
}

func ParseRoleFromString(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", fmt.Errorf("%w: invalid role %q", ErrValidation, s)
	}
	return role, nil
}

// Feature is a capability gate for a group of endpoints.
type Feature string

const (
	FeatureMaterias     Feature = "materias"
	FeatureLotes        Feature = "lotes"
	FeatureMaquinas     Feature = "maquinas"
	FeatureProcesos     Feature = "procesos"
	FeatureCertificar   Feature = "certificar"
	FeatureCertificados Feature = "certificados"
)

// capabilities is the static role -> feature table. Máquina and proceso
// administration are admin-only; everything else is shared with operators.
// Anonymous callers get the operator set so tokenless deployments keep
// working.
var capabilities = map[Role]map[Feature]struct{}{
	RoleAdmin: {
		FeatureMaterias:     {},
		FeatureLotes:        {},
		FeatureMaquinas:     {},
		FeatureProcesos:     {},
		FeatureCertificar:   {},
		FeatureCertificados: {},
	},
	RoleOperador: {
		FeatureMaterias:     {},
		FeatureLotes:        {},
		FeatureCertificar:   {},
		FeatureCertificados: {},
	},
	RoleAnonimo: {
		FeatureMaterias:     {},
		FeatureLotes:        {},
		FeatureCertificar:   {},
		FeatureCertificados: {},
	},
}

// Allowed reports whether the role may use the feature.
func Allowed(role Role, feature Feature) bool {
	features, ok := capabilities[role]
	if !ok {
		return false
	}
	_, ok = features[feature]
	return ok
}
