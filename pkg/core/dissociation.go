package core

import (
	"fmt"
	"strings"
)

// DissociationType is the fragmentation method used to produce product ions.
type DissociationType int

const (
	DissociationUnknown DissociationType = iota
	CID
	IRMPD
	ECD
	PQD
	ETD
	HCD
	AnyActivationType
	EThcD
	Custom
	ISCID
	LowCID
)

var dissociationNames = [...]string{
	DissociationUnknown: "Unknown",
	CID:                 "CID",
	IRMPD:               "IRMPD",
	ECD:                 "ECD",
	PQD:                 "PQD",
	ETD:                 "ETD",
	HCD:                 "HCD",
	AnyActivationType:   "AnyActivationType",
	EThcD:               "EThcD",
	Custom:              "Custom",
	ISCID:               "ISCID",
	LowCID:              "LowCID",
}

func (d DissociationType) String() string {
	if d < 0 || int(d) >= len(dissociationNames) {
		return fmt.Sprintf("DissociationType(%d)", int(d))
	}
	return dissociationNames[d]
}

// ParseDissociationType parses a dissociation type name, case-insensitively.
// "Any" is accepted as shorthand for AnyActivationType.
func ParseDissociationType(s string) (DissociationType, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "any") {
		return AnyActivationType, nil
	}
	for i, name := range dissociationNames {
		if strings.EqualFold(s, name) {
			return DissociationType(i), nil
		}
	}
	return DissociationUnknown, fmt.Errorf("unknown dissociation type '%s'", s)
}
