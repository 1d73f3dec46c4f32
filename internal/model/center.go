package model

import "time"

// CenterType is the level of a node in the company structure.
type CenterType string

const (
	CenterCentral    CenterType = "Central"
	CenterDelegation CenterType = "Delegacion"
	CenterAssociated CenterType = "Centro_Asociado"
	CenterOther      CenterType = "Otro_centro"
)

// CenterTypes lists every center type from most to least senior.
var CenterTypes = []CenterType{CenterCentral, CenterDelegation, CenterAssociated, CenterOther}

// Valid reports whether t is a known center type.
func (t CenterType) Valid() bool {
	for _, known := range CenterTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Center is a node of the organizational tree.
type Center struct {
	ID        int64      `json:"id,omitempty"`
	Name      string     `json:"name"`
	Type      CenterType `json:"type"`
	ParentID  int64      `json:"parentId,omitempty"` // 0 = root
	Timestamp time.Time  `json:"timestamp"`
}
