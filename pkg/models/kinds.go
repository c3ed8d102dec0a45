package models

// EntityKind identifies which master table a raw value resolves against
type EntityKind string

const (
	KindCenter  EntityKind = "distribution_center"
	KindStore   EntityKind = "store"
	KindProduct EntityKind = "product"
)

// Label returns the human-readable label used in normalize notes
func (k EntityKind) Label() string {
	switch k {
	case KindCenter:
		return "distribution center"
	case KindStore:
		return "store"
	case KindProduct:
		return "product"
	default:
		return string(k)
	}
}

// Valid reports whether the kind is one of the known entity kinds
func (k EntityKind) Valid() bool {
	switch k {
	case KindCenter, KindStore, KindProduct:
		return true
	}
	return false
}
