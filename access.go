package gridgo

// Access selects how an element is located or where a new element is
// inserted.
type Access uint8

const (
	AccessFirst Access = iota + 1
	AccessLast
	AccessNext
	AccessPrevious
	AccessCurrent
	AccessByIndex
	AccessByLabel
	AccessByIdent
	AccessByUUID
	AccessByTags
	AccessByDescription
	AccessByProperty
	AccessByReference
	AccessByDataType
)

var accessNames = map[Access]string{
	AccessFirst:         "First",
	AccessLast:          "Last",
	AccessNext:          "Next",
	AccessPrevious:      "Previous",
	AccessCurrent:       "Current",
	AccessByIndex:       "ByIndex",
	AccessByLabel:       "ByLabel",
	AccessByIdent:       "ByIdent",
	AccessByUUID:        "ByUUID",
	AccessByTags:        "ByTags",
	AccessByDescription: "ByDescription",
	AccessByProperty:    "ByProperty",
	AccessByReference:   "ByReference",
	AccessByDataType:    "ByDataType",
}

func (a Access) String() string {
	if s, ok := accessNames[a]; ok {
		return s
	}
	return "Unknown"
}

// isPositional reports whether the selector depends on ordering or a current
// position. Positional selectors are meaningless for unordered registries.
func (a Access) isPositional() bool {
	switch a {
	case AccessFirst, AccessLast, AccessNext, AccessPrevious, AccessCurrent, AccessByIndex:
		return true
	}
	return false
}

// associatedProperty maps value-bearing selectors to the property they match
// against.
func (a Access) associatedProperty() Property {
	switch a {
	case AccessByLabel:
		return PropLabel
	case AccessByDescription:
		return PropDescription
	case AccessByUUID:
		return PropUUID
	case AccessByIdent:
		return PropIdent
	case AccessByDataType:
		return PropDataType
	}
	return PropNone
}
