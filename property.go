package gridgo

// Property is a well-known element property identifier. Each property has a
// capability entry describing which element kinds implement it, whether it
// can be mutated by callers, and whether it is seeded from a template or
// context default at construction.
type Property int

const (
	PropNone Property = iota

	// Common element properties.
	PropLabel
	PropDescription
	PropTags
	PropUUID
	PropIdent

	// Context and table configuration.
	PropRowCapacityIncr
	PropColumnCapacityIncr
	PropFreeSpaceThreshold
	PropIsAutoRecalculate
	PropIsReadOnlyDefault
	PropIsSupportsNullsDefault
	PropIsEnforceDatatypeDefault
	PropIsTablesPersistent
	PropIsGroupsPersistent
	PropIsRowLabelsIndexed
	PropIsColumnLabelsIndexed
	PropIsCellLabelsIndexed
	PropIsGroupLabelsIndexed
	PropIsTableLabelsIndexed

	// Presentation hints.
	PropUnits
	PropDisplayFormat
	PropPrecision

	// Column and cell data.
	PropDataType
	PropErrorMessage
	PropValidator
)

var propNames = map[Property]string{
	PropNone:                     "None",
	PropLabel:                    "Label",
	PropDescription:              "Description",
	PropTags:                     "Tags",
	PropUUID:                     "UUID",
	PropIdent:                    "Ident",
	PropRowCapacityIncr:          "RowCapacityIncr",
	PropColumnCapacityIncr:       "ColumnCapacityIncr",
	PropFreeSpaceThreshold:       "FreeSpaceThreshold",
	PropIsAutoRecalculate:        "IsAutoRecalculate",
	PropIsReadOnlyDefault:        "IsReadOnlyDefault",
	PropIsSupportsNullsDefault:   "IsSupportsNullsDefault",
	PropIsEnforceDatatypeDefault: "IsEnforceDatatypeDefault",
	PropIsTablesPersistent:       "IsTablesPersistent",
	PropIsGroupsPersistent:       "IsGroupsPersistent",
	PropIsRowLabelsIndexed:       "IsRowLabelsIndexed",
	PropIsColumnLabelsIndexed:    "IsColumnLabelsIndexed",
	PropIsCellLabelsIndexed:      "IsCellLabelsIndexed",
	PropIsGroupLabelsIndexed:     "IsGroupLabelsIndexed",
	PropIsTableLabelsIndexed:     "IsTableLabelsIndexed",
	PropUnits:                    "Units",
	PropDisplayFormat:            "DisplayFormat",
	PropPrecision:                "Precision",
	PropDataType:                 "DataType",
	PropErrorMessage:             "ErrorMessage",
	PropValidator:                "Validator",
}

func (p Property) String() string {
	if s, ok := propNames[p]; ok {
		return s
	}
	return "Unknown"
}

// kindMask is a bit set of ElementKind values.
type kindMask uint8

func maskOf(kinds ...ElementKind) kindMask {
	var m kindMask
	for _, k := range kinds {
		m |= 1 << k
	}
	return m
}

func (m kindMask) has(k ElementKind) bool { return m&(1<<k) != 0 }

const allKinds = kindMask(1<<KindContext | 1<<KindTable | 1<<KindRow |
	1<<KindColumn | 1<<KindCell | 1<<KindGroup)

type propInfo struct {
	optional      bool
	readOnly      bool
	initializable bool
	implementedBy kindMask
}

// propCatalog is the metadata-catalog boundary: per property, which element
// kinds support it and how it may be accessed. Consulted on every property
// get/set/clear and on element construction.
var propCatalog = map[Property]propInfo{
	PropLabel:       {optional: true, implementedBy: allKinds},
	PropDescription: {optional: true, implementedBy: allKinds},
	PropTags:        {optional: true, readOnly: true, implementedBy: allKinds},
	PropUUID: {optional: true, readOnly: true,
		implementedBy: maskOf(KindTable, KindRow, KindColumn, KindCell, KindGroup)},
	PropIdent: {optional: true, readOnly: true,
		implementedBy: maskOf(KindTable, KindRow, KindColumn, KindCell, KindGroup)},

	PropRowCapacityIncr:    {initializable: true, implementedBy: maskOf(KindContext, KindTable)},
	PropColumnCapacityIncr: {initializable: true, implementedBy: maskOf(KindContext, KindTable)},
	PropFreeSpaceThreshold: {initializable: true, implementedBy: maskOf(KindContext, KindTable)},
	PropIsAutoRecalculate:  {initializable: true, implementedBy: maskOf(KindContext, KindTable)},
	PropIsReadOnlyDefault: {initializable: true,
		implementedBy: maskOf(KindContext, KindTable, KindRow, KindColumn)},
	PropIsSupportsNullsDefault: {initializable: true,
		implementedBy: maskOf(KindContext, KindTable, KindRow, KindColumn)},
	PropIsEnforceDatatypeDefault: {initializable: true,
		implementedBy: maskOf(KindContext, KindTable, KindRow, KindColumn)},
	PropIsTablesPersistent: {initializable: true, implementedBy: maskOf(KindContext, KindTable)},
	PropIsGroupsPersistent: {initializable: true, implementedBy: maskOf(KindContext, KindTable)},
	PropIsRowLabelsIndexed: {initializable: true, implementedBy: maskOf(KindContext, KindTable)},
	PropIsColumnLabelsIndexed: {initializable: true,
		implementedBy: maskOf(KindContext, KindTable)},
	PropIsCellLabelsIndexed: {initializable: true, implementedBy: maskOf(KindContext, KindTable)},
	PropIsGroupLabelsIndexed: {initializable: true,
		implementedBy: maskOf(KindContext, KindTable)},
	PropIsTableLabelsIndexed: {initializable: true, implementedBy: maskOf(KindContext)},

	PropUnits: {optional: true, initializable: true,
		implementedBy: maskOf(KindContext, KindTable, KindRow, KindColumn)},
	PropDisplayFormat: {optional: true, initializable: true,
		implementedBy: maskOf(KindContext, KindTable, KindRow, KindColumn, KindCell)},
	PropPrecision: {optional: true, initializable: true,
		implementedBy: maskOf(KindContext, KindTable, KindRow, KindColumn)},

	PropDataType:     {optional: true, implementedBy: maskOf(KindColumn, KindCell)},
	PropErrorMessage: {optional: true, implementedBy: maskOf(KindCell)},
	PropValidator:    {optional: true, implementedBy: maskOf(KindRow, KindColumn, KindCell)},
}

func (p Property) implementedBy(k ElementKind) bool {
	info, ok := propCatalog[p]
	return ok && info.implementedBy.has(k)
}

func (p Property) isReadOnly() bool {
	return propCatalog[p].readOnly
}

func (p Property) isOptional() bool {
	return propCatalog[p].optional
}

func (p Property) isInitializable() bool {
	return propCatalog[p].initializable
}

// initializableProperties returns the properties seeded at construction for
// an element kind.
func initializableProperties(k ElementKind) []Property {
	var out []Property
	for p := PropLabel; p <= PropValidator; p++ {
		info, ok := propCatalog[p]
		if ok && info.initializable && info.implementedBy.has(k) {
			out = append(out, p)
		}
	}
	return out
}
