package nodetype

import (
	"fmt"
	"strings"
)

// PropertyType is the value type a property definition requires.
// The zero value is PropertyTypeUndefined, which accepts any type.
type PropertyType int

const (
	PropertyTypeUndefined PropertyType = iota
	PropertyTypeString
	PropertyTypeBinary
	PropertyTypeLong
	PropertyTypeDouble
	PropertyTypeDate
	PropertyTypeBoolean
	PropertyTypeName
	PropertyTypePath
	PropertyTypeReference
	PropertyTypeWeakReference
	PropertyTypeURI
	PropertyTypeDecimal
)

var propertyTypeNames = [...]string{
	PropertyTypeUndefined:     "UNDEFINED",
	PropertyTypeString:        "STRING",
	PropertyTypeBinary:        "BINARY",
	PropertyTypeLong:          "LONG",
	PropertyTypeDouble:        "DOUBLE",
	PropertyTypeDate:          "DATE",
	PropertyTypeBoolean:       "BOOLEAN",
	PropertyTypeName:          "NAME",
	PropertyTypePath:          "PATH",
	PropertyTypeReference:     "REFERENCE",
	PropertyTypeWeakReference: "WEAKREFERENCE",
	PropertyTypeURI:           "URI",
	PropertyTypeDecimal:       "DECIMAL",
}

func (t PropertyType) String() string {
	if t >= 0 && int(t) < len(propertyTypeNames) {
		return propertyTypeNames[t]
	}
	return fmt.Sprintf("PropertyType(%d)", int(t))
}

// ParsePropertyType parses a type name case-insensitively. An empty string
// yields PropertyTypeUndefined.
func ParsePropertyType(s string) (PropertyType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PropertyTypeUndefined, nil
	}
	for i, name := range propertyTypeNames {
		if strings.EqualFold(name, s) {
			return PropertyType(i), nil
		}
	}
	return PropertyTypeUndefined, fmt.Errorf("unknown property type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t PropertyType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PropertyType) UnmarshalText(text []byte) error {
	parsed, err := ParsePropertyType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// OnParentVersion is the versioning behavior of an item when its parent is
// checked in. The zero value is OnParentVersionCopy.
type OnParentVersion int

const (
	OnParentVersionCopy OnParentVersion = iota
	OnParentVersionVersion
	OnParentVersionInitialize
	OnParentVersionCompute
	OnParentVersionIgnore
	OnParentVersionAbort
)

var onParentVersionNames = [...]string{
	OnParentVersionCopy:       "COPY",
	OnParentVersionVersion:    "VERSION",
	OnParentVersionInitialize: "INITIALIZE",
	OnParentVersionCompute:    "COMPUTE",
	OnParentVersionIgnore:     "IGNORE",
	OnParentVersionAbort:      "ABORT",
}

func (o OnParentVersion) String() string {
	if o >= 0 && int(o) < len(onParentVersionNames) {
		return onParentVersionNames[o]
	}
	return fmt.Sprintf("OnParentVersion(%d)", int(o))
}

// ParseOnParentVersion parses a policy name case-insensitively. An empty
// string yields OnParentVersionCopy.
func ParseOnParentVersion(s string) (OnParentVersion, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return OnParentVersionCopy, nil
	}
	for i, name := range onParentVersionNames {
		if strings.EqualFold(name, s) {
			return OnParentVersion(i), nil
		}
	}
	return OnParentVersionCopy, fmt.Errorf("unknown onParentVersion %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (o OnParentVersion) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OnParentVersion) UnmarshalText(text []byte) error {
	parsed, err := ParseOnParentVersion(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
