// Package jtd implements RFC 8927 JSON Type Definition schemas: a tagged
// variant schema model and a validator that walks an instance against it.
package jtd

// Schema is a JSON Typedef schema. Exactly one of the eight forms below
// applies to a given value of Schema; Form reports which.
type Schema struct {
	Definitions          map[string]Schema      `json:"definitions,omitempty"`
	Metadata             map[string]interface{} `json:"metadata,omitempty"`
	Nullable             bool                   `json:"nullable,omitempty"`
	Ref                  *string                `json:"ref,omitempty"`
	Type                 Type                   `json:"type,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Elements             *Schema                `json:"elements,omitempty"`
	Properties           map[string]Schema      `json:"properties,omitempty"`
	OptionalProperties   map[string]Schema      `json:"optionalProperties,omitempty"`
	AdditionalProperties bool                   `json:"additionalProperties,omitempty"`
	Values               *Schema                `json:"values,omitempty"`
	Discriminator        string                 `json:"discriminator,omitempty"`
	Mapping              map[string]Schema      `json:"mapping,omitempty"`
}

// Type is the set of primitive type names the "type" keyword may take.
type Type string

// The eleven primitive JTD types.
const (
	TypeBoolean   Type = "boolean"
	TypeString    Type = "string"
	TypeTimestamp Type = "timestamp"
	TypeFloat32   Type = "float32"
	TypeFloat64   Type = "float64"
	TypeInt8      Type = "int8"
	TypeUint8     Type = "uint8"
	TypeInt16     Type = "int16"
	TypeUint16    Type = "uint16"
	TypeInt32     Type = "int32"
	TypeUint32    Type = "uint32"
)

var validTypes = map[Type]bool{
	TypeBoolean: true, TypeString: true, TypeTimestamp: true,
	TypeFloat32: true, TypeFloat64: true,
	TypeInt8: true, TypeUint8: true, TypeInt16: true, TypeUint16: true,
	TypeInt32: true, TypeUint32: true,
}

// intBounds gives the [min, max] range a given integer type accepts.
var intBounds = map[Type][2]float64{
	TypeInt8:   {-128, 127},
	TypeUint8:  {0, 255},
	TypeInt16:  {-32768, 32767},
	TypeUint16: {0, 65535},
	TypeInt32:  {-2147483648, 2147483647},
	TypeUint32: {0, 4294967295},
}

// Form is one of the eight shapes a JTD schema may take.
type Form string

// The eight JTD schema forms.
const (
	FormEmpty         Form = "empty"
	FormRef           Form = "ref"
	FormType          Form = "type"
	FormEnum          Form = "enum"
	FormElements      Form = "elements"
	FormProperties    Form = "properties"
	FormValues        Form = "values"
	FormDiscriminator Form = "discriminator"
)

// Form reports which of the eight JTD forms s takes on. Schema.Validate
// should be called first to ensure s is well-formed; Form does not itself
// validate.
func (s Schema) Form() Form {
	switch {
	case s.Ref != nil:
		return FormRef
	case s.Type != "":
		return FormType
	case s.Enum != nil:
		return FormEnum
	case s.Elements != nil:
		return FormElements
	case s.Properties != nil || s.OptionalProperties != nil:
		return FormProperties
	case s.Values != nil:
		return FormValues
	case s.Mapping != nil:
		return FormDiscriminator
	default:
		return FormEmpty
	}
}

// validForms enumerates the allowed combinations of keyword presence, in
// the order: ref type enum elements properties optionalProperties
// additionalProperties values discriminator mapping. "definitions",
// "nullable", and "metadata" are omitted since they restrict nothing.
var validForms = [][10]bool{
	{false, false, false, false, false, false, false, false, false, false}, // empty
	{true, false, false, false, false, false, false, false, false, false}, // ref
	{false, true, false, false, false, false, false, false, false, false}, // type
	{false, false, true, false, false, false, false, false, false, false}, // enum
	{false, false, false, true, false, false, false, false, false, false}, // elements
	{false, false, false, false, true, false, false, false, false, false}, // properties
	{false, false, false, false, false, true, false, false, false, false}, // optionalProperties
	{false, false, false, false, true, true, false, false, false, false},
	{false, false, false, false, true, false, true, false, false, false},
	{false, false, false, false, false, true, true, false, false, false},
	{false, false, false, false, true, true, true, false, false, false},
	{false, false, false, false, false, false, false, true, false, false}, // values
	{false, false, false, false, false, false, false, false, true, true}, // discriminator
}

// Validate reports whether s is a well-formed root JTD schema, per the
// form-combination rules and reference-resolution rules of RFC 8927 §2.
func (s Schema) Validate() error {
	return s.validateWithRoot(true, s, "")
}

func (s Schema) validateWithRoot(isRoot bool, root Schema, path string) error {
	signature := [10]bool{
		s.Ref != nil, s.Type != "", s.Enum != nil, s.Elements != nil,
		s.Properties != nil, s.OptionalProperties != nil, s.AdditionalProperties,
		s.Values != nil, s.Discriminator != "", s.Mapping != nil,
	}
	ok := false
	for _, form := range validForms {
		if signature == form {
			ok = true
			break
		}
	}
	if !ok {
		return &SchemaError{Kind: ErrInvalidForm, Path: path, Message: "keywords present do not match any of the eight JTD forms"}
	}

	if s.Definitions != nil && !isRoot {
		return &SchemaError{Kind: ErrNonRootDefinition, Path: path, Message: "\"definitions\" is only allowed on the root schema"}
	}
	for name, def := range s.Definitions {
		if err := def.validateWithRoot(false, root, "/definitions/"+name); err != nil {
			return err
		}
	}

	if s.Ref != nil {
		if root.Definitions == nil {
			return &SchemaError{Kind: ErrNoSuchDefinition, Path: path, Message: "ref " + *s.Ref + " but root has no definitions"}
		}
		if _, ok := root.Definitions[*s.Ref]; !ok {
			return &SchemaError{Kind: ErrNoSuchDefinition, Path: path, Message: "no definition named " + *s.Ref}
		}
	}

	if s.Type != "" && !validTypes[s.Type] {
		return &SchemaError{Kind: ErrInvalidType, Path: path, Message: "unknown type " + string(s.Type)}
	}

	if s.Enum != nil {
		if len(s.Enum) == 0 {
			return &SchemaError{Kind: ErrEmptyEnum, Path: path, Message: "enum must list at least one value"}
		}
		seen := map[string]struct{}{}
		for _, v := range s.Enum {
			if _, dup := seen[v]; dup {
				return &SchemaError{Kind: ErrRepeatedEnumValue, Path: path, Message: "enum value " + v + " repeated"}
			}
			seen[v] = struct{}{}
		}
	}

	if s.Elements != nil {
		if err := s.Elements.validateWithRoot(false, root, path+"/elements"); err != nil {
			return err
		}
	}

	for name, p := range s.Properties {
		if err := p.validateWithRoot(false, root, path+"/properties/"+name); err != nil {
			return err
		}
		if s.OptionalProperties != nil {
			if _, ok := s.OptionalProperties[name]; ok {
				return &SchemaError{Kind: ErrSharedProperty, Path: path, Message: "property " + name + " in both properties and optionalProperties"}
			}
		}
	}
	for name, p := range s.OptionalProperties {
		if err := p.validateWithRoot(false, root, path+"/optionalProperties/"+name); err != nil {
			return err
		}
	}

	if s.Values != nil {
		if err := s.Values.validateWithRoot(false, root, path+"/values"); err != nil {
			return err
		}
	}

	for name, m := range s.Mapping {
		if err := m.validateWithRoot(false, root, path+"/mapping/"+name); err != nil {
			return err
		}
		if m.Form() != FormProperties {
			return &SchemaError{Kind: ErrNonPropertiesMapping, Path: path, Message: "mapping value " + name + " is not of the properties form"}
		}
		if _, ok := m.Properties[s.Discriminator]; ok {
			return &SchemaError{Kind: ErrMappingRepeatedDiscriminator, Path: path, Message: "mapping value " + name + " re-specifies discriminator tag"}
		}
		if _, ok := m.OptionalProperties[s.Discriminator]; ok {
			return &SchemaError{Kind: ErrMappingRepeatedDiscriminator, Path: path, Message: "mapping value " + name + " re-specifies discriminator tag"}
		}
		if m.Nullable {
			return &SchemaError{Kind: ErrNullableMapping, Path: path, Message: "mapping value " + name + " must not be nullable"}
		}
	}

	return nil
}
