package document

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// Doc is a schemaless JSON document. Nested references (parent, contact,
// patient) are Docs as well; hydrated references may be shared between
// several Docs, so mutate through the helpers only when that is intended.
type Doc map[string]any

// Reference field names.
const (
	FieldID      = "_id"
	FieldRev     = "_rev"
	FieldType    = "type"
	FieldParent  = "parent"
	FieldContact = "contact"
	FieldPatient = "patient"
	FieldFields  = "fields"

	typeDataRecord = "data_record"
)

// AsDoc views v as a Doc when it is a JSON object, nil otherwise.
// The returned Doc shares storage with v.
func AsDoc(v any) Doc {
	switch x := v.(type) {
	case Doc:
		return x
	case map[string]any:
		return Doc(x)
	default:
		return nil
	}
}

// ID returns the document id or "".
func (d Doc) ID() string {
	if d == nil {
		return ""
	}
	id, _ := d[FieldID].(string)
	return id
}

// Type returns the type tag or "".
func (d Doc) Type() string {
	if d == nil {
		return ""
	}
	t, _ := d[FieldType].(string)
	return t
}

// IsDataRecord reports whether d is a report.
func (d Doc) IsDataRecord() bool {
	return d.Type() == typeDataRecord
}

// Parent returns the parent reference or nil.
func (d Doc) Parent() Doc {
	if d == nil {
		return nil
	}
	return AsDoc(d[FieldParent])
}

// Contact returns the contact reference or nil.
func (d Doc) Contact() Doc {
	if d == nil {
		return nil
	}
	return AsDoc(d[FieldContact])
}

// Patient returns the attached patient or nil.
func (d Doc) Patient() Doc {
	if d == nil {
		return nil
	}
	return AsDoc(d[FieldPatient])
}

// ParentID returns parent._id or "".
func (d Doc) ParentID() string { return d.Parent().ID() }

// ContactID returns contact._id or "".
func (d Doc) ContactID() string { return d.Contact().ID() }

// Fields returns the form fields object of a report or nil.
func (d Doc) Fields() Doc {
	if d == nil {
		return nil
	}
	return AsDoc(d[FieldFields])
}

// PatientShortcode returns the patient shortcode of a data_record:
// fields.patient_id first, then the top-level patient_id. Other types have none.
func (d Doc) PatientShortcode() string {
	if !d.IsDataRecord() {
		return ""
	}
	if code := scalarString(d.Fields()["patient_id"]); code != "" {
		return code
	}
	return scalarString(d["patient_id"])
}

// String returns a string field or "".
func (d Doc) String(field string) string {
	return scalarString(d[field])
}

// Number returns a numeric field and whether it was present.
func (d Doc) Number(field string) (float64, bool) {
	f, ok := d[field].(float64)
	return f, ok
}

// Clone returns a deep copy. d must not contain cycles.
func (d Doc) Clone() Doc {
	if d == nil {
		return nil
	}
	return Doc(cloneMap(d))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Doc:
		return Doc(cloneMap(x))
	case map[string]any:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	default:
		return v
	}
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// ValidateID checks that id can be used as a document id:
// 1-256 chars, no leading underscore, no control characters.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return fmt.Errorf("document ID too long (max 256)")
	}
	if strings.HasPrefix(id, "_") {
		return fmt.Errorf("document ID %q must not start with an underscore", id)
	}
	if strings.IndexFunc(id, unicode.IsControl) >= 0 {
		return fmt.Errorf("document ID must not contain control characters")
	}
	return nil
}

// Acyclic returns a copy of d safe to marshal. Hydrated graphs may point
// back at an ancestor (a clinic whose contact is parented by the clinic);
// such a back reference is replaced by an {_id} stub. Shared subtrees that
// are not on the current path are copied in full.
func (d Doc) Acyclic() Doc {
	if d == nil {
		return nil
	}
	return Doc(acyclicMap(d, map[uintptr]bool{}))
}

func acyclicMap(m map[string]any, path map[uintptr]bool) map[string]any {
	ptr := reflect.ValueOf(m).Pointer()
	if path[ptr] {
		stub := map[string]any{}
		if id, ok := m[FieldID]; ok {
			stub[FieldID] = id
		}
		return stub
	}
	path[ptr] = true
	defer delete(path, ptr)

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = acyclicValue(v, path)
	}
	return out
}

func acyclicValue(v any, path map[uintptr]bool) any {
	switch x := v.(type) {
	case Doc:
		return Doc(acyclicMap(x, path))
	case map[string]any:
		return acyclicMap(x, path)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = acyclicValue(x[i], path)
		}
		return out
	default:
		return v
	}
}
