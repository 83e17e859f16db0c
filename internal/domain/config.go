package domain

// MaxLineageDepth bounds every walk along parent/contact references.
const MaxLineageDepth = 50

// DefaultKeyPrefix namespaces every key the service writes.
const DefaultKeyPrefix = "lineage:"

// TypeDataRecord is the type tag of reports.
const TypeDataRecord = "data_record"

// DefaultContactTypes are the document types that form the place/person hierarchy.
func DefaultContactTypes() []string {
	return []string{"district_hospital", "health_center", "clinic", "person", "contact"}
}
