package resolver

// Host names the target crate exports for the library's numeric types.
const (
	HostReal    = "TA_Real"
	HostInteger = "TA_Integer"
	HostMAType  = "TA_MAType"
)

// elementTypes maps the type tag of a pointee to the buffer element type.
var elementTypes = map[string]string{
	"f32":      HostReal,
	"f64":      HostReal,
	"c_double": HostReal,
	"c_int":    HostInteger,
}

// scalarTypes maps raw scalar types, verbatim, to host types.
var scalarTypes = map[string]string{
	"::std::os::raw::c_int": "i32",
	"f64":                   "f64",
	HostMAType:              HostMAType,
}

// Lookup tables are closed: a missing key is an error, never a default.

func lookupElement(tag string) (string, bool) {
	t, ok := elementTypes[tag]
	return t, ok
}

func lookupScalar(raw string) (string, bool) {
	t, ok := scalarTypes[raw]
	return t, ok
}
