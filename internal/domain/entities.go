package domain

// Signature is one parsed foreign declaration. Parameters are kept in
// declaration order; the generated call replays them positionally.
type Signature struct {
	Name       string
	Parameters []Parameter
	Line       int
}

// Parameter is a declared parameter and its raw foreign type text.
type Parameter struct {
	Name    string
	RawType string
}

// Role tells how a parameter takes part in the wrapper.
type Role int

const (
	RoleIgnored Role = iota
	RoleInput
	RoleOutput
)

func (r Role) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	default:
		return "ignored"
	}
}

// ClassifiedParameter pairs a parameter with its role and cleaned name.
type ClassifiedParameter struct {
	Parameter Parameter
	Role      Role
	Name      string
}

// ResolvedParameter carries the host-language view of a parameter.
type ResolvedParameter struct {
	Name     string
	Role     Role
	HostType string
	ElemType string // element type for buffers, empty for scalars
	IsBuffer bool
	RawType  string
}

// Artifact is the complete source of one wrapper module.
type Artifact struct {
	Module   string `json:"module"`
	Function string `json:"function"`
	Source   string `json:"-"`
}

// Manifest lists generated modules in generation order.
type Manifest struct {
	Modules []string `json:"modules"`
}

// ArtifactRecord is what the state store remembers about a written module.
type ArtifactRecord struct {
	Module string `json:"module"`
	Digest string `json:"digest"`
}
