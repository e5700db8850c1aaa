package mapping

// Match is the set of presence predicates that decide whether a mapping
// applies to a given input document.
type Match struct {
	AllOf []string `json:"allOf,omitempty"`
	AnyOf []string `json:"anyOf,omitempty"`
}

// MetadataSpec extracts a document's metadata fields. Each value is
// either a literal string or a "*Path" pointer (a dotted path prefixed
// with "*") resolved against the input.
type MetadataSpec map[string]string

// FrameworkRefsSpec extracts the framework references nested under each
// control.
type FrameworkRefsSpec struct {
	Path            string `json:"path"`
	FrameworkPath   string `json:"frameworkPath,omitempty"`
	ControlIDPath   string `json:"controlIdPath,omitempty"`
	ControlNamePath string `json:"controlNamePath,omitempty"`
}

// ControlsSpec describes how to extract the controls array from an input.
type ControlsSpec struct {
	Path            string            `json:"path"`
	IDPath          string            `json:"idPath,omitempty"`
	DescriptionPath string            `json:"descriptionPath,omitempty"`
	StatusPath      string            `json:"statusPath,omitempty"`
	StatusMap       map[string]string `json:"statusMap,omitempty"`
	SeverityPath    string            `json:"severityPath,omitempty"`
	SeverityMap     map[string]string `json:"severityMap,omitempty"`
	EvidencePath    string            `json:"evidencePath,omitempty"`
	FrameworkRefs   *FrameworkRefsSpec `json:"frameworkRefs,omitempty"`
}

// PassthroughSpec copies small verbatim fields into assessmentContext.
type PassthroughSpec struct {
	Paths map[string]string `json:"paths,omitempty"`
}

// Mapping is a declarative description of how to turn one input shape
// into an IngestedDocument. Its behaviour is entirely steered by its
// fields: there is no mapping subtype hierarchy, only data.
type Mapping struct {
	ID          string           `json:"id"`
	Name        string           `json:"name,omitempty"`
	Source      string           `json:"source,omitempty"`
	Priority    int              `json:"priority,omitempty"`
	Match       Match            `json:"match"`
	Metadata    MetadataSpec     `json:"metadata,omitempty"`
	Controls    *ControlsSpec    `json:"controls,omitempty"`
	Passthrough *PassthroughSpec `json:"passthrough,omitempty"`

	// ParserHintWasm, if set, is a base64-free raw WASM module for use
	// with ParserHint. It is not read from mapping files (json:"-"), and
	// neither Registry.Resolve nor Extract runs it.
	ParserHintWasm []byte `json:"-"`

	// filename records load order for deterministic tie-breaking among
	// equal priorities; not part of the wire format.
	filename string
}

// PriorityInfinite is the sentinel a mapping's Priority may carry to mean
// "always wins over any finite priority" (§8 boundary behaviour).
const PriorityInfinite = int(^uint(0) >> 1) // math.MaxInt

// GenericSourceID is the discriminator used when no mapping matches.
const GenericSourceID = "generic"
