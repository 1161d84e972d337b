package diag

// Template defines a registered diagnostic code.
type Template struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps diagnostic codes to their templates.
var registry = map[string]Template{
	// Document diagnostics (DDM001-DDM019)

	"DDM001": {
		Category: CategoryDocument,
		Message:  "Unknown block type",
		Detail:   "Documents may contain collection, source, and server blocks. Anything else is rejected.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM001",
	},
	"DDM002": {
		Category: CategoryDocument,
		Message:  "Invalid filter criterion",
		Detail:   "A filter needs a left operand, a recognized operator, and (for binary operators) a right operand.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM002",
	},
	"DDM003": {
		Category: CategoryDocument,
		Message:  "Unresolved source reference",
		Detail:   "The items reference does not name a declared source or scope entry.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM003",
	},
	"DDM004": {
		Category: CategoryDocument,
		Message:  "Duplicate block label",
		Detail:   "Source and collection blocks need unique labels; a later block never shadows an earlier one.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM004",
	},
	"DDM005": {
		Category: CategoryDocument,
		Message:  "Invalid sort criterion",
		Detail:   "A sort criterion needs a property name in \"by\"; \"desc\" is the only modifier.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM005",
	},
	"DDM006": {
		Category: CategoryDocument,
		Message:  "Invalid template",
		Detail:   "Map templates must be strings or objects in documents; function templates exist only in code.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM006",
	},
	"DDM007": {
		Category: CategoryDocument,
		Message:  "Unknown source kind",
		Detail:   "Source blocks take one of the kinds: literal, file, http, bolt, s3.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM007",
	},
	"DDM008": {
		Category: CategoryDocument,
		Message:  "Malformed document",
		Detail:   "The document failed to parse or decode; the location points at the first failure.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM008",
	},
	"DDM009": {
		Category: CategoryDocument,
		Message:  "Invalid source block",
		Detail:   "A source block is missing an attribute its kind requires, or an attribute failed to parse.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM009",
	},

	// Config diagnostics (DDM020-DDM039)

	"DDM020": {
		Category: CategoryConfig,
		Message:  "Config file unreadable",
		Detail:   "The config path exists but could not be opened or read.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM020",
	},
	"DDM021": {
		Category: CategoryConfig,
		Message:  "Config file invalid",
		Detail:   "The config file did not parse. ddom.json must be JSON; server configs may be YAML.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM021",
	},
	"DDM022": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No ddom.json or ddom.yaml exists in the directory or any parent.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM022",
	},
	"DDM023": {
		Category: CategoryConfig,
		Message:  "Config value invalid",
		Detail:   "A config value failed validation; the detail names the field.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM023",
	},

	// Source diagnostics (DDM040-DDM059)

	"DDM040": {
		Category: CategorySource,
		Message:  "Source file missing",
		Detail:   "The watched file does not exist. The source stays empty until it appears.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM040",
	},
	"DDM041": {
		Category: CategorySource,
		Message:  "HTTP source request failed",
		Detail:   "The polling request errored or returned a non-2xx status. The previous items are kept.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM041",
	},
	"DDM042": {
		Category: CategorySource,
		Message:  "Store bucket missing",
		Detail:   "The named bucket does not exist in the store file.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM042",
	},
	"DDM043": {
		Category: CategorySource,
		Message:  "Object fetch failed",
		Detail:   "The object store request errored. The previous items are kept until the next poll.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM043",
	},
	"DDM044": {
		Category: CategorySource,
		Message:  "Source payload malformed",
		Detail:   "Source payloads must be JSON arrays; each bolt bucket value must be one JSON item.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM044",
	},

	// Runtime diagnostics (DDM060-DDM079)

	"DDM060": {
		Category: CategoryRuntime,
		Message:  "Dependency cycle detected",
		Detail:   "A derived cell read itself during its own evaluation. The memoized value is kept.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM060",
	},
	"DDM061": {
		Category: CategoryRuntime,
		Message:  "Pipeline stage failed",
		Detail:   "A filter, sort, or map stage errored. The collection published an empty snapshot.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM061",
	},
	"DDM062": {
		Category: CategoryRuntime,
		Message:  "Duplicate item keys",
		Detail:   "Two distinct items produced the same key. The last one wins; give items stable ids.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM062",
	},

	// CLI diagnostics (DDM080-DDM099)

	"DDM080": {
		Category: CategoryCLI,
		Message:  "Document not found",
		Detail:   "No document path was given and no ddom.hcl exists in the working directory.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM080",
	},
	"DDM081": {
		Category: CategoryCLI,
		Message:  "Document declares no collections",
		Detail:   "The document parsed but contains nothing to mount.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM081",
	},
	"DDM082": {
		Category: CategoryCLI,
		Message:  "Unknown project template",
		Detail:   "The requested scaffold is not one of the built-in templates.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM082",
	},
	"DDM083": {
		Category: CategoryCLI,
		Message:  "Project already exists",
		Detail:   "The target directory exists or already holds a ddom config.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM083",
	},
	"DDM084": {
		Category: CategoryCLI,
		Message:  "Invalid project name",
		Detail:   "Project names become directory names; spaces and path separators are rejected.",
		DocURL:   "https://declarative-dom.dev/docs/errors/DDM084",
	},
}

// Register adds or replaces a template. Tests and embedders may register
// their own codes.
func Register(code string, t Template) {
	registry[code] = t
}
