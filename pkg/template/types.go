package template

// FieldType is the closed set of field kinds a template can hold.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDateTime FieldType = "datetime"
	FieldTypeSelect   FieldType = "select"
	FieldTypeTextArea FieldType = "textarea"
	FieldTypeButton   FieldType = "button"
	FieldTypeSearch   FieldType = "search"
	FieldTypeCheckbox FieldType = "checkbox"
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldTypeText:     {},
	FieldTypeNumber:   {},
	FieldTypeDateTime: {},
	FieldTypeSelect:   {},
	FieldTypeTextArea: {},
	FieldTypeButton:   {},
	FieldTypeSearch:   {},
	FieldTypeCheckbox: {},
}

// Valid reports whether t is one of the enumerated field types.
func (t FieldType) Valid() bool {
	_, ok := knownFieldTypes[t]
	return ok
}

// ShowWhen selects how a single Condition row is evaluated.
type ShowWhen string

const (
	ShowAlways         ShowWhen = "always"
	ShowFieldEquals    ShowWhen = "fieldEquals"
	ShowFieldNotEquals ShowWhen = "fieldNotEquals"
	ShowFieldHasValue  ShowWhen = "fieldHasValue"
)

// Join combines a Condition with the running result of its predecessors.
type Join string

const (
	JoinNone Join = ""
	JoinAnd  Join = "AND"
	JoinOr   Join = "OR"
)

// RequiredWhen controls how a field's required flag is interpreted.
type RequiredWhen string

const (
	// RequiredUnset defers to the Required flag.
	RequiredUnset       RequiredWhen = ""
	RequiredNever       RequiredWhen = "never"
	RequiredAlways      RequiredWhen = "always"
	RequiredWhenVisible RequiredWhen = "whenVisible"
)

// Condition is one row of a visibility/requiredness rule. The first row of a
// list never carries an OperatorWithPrev.
type Condition struct {
	Ordinal          int      `json:"ordinal"`
	ShowWhen         ShowWhen `json:"showWhen"`
	ReferenceFieldID string   `json:"referenceFieldId,omitempty"`
	Value            string   `json:"value,omitempty"`
	OperatorWithPrev Join     `json:"operatorWithPrev,omitempty"`
}

// Option is a static choice for select fields, or a resolved datasource entry.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Lookup configures typeahead (search) fields. Fill maps a path inside the
// looked-up record to the id of the field that receives the value.
type Lookup struct {
	Datasource string            `json:"datasource,omitempty"`
	Fill       map[string]string `json:"fill,omitempty"`
}

// Button carries the payload that only applies to button fields.
type Button struct {
	Text   string `json:"buttonText,omitempty"`
	Action string `json:"action,omitempty"`
}

// Field is a leaf input. Lookup is only populated for search fields and
// Button only for button fields.
type Field struct {
	ID           string
	DisplayName  string
	Type         FieldType
	Options      []Option
	Datasource   string
	Required     bool
	RequiredWhen RequiredWhen
	Order        int
	Conditions   []Condition
	Lookup       *Lookup
	Button       *Button
	OwningPath   string
	Extra        map[string]any
}

// IsButton reports whether f is an action control.
func (f Field) IsButton() bool {
	return f.Type == FieldTypeButton
}

// Section is a named, orderable grouping of fields.
type Section struct {
	SectionName string
	DisplayName string
	Order       int
	Fields      []Field
	Subsections *Subsections
	Conditions  []Condition
	Extra       map[string]any
}

// Template is the root document of one authorable form.
type Template struct {
	ID       int64
	Name     string
	Sections []Section
}

// FieldRef is a read-only catalog entry describing one field.
type FieldRef struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Type        FieldType `json:"type"`
	OwningPath  string    `json:"owningPath"`
}
