package category

// AgeBracket answers "is the runner under forty?".
type AgeBracket uint8

// Age brackets, in form order.
const (
	Under40 AgeBracket = iota + 1
	Over40
)

// Model codes for AgeBracket.
const (
	CodeUnder40 = 1
	CodeOver40  = 0
)

const ageField = "age-under-40"

var ageVariants = [...]variant{
	Under40: {label: "Yes", code: CodeUnder40},
	Over40:  {label: "No", code: CodeOver40},
}

// AgeBracketOptions lists every bracket in form order.
func AgeBracketOptions() []AgeBracket { return []AgeBracket{Under40, Over40} }

// ParseAgeBracket maps a display label ("Yes"/"No") to its bracket.
func ParseAgeBracket(label string) (AgeBracket, error) {
	for i := Under40; i <= Over40; i++ {
		if ageVariants[i].label == label {
			return i, nil
		}
	}
	return 0, &LabelError{Field: ageField, Label: label}
}

// Valid reports whether a is one of the declared brackets.
func (a AgeBracket) Valid() bool { return a == Under40 || a == Over40 }

// Label returns the display label, or "" for an invalid value.
func (a AgeBracket) Label() string {
	if !a.Valid() {
		return ""
	}
	return ageVariants[a].label
}

// Code returns the model code. It returns -1 for an invalid value.
func (a AgeBracket) Code() int {
	if !a.Valid() {
		return -1
	}
	return ageVariants[a].code
}

func (a AgeBracket) String() string { return a.Label() }

// MarshalText implements encoding.TextMarshaler.
func (a AgeBracket) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, unsetError(ageField)
	}
	return []byte(a.Label()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AgeBracket) UnmarshalText(text []byte) error {
	v, err := ParseAgeBracket(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
