package category

// Sex is the runner's sex as recorded in the training data.
type Sex uint8

// Sexes, in form order.
const (
	Male Sex = iota + 1
	Female
)

// Model codes for Sex.
const (
	CodeMale   = 1
	CodeFemale = 0
)

const sexField = "sex"

var sexVariants = [...]variant{
	Male:   {label: "Male", code: CodeMale},
	Female: {label: "Female", code: CodeFemale},
}

// SexOptions lists every value in form order.
func SexOptions() []Sex { return []Sex{Male, Female} }

// ParseSex maps a display label to its value.
func ParseSex(label string) (Sex, error) {
	for i := Male; i <= Female; i++ {
		if sexVariants[i].label == label {
			return i, nil
		}
	}
	return 0, &LabelError{Field: sexField, Label: label}
}

// Valid reports whether s is one of the declared values.
func (s Sex) Valid() bool { return s == Male || s == Female }

// Label returns the display label, or "" for an invalid value.
func (s Sex) Label() string {
	if !s.Valid() {
		return ""
	}
	return sexVariants[s].label
}

// Code returns the model code. It returns -1 for an invalid value.
func (s Sex) Code() int {
	if !s.Valid() {
		return -1
	}
	return sexVariants[s].code
}

func (s Sex) String() string { return s.Label() }

// MarshalText implements encoding.TextMarshaler.
func (s Sex) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, unsetError(sexField)
	}
	return []byte(s.Label()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Sex) UnmarshalText(text []byte) error {
	v, err := ParseSex(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
