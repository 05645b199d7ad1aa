// Package category holds the closed categorical inputs of the predictor and the
// numeric codes the regression model was trained on.
//
// Each field is an enumerated type whose zero value is invalid. Variants carry their
// display label and model code, so a value that type-checks is always encodable.
package category

// CrossTraining is the runner's weekly cross-training level.
type CrossTraining uint8

// Cross-training levels, in the order the form offers them.
const (
	NoCrossTraining CrossTraining = iota + 1
	Cyclist13Hours
	Cyclist1Hour
	Cyclist3Hours
	Cyclist4Hours
	Cyclist5Hours
)

// Model codes for the cross-training levels.
const (
	CodeNoCrossTraining = 5
	CodeCyclist13Hours  = 0
	CodeCyclist1Hour    = 1
	CodeCyclist3Hours   = 2
	CodeCyclist4Hours   = 3
	CodeCyclist5Hours   = 4
)

const crossTrainingField = "cross-training"

var crossTrainingVariants = [...]variant{
	NoCrossTraining: {label: "No cross-training", code: CodeNoCrossTraining},
	Cyclist13Hours:  {label: "Cyclist 13 hours", code: CodeCyclist13Hours},
	Cyclist1Hour:    {label: "Cyclist 1 hour", code: CodeCyclist1Hour},
	Cyclist3Hours:   {label: "Cyclist 3 hours", code: CodeCyclist3Hours},
	Cyclist4Hours:   {label: "Cyclist 4 hours", code: CodeCyclist4Hours},
	Cyclist5Hours:   {label: "Cyclist 5 hours", code: CodeCyclist5Hours},
}

// CrossTrainingOptions lists every level in form order. The first one is the default.
func CrossTrainingOptions() []CrossTraining {
	return []CrossTraining{NoCrossTraining, Cyclist13Hours, Cyclist1Hour, Cyclist3Hours, Cyclist4Hours, Cyclist5Hours}
}

// ParseCrossTraining maps a display label to its level.
func ParseCrossTraining(label string) (CrossTraining, error) {
	for i := NoCrossTraining; i <= Cyclist5Hours; i++ {
		if crossTrainingVariants[i].label == label {
			return i, nil
		}
	}
	return 0, &LabelError{Field: crossTrainingField, Label: label}
}

// Valid reports whether c is one of the declared levels.
func (c CrossTraining) Valid() bool { return c >= NoCrossTraining && c <= Cyclist5Hours }

// Label returns the display label, or "" for an invalid value.
func (c CrossTraining) Label() string {
	if !c.Valid() {
		return ""
	}
	return crossTrainingVariants[c].label
}

// Code returns the model code. It returns -1 for an invalid value.
func (c CrossTraining) Code() int {
	if !c.Valid() {
		return -1
	}
	return crossTrainingVariants[c].code
}

func (c CrossTraining) String() string { return c.Label() }

// MarshalText implements encoding.TextMarshaler.
func (c CrossTraining) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, unsetError(crossTrainingField)
	}
	return []byte(c.Label()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CrossTraining) UnmarshalText(text []byte) error {
	v, err := ParseCrossTraining(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
