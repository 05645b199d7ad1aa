package category

import "fmt"

// variant binds a display label to the code the model was trained with.
type variant struct {
	label string
	code  int
}

// Set is one runner's categorical selections.
type Set struct {
	CrossTraining CrossTraining
	Sex           Sex
	AgeUnder40    AgeBracket
}

// ParseSet parses the three labels of a submission.
func ParseSet(crossTraining, sex, ageUnder40 string) (Set, error) {
	ct, err := ParseCrossTraining(crossTraining)
	if err != nil {
		return Set{}, err
	}
	s, err := ParseSex(sex)
	if err != nil {
		return Set{}, err
	}
	a, err := ParseAgeBracket(ageUnder40)
	if err != nil {
		return Set{}, err
	}
	return Set{CrossTraining: ct, Sex: s, AgeUnder40: a}, nil
}

// Validate reports the first field that does not hold a declared variant.
func (s Set) Validate() error {
	switch {
	case !s.CrossTraining.Valid():
		return unsetError(crossTrainingField)
	case !s.Sex.Valid():
		return unsetError(sexField)
	case !s.AgeUnder40.Valid():
		return unsetError(ageField)
	}
	return nil
}

// Codes returns the model codes in the order cross-training, gender, age.
func (s Set) Codes() (crossTraining, gender, age int, err error) {
	if err := s.Validate(); err != nil {
		return 0, 0, 0, err
	}
	return s.CrossTraining.Code(), s.Sex.Code(), s.AgeUnder40.Code(), nil
}

// Encode maps the three display labels to their model codes, in the order
// cross-training, gender, age. An unknown label fails with ErrUnknownLabel.
func Encode(crossTraining, sex, ageUnder40 string) (int, int, int, error) {
	set, err := ParseSet(crossTraining, sex, ageUnder40)
	if err != nil {
		return 0, 0, 0, err
	}
	return set.Codes()
}

func unsetError(field string) error {
	return fmt.Errorf("%s: %w", field, ErrUnset)
}
