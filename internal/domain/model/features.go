package model

import (
	"encoding/binary"
	"math"
)

// FeatureCount is the width of the vector the model consumes.
const FeatureCount = 6

// FieldNames is the column order the model was trained on. Reordering it silently
// corrupts predictions, so model artifacts declare their order and are checked
// against this list when loaded.
var FieldNames = [FeatureCount]string{
	"km4week",
	"sp4week",
	"CrossTraining",
	"Wall21",
	"Gender",
	"Age_Under_40",
}

// FeatureVector is the fixed-schema record handed to the model.
// Field order matches FieldNames.
type FeatureVector struct {
	KmPerWeek     float64 `json:"km4week"`
	SpeedPerWeek  float64 `json:"sp4week"`
	CrossTraining float64 `json:"CrossTraining"`
	Wall21        float64 `json:"Wall21"`
	Gender        float64 `json:"Gender"`
	AgeUnder40    float64 `json:"Age_Under_40"`
}

// Assemble validates in, encodes its categories and lays the six fields out in
// schema order. Numeric values pass through unmodified.
func Assemble(in RawInput) (FeatureVector, error) {
	if err := in.Validate(); err != nil {
		return FeatureVector{}, err
	}
	ct, gender, age, err := in.Categories().Codes()
	if err != nil {
		return FeatureVector{}, err
	}
	return FeatureVector{
		KmPerWeek:     float64(in.KmPerWeek),
		SpeedPerWeek:  in.SpeedPerWeek,
		CrossTraining: float64(ct),
		Wall21:        in.Wall21,
		Gender:        float64(gender),
		AgeUnder40:    float64(age),
	}, nil
}

// Values returns the fields in FieldNames order.
func (v FeatureVector) Values() [FeatureCount]float64 {
	return [FeatureCount]float64{
		v.KmPerWeek,
		v.SpeedPerWeek,
		v.CrossTraining,
		v.Wall21,
		v.Gender,
		v.AgeUnder40,
	}
}

// Bytes is the little-endian IEEE-754 encoding of Values. Two vectors are
// byte-identical exactly when their Bytes are equal.
func (v FeatureVector) Bytes() []byte {
	buf := make([]byte, 0, FeatureCount*8)
	for _, f := range v.Values() {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
	}
	return buf
}

// Key returns Bytes as a string, suitable as a map or cache key.
func (v FeatureVector) Key() string { return string(v.Bytes()) }
