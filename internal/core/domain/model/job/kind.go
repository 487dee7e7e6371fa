package job

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Kind discriminates the two request types sharing one lifecycle.
type Kind int

const (
	KindUnknown Kind = iota
	KindFood
	KindParcel
)

var kindNames = map[Kind]string{
	KindFood:   "food",
	KindParcel: "parcel",
}

// ParseKind maps the persisted or wire name back to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnknown, errs.NewValueIsInvalidErrorWithCause("kind", fmt.Errorf("%q is not a job kind", s))
}

// Kinds lists every valid kind, in declaration order.
func Kinds() []Kind {
	return []Kind{KindFood, KindParcel}
}

func (k Kind) Validate() error {
	if _, ok := kindNames[k]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("kind", fmt.Errorf("%d is not a job kind", k))
	}
	return nil
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}
