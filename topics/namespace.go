package topics

import (
	"fmt"

	"github.com/gmbyapa/ktopics/pkg/errors"
)

const maxTopicNameLength = 249

// Resolve returns the broker level name of an owner's topic.
func Resolve(ownerId, shortName string) string {
	return fmt.Sprintf(`%s-%s`, ownerId, shortName)
}

// ValidateTopicName checks name against the broker's topic naming rules.
func ValidateTopicName(name string) error {
	if name == `` {
		return errors.Wrap(ErrValidation, `topic name is empty`)
	}

	if name == `.` || name == `..` {
		return errors.Wrapf(ErrValidation, `topic name %q is reserved`, name)
	}

	if len(name) > maxTopicNameLength {
		return errors.Wrapf(ErrValidation, `topic name is longer than %d characters`, maxTopicNameLength)
	}

	for _, c := range name {
		if !legalTopicChar(c) {
			return errors.Wrapf(ErrValidation, `topic name %q contains illegal character %q`, name, c)
		}
	}

	return nil
}

func legalTopicChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '.' || c == '_' || c == '-'
}
