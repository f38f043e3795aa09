// Package naming defines how simulated objects are named.
//
// A name is a dot-separated hierarchy such as "Bus.Arbiter" or
// "Bus.Client[2]". Every element starts with a capital letter and elements of
// a series carry a bracketed index.
package naming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Named describes an object that has a name.
type Named interface {
	// Name returns the name of the object.
	Name() string
}

// ErrInvalidName is wrapped by every error ValidateName returns.
var ErrInvalidName = errors.New("invalid name")

// ValidateName reports whether name follows the naming convention.
func ValidateName(name string) error {
	for _, token := range strings.Split(name, ".") {
		if err := validateToken(token); err != nil {
			return fmt.Errorf("%w %q: %s", ErrInvalidName, name, err)
		}
	}

	return nil
}

// NameMustBeValid panics if the name does not follow the naming convention.
func NameMustBeValid(name string) {
	if err := ValidateName(name); err != nil {
		panic(err.Error())
	}
}

func validateToken(token string) error {
	elem, indices, found := strings.Cut(token, "[")
	if elem == "" {
		return errors.New("element must not be empty")
	}

	if strings.ContainsAny(elem, "_\"'-]") {
		return errors.New("element must not contain _ \" ' - or ]")
	}

	if elem[0] < 'A' || elem[0] > 'Z' {
		return errors.New("element must start with a capital letter")
	}

	if !found {
		return nil
	}

	for _, idx := range strings.Split("["+indices, "[")[1:] {
		digits, ok := strings.CutSuffix(idx, "]")
		if !ok {
			return errors.New("brackets must match")
		}

		if _, err := strconv.Atoi(digits); err != nil {
			return errors.New("index must be an integer")
		}
	}

	return nil
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds a name from a parent name, an element name and an
// index.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}
