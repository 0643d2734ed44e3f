// Package naming supplies the names of generated declarations.
//
// Every policy must satisfy the round-trip law
// RecoverParameterName(BackingPropertyName(p)) == p for valid names p,
// which is what lets a previously generated context class be adopted
// without regenerating it.
package naming

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const initializationInfoPrefix = "$initializationInfo$"

// Policy names generated declarations.
type Policy interface {
	ContextClassName(uid, exitFunctionName string) string
	DslFileName(uid, contextClassName, exitFunctionName string) string
	SpecificationFileName(uid, baseContextClassName string) string
	BackingPropertyName(parameterName string) string
	RecoverParameterName(backingPropertyName string) string
	InitializationInfoName(word int) string
	IsInitializationInfo(propertyName string) bool
	CreateFunctionName() string
	ElementAdderName(parameterName string) string
	BuilderLambdaName(parameterName string) string
}

// Default is the standard policy.
type Default struct{}

func (Default) ContextClassName(uid, _ string) string { return "$Context$" + uid }

func (Default) DslFileName(uid, _, _ string) string { return "$Dsl$" + uid }

func (Default) SpecificationFileName(uid, _ string) string { return "$Dsl$Specification$" + uid }

func (Default) BackingPropertyName(parameterName string) string {
	return "$$" + Normalize(parameterName) + "$$"
}

func (Default) RecoverParameterName(backingPropertyName string) string {
	if len(backingPropertyName) >= 4 && strings.HasPrefix(backingPropertyName, "$$") && strings.HasSuffix(backingPropertyName, "$$") {
		return backingPropertyName[2 : len(backingPropertyName)-2]
	}
	return backingPropertyName
}

func (Default) InitializationInfoName(word int) string {
	return fmt.Sprintf("%s%d", initializationInfoPrefix, word)
}

func (Default) IsInitializationInfo(propertyName string) bool {
	return strings.HasPrefix(propertyName, initializationInfoPrefix)
}

func (Default) CreateFunctionName() string { return "$create$" }

func (Default) ElementAdderName(parameterName string) string { return parameterName + "Element" }

func (Default) BuilderLambdaName(string) string { return "builder" }

// Legacy keeps the single `element` adder name of early releases.
type Legacy struct{ Default }

func (Legacy) ElementAdderName(string) string { return "element" }

// ByName returns the policy registered under name.
func ByName(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return Default{}, nil
	case "legacy":
		return Legacy{}, nil
	}
	return nil, fmt.Errorf("unknown naming policy %q (expected: default|legacy)", name)
}

// Normalize brings a parameter name to NFC so that names written with
// different Unicode compositions map to the same backing property.
func Normalize(name string) string {
	return norm.NFC.String(name)
}

// ValidParameterName reports whether name can be used as a parameter name.
func ValidParameterName(name string) bool {
	if name == "" || !norm.NFC.IsNormalString(name) {
		return false
	}
	return !strings.Contains(name, "$$") && !strings.ContainsAny(name, "`\n")
}
