package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Конфигурация генерации
	CfgInfo                  Code = 1000
	CfgMarkerNotAnnotation   Code = 1001
	CfgMarkerNotDslMarker    Code = 1002
	CfgMissingMarker         Code = 1003
	CfgBadParamOption        Code = 1004
	CfgUnknownParameter      Code = 1005
	CfgBadDeclaration        Code = 1006
	CfgMonoParameterNoop     Code = 1101
	CfgMonoParameterMultiple Code = 1102

	// Вывод типов
	InfInfo             Code = 2000
	InfCannotProject    Code = 2001
	InfAmbiguous        Code = 2002
	InfVarianceConflict Code = 2003

	// Функции-конструкторы
	ConInfo      Code = 3000
	ConNotFound  Code = 3001
	ConAmbiguous Code = 3002

	// Проверки сгенерированного кода
	RunInfo              Code = 4000
	RunRequiredNotSet    Code = 4001
	RunAlreadyAssigned   Code = 4002
	RunUnknownAccessor   Code = 4003
	RunMissingTarget     Code = 4004
	RunNotDefaultable    Code = 4005
	RunUnresolvedContext Code = 4006

	// Патчер
	PatInfo         Code = 5000
	PatBadContainer Code = 5001
	PatBadDesc      Code = 5002

	// Ошибки движка
	IntInfo          Code = 9000
	IntUnreachable   Code = 9001
	IntHashCollision Code = 9002
	IntBadState      Code = 9003
)

var (
	codeDescription = map[Code]string{
		UnknownCode:              "Unknown error",
		CfgInfo:                  "Configuration information",
		CfgMarkerNotAnnotation:   "Marker class must be an annotation class",
		CfgMarkerNotDslMarker:    "Marker class must be annotated with DslMarker",
		CfgMissingMarker:         "Required marker argument is absent",
		CfgBadParamOption:        "Invalid parameter generation option",
		CfgUnknownParameter:      "Option refers to an unknown parameter",
		CfgBadDeclaration:        "Malformed declaration",
		CfgMonoParameterNoop:     "monoParameter is not implemented yet",
		CfgMonoParameterMultiple: "monoParameter set on a function with more than one parameter",
		InfInfo:                  "Inference information",
		InfCannotProject:         "Cannot project expected type to actual type",
		InfAmbiguous:             "Ambiguous type inference",
		InfVarianceConflict:      "Conflicting variances at one position",
		ConInfo:                  "Construction information",
		ConNotFound:              "No construction function found",
		ConAmbiguous:             "Ambiguous construction function",
		RunInfo:                  "Runtime information",
		RunRequiredNotSet:        "Required backing property has not been initialized",
		RunAlreadyAssigned:       "Backing property has already been initialized",
		RunUnknownAccessor:       "Unknown accessor",
		RunMissingTarget:         "Target function is not linked",
		RunNotDefaultable:        "Target function has no defaults variant",
		RunUnresolvedContext:     "Context type is not generated",
		PatInfo:                  "Patcher information",
		PatBadContainer:          "Malformed class container",
		PatBadDesc:               "Malformed method descriptor",
		IntInfo:                  "Internal information",
		IntUnreachable:           "Should not be reached",
		IntHashCollision:         "Signature identifier collision",
		IntBadState:              "Invalid generator state",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("INF%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CON%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("RUN%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PAT%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("INT%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Kind returns the error kind a code belongs to.
func (c Code) Kind() Kind {
	if c >= IntInfo {
		return KindInternal
	}
	return KindUser
}
