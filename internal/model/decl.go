package model

import (
	"gopkg.in/yaml.v3"
)

// pos remembers where a YAML mapping started.
type pos struct {
	line, col int
}

func (p *pos) at(n *yaml.Node) { p.line, p.col = n.Line, n.Column }

// File is one declaration document.
type File struct {
	Package   string      `yaml:"package"`
	Markers   []string    `yaml:"markers"`
	Classes   []classDecl `yaml:"classes"`
	Aliases   []aliasDecl `yaml:"aliases"`
	Functions []funcDecl  `yaml:"functions"`
}

type classDecl struct {
	pos          `yaml:"-"`
	Name         string     `yaml:"name"`
	Kind         string     `yaml:"kind"`
	TypeParams   []string   `yaml:"typeParams"`
	Open         bool       `yaml:"open"`
	Supertypes   []string   `yaml:"supertypes"`
	Constructor  *ctorDecl  `yaml:"constructor"`
	Constructors []ctorDecl `yaml:"constructors"`
	Functions    []funcDecl `yaml:"functions"`
}

func (d *classDecl) UnmarshalYAML(n *yaml.Node) error {
	type plain classDecl
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.at(n)
	return nil
}

type ctorDecl struct {
	pos        `yaml:"-"`
	Params     []paramDecl `yaml:"params"`
	Visibility string      `yaml:"visibility"`
}

func (d *ctorDecl) UnmarshalYAML(n *yaml.Node) error {
	type plain ctorDecl
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.at(n)
	return nil
}

type aliasDecl struct {
	pos        `yaml:"-"`
	Name       string   `yaml:"name"`
	TypeParams []string `yaml:"typeParams"`
	Target     string   `yaml:"target"`
}

func (d *aliasDecl) UnmarshalYAML(n *yaml.Node) error {
	type plain aliasDecl
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.at(n)
	return nil
}

type funcDecl struct {
	pos        `yaml:"-"`
	Name       string        `yaml:"name"`
	TypeParams []string      `yaml:"typeParams"`
	Receiver   string        `yaml:"receiver"`
	Params     []paramDecl   `yaml:"params"`
	Returns    string        `yaml:"returns"`
	Visibility string        `yaml:"visibility"`
	Generate   *generateDecl `yaml:"generate"`
}

func (d *funcDecl) UnmarshalYAML(n *yaml.Node) error {
	type plain funcDecl
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.at(n)
	return nil
}

type paramDecl struct {
	pos     `yaml:"-"`
	Name    string       `yaml:"name"`
	Type    string       `yaml:"type"`
	Default bool         `yaml:"default"`
	Vararg  bool         `yaml:"vararg"`
	Options *optionsDecl `yaml:"options"`
}

func (d *paramDecl) UnmarshalYAML(n *yaml.Node) error {
	type plain paramDecl
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.at(n)
	return nil
}

type generateDecl struct {
	pos           `yaml:"-"`
	Marker        string `yaml:"marker"`
	FunctionName  string `yaml:"functionName"`
	ContextName   string `yaml:"contextName"`
	MonoParameter bool   `yaml:"monoParameter"`
	MakeInline    bool   `yaml:"makeInline"`
}

func (d *generateDecl) UnmarshalYAML(n *yaml.Node) error {
	type plain generateDecl
	// makeInline включён, пока явно не выключен
	d.MakeInline = true
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.at(n)
	return nil
}

type optionsDecl struct {
	FunctionGetter             *bool             `yaml:"functionGetter"`
	FunctionSetter             *bool             `yaml:"functionSetter"`
	PropertyAccessor           string            `yaml:"propertyAccessor"`
	CollectionAdder            *bool             `yaml:"collectionAdder"`
	CollectionDslAdder         *bool             `yaml:"collectionDslAdder"`
	CollectionSubFunctionAdder *bool             `yaml:"collectionSubFunctionAdder"`
	DslSetter                  *bool             `yaml:"dslSetter"`
	SubFunctionSetter          *bool             `yaml:"subFunctionSetter"`
	Alternatives               []alternativeDecl `yaml:"alternatives"`
}

type alternativeDecl struct {
	pos          `yaml:"-"`
	Package      string    `yaml:"package"`
	Owner        string    `yaml:"owner"`
	Name         string    `yaml:"name"`
	Params       *[]string `yaml:"params"` // absent means "any parameters"
	Returns      string    `yaml:"returns"`
	Element      bool      `yaml:"element"`
	AccessorName string    `yaml:"accessorName"`
	Dsl          bool      `yaml:"dsl"`
}

func (d *alternativeDecl) UnmarshalYAML(n *yaml.Node) error {
	type plain alternativeDecl
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.at(n)
	return nil
}
