package bytecode

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"dslgen/internal/diag"
)

const (
	containerMagic   = "dslc"
	containerVersion = 1
	// Ext is the file extension of class containers.
	Ext = ".dslc"
)

// Class is the container of one compiled class.
type Class struct {
	Name    string   `msgpack:"name"`
	Methods []Method `msgpack:"methods"`
}

type envelope struct {
	Magic   string `msgpack:"magic"`
	Version int    `msgpack:"version"`
	Class   Class  `msgpack:"class"`
}

// Encode writes c in container format.
func Encode(w io.Writer, c *Class) error {
	return msgpack.NewEncoder(w).Encode(&envelope{Magic: containerMagic, Version: containerVersion, Class: *c})
}

// Decode reads one container.
func Decode(r io.Reader) (*Class, error) {
	var env envelope
	if err := msgpack.NewDecoder(r).Decode(&env); err != nil {
		return nil, &diag.Error{Code: diag.PatBadContainer, Kind: diag.KindUser, Msg: "malformed class container", Err: err}
	}
	if env.Magic != containerMagic {
		return nil, diag.Errorf(diag.PatBadContainer, "not a class container (magic %q)", env.Magic)
	}
	if env.Version != containerVersion {
		return nil, diag.Errorf(diag.PatBadContainer, "unsupported container version %d", env.Version)
	}
	return &env.Class, nil
}

// ReadFile decodes the container at path.
func ReadFile(path string) (*Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// WriteFile replaces the container at path atomically.
func WriteFile(path string, c *Class) error {
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".dslc-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
