package patch

import (
	"os"
	"path/filepath"

	"dslgen/internal/bytecode"
)

func mkdirWrite(path string, c *bytecode.Class) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return bytecode.WriteFile(path, c)
}
