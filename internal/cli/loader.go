package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/classbook/internal/record"
)

// ImportError reports an unreadable import file.
type ImportError struct {
	Path    string
	Message string
	Line    int // 1-based; zero when unknown
}

func (e *ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadStudents reads students from a YAML file. The document is either a
// list of students or a mapping with a "students" list.
func LoadStudents(path string) ([]record.Student, error) {
	return loadList[record.Student](path, "students")
}

// LoadAccounts reads accounts from a YAML file, shaped like LoadStudents'
// input with an "accounts" list.
func LoadAccounts(path string) ([]record.Account, error) {
	return loadList[record.Account](path, "accounts")
}

func loadList[T any](path, key string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ImportError{Path: path, Message: err.Error()}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ImportError{Path: path, Message: "file is empty"}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ImportError{Path: path, Message: err.Error()}
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	list := root
	if root.Kind == yaml.MappingNode {
		list = nil
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == key {
				list = root.Content[i+1]
				break
			}
		}
		if list == nil {
			return nil, &ImportError{Path: path, Line: root.Line, Message: fmt.Sprintf("no %q list", key)}
		}
	}
	if list.Kind != yaml.SequenceNode {
		return nil, &ImportError{Path: path, Line: list.Line, Message: fmt.Sprintf("expected a list of %s", key)}
	}

	out := make([]T, 0, len(list.Content))
	for _, item := range list.Content {
		var v T
		if err := item.Decode(&v); err != nil {
			return nil, &ImportError{Path: path, Line: item.Line, Message: err.Error()}
		}
		out = append(out, v)
	}
	return out, nil
}
