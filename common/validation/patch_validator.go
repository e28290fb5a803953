package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTopologyPatch is returned for patches that touch a tree node's items
var ErrTopologyPatch = errors.New("patch must not modify items")

// maxOperations bounds a single node patch
const maxOperations = 32

// PatchValidator validates patches applied to materialized tree nodes.
// A node patch may relabel or annotate a node but never change its items.
type PatchValidator struct{}

// NewPatchValidator creates a new patch validator
func NewPatchValidator() *PatchValidator {
	return &PatchValidator{}
}

// ValidateOperations validates JSON Patch (RFC 6902) operations
func (v *PatchValidator) ValidateOperations(operations []map[string]interface{}) error {
	if len(operations) == 0 {
		return fmt.Errorf("patch validation failed: no operations")
	}
	if len(operations) > maxOperations {
		return fmt.Errorf("patch validation failed: at most %d operations per patch (got %d)", maxOperations, len(operations))
	}

	for i, op := range operations {
		if err := v.validateOperation(op, i); err != nil {
			return err
		}
	}

	return nil
}

// ValidateMergePatch validates a JSON merge patch (RFC 7386) document
func (v *PatchValidator) ValidateMergePatch(doc map[string]interface{}) error {
	if _, ok := doc["items"]; ok {
		return fmt.Errorf("merge patch: %w", ErrTopologyPatch)
	}
	return nil
}

// validateOperation validates a single operation
func (v *PatchValidator) validateOperation(op map[string]interface{}, index int) error {
	opType, ok := op["op"].(string)
	if !ok {
		return fmt.Errorf("operation %d: missing or invalid 'op' field", index)
	}

	path, ok := op["path"].(string)
	if !ok {
		return fmt.Errorf("operation %d: missing or invalid 'path' field", index)
	}
	if touchesItems(path) {
		return fmt.Errorf("operation %d: %w", index, ErrTopologyPatch)
	}

	switch opType {
	case "add", "replace", "test":
		if _, ok := op["value"]; !ok {
			return fmt.Errorf("operation %d: 'value' required for %s operation", index, opType)
		}

	case "remove":
		return nil

	case "copy", "move":
		from, ok := op["from"].(string)
		if !ok {
			return fmt.Errorf("operation %d: 'from' required for %s operation", index, opType)
		}
		// moving out of items removes a child as surely as remove does
		if touchesItems(from) {
			return fmt.Errorf("operation %d: %w", index, ErrTopologyPatch)
		}

	default:
		return fmt.Errorf("operation %d: unsupported operation type: %s", index, opType)
	}

	return nil
}

func touchesItems(path string) bool {
	// "" addresses the whole node
	return path == "" || path == "/items" || strings.HasPrefix(path, "/items/")
}
