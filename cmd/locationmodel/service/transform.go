package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/awschultz/locationmodel/common/logger"
	"github.com/awschultz/locationmodel/common/models"
	"github.com/awschultz/locationmodel/common/validation"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// ErrTopologyPatch is returned for patches that touch a node's items
var ErrTopologyPatch = validation.ErrTopologyPatch

// NewPatchTransform compiles a node transform from a JSON document.
// An object is applied as a JSON merge patch (RFC 7386), an array as a
// JSON patch (RFC 6902). Patches that address "items" are rejected.
func NewPatchTransform(patch []byte, log *logger.Logger) (TransformFunc, error) {
	patch = bytes.TrimSpace(patch)
	if len(patch) == 0 {
		return Identity, nil
	}

	validator := validation.NewPatchValidator()
	var apply func(doc []byte) ([]byte, error)

	switch patch[0] {
	case '{':
		var doc map[string]interface{}
		if err := json.Unmarshal(patch, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode merge patch: %w", err)
		}
		if err := validator.ValidateMergePatch(doc); err != nil {
			return nil, err
		}
		apply = func(doc []byte) ([]byte, error) {
			return jsonpatch.MergePatch(doc, patch)
		}

	case '[':
		var operations []map[string]interface{}
		if err := json.Unmarshal(patch, &operations); err != nil {
			return nil, fmt.Errorf("failed to decode patch: %w", err)
		}
		if err := validator.ValidateOperations(operations); err != nil {
			return nil, err
		}
		ops, err := jsonpatch.DecodePatch(patch)
		if err != nil {
			return nil, fmt.Errorf("failed to decode patch: %w", err)
		}
		apply = ops.Apply

	default:
		return nil, fmt.Errorf("patch must be a JSON object or array")
	}

	return func(node *models.TreeNode) *models.TreeNode {
		out, err := applyNodePatch(node, apply)
		if err != nil {
			log.Warn("transform failed, keeping node unchanged", "label", node.Label, "error", err)
			return node
		}
		return out
	}, nil
}

// applyNodePatch patches the node without its items and reattaches them
func applyNodePatch(node *models.TreeNode, apply func([]byte) ([]byte, error)) (*models.TreeNode, error) {
	items := node.Items
	shallow := *node
	shallow.Items = nil

	doc, err := json.Marshal(&shallow)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node: %w", err)
	}

	patched, err := apply(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}

	var out models.TreeNode
	dec := json.NewDecoder(bytes.NewReader(patched))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	for k, v := range out.Data {
		out.Data[k] = restoreNumbers(v)
	}
	out.Items = items

	return &out, nil
}

// restoreNumbers turns decoded json.Numbers back into int64 where the
// number is integral and float64 otherwise, so IDs keep full precision.
func restoreNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, item := range val {
			val[k] = restoreNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = restoreNumbers(item)
		}
		return val
	default:
		return v
	}
}
