package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOperations(t *testing.T) {
	v := NewPatchValidator()

	tests := []struct {
		name     string
		ops      []map[string]interface{}
		wantErr  bool
		topology bool
	}{
		{name: "replace label", ops: []map[string]interface{}{{"op": "replace", "path": "/label", "value": "L1"}}},
		{name: "annotate data", ops: []map[string]interface{}{{"op": "add", "path": "/data/selected", "value": true}}},
		{name: "remove data key", ops: []map[string]interface{}{{"op": "remove", "path": "/data/icon"}}},
		{name: "copy label", ops: []map[string]interface{}{{"op": "copy", "from": "/label", "path": "/data/title"}}},
		{name: "empty", ops: nil, wantErr: true},
		{name: "missing op", ops: []map[string]interface{}{{"path": "/label"}}, wantErr: true},
		{name: "missing path", ops: []map[string]interface{}{{"op": "remove"}}, wantErr: true},
		{name: "missing value", ops: []map[string]interface{}{{"op": "add", "path": "/label"}}, wantErr: true},
		{name: "unknown op", ops: []map[string]interface{}{{"op": "merge", "path": "/label"}}, wantErr: true},
		{name: "copy without from", ops: []map[string]interface{}{{"op": "copy", "path": "/label"}}, wantErr: true},
		{name: "remove child", ops: []map[string]interface{}{{"op": "remove", "path": "/items/0"}}, wantErr: true, topology: true},
		{name: "replace items", ops: []map[string]interface{}{{"op": "replace", "path": "/items", "value": []interface{}{}}}, wantErr: true, topology: true},
		{name: "replace node", ops: []map[string]interface{}{{"op": "replace", "path": "", "value": map[string]interface{}{}}}, wantErr: true, topology: true},
		{name: "move out of items", ops: []map[string]interface{}{{"op": "move", "from": "/items/0", "path": "/data/x"}}, wantErr: true, topology: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateOperations(tt.ops)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			if tt.topology {
				assert.ErrorIs(t, err, ErrTopologyPatch)
			}
		})
	}
}

func TestValidateOperations_Limit(t *testing.T) {
	ops := make([]map[string]interface{}, maxOperations+1)
	for i := range ops {
		ops[i] = map[string]interface{}{"op": "remove", "path": "/data/x"}
	}

	assert.Error(t, NewPatchValidator().ValidateOperations(ops))
}

func TestValidateMergePatch(t *testing.T) {
	v := NewPatchValidator()

	assert.NoError(t, v.ValidateMergePatch(map[string]interface{}{"expanded": true}))
	assert.ErrorIs(t, v.ValidateMergePatch(map[string]interface{}{"items": nil}), ErrTopologyPatch)
}
