package condition

import (
	"fmt"
	"testing"
	"time"

	"github.com/awschultz/locationmodel/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineDetails() map[string]any {
	return map[string]any{
		"locationName":   "Line 1",
		"locationID":     int64(4),
		"locationType":   "Line",
		"orderNumber":    nil,
		"childrenCount":  int64(0),
		"tagPath":        "[default]Locations/Plant/Packaging/Line 1",
		"lastModifiedOn": time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	e := NewEvaluator(logger.Discard())

	tests := []struct {
		expr string
		want bool
	}{
		{`details.locationType == "Line"`, true},
		{`details.locationType == "Area"`, false},
		{`$.locationID == 4`, true},
		{`details.childrenCount == 0 && details.tagPath.startsWith("[default]Locations/Plant")`, true},
		{`details.orderNumber == null`, true},
		{`details.locationName.contains("Line") || details.locationID > 100`, true},
		{`"locationType" in details`, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := e.Evaluate(tt.expr, lineDetails())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_CompileErrors(t *testing.T) {
	e := NewEvaluator(logger.Discard())

	_, err := e.Compile(`details.locationType ==`)
	assert.Error(t, err)

	_, err = e.Compile(`unknown.field == 1`)
	assert.Error(t, err)

	_, err = e.Compile("   ")
	assert.Error(t, err)
}

func TestEvaluator_CompiledFilterTreatsFailuresAsNoMatch(t *testing.T) {
	e := NewEvaluator(logger.Discard())

	missingKey, err := e.Compile(`details.shortName == "L1"`)
	require.NoError(t, err)
	assert.False(t, missingKey(lineDetails()))

	notBool, err := e.Compile(`details.locationName`)
	require.NoError(t, err)
	assert.False(t, notBool(lineDetails()))

	match, err := e.Compile(`details.locationType == "Line"`)
	require.NoError(t, err)
	assert.True(t, match(lineDetails()))
}

func TestEvaluator_CachesPrograms(t *testing.T) {
	e := NewEvaluator(logger.Discard())

	_, err := e.Compile(`$.locationID == 4`)
	require.NoError(t, err)
	_, err = e.Evaluate(`details.locationID == 4`, lineDetails())
	require.NoError(t, err)

	assert.Equal(t, 1, e.CacheSize(), "shorthand normalizes to the same program")
}

func TestEvaluator_CacheIsBounded(t *testing.T) {
	e := NewEvaluatorWithCacheSize(16, logger.Discard())

	for i := 0; i < 500; i++ {
		_, err := e.Compile(fmt.Sprintf(`details.locationID == %d`, i))
		require.NoError(t, err)
	}
	assert.Equal(t, 16, e.CacheSize())

	// evicted programs still compile on demand
	ok, err := e.Evaluate(`details.locationID == 4`, lineDetails())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.LessOrEqual(t, e.CacheSize(), 16)
}

func TestEvaluator_ShorthandLeavesLiteralsAlone(t *testing.T) {
	e := NewEvaluator(logger.Discard())
	details := map[string]any{"description": "cost $.5", "icon": `a\"$.b`}

	tests := []struct {
		expr string
		want bool
	}{
		{`details.description == "cost $.5"`, true},
		{`$.description == 'cost $.5'`, true},
		{`$.description == """cost $.5"""`, true},
		{`$.description == r"cost $.5"`, true},
		{`$.icon == "a\\\"$.b"`, true},
		{`$.description.startsWith("cost $.")`, true},
		{`details.description == "cost details.5"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := e.Evaluate(tt.expr, details)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandShorthand(t *testing.T) {
	assert.Equal(t, `details.a == 1`, expandShorthand(`$.a == 1`))
	assert.Equal(t, `(details.a) && details.b`, expandShorthand(`($.a) && $.b`))
	assert.Equal(t, `details.a == "$.b"`, expandShorthand(`$.a == "$.b"`))
	assert.Equal(t, `x$.a`, expandShorthand(`x$.a`))
}
