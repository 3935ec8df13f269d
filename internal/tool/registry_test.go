package tool_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arcflow/substrate/internal/tool"
	"github.com/arcflow/substrate/internal/valueobjects"
)

func TestRegistry_DeleteIsIdempotent(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(tool.Tool{Name: "t1", Category: valueobjects.CategoryUtility})
	r.Delete("t1")
	r.Delete("t1")
	_, ok := r.Get("t1")
	assert.False(t, ok)
}

func TestRegistry_ByTagAndCategory(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(tool.Tool{Name: "t1", Tags: []string{"weather"}, Category: valueobjects.CategoryData})
	r.Register(tool.Tool{Name: "t2", Tags: []string{"weather"}, Category: valueobjects.CategoryData})
	assert.ElementsMatch(t, []string{"t1", "t2"}, r.ByTag("weather"))
	assert.ElementsMatch(t, []string{"t1", "t2"}, r.ByCategory(valueobjects.CategoryData))
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	e := tool.NewEngine(tool.NewRegistry(), nil, nil)
	res := e.Execute(context.Background(), "does_not_exist", nil, tool.CallRecord{})
	assert.Equal(t, valueobjects.ErrToolNotFound, res.Kind)
	assert.False(t, res.Success)
}
