package display_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arclang/arc/internal/display"
	"github.com/arclang/arc/internal/executor"
	"github.com/arclang/arc/internal/model"
)

func TestPrintResolution_ListsSystemsAndTasks(t *testing.T) {
	var buf bytes.Buffer
	a := &model.Task{Name: "a"}
	display.PrintResolution(&buf, []string{"box"}, map[string][]*model.Task{"box": {a}})

	out := buf.String()
	assert.Contains(t, out, "box")
	assert.Contains(t, out, "a")
}

func TestPrintResolution_NoSystemsWarns(t *testing.T) {
	var buf bytes.Buffer
	display.PrintResolution(&buf, nil, nil)
	assert.Contains(t, buf.String(), "no systems")
}

func TestPrintReport_RendersStates(t *testing.T) {
	var buf bytes.Buffer
	a := &model.Task{Name: "a", State: model.StateSuccess}
	reg := model.NewRegistry()
	reg.Tasks["a"] = a

	display.PrintReport(&buf, []string{"box"}, reg, map[string][]*model.Task{"box": {a}}, executor.Outcome{})
	assert.Contains(t, buf.String(), "a")
	assert.Contains(t, buf.String(), "success")
}
