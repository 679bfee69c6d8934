package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Heetpatel09/TimeWise-sub001/core"
)

func TestRollbarLogger_prepare(t *testing.T) {
	l := RollbarLogger{}
	err := errors.New("boom")

	tests := []struct {
		name string
		args []interface{}
		want []interface{}
	}{
		{name: "msg only", want: []interface{}{"msg"}},
		{name: "error", args: []interface{}{err}, want: []interface{}{"msg", err}},
		{
			name: "fields become extras",
			args: []interface{}{err, core.Fields{"a": 1}, core.Fields{"b": "2"}},
			want: []interface{}{"msg", err, map[string]interface{}{"a": 1, "b": "2"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.prepare("msg", tt.args))
		})
	}
}

func TestRollbarLogger_printsWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewRollbarLogger(log.New(&buf, "TEST : ", 0), &core.Config{Env: "TEST"})
	l.Enable(false)

	l.Warn("no eligible teacher for subject", core.Fields{"subject": "Physics"})

	assert.Contains(t, buf.String(), "TEST : no eligible teacher for subject")
	assert.Contains(t, buf.String(), "Physics")
}
