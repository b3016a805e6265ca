package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileFormRules(t *testing.T) {
	tests := []struct {
		name    string
		view    formView
		visible bool
		changed bool
		rule    string
	}{
		{
			name:    "latch not set, nothing happens",
			view:    formView{HasOrders: true, FormVisible: true},
			visible: true,
		},
		{
			name:    "orders exist and form visible",
			view:    formView{HasOrders: true, FormVisible: true, InitialStateChecked: true},
			visible: false, changed: true, rule: "orders-exist",
		},
		{
			name:    "no orders and form hidden",
			view:    formView{InitialStateChecked: true},
			visible: true, changed: true, rule: "no-orders",
		},
		{
			name:    "submission in flight and form visible",
			view:    formView{FormVisible: true, SubmissionInFlight: true, InitialStateChecked: true},
			visible: false, changed: true, rule: "submission-in-flight",
		},
		{
			name:    "submission in flight suppresses no-orders rule",
			view:    formView{SubmissionInFlight: true, InitialStateChecked: true},
			visible: false,
		},
		{
			name:    "consistent state with orders",
			view:    formView{HasOrders: true, InitialStateChecked: true},
			visible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visible, changed, rule := reconcileForm(tt.view)
			assert.Equal(t, tt.visible, visible)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.rule, rule)
		})
	}
}

func TestReconcileFormIdempotent(t *testing.T) {
	views := []formView{
		{HasOrders: true, FormVisible: true, InitialStateChecked: true},
		{InitialStateChecked: true},
		{FormVisible: true, SubmissionInFlight: true, InitialStateChecked: true},
	}

	for _, v := range views {
		visible, _, _ := reconcileForm(v)
		v.FormVisible = visible

		again, changed, rule := reconcileForm(v)
		assert.False(t, changed, "second pass must be a no-op (rule %s)", rule)
		assert.Equal(t, visible, again)
	}
}
