package quote

import (
	"testing"

	"github.com/yourorg/bridge-orchestrator/internal/types"
)

func TestRateFor(t *testing.T) {
	tests := []struct {
		name     string
		from, to types.VMKind
		expected float64
	}{
		{name: "evm to evm", from: types.VMEVM, to: types.VMEVM, expected: 0.999},
		{name: "svm to svm", from: types.VMSVM, to: types.VMSVM, expected: 0.999},
		{name: "svm to evm", from: types.VMSVM, to: types.VMEVM, expected: 0.998},
		{name: "evm to svm", from: types.VMEVM, to: types.VMSVM, expected: 0.998},
		{name: "evm to move", from: types.VMEVM, to: types.VMMove, expected: 0.997},
		{name: "move to svm", from: types.VMMove, to: types.VMSVM, expected: 0.997},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RateFor(tt.from, tt.to)
			if got != tt.expected {
				t.Errorf("RateFor(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
			if got <= 0 || got > 1 {
				t.Errorf("rate %v outside (0,1]", got)
			}
		})
	}
}
