package cardbrand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		number string
		want   string
	}{
		{"4111111111111111", Visa},
		{"4007000000027", Visa},
		{"5424000000000015", MasterCard},
		{"2223000010309703", MasterCard},
		{"378282246310005", AmericanExpress},
		{"370000000000002", AmericanExpress},
		{"6011000000000012", Discover},
		{"6500000000000002", Discover},
		{"3566111111111113", JCB},
		{"38000000000006", DinersClub},
		{"30569309025904", DinersClub},
		{"6759649826438453", Maestro},
		{"4111 1111 1111 1111", Visa},
		{"4111-1111-1111-1111", Visa},
		{"", Unknown},
		{"abcd", Unknown},
		{"411111", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.number))
		})
	}
}
