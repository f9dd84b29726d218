package topics

import "testing"

func TestRound4(t *testing.T) {
	cases := map[float64]float64{
		0.123456: 0.1235,
		1.0:      1.0,
		0.0:      0.0,
		0.99995:  1.0,
	}
	for in, want := range cases {
		if got := round4(in); got != want {
			t.Errorf("round4(%v) = %v, want %v", in, got, want)
		}
	}
}
