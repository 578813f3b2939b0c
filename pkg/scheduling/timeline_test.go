package scheduling

import "testing"

func TestTimelineEarliestFit(t *testing.T) {
	tl := &timeline{}
	tl.insert(0, 60)
	tl.insert(120, 180)

	tests := []struct {
		name   string
		after  int
		length int
		want   int
	}{
		{"waits for the first busy block to end", 0, 60, 60},
		{"fits in the gap", 60, 60, 60},
		{"needs to skip past both blocks", 60, 90, 180},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tl.earliestFit(tc.after, tc.length)
			if got != tc.want {
				t.Errorf("earliestFit(%d, %d) = %d, want %d", tc.after, tc.length, got, tc.want)
			}
		})
	}
}

func TestEarliestFitBothRespectsBothTimelines(t *testing.T) {
	machine := &timeline{}
	machine.insert(0, 100)
	operator := &timeline{}
	operator.insert(50, 80)

	start := earliestFitBoth(machine, operator, 0, 20)
	if start != 100 {
		t.Errorf("expected the joint earliest fit to wait for the machine's block, got %d", start)
	}
}
