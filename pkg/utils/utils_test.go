package utils

import (
	"math"
	"testing"
	"time"
)

func TestGenerateDeviceIDUnique(t *testing.T) {
	a := GenerateDeviceID()
	b := GenerateDeviceID()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}

func TestTimestampSecondsRoundTrip(t *testing.T) {
	now := time.Now()
	sec := TimestampSeconds(now)
	back := FromTimestampSeconds(sec)
	if math.Abs(float64(now.Sub(back))) > float64(time.Microsecond) {
		t.Errorf("round trip drifted: %v vs %v", now, back)
	}
}

func TestTimestampSecondsEpoch(t *testing.T) {
	epoch := time.Unix(0, 0)
	if sec := TimestampSeconds(epoch); sec != 0 {
		t.Errorf("expected 0 for epoch, got %v", sec)
	}
}
