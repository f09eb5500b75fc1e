package platform

import (
	"testing"
	"time"
)

func TestOptionsTimeout(t *testing.T) {
	if got := (Options{}).timeout(); got != DefaultTimeout {
		t.Errorf("zero timeout = %v", got)
	}
	if got := (Options{Timeout: time.Second}).timeout(); got != time.Second {
		t.Errorf("timeout = %v", got)
	}
}
