package internal

import (
	"testing"
	"time"
)

func TestOptionsApply(t *testing.T) {
	cfg := NewDefaultConfig()
	app := &application{}

	WithConfig(cfg)(app)
	WithBrokerThrottle(5 * time.Second)(app)

	if app.config != cfg {
		t.Error("config option not applied")
	}
	if app.brokerThrottle != 5*time.Second {
		t.Errorf("broker throttle = %v", app.brokerThrottle)
	}
}

func TestBrokerThrottleDefaultsToZero(t *testing.T) {
	app := &application{}
	WithConfig(NewDefaultConfig())(app)
	if app.brokerThrottle != 0 {
		t.Errorf("unconfigured throttle = %v, want 0 (broker default)", app.brokerThrottle)
	}
}
