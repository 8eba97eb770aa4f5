package core

import "testing"

func Test_NewTestConfig(t *testing.T) {
	conf := NewTestConfig()
	if !conf.TestMode {
		t.Error("NewTestConfig().TestMode = false; want true")
	}
	// error responses must keep their JSON body shape in tests
	if conf.Debug {
		t.Error("NewTestConfig().Debug = true; want false")
	}
	if len(conf.SecretKey) == 0 {
		t.Error("NewTestConfig().SecretKey is empty")
	}
	if conf.Reminder.DefaultLeadDays <= 0 {
		t.Error("NewTestConfig().Reminder.DefaultLeadDays must be positive")
	}
}
