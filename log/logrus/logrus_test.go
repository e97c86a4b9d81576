package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/unkn0wn-root/tagbin/store"
)

func TestLogrusLoggerFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := LogrusLogger{E: logrus.NewEntry(base)}

	l.Info("put", store.Fields{"key": "user:1", "size": 12})

	e := hook.LastEntry()
	if e == nil || e.Message != "put" || e.Level != logrus.InfoLevel {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.Data["key"] != "user:1" || e.Data["size"] != 12 {
		t.Fatalf("unexpected fields %v", e.Data)
	}
}
