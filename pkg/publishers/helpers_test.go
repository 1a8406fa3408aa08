package publishers

import "github.com/samvad-hq/mtg-card-harvester/internal/domain"

func sampleEvent() Event {
	number := "72"
	return NewEvent("opt-black-lotus", "Opt or Black Lotus", domain.Card{
		Name:            "Opt",
		SetName:         "Ixalan",
		CollectorNumber: &number,
	})
}

type logEntry struct {
	key    string
	fields map[string]any
}

type recordingLogger struct {
	entries []logEntry
}

func (r *recordingLogger) record(key string, obj any) {
	fields, _ := obj.(map[string]any)
	r.entries = append(r.entries, logEntry{key: key, fields: fields})
}

func (r *recordingLogger) InfoObj(_, key string, obj any)  { r.record(key, obj) }
func (r *recordingLogger) DebugObj(_, key string, obj any) { r.record(key, obj) }
func (r *recordingLogger) WarnObj(_, key string, obj any)  { r.record(key, obj) }
func (r *recordingLogger) ErrorObj(_, key string, obj any) { r.record(key, obj) }

// last returns the fields of the most recent entry logged under key.
func (r *recordingLogger) last(key string) map[string]any {
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].key == key {
			return r.entries[i].fields
		}
	}
	return nil
}
