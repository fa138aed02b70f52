package intakeform

import (
	"github.com/msto63/intake/internal/intake/binder"
	"github.com/msto63/intake/internal/intake/form"
	"github.com/msto63/intake/internal/intake/notify"
	"github.com/msto63/intake/internal/intake/store"
)

// Message types for tea.Cmd async operations

// voiceResultMsg is sent when a voice request finished
type voiceResultMsg struct {
	req binder.VoiceRequest
	err error
}

// savedMsg is sent when a record was persisted
type savedMsg struct {
	record form.Record
	result store.PersistResult
}

// recordsLoadedMsg is sent when persisted records were read
type recordsLoadedMsg struct {
	rows []store.PersistedRow
	err  error
}

// notificationMsg carries an operator notification into Update
type notificationMsg notify.Notification
