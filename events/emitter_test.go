package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitDeliversToTypedAndWildcardSubscribers(t *testing.T) {
	em := NewEmitter()
	var typed, all []EventType
	em.Subscribe(EventBattleResolved, func(ev Event) { typed = append(typed, ev.Type) })
	em.SubscribeAll(func(ev Event) { all = append(all, ev.Type) })

	em.EmitAll([]Event{{Type: EventWarriorCreated}, {Type: EventBattleResolved}})

	assert.Equal(t, []EventType{EventBattleResolved}, typed)
	assert.Equal(t, []EventType{EventWarriorCreated, EventBattleResolved}, all)
}

func TestEmitRecoversPanickingHandler(t *testing.T) {
	em := NewEmitter()
	called := false
	em.Subscribe(EventBlockCommit, func(Event) { panic("boom") })
	em.Subscribe(EventBlockCommit, func(Event) { called = true })

	assert.NotPanics(t, func() { em.Emit(Event{Type: EventBlockCommit}) })
	assert.True(t, called)
}
