package lasers

import (
	"reflect"
)

// Queries visit matching entities in ascending EntityId order within each
// archetype. Returning false from the callback stops the query.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]       { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B] { return Query2[A, B]{ecs: cmd.app.ecs} }

func (q Query1[A]) Map(m func(EntityId, *A) bool) {
	id1 := componentIdOf[A](q.ecs)

	for _, arch := range q.ecs.archetypes {
		data, ok := arch.componentData[id1]
		if !ok {
			continue
		}
		comps1 := data.([]A)

		for _, entityId := range arch.sortedEntities() {
			if !m(entityId, &comps1[arch.entities[entityId]]) {
				return
			}
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool) {
	id1 := componentIdOf[A](q.ecs)
	id2 := componentIdOf[B](q.ecs)

	for _, arch := range q.ecs.archetypes {
		data1, ok1 := arch.componentData[id1]
		data2, ok2 := arch.componentData[id2]
		if !ok1 || !ok2 {
			continue
		}
		comps1 := data1.([]A)
		comps2 := data2.([]B)

		for _, entityId := range arch.sortedEntities() {
			r := arch.entities[entityId]
			if !m(entityId, &comps1[r], &comps2[r]) {
				return
			}
		}
	}
}

// First returns the first matching component, or nil.
func (q Query1[A]) First() (EntityId, *A) {
	var (
		eid   EntityId
		found *A
	)
	q.Map(func(id EntityId, a *A) bool {
		eid, found = id, a
		return false
	})
	return eid, found
}

func componentIdOf[A any](ecs *Ecs) componentId {
	var a A
	return ecs.getComponentId(reflect.TypeOf(a))
}
