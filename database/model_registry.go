/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"sort"
	"sync"
)

// defaultRegistry backs RegisterModel and is used by clients created without
// WithModelRegistry.
var defaultRegistry = NewModelRegistry()

// SQLModel is a Bun model the client knows about. Its instance is registered
// on every pool the client opens and its table is created by CreateTables.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// ModelRegistry holds the models of a client. Models returns them ordered by
// priority, ties kept in registration order, which is the table creation order.
type ModelRegistry interface {
	Register(model SQLModel)
	Models() []SQLModel
}

type modelRegistry struct {
	mu     sync.RWMutex
	models []SQLModel
}

// NewModelRegistry returns an empty registry for WithModelRegistry.
func NewModelRegistry() ModelRegistry {
	return &modelRegistry{}
}

// Register adds model. Models without an instance are ignored since the
// client could neither register nor create them.
func (r *modelRegistry) Register(model SQLModel) {
	if model == nil || model.Instance() == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = append(r.models, model)
}

func (r *modelRegistry) Models() []SQLModel {
	r.mu.RLock()
	ordered := append([]SQLModel(nil), r.models...)
	r.mu.RUnlock()

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})
	return ordered
}

type registeredModel struct {
	instance interface{}
	priority int
}

// NewModel describes a Bun model, usually a typed nil pointer such as
// (*User)(nil). Tables with a lower priority are created first, so referenced
// tables should get a lower value than the tables pointing at them.
func NewModel(instance interface{}, priority int) SQLModel {
	return &registeredModel{instance: instance, priority: priority}
}

func (m *registeredModel) Instance() interface{} { return m.instance }

func (m *registeredModel) Priority() int { return m.priority }

// RegisterModel adds a model to the registry shared by clients created without
// WithModelRegistry. Call it before the client is built.
func RegisterModel(instance interface{}, priority int) {
	defaultRegistry.Register(NewModel(instance, priority))
}

// modelInstances returns the instances of r in creation order.
func modelInstances(r ModelRegistry) []interface{} {
	models := r.Models()
	instances := make([]interface{}, 0, len(models))
	for _, m := range models {
		instances = append(instances, m.Instance())
	}
	return instances
}
