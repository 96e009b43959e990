// Package ecs 实体存储：整数编号加动态的类型化组件集合，底层为 donburi world
package ecs

import (
	"errors"

	"github.com/yohamta/donburi"
	dcomp "github.com/yohamta/donburi/component"
	"github.com/yohamta/donburi/filter"
	"github.com/yohamta/donburi/query"

	"roomsync/component"
)

// Entity 不透明的实体编号
type Entity = donburi.Entity

// 实体存储错误
var (
	ErrNoEntity    = errors.New("ecs: no such entity")
	ErrLocalExists = errors.New("ecs: local player already exists")
)

var players = query.NewQuery(filter.Contains(component.Player))

// Store 实体存储，只在调度线程上使用
type Store struct {
	world donburi.World
}

// NewStore 创建空的实体存储
func NewStore() *Store {
	return &Store{world: donburi.NewWorld()}
}

// World 底层 donburi world
func (s *Store) World() donburi.World { return s.world }

// Spawn 创建带有给定组件类型（零值）的实体
func (s *Store) Spawn(types ...dcomp.IComponentType) *donburi.Entry {
	return s.world.Entry(s.world.Create(types...))
}

// Destroy 删除 e 及其全部组件，未知编号直接忽略
func (s *Store) Destroy(e Entity) {
	if s.world.Valid(e) {
		s.world.Remove(e)
	}
}

// Alive 实体是否存在
func (s *Store) Alive(e Entity) bool { return s.world.Valid(e) }

// Entry 返回实体条目，不存在时返回 ErrNoEntity
func (s *Store) Entry(e Entity) (*donburi.Entry, error) {
	if !s.world.Valid(e) {
		return nil, ErrNoEntity
	}
	return s.world.Entry(e), nil
}

// Len 实体数量
func (s *Store) Len() int { return s.world.Len() }

// Each 遍历匹配 q 的实体
// fn 中不能创建或删除实体，应先收集编号，遍历结束后再处理
func (s *Store) Each(q *query.Query, fn func(*donburi.Entry)) {
	q.Each(s.world, fn)
}

// Local 返回本地玩家的条目
func (s *Store) Local() (*donburi.Entry, bool) {
	var found *donburi.Entry
	players.Each(s.world, func(e *donburi.Entry) {
		if found == nil && component.Player.Get(e).IsLocal {
			found = e
		}
	})
	return found, found != nil
}
