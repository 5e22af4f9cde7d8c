package cache

import (
	"context"
	"sync"
	"time"
)

// groupEntry — запись об уже увиденной медиа-группе
type groupEntry struct {
	LeaderMessageID int
	ExpiresAt       time.Time
}

// GroupCache запоминает, какие медиа-группы (альбомы) уже встречались,
// чтобы политика "first" загружала ровно один элемент на группу.
// Элементы альбома приходят отдельными сообщениями с общим grouped_id,
// поэтому без памяти между сообщениями лидера группы не определить.
type GroupCache struct {
	groups map[int64]*groupEntry
	ttl    time.Duration
	mutex  sync.Mutex
}

// NewGroupCache создает новый экземпляр GroupCache. TTL ограничивает
// время жизни записи: элементы одного альбома приходят в течение секунд,
// а память не должна расти безгранично.
func NewGroupCache(ttl time.Duration) *GroupCache {
	return &GroupCache{
		groups: make(map[int64]*groupEntry),
		ttl:    ttl,
	}
}

// Claim пытается объявить сообщение лидером своей медиа-группы.
// Возвращает true для первого сообщения группы в пределах TTL,
// false для всех последующих. Операция атомарна.
func (gc *GroupCache) Claim(groupID int64, messageID int) bool {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()

	now := time.Now()
	entry, exists := gc.groups[groupID]
	if exists && now.Before(entry.ExpiresAt) {
		return entry.LeaderMessageID == messageID
	}

	gc.groups[groupID] = &groupEntry{
		LeaderMessageID: messageID,
		ExpiresAt:       now.Add(gc.ttl),
	}
	return true
}

// Len возвращает количество записей, включая просроченные.
func (gc *GroupCache) Len() int {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()
	return len(gc.groups)
}

// CleanupExpired удаляет просроченные записи
func (gc *GroupCache) CleanupExpired() {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()

	now := time.Now()
	for groupID, entry := range gc.groups {
		if now.After(entry.ExpiresAt) {
			delete(gc.groups, groupID)
		}
	}
}

// StartCleanupTicker запускает таймер для периодической очистки просроченных записей
func (gc *GroupCache) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				gc.CleanupExpired()
			}
		}
	}()
}
