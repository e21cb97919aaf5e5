package orm

import (
	"time"

	"github.com/google/uuid"
)

// SequentialUUID 随机生成一个 UUID，然后用当前时间覆盖其中的 6 个字节
// 时间接近的 UUID 按字节比较的时候也比较接近，能减少索引的页分裂
// 它只是一个弱的顺序保证，不能当作安全的随机数使用
func SequentialUUID() uuid.UUID {
	return newSequentialUUID(time.Now())
}

func newSequentialUUID(now time.Time) uuid.UUID {
	id := uuid.New()
	id[3] = byte(now.Year())
	id[2] = byte(now.Month())
	id[1] = byte(now.Day())
	id[0] = byte(now.Hour())
	id[5] = byte(now.Minute())
	id[4] = byte(now.Second())
	return id
}
