// Package conversion 实现 ants 与 health 两个资源池之间的换算。
//
// 伤害先扣 ants，ants 耗尽后再扣 health；治疗先补 health，超过上限的部分溢出为 ants。
package conversion

// MaxHealth health 上限
const MaxHealth int64 = 100

// Pool 一对关联资源池
type Pool struct {
	Health int64
	Ants   int64
}

// IsDead health 归零即死亡
func (p Pool) IsDead() bool {
	return p.Health == 0
}

// Convert 按有符号 delta 计算新的资源池，delta 为 0 时原样返回
func Convert(p Pool, delta int64) Pool {
	switch {
	case delta < 0:
		d := -delta
		absorbed := min(d, p.Ants)
		return Pool{
			Health: max(0, p.Health-(d-absorbed)),
			Ants:   p.Ants - absorbed,
		}
	case delta > 0:
		tentative := p.Health + delta
		return Pool{
			Health: min(MaxHealth, tentative),
			Ants:   p.Ants + max(0, tentative-MaxHealth),
		}
	default:
		return p
	}
}
