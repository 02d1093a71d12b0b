package conversion

import (
	"slices"

	"github.com/cockroachdb/errors"
)

// AntStepMultiplier 每个 ant-step 对应的资源单位
const AntStepMultiplier int64 = 12

var (
	// ErrHealthDeltaNotAllowed health-edit 的 delta 不在允许集合内
	ErrHealthDeltaNotAllowed = errors.New("conversion: health delta not allowed")
	// ErrAntStepNotAllowed ant-step 不在允许集合内
	ErrAntStepNotAllowed = errors.New("conversion: ant step not allowed")
)

var (
	healthDeltas = []int64{-20, -10, -5, 5, 10, 20}
	antSteps     = []int64{-3, -2, -1, 1, 2}
)

// HealthDeltas 允许的 health-edit delta
func HealthDeltas() []int64 {
	return slices.Clone(healthDeltas)
}

// AntSteps 允许的 ant-step
func AntSteps() []int64 {
	return slices.Clone(antSteps)
}

// HealthEditDelta 校验 health-edit 输入并返回资源单位（不缩放）
func HealthEditDelta(delta int64) (int64, error) {
	if !slices.Contains(healthDeltas, delta) {
		return 0, errors.Wrapf(ErrHealthDeltaNotAllowed, "delta=%d, allowed %v", delta, healthDeltas)
	}
	return delta, nil
}

// AntStepDelta 校验 ant-step 输入并返回资源单位（step * 12）
func AntStepDelta(step int64) (int64, error) {
	if !slices.Contains(antSteps, step) {
		return 0, errors.Wrapf(ErrAntStepNotAllowed, "step=%d, allowed %v", step, antSteps)
	}
	return step * AntStepMultiplier, nil
}

// VirtualPool 无存活食蚁兽时的资源池：health 视为满值缓冲，换算后只保留 ants
func VirtualPool(ants int64) Pool {
	return Pool{Health: MaxHealth, Ants: ants}
}
