package clock

import "time"

// Clock 讓 service 與 sweeper 可以注入時間來源
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem 回傳以 time.Now 為準的時鐘
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed 回傳固定時間的時鐘，測試用
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}
