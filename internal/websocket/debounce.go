package websocket

import "time"

// typingDebounce — минимальный интервал между typing-рассылками одного клиента.
const typingDebounce = 500 * time.Millisecond

// typingGate гасит шквал typing-событий от одного отправителя:
// пропускает не больше одного за интервал. Состояние трогает только
// читающая горутина клиента, блокировка не нужна.
type typingGate struct {
	interval time.Duration
	last     time.Time
}

func (g *typingGate) allow(now time.Time) bool {
	if g.interval == 0 {
		g.interval = typingDebounce
	}
	if !g.last.IsZero() && now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	return true
}
