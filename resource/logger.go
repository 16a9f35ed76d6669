package resource

import (
	"go.uber.org/zap"
)

// LogObserver forwards lifecycle events to a zap logger at debug level.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates an observer writing to l. A nil logger yields a
// no-op observer.
func NewLogObserver(l *zap.Logger) *LogObserver {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogObserver{logger: l}
}

// OnResourceEvent implements Observer.
func (o *LogObserver) OnResourceEvent(e Event) {
	fields := []zap.Field{
		zap.Stringer("handle", e.Handle),
		zap.String("class", e.Class),
		zap.Stringer("mode", e.Mode),
	}
	if e.Owner != 0 {
		fields = append(fields, zap.Stringer("owner", e.Owner))
	}
	o.logger.Debug("slot "+e.Type.String(), fields...)
}
