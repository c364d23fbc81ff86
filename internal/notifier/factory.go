package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benx421/subscription-checkout/internal/config"
)

// FromConfig builds a Fanout over every configured driver. The returned close
// function releases broker connections and is safe to call when err is nil.
func FromConfig(ctx context.Context, cfg *config.NotifierConfig, logger *slog.Logger) (*Fanout, func(), error) {
	var (
		notifiers []Notifier
		closers   []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	for _, driver := range cfg.Drivers {
		switch driver {
		case "log":
			notifiers = append(notifiers, &LogNotifier{Logger: logger})

		case "http":
			notifiers = append(notifiers, NewHTTPNotifier(cfg.HTTPURL, cfg.HTTPTimeout))

		case "nats":
			conn, err := ConnectNATS(cfg.NATSURL, logger)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			closers = append(closers, func() {
				if err := conn.Drain(); err != nil {
					logger.Warn("failed to drain nats connection", "error", err)
				}
			})
			notifiers = append(notifiers, NewNATSNotifier(conn, cfg.NATSSubject))

		case "redis":
			rdb, err := ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			closers = append(closers, func() {
				if err := rdb.Close(); err != nil {
					logger.Warn("failed to close redis client", "error", err)
				}
			})
			notifiers = append(notifiers, NewRedisNotifier(rdb, cfg.RedisChannel))

		default:
			closeAll()
			return nil, nil, fmt.Errorf("unknown notifier driver: %s", driver)
		}

		logger.Info("notifier enabled", "driver", driver)
	}

	return NewFanout(logger, notifiers...), closeAll, nil
}
