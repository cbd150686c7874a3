package cmd

import (
	"github.com/redis/go-redis/v9"

	"github.com/hashmap-kz/govreg/internal/bus"
	"github.com/hashmap-kz/govreg/internal/bus/inproc"
	"github.com/hashmap-kz/govreg/internal/bus/redisbus"
	"github.com/hashmap-kz/govreg/internal/client"
	"github.com/hashmap-kz/govreg/internal/config"
)

// newBus selects the transport: redisbus when GOVREG_REDIS_ADDR is set (the
// only way a client subcommand can reach a serve process in another OS
// process), inproc.Bus otherwise.
func newBus(cfg config.Config) bus.Bus {
	if cfg.RedisAddr != "" {
		return redisbus.New(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}
	return inproc.New()
}

// newClient builds the Client API entrypoint the CLI subcommands share.
// Subcommands that are not "serve" never see the coordinator directly:
// they talk to it exactly the way any other caller would, over the bus.
func newClient(cfg config.Config) *client.Client {
	return client.New(newBus(cfg), client.NewAllowAll())
}
