package main

import (
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/clock"
	"github.com/leaseline/leaseline/internal/comm"
	"github.com/leaseline/leaseline/internal/config"
	"github.com/leaseline/leaseline/internal/dedup"
	"github.com/leaseline/leaseline/internal/ingest"
	"github.com/leaseline/leaseline/internal/logger"
	"github.com/leaseline/leaseline/internal/migration"
	"github.com/leaseline/leaseline/internal/notify"
	"github.com/leaseline/leaseline/internal/observability/metrics"
	"github.com/leaseline/leaseline/internal/party"
	"github.com/leaseline/leaseline/internal/person"
	"github.com/leaseline/leaseline/internal/phonenumber"
	"github.com/leaseline/leaseline/internal/program"
	"github.com/leaseline/leaseline/internal/queue"
	"github.com/leaseline/leaseline/internal/server"
	"github.com/leaseline/leaseline/internal/team"
	"github.com/leaseline/leaseline/pkg/db"
	"github.com/leaseline/leaseline/pkg/redisconn"
	"go.uber.org/fx"
)

// newSnowflakeNode derives the worker number from the hostname so replicas
// in the same deployment generate disjoint IDs.
func newSnowflakeNode() (*snowflake.Node, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "leaseline"
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(hostname))
	return snowflake.NewNode(int64(h.Sum32() % 1024))
}

func main() {
	fx.New(
		config.Module,
		logger.Module,
		fx.Provide(newSnowflakeNode),
		clock.Module,
		db.Module,
		redisconn.Module,
		migration.Module,
		metrics.Module,
		phonenumber.Module,
		team.Module,
		program.Module,
		person.Module,
		party.Module,
		comm.Module,
		dedup.Module,
		queue.Module,
		notify.Module,
		ingest.Module,
		server.Module,
	).Run()
}
