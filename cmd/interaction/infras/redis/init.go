package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var rdb *goredis.Client

func Init(addr, password string, db int) error {
	rdb = goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	logrus.Infof("Connected to redis at %s", addr)
	return nil
}

func Close() {
	if rdb != nil {
		rdb.Close()
	}
}
