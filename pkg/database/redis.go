// Package database 管理外部存储客户端的初始化。
package database

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/Mrpixelraf/wine-advisor/pkg/log"
)

var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接，连接不通时直接终止进程。
func InitRedis(addr, password string, db int) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("连接 Redis 失败", err)
	}

	log.Info("Redis 客户端连接成功")
}
