package config

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"vidtube.com/pkg/constants"
)

var ConfigInfo config

func Init() {
	viper.SetConfigType("yaml")
	viper.SetConfigName("config.yml")

	configPaths := []string{
		"./config",
		"../config",
		"../../config",
		".",
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logrus.Errorf("config file not found: %v", err)
		} else {
			logrus.Errorf("config error: %v", err)
		}
		return
	}
	logrus.Infof("Successfully read config file: %s", viper.ConfigFileUsed())

	ConfigInfo.Server.Addr = viper.GetString("server.addr")
	ConfigInfo.Server.AllowOrigins = viper.GetStringSlice("server.allow_origins")

	ConfigInfo.Mongo.Uri = viper.GetString("mongo.uri")
	ConfigInfo.Mongo.Database = viper.GetString("mongo.database")

	ConfigInfo.Redis.Addr = viper.GetString("redis.addr")
	ConfigInfo.Redis.Password = viper.GetString("redis.password")
	ConfigInfo.Redis.DB = viper.GetInt("redis.db")

	ConfigInfo.RabbitMq.Addr = viper.GetString("rabbitmq.addr")
	ConfigInfo.RabbitMq.Username = viper.GetString("rabbitmq.username")
	ConfigInfo.RabbitMq.Password = viper.GetString("rabbitmq.password")

	ConfigInfo.Minio.Endpoint = viper.GetString("minio.endpoint")
	ConfigInfo.Minio.AccessKey = viper.GetString("minio.access_key")
	ConfigInfo.Minio.SecretKey = viper.GetString("minio.secret_key")
	ConfigInfo.Minio.Bucket = viper.GetString("minio.bucket")
	ConfigInfo.Minio.UseSSL = viper.GetBool("minio.use_ssl")

	ConfigInfo.Jwt.Secret = viper.GetString("jwt.secret")
	ConfigInfo.Jwt.AccessTTL = viper.GetDuration("jwt.access_ttl")
	ConfigInfo.Jwt.RefreshTTL = viper.GetDuration("jwt.refresh_ttl")

	ConfigInfo.Query.MaxLimit = viper.GetInt64("query.max_limit")
	ConfigInfo.Query.MaxQueryTime = viper.GetDuration("query.max_query_time")

	applyDefaults()
}

func applyDefaults() {
	if ConfigInfo.Server.Addr == "" {
		ConfigInfo.Server.Addr = "0.0.0.0:8888"
	}
	if ConfigInfo.Jwt.AccessTTL == 0 {
		ConfigInfo.Jwt.AccessTTL = time.Hour
	}
	if ConfigInfo.Jwt.RefreshTTL == 0 {
		ConfigInfo.Jwt.RefreshTTL = 7 * 24 * time.Hour
	}
	if ConfigInfo.Query.MaxLimit == 0 {
		ConfigInfo.Query.MaxLimit = constants.MaxPageSize
	}
	if ConfigInfo.Query.MaxQueryTime == 0 {
		ConfigInfo.Query.MaxQueryTime = constants.MaxQueryTime
	}
}
