package config

import "time"

type config struct {
	Server   server   `yaml:"server" mapstructure:"server"`
	Mongo    mongo    `yaml:"mongo" mapstructure:"mongo"`
	Redis    redis    `yaml:"redis" mapstructure:"redis"`
	RabbitMq rabbitmq `yaml:"rabbitmq" mapstructure:"rabbitmq"`
	Minio    minio    `yaml:"minio" mapstructure:"minio"`
	Jwt      jwtConf  `yaml:"jwt" mapstructure:"jwt"`
	Query    query    `yaml:"query" mapstructure:"query"`
}

type server struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type mongo struct {
	Uri      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type rabbitmq struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type minio struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type jwtConf struct {
	Secret     string        `yaml:"secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
}

type query struct {
	MaxLimit     int64         `yaml:"max_limit"`
	MaxQueryTime time.Duration `yaml:"max_query_time"`
}
