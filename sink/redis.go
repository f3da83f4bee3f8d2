package sink

import (
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration // 0 means no expiry
}

// Redis stores each decoded stream under KeyPrefix + source name.
type Redis struct {
	client *redis.Client
	opts   *RedisOptions
	log    *logrus.Entry
}

func NewRedis(opts *RedisOptions) (*Redis, error) {
	if opts == nil || opts.Addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "unable to reach redis at '%s'", opts.Addr)
	}

	return &Redis{
		client: client,
		opts:   opts,
		log:    logrus.WithField("pkg", "sink"),
	}, nil
}

func (r *Redis) Write(name string, data []byte) error {
	key := r.opts.KeyPrefix + name

	r.log.WithField("method", "Write").Debugf("setting key '%s' (%d bytes)", key, len(data))

	if err := r.client.Set(key, data, r.opts.TTL).Err(); err != nil {
		return errors.Wrapf(err, "unable to set key '%s'", key)
	}

	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
