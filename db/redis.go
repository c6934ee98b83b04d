// api/db/redis.go
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
)

var RedisClient *redis.Client

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

// The cache is best effort: a process running without Redis (tests, local
// tools) gets misses and dropped writes, never errors.

func CacheEntry(ctx context.Context, entry *model.Entry) error {
	if RedisClient == nil {
		return nil
	}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	key := fmt.Sprintf("entry:%d", entry.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, entryJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache entry: %w", err)
	}

	logger.Debug("Entry cached successfully", zap.Int64("entryID", entry.ID))
	return nil
}

func GetCachedEntry(ctx context.Context, entryID int64) (*model.Entry, error) {
	if RedisClient == nil {
		return nil, nil
	}
	key := fmt.Sprintf("entry:%d", entryID)
	entryJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Entry not found in cache", zap.Int64("entryID", entryID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get entry from cache: %w", err)
	}

	var entry model.Entry
	err = json.Unmarshal([]byte(entryJSON), &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}

	logger.Debug("Entry retrieved from cache", zap.Int64("entryID", entryID))
	return &entry, nil
}

func DeleteCachedEntry(ctx context.Context, entryID int64) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("entry:%d", entryID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete entry from cache: %w", err)
	}
	logger.Debug("Entry deleted from cache", zap.Int64("entryID", entryID))
	return nil
}

func CacheFolder(ctx context.Context, folder *model.Folder) error {
	if RedisClient == nil {
		return nil
	}
	folderJSON, err := json.Marshal(folder)
	if err != nil {
		return fmt.Errorf("failed to marshal folder: %w", err)
	}

	key := fmt.Sprintf("folder:%s", folder.ID)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, folderJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache folder: %w", err)
	}

	logger.Debug("Folder cached successfully", zap.String("folderID", folder.ID))
	return nil
}

func GetCachedFolder(ctx context.Context, folderID string) (*model.Folder, error) {
	if RedisClient == nil {
		return nil, nil
	}
	key := fmt.Sprintf("folder:%s", folderID)
	folderJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Folder not found in cache", zap.String("folderID", folderID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get folder from cache: %w", err)
	}

	var folder model.Folder
	err = json.Unmarshal([]byte(folderJSON), &folder)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal folder: %w", err)
	}

	logger.Debug("Folder retrieved from cache", zap.String("folderID", folderID))
	return &folder, nil
}

func DeleteCachedFolder(ctx context.Context, folderID string) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("folder:%s", folderID)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete folder from cache: %w", err)
	}
	logger.Debug("Folder deleted from cache", zap.String("folderID", folderID))
	return nil
}

func CacheAccount(ctx context.Context, account *model.Account) error {
	if RedisClient == nil {
		return nil
	}
	accountJSON, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	key := fmt.Sprintf("account:%s", account.Email)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, accountJSON, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache account: %w", err)
	}

	logger.Debug("Account cached successfully", zap.String("email", account.Email))
	return nil
}

func GetCachedAccount(ctx context.Context, email string) (*model.Account, error) {
	if RedisClient == nil {
		return nil, nil
	}
	key := fmt.Sprintf("account:%s", email)
	accountJSON, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Account not found in cache", zap.String("email", email))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get account from cache: %w", err)
	}

	var account model.Account
	err = json.Unmarshal([]byte(accountJSON), &account)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	logger.Debug("Account retrieved from cache", zap.String("email", email))
	return &account, nil
}

func DeleteCachedAccount(ctx context.Context, email string) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("account:%s", email)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete account from cache: %w", err)
	}
	logger.Debug("Account deleted from cache", zap.String("email", email))
	return nil
}

func RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	pipe := RedisClient.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-(per.Nanoseconds())))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := cmds[2].(*redis.IntCmd).Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}

func LockResource(ctx context.Context, resourceName string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:%s", resourceName)
	locked, err := RedisClient.SetNX(ctx, key, "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	logger.Debug("Lock acquisition attempt",
		zap.String("resource", resourceName),
		zap.Bool("locked", locked))
	return locked, nil
}

func UnlockResource(ctx context.Context, resourceName string) error {
	key := fmt.Sprintf("lock:%s", resourceName)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	logger.Debug("Lock released", zap.String("resource", resourceName))
	return nil
}
