package main

import "sync"

type Config struct {
	LogMoves    bool `json:"log_moves"`
	MaxLookback int  `json:"max_lookback"`
}

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

func DefaultConfig() Config {
	return Config{
		LogMoves: false,
		// Hard cap on client-requested lookback; keeps /api/encode
		// responses bounded no matter how long the game runs.
		MaxLookback: 16,
	}
}

var configStore = &ConfigStore{config: DefaultConfig()}

func GetConfig() Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
}
